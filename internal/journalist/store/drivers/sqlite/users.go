package sqlite

import (
	"context"
	"database/sql"
	"time"

	"github.com/pressfwd/sourcedesk/internal/journalist/domain"
)

type usersRepo struct {
	q dbtx
}

const userColumns = `id, username, password_hash, otp_secret, otp_kind, hotp_counter,
	is_admin, login_attempts, last_attempt_at, last_access_at, created_at, updated_at`

func scanUser(row interface{ Scan(dest ...any) error }) (domain.User, error) {
	var (
		u             domain.User
		kind          string
		lastAttemptAt sql.NullTime
		lastAccessAt  sql.NullTime
	)
	err := row.Scan(
		&u.ID, &u.Username, &u.PasswordHash, &u.OTPSecret, &kind, &u.HOTPCounter,
		&u.IsAdmin, &u.LoginAttempts, &lastAttemptAt, &lastAccessAt,
		&u.CreatedAt, &u.UpdatedAt,
	)
	if err != nil {
		return domain.User{}, err
	}
	u.OTPKind = domain.OTPKind(kind)
	u.LastAttemptAt = mapNullTimePtr(lastAttemptAt)
	u.LastAccessAt = mapNullTimePtr(lastAccessAt)
	return u, nil
}

func (r *usersRepo) GetUserByID(ctx context.Context, id string) (domain.User, error) {
	u, err := scanUser(r.q.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = ?`, id))
	if err != nil {
		return domain.User{}, mapNotFound(err)
	}
	return u, nil
}

func (r *usersRepo) GetUserByUsername(ctx context.Context, username string) (domain.User, error) {
	u, err := scanUser(r.q.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE username = ?`, username))
	if err != nil {
		return domain.User{}, mapNotFound(err)
	}
	return u, nil
}

func (r *usersRepo) ListUsers(ctx context.Context) ([]domain.User, error) {
	rows, err := r.q.QueryContext(ctx,
		`SELECT `+userColumns+` FROM users ORDER BY username`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []domain.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

func (r *usersRepo) CreateUser(ctx context.Context, u domain.User) error {
	now := time.Now().UTC()
	_, err := r.q.ExecContext(ctx, `
		INSERT INTO users (id, username, password_hash, otp_secret, otp_kind, hotp_counter,
			is_admin, login_attempts, last_attempt_at, last_access_at, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, 0, NULL, NULL, ?, ?)`,
		u.ID, u.Username, u.PasswordHash, u.OTPSecret, string(u.OTPKind), u.HOTPCounter,
		u.IsAdmin, now, now,
	)
	return mapConstraint(err)
}

func (r *usersRepo) UpdateUsername(ctx context.Context, userID, username string) error {
	_, err := r.q.ExecContext(ctx,
		`UPDATE users SET username = ?, updated_at = ? WHERE id = ?`,
		username, time.Now().UTC(), userID)
	return mapConstraint(err)
}

func (r *usersRepo) UpdatePasswordHash(ctx context.Context, userID, newHash string) error {
	_, err := r.q.ExecContext(ctx,
		`UPDATE users SET password_hash = ?, updated_at = ? WHERE id = ?`,
		newHash, time.Now().UTC(), userID)
	return err
}

func (r *usersRepo) SetAdmin(ctx context.Context, userID string, isAdmin bool) error {
	_, err := r.q.ExecContext(ctx,
		`UPDATE users SET is_admin = ?, updated_at = ? WHERE id = ?`,
		isAdmin, time.Now().UTC(), userID)
	return err
}

func (r *usersRepo) UpdateOTP(ctx context.Context, userID, secret string, kind domain.OTPKind, counter uint64) error {
	_, err := r.q.ExecContext(ctx,
		`UPDATE users SET otp_secret = ?, otp_kind = ?, hotp_counter = ?, updated_at = ? WHERE id = ?`,
		secret, string(kind), counter, time.Now().UTC(), userID)
	return err
}

func (r *usersRepo) AdvanceHOTPCounter(ctx context.Context, userID string, counter uint64) error {
	_, err := r.q.ExecContext(ctx,
		`UPDATE users SET hotp_counter = ?, updated_at = ? WHERE id = ?`,
		counter, time.Now().UTC(), userID)
	return err
}

func (r *usersRepo) RecordLoginFailure(ctx context.Context, userID string, at time.Time) error {
	_, err := r.q.ExecContext(ctx,
		`UPDATE users SET login_attempts = login_attempts + 1, last_attempt_at = ?, updated_at = ? WHERE id = ?`,
		at.UTC(), time.Now().UTC(), userID)
	return err
}

func (r *usersRepo) ResetLoginFailures(ctx context.Context, userID string, accessAt time.Time) error {
	_, err := r.q.ExecContext(ctx,
		`UPDATE users SET login_attempts = 0, last_access_at = ?, updated_at = ? WHERE id = ?`,
		accessAt.UTC(), time.Now().UTC(), userID)
	return err
}

func (r *usersRepo) DeleteUser(ctx context.Context, userID string) error {
	_, err := r.q.ExecContext(ctx, `DELETE FROM users WHERE id = ?`, userID)
	return err
}

func (r *usersRepo) IsEmpty(ctx context.Context) (bool, error) {
	var count int64
	if err := r.q.QueryRowContext(ctx, `SELECT COUNT(*) FROM users`).Scan(&count); err != nil {
		return false, err
	}
	return count == 0, nil
}
