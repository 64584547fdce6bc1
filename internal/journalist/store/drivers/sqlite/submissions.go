package sqlite

import (
	"context"
	"strings"
	"time"

	"github.com/pressfwd/sourcedesk/internal/journalist/domain"
)

type submissionsRepo struct {
	q dbtx
}

const submissionColumns = `id, source_id, filename, downloaded, created_at`

func scanSubmission(row interface{ Scan(dest ...any) error }) (domain.Submission, error) {
	var s domain.Submission
	err := row.Scan(&s.ID, &s.SourceID, &s.Filename, &s.Downloaded, &s.CreatedAt)
	if err != nil {
		return domain.Submission{}, err
	}
	return s, nil
}

func (r *submissionsRepo) list(ctx context.Context, query string, args ...any) ([]domain.Submission, error) {
	rows, err := r.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var subs []domain.Submission
	for rows.Next() {
		s, err := scanSubmission(rows)
		if err != nil {
			return nil, err
		}
		subs = append(subs, s)
	}
	return subs, rows.Err()
}

func (r *submissionsRepo) ListBySource(ctx context.Context, sourceID string) ([]domain.Submission, error) {
	return r.list(ctx,
		`SELECT `+submissionColumns+` FROM submissions WHERE source_id = ? ORDER BY filename`,
		sourceID)
}

func (r *submissionsRepo) ListUnreadBySource(ctx context.Context, sourceID string) ([]domain.Submission, error) {
	return r.list(ctx,
		`SELECT `+submissionColumns+` FROM submissions WHERE source_id = ? AND downloaded = 0 ORDER BY filename`,
		sourceID)
}

func (r *submissionsRepo) GetBySourceAndFilename(ctx context.Context, sourceID, filename string) (domain.Submission, error) {
	s, err := scanSubmission(r.q.QueryRowContext(ctx,
		`SELECT `+submissionColumns+` FROM submissions WHERE source_id = ? AND filename = ?`,
		sourceID, filename))
	if err != nil {
		return domain.Submission{}, mapNotFound(err)
	}
	return s, nil
}

func (r *submissionsRepo) CreateSubmission(ctx context.Context, sub domain.Submission) error {
	_, err := r.q.ExecContext(ctx, `
		INSERT INTO submissions (id, source_id, filename, downloaded, created_at)
		VALUES (?, ?, ?, ?, ?)`,
		sub.ID, sub.SourceID, sub.Filename, sub.Downloaded, time.Now().UTC(),
	)
	return mapConstraint(err)
}

func (r *submissionsRepo) UpdateFilename(ctx context.Context, submissionID, filename string) error {
	_, err := r.q.ExecContext(ctx,
		`UPDATE submissions SET filename = ? WHERE id = ?`, filename, submissionID)
	return mapConstraint(err)
}

func (r *submissionsRepo) MarkDownloaded(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}

	placeholders := strings.Repeat("?,", len(ids))
	placeholders = placeholders[:len(placeholders)-1]

	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}

	_, err := r.q.ExecContext(ctx,
		`UPDATE submissions SET downloaded = 1 WHERE id IN (`+placeholders+`)`, args...)
	return err
}

func (r *submissionsRepo) DeleteSubmission(ctx context.Context, submissionID string) error {
	_, err := r.q.ExecContext(ctx, `DELETE FROM submissions WHERE id = ?`, submissionID)
	return err
}

func (r *submissionsRepo) UnreadCount(ctx context.Context, sourceID string) (int, error) {
	var count int
	err := r.q.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM submissions WHERE source_id = ? AND downloaded = 0`,
		sourceID).Scan(&count)
	return count, err
}
