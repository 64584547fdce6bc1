package sqlite

import (
	"context"
	"time"

	"github.com/pressfwd/sourcedesk/internal/journalist/domain"
	"github.com/pressfwd/sourcedesk/internal/journalist/store"
)

type sourcesRepo struct {
	q dbtx
}

const sourceColumns = `id, filesystem_id, designation, slug, flagged, pending,
	interaction_count, last_updated_at, created_at`

func scanSource(row interface{ Scan(dest ...any) error }) (domain.Source, error) {
	var s domain.Source
	err := row.Scan(
		&s.ID, &s.FilesystemID, &s.Designation, &s.Slug, &s.Flagged, &s.Pending,
		&s.InteractionCount, &s.LastUpdatedAt, &s.CreatedAt,
	)
	if err != nil {
		return domain.Source{}, err
	}
	return s, nil
}

func (r *sourcesRepo) GetSourceByID(ctx context.Context, id string) (domain.Source, error) {
	s, err := scanSource(r.q.QueryRowContext(ctx,
		`SELECT `+sourceColumns+` FROM sources WHERE id = ?`, id))
	if err != nil {
		return domain.Source{}, mapNotFound(err)
	}
	return s, nil
}

func (r *sourcesRepo) GetSourceByFilesystemID(ctx context.Context, fsID string) (domain.Source, error) {
	s, err := scanSource(r.q.QueryRowContext(ctx,
		`SELECT `+sourceColumns+` FROM sources WHERE filesystem_id = ?`, fsID))
	if err != nil {
		return domain.Source{}, mapNotFound(err)
	}
	return s, nil
}

func (r *sourcesRepo) ListSources(ctx context.Context) ([]domain.Source, error) {
	rows, err := r.q.QueryContext(ctx,
		`SELECT `+sourceColumns+` FROM sources WHERE pending = 0 ORDER BY last_updated_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sources []domain.Source
	for rows.Next() {
		s, err := scanSource(rows)
		if err != nil {
			return nil, err
		}
		sources = append(sources, s)
	}
	return sources, rows.Err()
}

func (r *sourcesRepo) CreateSource(ctx context.Context, s domain.Source) error {
	now := time.Now().UTC()
	last := s.LastUpdatedAt
	if last.IsZero() {
		last = now
	}
	_, err := r.q.ExecContext(ctx, `
		INSERT INTO sources (id, filesystem_id, designation, slug, flagged, pending,
			interaction_count, last_updated_at, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		s.ID, s.FilesystemID, s.Designation, s.Slug, s.Flagged, s.Pending,
		s.InteractionCount, last, now,
	)
	return mapConstraint(err)
}

func (r *sourcesRepo) DesignationInUse(ctx context.Context, designation string) (bool, error) {
	var count int64
	err := r.q.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM sources WHERE designation = ?`, designation).Scan(&count)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *sourcesRepo) UpdateDesignation(ctx context.Context, sourceID, designation, slug string) error {
	_, err := r.q.ExecContext(ctx,
		`UPDATE sources SET designation = ?, slug = ? WHERE id = ?`,
		designation, slug, sourceID)
	return mapConstraint(err)
}

func (r *sourcesRepo) SetFlagged(ctx context.Context, sourceID string, flagged bool) error {
	_, err := r.q.ExecContext(ctx,
		`UPDATE sources SET flagged = ? WHERE id = ?`, flagged, sourceID)
	return err
}

func (r *sourcesRepo) IncrementInteractionCount(ctx context.Context, sourceID string) (int, error) {
	res, err := r.q.ExecContext(ctx,
		`UPDATE sources SET interaction_count = interaction_count + 1 WHERE id = ?`, sourceID)
	if err != nil {
		return 0, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}
	if n == 0 {
		return 0, store.ErrNotFound
	}

	var count int
	err = r.q.QueryRowContext(ctx,
		`SELECT interaction_count FROM sources WHERE id = ?`, sourceID).Scan(&count)
	if err != nil {
		return 0, mapNotFound(err)
	}
	return count, nil
}

func (r *sourcesRepo) TouchLastUpdated(ctx context.Context, sourceID string, at time.Time) error {
	_, err := r.q.ExecContext(ctx,
		`UPDATE sources SET last_updated_at = ? WHERE id = ?`, at.UTC(), sourceID)
	return err
}

func (r *sourcesRepo) DeleteSource(ctx context.Context, sourceID string) error {
	_, err := r.q.ExecContext(ctx, `DELETE FROM sources WHERE id = ?`, sourceID)
	return err
}
