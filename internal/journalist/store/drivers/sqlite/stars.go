package sqlite

import (
	"context"

	"github.com/pressfwd/sourcedesk/internal/journalist/domain"
)

type starsRepo struct {
	q dbtx
}

func (r *starsRepo) GetStarBySource(ctx context.Context, sourceID string) (domain.Star, error) {
	var s domain.Star
	err := r.q.QueryRowContext(ctx,
		`SELECT id, source_id, starred FROM source_stars WHERE source_id = ?`,
		sourceID).Scan(&s.ID, &s.SourceID, &s.Starred)
	if err != nil {
		return domain.Star{}, mapNotFound(err)
	}
	return s, nil
}

func (r *starsRepo) CreateStar(ctx context.Context, star domain.Star) error {
	_, err := r.q.ExecContext(ctx,
		`INSERT INTO source_stars (id, source_id, starred) VALUES (?, ?, ?)`,
		star.ID, star.SourceID, star.Starred)
	return mapConstraint(err)
}

func (r *starsRepo) UpdateStarred(ctx context.Context, sourceID string, starred bool) error {
	_, err := r.q.ExecContext(ctx,
		`UPDATE source_stars SET starred = ? WHERE source_id = ?`, starred, sourceID)
	return err
}
