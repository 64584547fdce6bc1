package sqlite

import (
	"context"
	"database/sql"
	"time"

	"github.com/pressfwd/sourcedesk/internal/journalist/domain"
)

type repliesRepo struct {
	q dbtx
}

func (r *repliesRepo) CreateReply(ctx context.Context, reply domain.Reply) error {
	at := reply.CreatedAt
	if at.IsZero() {
		at = time.Now().UTC()
	}
	_, err := r.q.ExecContext(ctx, `
		INSERT INTO replies (id, journalist_id, source_id, filename, created_at)
		VALUES (?, ?, ?, ?, ?)`,
		reply.ID, reply.JournalistID, reply.SourceID, reply.Filename, at,
	)
	return mapConstraint(err)
}

func (r *repliesRepo) ListBySource(ctx context.Context, sourceID string) ([]domain.Reply, error) {
	rows, err := r.q.QueryContext(ctx, `
		SELECT id, journalist_id, source_id, filename, created_at
		FROM replies WHERE source_id = ? ORDER BY created_at`, sourceID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var replies []domain.Reply
	for rows.Next() {
		var (
			reply        domain.Reply
			journalistID sql.NullString
		)
		if err := rows.Scan(&reply.ID, &journalistID, &reply.SourceID, &reply.Filename, &reply.CreatedAt); err != nil {
			return nil, err
		}
		// Journalist may have been deleted since; the reply survives.
		reply.JournalistID = journalistID.String
		replies = append(replies, reply)
	}
	return replies, rows.Err()
}
