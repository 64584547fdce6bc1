package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/pressfwd/sourcedesk/internal/journalist/domain"
	"github.com/pressfwd/sourcedesk/internal/journalist/storage"
	"github.com/pressfwd/sourcedesk/internal/journalist/store"
	"github.com/pressfwd/sourcedesk/internal/journalist/vault"
	"github.com/pressfwd/sourcedesk/pkg/idx"
	"github.com/pressfwd/sourcedesk/pkg/slogx"
)

// ReplyService dispatches encrypted replies to sources. Reply records are
// immutable once stored; plaintext never reaches a log or the database.
type ReplyService struct {
	Store store.Store
	Vault *vault.Vault
	Files *storage.Store
}

// Send encrypts plaintext to the collection's key and records the reply. The
// interaction counter, the encrypted artifact and the reply record move
// together: if any step fails, the counter increment is rolled back and no
// record is kept. Logs carry the failure classification and the actors only,
// never reply content.
func (s *ReplyService) Send(ctx context.Context, journalistID, fsID, plaintext string) (domain.Reply, error) {
	log := slogx.FromContext(ctx)

	if strings.TrimSpace(plaintext) == "" {
		return domain.Reply{}, &ValidationError{Field: "reply", Reason: "empty message"}
	}

	src, err := s.Store.Sources().GetSourceByFilesystemID(ctx, fsID)
	if err != nil {
		return domain.Reply{}, err
	}

	var reply domain.Reply
	err = s.Store.WithTx(ctx, func(tx store.Tx) error {
		count, err := tx.Sources().IncrementInteractionCount(ctx, src.ID)
		if err != nil {
			return err
		}

		filename := domain.ReplyFilename(count, src.Slug)
		path, err := s.Files.Path(src.FilesystemID, filename)
		if err != nil {
			return err
		}
		if err := s.Vault.Encrypt([]byte(plaintext), src.FilesystemID, path); err != nil {
			return err
		}

		reply = domain.Reply{
			ID:           idx.New().String(),
			JournalistID: journalistID,
			SourceID:     src.ID,
			Filename:     filename,
			CreatedAt:    time.Now().UTC(),
		}
		if err := tx.Replies().CreateReply(ctx, reply); err != nil {
			return err
		}
		return tx.Sources().TouchLastUpdated(ctx, src.ID, reply.CreatedAt)
	})
	if err != nil {
		log.Error("reply dispatch failed",
			"journalist_id", journalistID,
			"filesystem_id", fsID,
			"error_type", fmt.Sprintf("%T", err))
		return domain.Reply{}, err
	}

	log.Info("reply dispatched", "journalist_id", journalistID, "filesystem_id", fsID)
	return reply, nil
}

// History lists the replies previously sent to a collection.
func (s *ReplyService) History(ctx context.Context, fsID string) ([]domain.Reply, error) {
	src, err := s.Store.Sources().GetSourceByFilesystemID(ctx, fsID)
	if err != nil {
		return nil, err
	}
	return s.Store.Replies().ListBySource(ctx, src.ID)
}
