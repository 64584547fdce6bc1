package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/pressfwd/sourcedesk/internal/journalist/designation"
	"github.com/pressfwd/sourcedesk/internal/journalist/domain"
	"github.com/pressfwd/sourcedesk/internal/journalist/storage"
	"github.com/pressfwd/sourcedesk/internal/journalist/store"
	"github.com/pressfwd/sourcedesk/internal/journalist/vault"
	"github.com/pressfwd/sourcedesk/internal/journalist/worker"
	"github.com/pressfwd/sourcedesk/pkg/cryptox"
	"github.com/pressfwd/sourcedesk/pkg/idx"
	"github.com/pressfwd/sourcedesk/pkg/slogx"
)

// designationAttempts bounds the retry loop when a freshly generated
// designation collides with a live source.
const designationAttempts = 50

// CollectionService manages source collections as a whole: listing, starring,
// flagging, designation rotation and the secure-deletion pipeline. Physical
// file work is handed to the dispatcher so requests never wait on disk
// overwrites.
type CollectionService struct {
	Store store.Store
	Vault *vault.Vault
	Files *storage.Store
	Tasks worker.Dispatcher
	Namer designation.Generator
}

// SourceSummary is a source decorated with the per-collection counters the
// index view needs.
type SourceSummary struct {
	domain.Source
	Starred     bool
	UnreadCount int
}

// Collection is the detail view of a single source.
type Collection struct {
	Source      domain.Source
	Starred     bool
	Submissions []domain.Submission
	Replies     []domain.Reply
}

// ListSources returns all non-pending sources, newest activity first, with
// their star state and unread submission counts.
func (s *CollectionService) ListSources(ctx context.Context) ([]SourceSummary, error) {
	sources, err := s.Store.Sources().ListSources(ctx)
	if err != nil {
		return nil, err
	}

	summaries := make([]SourceSummary, 0, len(sources))
	for _, src := range sources {
		unread, err := s.Store.Submissions().UnreadCount(ctx, src.ID)
		if err != nil {
			return nil, err
		}
		starred, err := s.starred(ctx, src.ID)
		if err != nil {
			return nil, err
		}
		summaries = append(summaries, SourceSummary{Source: src, Starred: starred, UnreadCount: unread})
	}
	return summaries, nil
}

// GetCollection loads a source with its submissions and replies.
func (s *CollectionService) GetCollection(ctx context.Context, fsID string) (Collection, error) {
	src, err := s.Store.Sources().GetSourceByFilesystemID(ctx, fsID)
	if err != nil {
		return Collection{}, err
	}

	subs, err := s.Store.Submissions().ListBySource(ctx, src.ID)
	if err != nil {
		return Collection{}, err
	}
	replies, err := s.Store.Replies().ListBySource(ctx, src.ID)
	if err != nil {
		return Collection{}, err
	}
	starred, err := s.starred(ctx, src.ID)
	if err != nil {
		return Collection{}, err
	}

	return Collection{Source: src, Starred: starred, Submissions: subs, Replies: replies}, nil
}

// CreateSource provisions a new collection: a unique designation, an opaque
// filesystem id and a reply keypair. Used by intake tooling and tests.
func (s *CollectionService) CreateSource(ctx context.Context) (domain.Source, error) {
	des, slug, err := s.freshDesignation(ctx)
	if err != nil {
		return domain.Source{}, err
	}

	fsID, err := cryptox.GenerateToken(16)
	if err != nil {
		return domain.Source{}, err
	}

	now := time.Now().UTC()
	src := domain.Source{
		ID:            idx.New().String(),
		FilesystemID:  fsID,
		Designation:   des,
		Slug:          slug,
		LastUpdatedAt: now,
	}

	// Keypair first: a source record without a reply key would make every
	// future reply fail, while an orphaned keypair is just destroyed again.
	if err := s.Vault.GenerateKeypair(fsID); err != nil {
		return domain.Source{}, err
	}
	if err := s.Store.Sources().CreateSource(ctx, src); err != nil {
		_ = s.Vault.DestroyKeypair(fsID)
		return domain.Source{}, err
	}
	return src, nil
}

// SetStar stars or unstars a collection. The star row is created lazily on
// the first star action for a source.
func (s *CollectionService) SetStar(ctx context.Context, fsID string, starred bool) error {
	src, err := s.Store.Sources().GetSourceByFilesystemID(ctx, fsID)
	if err != nil {
		return err
	}

	_, err = s.Store.Stars().GetStarBySource(ctx, src.ID)
	if errors.Is(err, store.ErrNotFound) {
		return s.Store.Stars().CreateStar(ctx, domain.Star{
			ID:       idx.New().String(),
			SourceID: src.ID,
			Starred:  starred,
		})
	}
	if err != nil {
		return err
	}
	return s.Store.Stars().UpdateStarred(ctx, src.ID, starred)
}

// SetFlagged marks or unmarks a collection as flagged for reply.
func (s *CollectionService) SetFlagged(ctx context.Context, fsID string, flagged bool) error {
	src, err := s.Store.Sources().GetSourceByFilesystemID(ctx, fsID)
	if err != nil {
		return err
	}
	return s.Store.Sources().SetFlagged(ctx, src.ID, flagged)
}

// Delete removes a collection end to end. The physical erasure runs in the
// background; the keypair is destroyed and the database record deleted before
// the call returns, so the collection is unreachable immediately even while
// bytes are still being overwritten.
func (s *CollectionService) Delete(ctx context.Context, fsID string) (worker.TaskHandle, error) {
	log := slogx.FromContext(ctx)

	src, err := s.Store.Sources().GetSourceByFilesystemID(ctx, fsID)
	if err != nil {
		return worker.TaskHandle{}, err
	}

	dir, err := s.Files.CollectionDir(src.FilesystemID)
	if err != nil {
		return worker.TaskHandle{}, err
	}

	handle := s.Tasks.Enqueue("collection_erase", func(ctx context.Context) error {
		return s.Files.SecureDeleteAll(dir)
	})

	if err := s.Vault.DestroyKeypair(src.FilesystemID); err != nil {
		return worker.TaskHandle{}, err
	}

	if err := s.Store.Sources().DeleteSource(ctx, src.ID); err != nil {
		return worker.TaskHandle{}, err
	}

	log.Info("collection deleted", "filesystem_id", src.FilesystemID, "task_id", handle.ID)
	return handle, nil
}

// DeleteSubmissions removes the named submissions from a collection. Physical
// unlinking is queued per file; the records disappear in one transaction.
// An empty selection is rejected before anything is touched.
func (s *CollectionService) DeleteSubmissions(ctx context.Context, fsID string, filenames []string) ([]worker.TaskHandle, error) {
	if len(filenames) == 0 {
		return nil, ErrEmptySelection
	}

	src, err := s.Store.Sources().GetSourceByFilesystemID(ctx, fsID)
	if err != nil {
		return nil, err
	}

	subs := make([]domain.Submission, 0, len(filenames))
	paths := make([]string, 0, len(filenames))
	for _, name := range filenames {
		sub, err := s.Store.Submissions().GetBySourceAndFilename(ctx, src.ID, name)
		if err != nil {
			return nil, err
		}
		path, err := s.Files.Path(src.FilesystemID, sub.Filename)
		if err != nil {
			return nil, err
		}
		subs = append(subs, sub)
		paths = append(paths, path)
	}

	handles := make([]worker.TaskHandle, 0, len(paths))
	for _, path := range paths {
		p := path
		handles = append(handles, s.Tasks.Enqueue("submission_erase", func(ctx context.Context) error {
			return s.Files.SecureUnlink(p)
		}))
	}

	err = s.Store.WithTx(ctx, func(tx store.Tx) error {
		for _, sub := range subs {
			if err := tx.Submissions().DeleteSubmission(ctx, sub.ID); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	slogx.FromContext(ctx).Info("submissions deleted",
		"filesystem_id", src.FilesystemID, "count", len(subs))
	return handles, nil
}

// Rename rotates the collection's designation, either to the caller-supplied
// name or to a freshly generated one when newDesignation is empty. Every
// stored submission file is renamed to carry the new slug while keeping its
// sequence number and suffix, then the records are rewritten in one
// transaction. If anything fails partway the completed file renames are
// reverted.
func (s *CollectionService) Rename(ctx context.Context, fsID, newDesignation string) (domain.Source, error) {
	src, err := s.Store.Sources().GetSourceByFilesystemID(ctx, fsID)
	if err != nil {
		return domain.Source{}, err
	}

	newDesignation = strings.Join(strings.Fields(newDesignation), " ")

	var des, slug string
	if newDesignation != "" {
		if !designation.Valid(newDesignation) {
			return domain.Source{}, &ValidationError{Field: "designation", Reason: "please use letters and spaces only"}
		}
		des = newDesignation
		slug = designation.Slugify(newDesignation)
		taken, err := s.Store.Sources().DesignationInUse(ctx, des)
		if err != nil {
			return domain.Source{}, err
		}
		if taken {
			return domain.Source{}, store.ErrAlreadyExists
		}
	} else if des, slug, err = s.freshDesignation(ctx); err != nil {
		return domain.Source{}, err
	}

	subs, err := s.Store.Submissions().ListBySource(ctx, src.ID)
	if err != nil {
		return domain.Source{}, err
	}

	type renamed struct {
		oldPath, newPath string
		subID, newName   string
	}

	done := make([]renamed, 0, len(subs))
	revert := func() {
		for i := len(done) - 1; i >= 0; i-- {
			_ = s.Files.Rename(done[i].newPath, done[i].oldPath)
		}
	}

	for _, sub := range subs {
		name, err := domain.ParseSubmissionName(sub.Filename)
		if err != nil {
			revert()
			return domain.Source{}, fmt.Errorf("rename %s: %w", sub.ID, err)
		}
		newName := name.WithSlug(slug)

		oldPath, err := s.Files.Path(src.FilesystemID, sub.Filename)
		if err != nil {
			revert()
			return domain.Source{}, err
		}
		newPath, err := s.Files.Path(src.FilesystemID, newName)
		if err != nil {
			revert()
			return domain.Source{}, err
		}

		if err := s.Files.Rename(oldPath, newPath); err != nil {
			revert()
			return domain.Source{}, fmt.Errorf("rename %s: %w", sub.Filename, err)
		}
		done = append(done, renamed{oldPath: oldPath, newPath: newPath, subID: sub.ID, newName: newName})
	}

	err = s.Store.WithTx(ctx, func(tx store.Tx) error {
		if err := tx.Sources().UpdateDesignation(ctx, src.ID, des, slug); err != nil {
			return err
		}
		for _, r := range done {
			if err := tx.Submissions().UpdateFilename(ctx, r.subID, r.newName); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		revert()
		return domain.Source{}, err
	}

	slogx.FromContext(ctx).Info("collection renamed", "filesystem_id", src.FilesystemID)

	src.Designation = des
	src.Slug = slug
	return src, nil
}

func (s *CollectionService) freshDesignation(ctx context.Context) (string, string, error) {
	for range designationAttempts {
		des, slug, err := s.Namer.Generate()
		if err != nil {
			return "", "", err
		}
		taken, err := s.Store.Sources().DesignationInUse(ctx, des)
		if err != nil {
			return "", "", err
		}
		if !taken {
			return des, slug, nil
		}
	}
	return "", "", errors.New("designation space exhausted")
}

func (s *CollectionService) starred(ctx context.Context, sourceID string) (bool, error) {
	star, err := s.Store.Stars().GetStarBySource(ctx, sourceID)
	if errors.Is(err, store.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return star.Starred, nil
}
