package service

import (
	"context"
	"fmt"
	"time"

	"github.com/pressfwd/sourcedesk/internal/journalist/domain"
	"github.com/pressfwd/sourcedesk/internal/journalist/storage"
	"github.com/pressfwd/sourcedesk/internal/journalist/store"
	"github.com/pressfwd/sourcedesk/pkg/slogx"
)

// archiveStamp is the timestamp layout embedded in bulk archive names.
const archiveStamp = "2006-01-02--15-04-05"

// ExportService builds bulk download archives and keeps the downloaded
// bookkeeping honest: submissions are marked downloaded in one transaction,
// and only once the archive actually exists.
type ExportService struct {
	Store store.Store
	Files *storage.Store

	// Now overrides the clock in tests. Nil means time.Now.
	Now func() time.Time
}

func (s *ExportService) now() time.Time {
	if s.Now != nil {
		return s.Now().UTC()
	}
	return time.Now().UTC()
}

// ExportUnread archives every not-yet-downloaded submission across the given
// collections. Collections with nothing unread contribute nothing; if the
// whole selection is empty no archive is built.
func (s *ExportService) ExportUnread(ctx context.Context, fsIDs []string) (string, error) {
	return s.exportCollections(ctx, fsIDs, "unread", s.Store.Submissions().ListUnreadBySource)
}

// ExportAll archives every submission of the given collections, downloaded
// or not.
func (s *ExportService) ExportAll(ctx context.Context, fsIDs []string) (string, error) {
	return s.exportCollections(ctx, fsIDs, "all", s.Store.Submissions().ListBySource)
}

// ExportSelected archives named submissions from a single collection. The
// archive is named after the collection's slug.
func (s *ExportService) ExportSelected(ctx context.Context, fsID string, filenames []string) (string, error) {
	if len(filenames) == 0 {
		return "", ErrEmptySelection
	}

	src, err := s.Store.Sources().GetSourceByFilesystemID(ctx, fsID)
	if err != nil {
		return "", err
	}

	subs := make([]domain.Submission, 0, len(filenames))
	for _, name := range filenames {
		sub, err := s.Store.Submissions().GetBySourceAndFilename(ctx, src.ID, name)
		if err != nil {
			return "", err
		}
		subs = append(subs, sub)
	}

	paths, err := s.resolve(src.FilesystemID, subs)
	if err != nil {
		return "", err
	}
	return s.archiveAndMark(ctx, src.Slug, paths, ids(subs))
}

// DownloadSubmission resolves a single submission for direct download and
// marks it downloaded.
func (s *ExportService) DownloadSubmission(ctx context.Context, fsID, filename string) (string, error) {
	src, err := s.Store.Sources().GetSourceByFilesystemID(ctx, fsID)
	if err != nil {
		return "", err
	}
	sub, err := s.Store.Submissions().GetBySourceAndFilename(ctx, src.ID, filename)
	if err != nil {
		return "", err
	}
	path, err := s.Files.Path(src.FilesystemID, sub.Filename)
	if err != nil {
		return "", err
	}
	if err := s.Store.Submissions().MarkDownloaded(ctx, []string{sub.ID}); err != nil {
		return "", err
	}
	return path, nil
}

func (s *ExportService) exportCollections(ctx context.Context, fsIDs []string, basename string,
	list func(ctx context.Context, sourceID string) ([]domain.Submission, error)) (string, error) {

	if len(fsIDs) == 0 {
		return "", ErrEmptySelection
	}

	var paths []string
	var subIDs []string
	for _, fsID := range fsIDs {
		src, err := s.Store.Sources().GetSourceByFilesystemID(ctx, fsID)
		if err != nil {
			return "", err
		}
		subs, err := list(ctx, src.ID)
		if err != nil {
			return "", err
		}
		resolved, err := s.resolve(src.FilesystemID, subs)
		if err != nil {
			return "", err
		}
		paths = append(paths, resolved...)
		subIDs = append(subIDs, ids(subs)...)
	}

	if len(paths) == 0 {
		return "", ErrEmptySelection
	}
	return s.archiveAndMark(ctx, basename, paths, subIDs)
}

// archiveAndMark builds the archive first and flips the downloaded flags in a
// single transaction afterwards. A failed archive leaves every flag as it was.
func (s *ExportService) archiveAndMark(ctx context.Context, basename string, paths, subIDs []string) (string, error) {
	archiveName := fmt.Sprintf("%s--%s.zip", basename, s.now().Format(archiveStamp))

	out, err := s.Files.Archive(paths, basename, archiveName)
	if err != nil {
		return "", err
	}

	err = s.Store.WithTx(ctx, func(tx store.Tx) error {
		return tx.Submissions().MarkDownloaded(ctx, subIDs)
	})
	if err != nil {
		return "", err
	}

	slogx.FromContext(ctx).Info("export built", "archive", archiveName, "files", len(paths))
	return out, nil
}

func (s *ExportService) resolve(fsID string, subs []domain.Submission) ([]string, error) {
	paths := make([]string, 0, len(subs))
	for _, sub := range subs {
		p, err := s.Files.Path(fsID, sub.Filename)
		if err != nil {
			return nil, err
		}
		paths = append(paths, p)
	}
	return paths, nil
}

func ids(subs []domain.Submission) []string {
	out := make([]string, 0, len(subs))
	for _, sub := range subs {
		out = append(out, sub.ID)
	}
	return out
}
