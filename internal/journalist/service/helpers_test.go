package service

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/pressfwd/sourcedesk/internal/journalist/designation"
	"github.com/pressfwd/sourcedesk/internal/journalist/domain"
	"github.com/pressfwd/sourcedesk/internal/journalist/storage"
	"github.com/pressfwd/sourcedesk/internal/journalist/store"
	"github.com/pressfwd/sourcedesk/internal/journalist/store/drivers/sqlite"
	"github.com/pressfwd/sourcedesk/internal/journalist/vault"
	"github.com/pressfwd/sourcedesk/internal/journalist/worker"
	"github.com/pressfwd/sourcedesk/pkg/cryptox"
	"github.com/pressfwd/sourcedesk/pkg/idx"
	"github.com/stretchr/testify/require"
)

// Shared base32 secret for second-factor fixtures ("12345678901234567890").
const testOTPSecret = "GEZDGNBVGY3TQOJQGEZDGNBVGY3TQOJQ"

const testPassword = "correct horse battery staple"

func newTestStore(t *testing.T) store.Store {
	t.Helper()

	st, err := sqlite.NewStore(filepath.Join(t.TempDir(), "journalist.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	require.NoError(t, st.ApplyMigrations())
	return st
}

func newTestVault(t *testing.T) *vault.Vault {
	t.Helper()

	v, err := vault.New(vault.Config{KeysDir: t.TempDir(), KeyBits: 1024})
	require.NoError(t, err)
	return v
}

func newTestFiles(t *testing.T) *storage.Store {
	t.Helper()

	files, err := storage.New(t.TempDir())
	require.NoError(t, err)
	return files
}

func seedUser(t *testing.T, st store.Store, username string, kind domain.OTPKind) domain.User {
	t.Helper()

	hash, err := cryptox.HashPassword(testPassword)
	require.NoError(t, err)

	user := domain.User{
		ID:           idx.New().String(),
		Username:     username,
		PasswordHash: hash,
		OTPSecret:    testOTPSecret,
		OTPKind:      kind,
	}
	require.NoError(t, st.Users().CreateUser(context.Background(), user))
	return user
}

func seedSource(t *testing.T, st store.Store, v *vault.Vault, designationName, slug string) domain.Source {
	t.Helper()

	src := domain.Source{
		ID:            idx.New().String(),
		FilesystemID:  "fs_" + slug,
		Designation:   designationName,
		Slug:          slug,
		LastUpdatedAt: time.Now().UTC(),
	}
	require.NoError(t, st.Sources().CreateSource(context.Background(), src))
	if v != nil {
		require.NoError(t, v.GenerateKeypair(src.FilesystemID))
	}
	return src
}

func seedSubmission(t *testing.T, st store.Store, files *storage.Store, src domain.Source, filename string, downloaded bool) domain.Submission {
	t.Helper()

	sub := domain.Submission{
		ID:         idx.New().String(),
		SourceID:   src.ID,
		Filename:   filename,
		Downloaded: downloaded,
		CreatedAt:  time.Now().UTC(),
	}
	require.NoError(t, st.Submissions().CreateSubmission(context.Background(), sub))

	if files != nil {
		path, err := files.Path(src.FilesystemID, filename)
		require.NoError(t, err)
		require.NoError(t, files.WriteFile(path, []byte("ciphertext: "+filename)))
	}
	return sub
}

// fixedNamer hands out a scripted sequence of designations.
type fixedNamer struct {
	pairs [][2]string
	next  int
}

func (f *fixedNamer) Generate() (string, string, error) {
	p := f.pairs[f.next%len(f.pairs)]
	f.next++
	return p[0], p[1], nil
}

var _ designation.Generator = (*fixedNamer)(nil)

// syncTasks runs enqueued work inline, so tests observe its effects
// immediately.
type syncTasks struct{}

func (syncTasks) Enqueue(kind string, fn worker.TaskFunc) worker.TaskHandle {
	done := make(chan struct{})
	_ = fn(context.Background())
	close(done)
	return worker.TaskHandle{ID: kind, Kind: kind, Done: done}
}

var _ worker.Dispatcher = syncTasks{}
