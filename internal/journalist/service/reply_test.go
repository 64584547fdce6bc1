package service

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/pressfwd/sourcedesk/internal/journalist/domain"
	"github.com/pressfwd/sourcedesk/internal/journalist/vault"
	"github.com/pressfwd/sourcedesk/pkg/idx"
	"github.com/stretchr/testify/require"
)

func newReplyService(t *testing.T) *ReplyService {
	t.Helper()
	return &ReplyService{
		Store: newTestStore(t),
		Vault: newTestVault(t),
		Files: newTestFiles(t),
	}
}

func TestSendReply(t *testing.T) {
	ctx := context.Background()
	svc := newReplyService(t)

	journalist := seedUser(t, svc.Store, "mallory", domain.OTPKindTOTP)
	src := seedSource(t, svc.Store, svc.Vault, "Dour Bicycle", "dour_bicycle")

	reply, err := svc.Send(ctx, journalist.ID, src.FilesystemID, "meet me at the docks")
	require.NoError(t, err)
	require.Equal(t, "1-dour_bicycle-reply.gpg", reply.Filename)

	t.Run("artifact is encrypted on disk", func(t *testing.T) {
		path, err := svc.Files.Path(src.FilesystemID, reply.Filename)
		require.NoError(t, err)

		ciphertext, err := os.ReadFile(path)
		require.NoError(t, err)
		require.NotContains(t, string(ciphertext), "docks")

		plaintext, err := svc.Vault.Decrypt(ciphertext, src.FilesystemID)
		require.NoError(t, err)
		require.Equal(t, "meet me at the docks", string(plaintext))
	})

	t.Run("interaction counter advanced", func(t *testing.T) {
		current, err := svc.Store.Sources().GetSourceByFilesystemID(ctx, src.FilesystemID)
		require.NoError(t, err)
		require.Equal(t, 1, current.InteractionCount)
	})

	t.Run("sequence continues across replies", func(t *testing.T) {
		second, err := svc.Send(ctx, journalist.ID, src.FilesystemID, "follow-up")
		require.NoError(t, err)
		require.Equal(t, "2-dour_bicycle-reply.gpg", second.Filename)
	})

	t.Run("history", func(t *testing.T) {
		replies, err := svc.History(ctx, src.FilesystemID)
		require.NoError(t, err)
		require.Len(t, replies, 2)
		require.Equal(t, journalist.ID, replies[0].JournalistID)
	})

	t.Run("stored timestamp is the caller's", func(t *testing.T) {
		at := time.Date(2024, 5, 4, 3, 2, 1, 0, time.UTC)
		stamped := domain.Reply{
			ID:           idx.New().String(),
			JournalistID: journalist.ID,
			SourceID:     src.ID,
			Filename:     "3-dour_bicycle-reply.gpg",
			CreatedAt:    at,
		}
		require.NoError(t, svc.Store.Replies().CreateReply(ctx, stamped))

		replies, err := svc.History(ctx, src.FilesystemID)
		require.NoError(t, err)
		require.Len(t, replies, 3)
		require.Equal(t, stamped.ID, replies[0].ID)
		require.True(t, replies[0].CreatedAt.Equal(at))
	})
}

func TestSendReplyRejectsBlankMessage(t *testing.T) {
	ctx := context.Background()
	svc := newReplyService(t)

	journalist := seedUser(t, svc.Store, "mallory", domain.OTPKindTOTP)
	src := seedSource(t, svc.Store, svc.Vault, "Dour Bicycle", "dour_bicycle")

	for _, msg := range []string{"", "   ", "\n\t"} {
		_, err := svc.Send(ctx, journalist.ID, src.FilesystemID, msg)
		var verr *ValidationError
		require.ErrorAs(t, err, &verr)
	}

	current, err := svc.Store.Sources().GetSourceByFilesystemID(ctx, src.FilesystemID)
	require.NoError(t, err)
	require.Zero(t, current.InteractionCount)
}

func TestSendReplyRollsBackOnEncryptionFailure(t *testing.T) {
	ctx := context.Background()
	svc := newReplyService(t)

	journalist := seedUser(t, svc.Store, "mallory", domain.OTPKindTOTP)
	// No keypair for this collection, so encryption cannot succeed.
	src := seedSource(t, svc.Store, nil, "Dour Bicycle", "dour_bicycle")

	_, err := svc.Send(ctx, journalist.ID, src.FilesystemID, "message")
	require.ErrorIs(t, err, vault.ErrNoKey)

	current, err := svc.Store.Sources().GetSourceByFilesystemID(ctx, src.FilesystemID)
	require.NoError(t, err)
	require.Zero(t, current.InteractionCount)

	replies, err := svc.History(ctx, src.FilesystemID)
	require.NoError(t, err)
	require.Empty(t, replies)
}
