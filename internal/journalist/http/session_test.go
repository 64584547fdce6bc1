package http

import (
	"testing"
	"time"

	"github.com/pressfwd/sourcedesk/internal/journalist/domain"
	"github.com/stretchr/testify/require"
)

func TestSessionRoundTrip(t *testing.T) {
	t.Parallel()

	sessions := NewSessions([]byte("test-secret"), "sourcedesk", time.Hour)
	user := domain.User{ID: "user-1", Username: "mallory", IsAdmin: true}

	token, expiresAt, err := sessions.Issue(user)
	require.NoError(t, err)
	require.True(t, expiresAt.After(time.Now()))

	userID, isAdmin, err := sessions.Verify(token)
	require.NoError(t, err)
	require.Equal(t, "user-1", userID)
	require.True(t, isAdmin)
}

func TestSessionRejectsTampering(t *testing.T) {
	t.Parallel()

	sessions := NewSessions([]byte("test-secret"), "sourcedesk", time.Hour)
	token, _, err := sessions.Issue(domain.User{ID: "user-1"})
	require.NoError(t, err)

	t.Run("garbage token", func(t *testing.T) {
		_, _, err := sessions.Verify("not.a.jwt")
		require.ErrorIs(t, err, ErrInvalidSession)
	})

	t.Run("flipped payload byte", func(t *testing.T) {
		mangled := []byte(token)
		mangled[len(mangled)/2] ^= 0x01
		_, _, err := sessions.Verify(string(mangled))
		require.ErrorIs(t, err, ErrInvalidSession)
	})

	t.Run("wrong secret", func(t *testing.T) {
		other := NewSessions([]byte("other-secret"), "sourcedesk", time.Hour)
		_, _, err := other.Verify(token)
		require.ErrorIs(t, err, ErrInvalidSession)
	})

	t.Run("wrong issuer", func(t *testing.T) {
		other := NewSessions([]byte("test-secret"), "elsewhere", time.Hour)
		_, _, err := other.Verify(token)
		require.ErrorIs(t, err, ErrInvalidSession)
	})
}

func TestSessionExpiry(t *testing.T) {
	t.Parallel()

	sessions := NewSessions([]byte("test-secret"), "sourcedesk", time.Nanosecond)
	token, _, err := sessions.Issue(domain.User{ID: "user-1"})
	require.NoError(t, err)

	time.Sleep(10 * time.Millisecond)

	_, _, err = sessions.Verify(token)
	require.ErrorIs(t, err, ErrInvalidSession)
}
