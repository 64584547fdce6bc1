package service

import (
	"context"
	"testing"
	"time"

	"github.com/pressfwd/sourcedesk/internal/journalist/domain"
	"github.com/pquerna/otp/hotp"
	"github.com/pquerna/otp/totp"
	"github.com/stretchr/testify/require"
)

func totpCode(t *testing.T) string {
	t.Helper()
	code, err := totp.GenerateCode(testOTPSecret, time.Now())
	require.NoError(t, err)
	return code
}

func hotpCode(t *testing.T, counter uint64) string {
	t.Helper()
	code, err := hotp.GenerateCode(testOTPSecret, counter)
	require.NoError(t, err)
	return code
}

func TestAuthenticateTOTP(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)
	svc := &AuthService{Store: st}
	seedUser(t, st, "mallory", domain.OTPKindTOTP)

	t.Run("valid credentials", func(t *testing.T) {
		user, err := svc.Authenticate(ctx, "mallory", testPassword, totpCode(t))
		require.NoError(t, err)
		require.Equal(t, "mallory", user.Username)
		require.Zero(t, user.LoginAttempts)
		require.NotNil(t, user.LastAccessAt)
	})

	t.Run("unknown username", func(t *testing.T) {
		_, err := svc.Authenticate(ctx, "nobody", testPassword, totpCode(t))
		require.ErrorIs(t, err, ErrInvalidCredentials)
	})

	t.Run("wrong password records a durable failure", func(t *testing.T) {
		_, err := svc.Authenticate(ctx, "mallory", "wrong password!", totpCode(t))
		require.ErrorIs(t, err, ErrInvalidCredentials)

		stored, err := st.Users().GetUserByUsername(ctx, "mallory")
		require.NoError(t, err)
		require.Equal(t, 1, stored.LoginAttempts)
		require.NotNil(t, stored.LastAttemptAt)
	})

	t.Run("empty token", func(t *testing.T) {
		_, err := svc.Authenticate(ctx, "mallory", testPassword, "")
		require.ErrorIs(t, err, ErrInvalidCredentials)
	})

	t.Run("success clears accumulated failures", func(t *testing.T) {
		user, err := svc.Authenticate(ctx, "mallory", testPassword, totpCode(t))
		require.NoError(t, err)
		require.Zero(t, user.LoginAttempts)

		stored, err := st.Users().GetUserByUsername(ctx, "mallory")
		require.NoError(t, err)
		require.Zero(t, stored.LoginAttempts)
	})
}

func TestAuthenticateThrottle(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)
	seedUser(t, st, "mallory", domain.OTPKindTOTP)

	clock := time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)
	svc := &AuthService{
		Store:     st,
		Threshold: 3,
		Cooldown:  60 * time.Second,
		Now:       func() time.Time { return clock },
	}

	for range 3 {
		_, err := svc.Authenticate(ctx, "mallory", "wrong password!", totpCode(t))
		require.ErrorIs(t, err, ErrInvalidCredentials)
	}

	t.Run("correct credentials rejected during cooldown", func(t *testing.T) {
		clock = clock.Add(time.Second)

		_, err := svc.Authenticate(ctx, "mallory", testPassword, totpCode(t))
		var throttled *ThrottledError
		require.ErrorAs(t, err, &throttled)
		require.Greater(t, throttled.RetryAfter, time.Duration(0))
	})

	t.Run("throttled attempts do not extend the cooldown", func(t *testing.T) {
		stored, err := st.Users().GetUserByUsername(ctx, "mallory")
		require.NoError(t, err)
		require.Equal(t, 3, stored.LoginAttempts)
	})

	t.Run("window expiry restores access", func(t *testing.T) {
		clock = clock.Add(61 * time.Second)

		user, err := svc.Authenticate(ctx, "mallory", testPassword, totpCode(t))
		require.NoError(t, err)
		require.Zero(t, user.LoginAttempts)
	})
}

func TestAuthenticateHOTP(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)
	svc := &AuthService{Store: st}
	seedUser(t, st, "kelvin", domain.OTPKindHOTP)

	t.Run("token within look-ahead advances the counter", func(t *testing.T) {
		user, err := svc.Authenticate(ctx, "kelvin", testPassword, hotpCode(t, 3))
		require.NoError(t, err)
		require.Equal(t, uint64(3), user.HOTPCounter)

		stored, err := st.Users().GetUserByUsername(ctx, "kelvin")
		require.NoError(t, err)
		require.Equal(t, uint64(3), stored.HOTPCounter)
	})

	t.Run("replayed token is rejected", func(t *testing.T) {
		_, err := svc.Authenticate(ctx, "kelvin", testPassword, hotpCode(t, 3))
		require.ErrorIs(t, err, ErrInvalidCredentials)
	})

	t.Run("token past the look-ahead window is rejected", func(t *testing.T) {
		_, err := svc.Authenticate(ctx, "kelvin", testPassword, hotpCode(t, 3+hotpLookAhead+1))
		require.ErrorIs(t, err, ErrInvalidCredentials)
	})

	t.Run("token with spaces is accepted", func(t *testing.T) {
		code := hotpCode(t, 5)
		user, err := svc.Authenticate(ctx, "kelvin", testPassword, code[:3]+" "+code[3:])
		require.NoError(t, err)
		require.Equal(t, uint64(5), user.HOTPCounter)
	})
}
