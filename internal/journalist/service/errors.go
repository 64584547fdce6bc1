package service

import (
	"errors"
	"fmt"
	"time"
)

// Sentinel errors shared across services. Handlers map these to user-facing
// notifications; anything else is reported generically and logged with its
// classification only.
var (
	// ErrInvalidCredentials covers unknown usernames, bad passwords and bad
	// tokens alike so the user-visible message cannot enumerate accounts.
	ErrInvalidCredentials = errors.New("invalid_credentials")

	// ErrEmptySelection reports a bulk action that resolved to nothing.
	ErrEmptySelection = errors.New("empty_selection")

	// ErrPasswordMismatch reports a password/confirmation pair that differ.
	ErrPasswordMismatch = errors.New("password_mismatch")

	// ErrInvalidPasswordLength reports a password outside the allowed bounds.
	ErrInvalidPasswordLength = errors.New("invalid_password_length")
)

// ValidationError reports rejected input with a specific, non-sensitive
// reason. No state is mutated when one is returned.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed on %s: %s", e.Field, e.Reason)
}

// ThrottledError rejects an authentication attempt during the cooldown window
// without consuming a verification attempt.
type ThrottledError struct {
	RetryAfter time.Duration
}

func (e *ThrottledError) Error() string {
	return fmt.Sprintf("too many failed attempts, retry in %s", e.RetryAfter.Round(time.Second))
}
