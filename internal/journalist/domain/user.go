package domain

import "time"

// OTPKind selects the second-factor verification algorithm for a user.
type OTPKind string

const (
	// OTPKindTOTP verifies time-based codes.
	OTPKindTOTP OTPKind = "totp"
	// OTPKindHOTP verifies event-based (counter) codes.
	OTPKindHOTP OTPKind = "hotp"
)

// Password length bounds enforced when setting or changing a password.
const (
	MinPasswordLen = 12
	MaxPasswordLen = 128
)

type User struct {
	ID            string
	Username      string
	PasswordHash  string // argon2 encoded
	OTPSecret     string // base32 encoded shared secret
	OTPKind       OTPKind
	HOTPCounter   uint64 // only meaningful when OTPKind is hotp
	IsAdmin       bool
	LoginAttempts int
	LastAttemptAt *time.Time // last failed login (nullable)
	LastAccessAt  *time.Time // last successful login (nullable)
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// IsTOTP reports whether the user verifies time-based tokens.
func (u User) IsTOTP() bool { return u.OTPKind != OTPKindHOTP }
