package service

import (
	"context"
	"encoding/base32"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/pressfwd/sourcedesk/internal/journalist/domain"
	"github.com/pressfwd/sourcedesk/internal/journalist/store"
	"github.com/pressfwd/sourcedesk/pkg/cryptox"
	"github.com/pressfwd/sourcedesk/pkg/idx"
	"github.com/pquerna/otp/hotp"
	"github.com/pquerna/otp/totp"
)

// hotpEncoding stores event-based secrets the way the OTP library expects
// them: uppercase base32 without padding.
var hotpEncoding = base32.StdEncoding.WithPadding(base32.NoPadding)

// AccountService manages journalist accounts: creation, password changes and
// second-factor resets. All of it is administrator- or self-initiated CRUD;
// the interesting invariants (password bounds, secret format) live here.
type AccountService struct {
	Store  store.Store
	Issuer string // TOTP issuer shown in authenticator apps
}

// CreateUser provisions a new journalist. When hotpSecretHex is non-empty the
// user is event-based and the secret must be an even-length hex string;
// otherwise a fresh time-based secret is generated.
func (s *AccountService) CreateUser(ctx context.Context, username, password, passwordAgain string, isAdmin bool, hotpSecretHex string) (domain.User, error) {
	if strings.TrimSpace(username) == "" {
		return domain.User{}, &ValidationError{Field: "username", Reason: "missing username"}
	}
	if err := checkPassword(password, passwordAgain); err != nil {
		return domain.User{}, err
	}

	secret, kind, err := s.newSecret(username, hotpSecretHex)
	if err != nil {
		return domain.User{}, err
	}

	hash, err := cryptox.HashPassword(password)
	if err != nil {
		return domain.User{}, err
	}

	user := domain.User{
		ID:           idx.New().String(),
		Username:     strings.TrimSpace(username),
		PasswordHash: hash,
		OTPSecret:    secret,
		OTPKind:      kind,
		IsAdmin:      isAdmin,
	}

	if err := s.Store.Users().CreateUser(ctx, user); err != nil {
		return domain.User{}, err
	}
	return user, nil
}

// UpdatePassword validates and sets a new password for the user.
func (s *AccountService) UpdatePassword(ctx context.Context, userID, password, passwordAgain string) error {
	if err := checkPassword(password, passwordAgain); err != nil {
		return err
	}

	hash, err := cryptox.HashPassword(password)
	if err != nil {
		return err
	}
	return s.Store.Users().UpdatePasswordHash(ctx, userID, hash)
}

// SetUsername renames a user. Duplicates surface as store.ErrAlreadyExists.
func (s *AccountService) SetUsername(ctx context.Context, userID, username string) error {
	username = strings.TrimSpace(username)
	if username == "" {
		return &ValidationError{Field: "username", Reason: "missing username"}
	}
	return s.Store.Users().UpdateUsername(ctx, userID, username)
}

// SetAdmin flips the administrative flag.
func (s *AccountService) SetAdmin(ctx context.Context, userID string, isAdmin bool) error {
	return s.Store.Users().SetAdmin(ctx, userID, isAdmin)
}

// DeleteUser removes an account. Replies the journalist sent are preserved.
func (s *AccountService) DeleteUser(ctx context.Context, userID string) error {
	if _, err := s.Store.Users().GetUserByID(ctx, userID); err != nil {
		return err
	}
	return s.Store.Users().DeleteUser(ctx, userID)
}

// ResetTOTP regenerates a time-based secret, switching the user to totp.
func (s *AccountService) ResetTOTP(ctx context.Context, userID string) (domain.User, error) {
	user, err := s.Store.Users().GetUserByID(ctx, userID)
	if err != nil {
		return domain.User{}, err
	}

	key, err := totp.Generate(totp.GenerateOpts{
		Issuer:      s.issuer(),
		AccountName: user.Username,
	})
	if err != nil {
		return domain.User{}, fmt.Errorf("generate totp secret: %w", err)
	}

	if err := s.Store.Users().UpdateOTP(ctx, userID, key.Secret(), domain.OTPKindTOTP, 0); err != nil {
		return domain.User{}, err
	}

	user.OTPSecret = key.Secret()
	user.OTPKind = domain.OTPKindTOTP
	user.HOTPCounter = 0
	return user, nil
}

// ResetHOTP installs an operator-supplied event-based secret, entered as hex,
// and resets the counter.
func (s *AccountService) ResetHOTP(ctx context.Context, userID, secretHex string) (domain.User, error) {
	user, err := s.Store.Users().GetUserByID(ctx, userID)
	if err != nil {
		return domain.User{}, err
	}

	secret, err := decodeHOTPSecret(secretHex)
	if err != nil {
		return domain.User{}, err
	}

	if err := s.Store.Users().UpdateOTP(ctx, userID, secret, domain.OTPKindHOTP, 0); err != nil {
		return domain.User{}, err
	}

	user.OTPSecret = secret
	user.OTPKind = domain.OTPKindHOTP
	user.HOTPCounter = 0
	return user, nil
}

// VerifyToken confirms a user's enrolled device by checking a single token.
// Unlike login, a successful event-based check here advances the counter too,
// so enrollment consumes the token it verified.
func (s *AccountService) VerifyToken(ctx context.Context, userID, token string) (bool, error) {
	user, err := s.Store.Users().GetUserByID(ctx, userID)
	if err != nil {
		return false, err
	}

	token = strings.ReplaceAll(strings.TrimSpace(token), " ", "")
	if user.OTPKind == domain.OTPKindHOTP {
		for i := uint64(1); i <= hotpLookAhead; i++ {
			if hotp.Validate(token, user.HOTPCounter+i, user.OTPSecret) {
				return true, s.Store.Users().AdvanceHOTPCounter(ctx, userID, user.HOTPCounter+i)
			}
		}
		return false, nil
	}

	return totp.Validate(token, user.OTPSecret), nil
}

// GetUser fetches a user by id.
func (s *AccountService) GetUser(ctx context.Context, userID string) (domain.User, error) {
	return s.Store.Users().GetUserByID(ctx, userID)
}

// ListUsers returns all accounts for the admin index.
func (s *AccountService) ListUsers(ctx context.Context) ([]domain.User, error) {
	return s.Store.Users().ListUsers(ctx)
}

func (s *AccountService) issuer() string {
	if s.Issuer != "" {
		return s.Issuer
	}
	return "sourcedesk"
}

func (s *AccountService) newSecret(username, hotpSecretHex string) (string, domain.OTPKind, error) {
	if strings.TrimSpace(hotpSecretHex) != "" {
		secret, err := decodeHOTPSecret(hotpSecretHex)
		if err != nil {
			return "", "", err
		}
		return secret, domain.OTPKindHOTP, nil
	}

	key, err := totp.Generate(totp.GenerateOpts{
		Issuer:      s.issuer(),
		AccountName: strings.TrimSpace(username),
	})
	if err != nil {
		return "", "", fmt.Errorf("generate totp secret: %w", err)
	}
	return key.Secret(), domain.OTPKindTOTP, nil
}

// decodeHOTPSecret converts an operator-entered hex secret into the stored
// base32 form, rejecting odd-length and non-hexadecimal input separately so
// the operator can tell a typo from a truncated paste.
func decodeHOTPSecret(secretHex string) (string, error) {
	clean := strings.ReplaceAll(strings.TrimSpace(secretHex), " ", "")
	if len(clean)%2 != 0 {
		return "", &ValidationError{Field: "otp_secret", Reason: "odd-length secret"}
	}

	raw, err := hex.DecodeString(clean)
	if err != nil {
		return "", &ValidationError{Field: "otp_secret", Reason: "please only submit letters A-F and numbers 0-9"}
	}
	return hotpEncoding.EncodeToString(raw), nil
}

func checkPassword(password, passwordAgain string) error {
	if password != passwordAgain {
		return ErrPasswordMismatch
	}
	if len(password) < domain.MinPasswordLen || len(password) > domain.MaxPasswordLen {
		return ErrInvalidPasswordLength
	}
	return nil
}
