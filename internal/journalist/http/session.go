package http

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/pressfwd/sourcedesk/internal/journalist/domain"
	"github.com/pressfwd/sourcedesk/pkg/idx"
)

// ErrInvalidSession reports a session token that failed verification for any
// reason (bad signature, expired, wrong issuer).
var ErrInvalidSession = errors.New("invalid session token")

// Sessions issues and verifies the HS256 bearer tokens that authenticate
// API requests after login.
type Sessions struct {
	secret []byte
	issuer string
	ttl    time.Duration
}

func NewSessions(secret []byte, issuer string, ttl time.Duration) *Sessions {
	if ttl <= 0 {
		ttl = 2 * time.Hour
	}
	return &Sessions{secret: secret, issuer: issuer, ttl: ttl}
}

type sessionClaims struct {
	Admin bool `json:"adm"`
	jwt.RegisteredClaims
}

// Issue mints a session token for an authenticated user.
func (s *Sessions) Issue(user domain.User) (string, time.Time, error) {
	now := time.Now()
	exp := now.Add(s.ttl)

	claims := sessionClaims{
		Admin: user.IsAdmin,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    s.issuer,
			Subject:   user.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
			ID:        idx.New().String(),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign session token: %w", err)
	}
	return signed, exp, nil
}

// Verify checks a bearer token and returns the authenticated identity.
func (s *Sessions) Verify(token string) (userID string, isAdmin bool, err error) {
	claims := &sessionClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims,
		func(t *jwt.Token) (any, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
			}
			return s.secret, nil
		},
		jwt.WithIssuer(s.issuer),
		jwt.WithExpirationRequired(),
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
	)
	if err != nil || !parsed.Valid || claims.Subject == "" {
		return "", false, ErrInvalidSession
	}
	return claims.Subject, claims.Admin, nil
}
