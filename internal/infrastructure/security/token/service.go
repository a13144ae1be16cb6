// Package token issues and verifies HS256 bearer tokens.
//
// Tokens are stateless: verification checks the signature and the expiry
// against the clock and never touches the user directory.
package token

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/artistsnetwork/identity/internal/core/domain"
)

var (
	ErrMalformed        = errors.New("token: malformed")
	ErrInvalidSignature = errors.New("token: invalid signature")
	ErrExpired          = errors.New("token: expired")
	ErrEmptySecret      = errors.New("token: signing secret must not be empty")
	ErrInvalidTTL       = errors.New("token: ttl must be positive")
)

// claims is the token payload: sub, iat and exp plus the role name.
type claims struct {
	jwt.RegisteredClaims
	Role string `json:"role"`
}

// Service implements ports.TokenService.
type Service struct {
	secret []byte
	now    func() time.Time
}

// Option configures a Service.
type Option func(*Service)

// WithClock replaces time.Now, for tests.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// NewService returns a Service signing with secret. The secret is copied
// and never modified afterwards.
func NewService(secret []byte, opts ...Option) (*Service, error) {
	if len(secret) == 0 {
		return nil, ErrEmptySecret
	}
	s := &Service{
		secret: append([]byte(nil), secret...),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Issue returns a signed token for userID and role that expires after ttl.
func (s *Service) Issue(userID string, role domain.Role, ttl time.Duration) (string, error) {
	if userID == "" || !role.Valid() {
		return "", fmt.Errorf("%w: user id and role are required", ErrMalformed)
	}
	if ttl <= 0 {
		return "", ErrInvalidTTL
	}

	now := s.now()
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
		Role: role.String(),
	})

	signed, err := t.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("token: sign: %w", err)
	}
	return signed, nil
}

// Verify checks the token's signature and expiry and returns the embedded
// user id and role. The signature is checked first, so a forged expired
// token reports ErrInvalidSignature.
func (s *Service) Verify(tokenString string) (string, domain.Role, error) {
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)

	var c claims
	if _, err := parser.ParseWithClaims(tokenString, &c, s.keyFunc); err != nil {
		return "", 0, mapError(err)
	}

	if c.Subject == "" {
		return "", 0, fmt.Errorf("%w: missing subject", ErrMalformed)
	}
	role, err := domain.ParseRole(c.Role)
	if err != nil {
		return "", 0, fmt.Errorf("%w: unknown role", ErrMalformed)
	}
	return c.Subject, role, nil
}

func (s *Service) keyFunc(*jwt.Token) (any, error) {
	return s.secret, nil
}

// mapError translates jwt library errors into this package's sentinels.
func mapError(err error) error {
	switch {
	case errors.Is(err, jwt.ErrTokenSignatureInvalid):
		return fmt.Errorf("%w: %w", ErrInvalidSignature, err)
	case errors.Is(err, jwt.ErrTokenExpired):
		return fmt.Errorf("%w: %w", ErrExpired, err)
	default:
		return fmt.Errorf("%w: %w", ErrMalformed, err)
	}
}
