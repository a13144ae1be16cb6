package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/artistsnetwork/identity/internal/core/domain"
	"github.com/artistsnetwork/identity/internal/core/ports"
	"github.com/artistsnetwork/identity/internal/pkg/metrics"
)

const (
	defaultTokenTTL = 24 * time.Hour
	bearerScheme    = "Bearer"
)

// AuthService logs users in and checks the tokens they present.
type AuthService struct {
	dir      ports.UserDirectory
	hasher   ports.CredentialHasher
	tokens   ports.TokenService
	throttle ports.LoginThrottle
	tokenTTL time.Duration
	log      zerolog.Logger
}

// NewAuthService wires the login flow. throttle may be nil, in which case
// failed logins are not limited.
func NewAuthService(
	dir ports.UserDirectory,
	hasher ports.CredentialHasher,
	tokens ports.TokenService,
	throttle ports.LoginThrottle,
	tokenTTL time.Duration,
	log zerolog.Logger,
) *AuthService {
	if tokenTTL <= 0 {
		tokenTTL = defaultTokenTTL
	}
	return &AuthService{
		dir:      dir,
		hasher:   hasher,
		tokens:   tokens,
		throttle: throttle,
		tokenTTL: tokenTTL,
		log:      log,
	}
}

func (s *AuthService) Login(ctx context.Context, email, password string) (string, error) {
	email = domain.NormalizeEmail(email)
	if email == "" || password == "" {
		metrics.LoginsTotal.WithLabelValues("invalid").Inc()
		return "", domain.ErrMissingCredentials
	}

	if !s.allowed(ctx, email) {
		metrics.LoginsTotal.WithLabelValues("throttled").Inc()
		return "", domain.ErrTooManyAttempts
	}

	user, err := s.dir.FindByEmail(ctx, email, true)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			metrics.LoginsTotal.WithLabelValues("not_found").Inc()
			return "", domain.ErrUserNotFound
		}
		metrics.LoginsTotal.WithLabelValues("error").Inc()
		return "", fmt.Errorf("lookup user: %w", err)
	}

	ok, err := s.hasher.Verify(ctx, password, user.PasswordHash)
	if err != nil {
		metrics.LoginsTotal.WithLabelValues("error").Inc()
		return "", fmt.Errorf("verify password for user %s: %w", user.ID, err)
	}
	if !ok {
		metrics.LoginsTotal.WithLabelValues("bad_password").Inc()
		s.recordFailure(ctx, email)
		return "", domain.ErrInvalidCredentials
	}

	s.resetFailures(ctx, email)

	token, err := s.tokens.Issue(user.ID, user.Role, s.tokenTTL)
	if err != nil {
		metrics.LoginsTotal.WithLabelValues("error").Inc()
		return "", fmt.Errorf("issue token: %w", err)
	}

	metrics.LoginsTotal.WithLabelValues("success").Inc()
	s.log.Info().Str("user_id", user.ID).Msg("user logged in")
	return token, nil
}

// Authenticate resolves an Authorization header value into an identity.
// Every failure other than an absent header is reported as
// domain.ErrUnauthorized; the specific reason is only logged.
func (s *AuthService) Authenticate(_ context.Context, authorization string) (domain.Identity, error) {
	authorization = strings.TrimSpace(authorization)
	if authorization == "" {
		return domain.Identity{}, domain.ErrMissingToken
	}

	scheme, raw, found := strings.Cut(authorization, " ")
	raw = strings.TrimSpace(raw)
	if !found || !strings.EqualFold(scheme, bearerScheme) || raw == "" {
		s.log.Debug().Msg("authorization header is not a bearer token")
		return domain.Identity{}, domain.ErrUnauthorized
	}

	userID, role, err := s.tokens.Verify(raw)
	if err != nil {
		s.log.Debug().Err(err).Msg("token rejected")
		return domain.Identity{}, domain.ErrUnauthorized
	}
	return domain.Identity{UserID: userID, Role: role}, nil
}

// Authorize reports domain.ErrForbidden when id's role does not satisfy
// required.
func (s *AuthService) Authorize(id domain.Identity, required domain.Role) error {
	if !id.Role.Satisfies(required) {
		return domain.ErrForbidden
	}
	return nil
}

// allowed consults the throttle. Backend failures are logged and the login
// proceeds.
func (s *AuthService) allowed(ctx context.Context, email string) bool {
	if s.throttle == nil {
		return true
	}
	ok, err := s.throttle.Allow(ctx, email)
	if err != nil {
		s.log.Warn().Err(err).Msg("login throttle unavailable")
		return true
	}
	return ok
}

func (s *AuthService) recordFailure(ctx context.Context, email string) {
	if s.throttle == nil {
		return
	}
	if err := s.throttle.RecordFailure(ctx, email); err != nil {
		s.log.Warn().Err(err).Msg("record failed login")
	}
}

func (s *AuthService) resetFailures(ctx context.Context, email string) {
	if s.throttle == nil {
		return
	}
	if err := s.throttle.Reset(ctx, email); err != nil {
		s.log.Warn().Err(err).Msg("reset failed logins")
	}
}
