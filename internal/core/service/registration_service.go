package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"github.com/artistsnetwork/identity/internal/core/domain"
	"github.com/artistsnetwork/identity/internal/core/ports"
	"github.com/artistsnetwork/identity/internal/pkg/metrics"
)

const defaultMinPasswordLength = 8

// PasswordPolicy bounds acceptable password lengths. MinLength counts
// characters; MaxLength counts bytes, as bcrypt does, and zero means no upper
// bound.
type PasswordPolicy struct {
	MinLength int
	MaxLength int
}

// RegistrationService validates registration payloads and writes new users.
type RegistrationService struct {
	dir      ports.UserDirectory
	hasher   ports.CredentialHasher
	policy   PasswordPolicy
	validate *validator.Validate
	log      zerolog.Logger
	now      func() time.Time
}

func NewRegistrationService(dir ports.UserDirectory, hasher ports.CredentialHasher, policy PasswordPolicy, log zerolog.Logger) *RegistrationService {
	if policy.MinLength <= 0 {
		policy.MinLength = defaultMinPasswordLength
	}
	return &RegistrationService{
		dir:      dir,
		hasher:   hasher,
		policy:   policy,
		validate: newValidator(),
		log:      log,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// Register creates a user from in. Input checks run in a fixed order so the
// first failing rule decides the message.
func (s *RegistrationService) Register(ctx context.Context, in ports.RegistrationInput) (*domain.PublicUser, error) {
	in = normalizeInput(in)

	role, err := s.check(in)
	if err != nil {
		s.record(err)
		return nil, err
	}

	if _, err := s.dir.FindByEmail(ctx, in.Email, true); err == nil {
		s.record(domain.ErrUserExists)
		return nil, domain.ErrUserExists
	} else if !errors.Is(err, domain.ErrUserNotFound) {
		s.record(err)
		return nil, fmt.Errorf("lookup email: %w", err)
	}

	hash, err := s.hasher.Hash(ctx, in.Password)
	if err != nil {
		s.record(err)
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := &domain.User{
		FirstName:    in.FirstName,
		LastName:     in.LastName,
		Username:     in.Username,
		Email:        in.Email,
		PasswordHash: hash,
		Phone:        in.Phone,
		Address:      in.Address,
		Role:         role,
		CreatedAt:    s.now(),
	}

	created, err := s.dir.InsertUnique(ctx, user)
	if err != nil {
		if errors.Is(err, domain.ErrDuplicateKey) {
			s.record(domain.ErrUserExists)
			return nil, domain.ErrUserExists
		}
		s.record(err)
		return nil, fmt.Errorf("insert user: %w", err)
	}

	metrics.RegistrationsTotal.WithLabelValues("created").Inc()
	s.log.Info().
		Str("user_id", created.ID).
		Str("username", created.Username).
		Str("role", created.Role.String()).
		Msg("user registered")

	view := created.Public()
	return &view, nil
}

// normalizeInput trims every text field so whitespace-only values fail the
// required check. Passwords are kept verbatim.
func normalizeInput(in ports.RegistrationInput) ports.RegistrationInput {
	in.FirstName = strings.TrimSpace(in.FirstName)
	in.LastName = strings.TrimSpace(in.LastName)
	in.Username = strings.TrimSpace(in.Username)
	in.Email = domain.NormalizeEmail(in.Email)
	in.Phone = strings.TrimSpace(in.Phone)
	in.Address = strings.TrimSpace(in.Address)
	in.Role = strings.TrimSpace(in.Role)
	return in
}

func (s *RegistrationService) check(in ports.RegistrationInput) (domain.Role, error) {
	if err := validateStruct(s.validate, in); err != nil {
		return 0, err
	}
	if utf8.RuneCountInString(in.Password) < s.policy.MinLength {
		return 0, domain.ErrPasswordTooShort
	}
	if s.policy.MaxLength > 0 && len(in.Password) > s.policy.MaxLength {
		return 0, domain.ErrPasswordTooLong
	}
	if in.Password != in.PasswordConfirm {
		return 0, domain.ErrPasswordMismatch
	}
	return domain.ParseRole(in.Role)
}

func (s *RegistrationService) record(err error) {
	result := "error"
	switch domain.KindOf(err) {
	case domain.KindValidation:
		result = "invalid"
	case domain.KindConflict:
		result = "conflict"
	}
	metrics.RegistrationsTotal.WithLabelValues(result).Inc()
}
