package ports

import (
	"context"

	"github.com/artistsnetwork/identity/internal/core/domain"
)

// RegistrationInput is the raw registration payload handed over by the
// transport layer.
type RegistrationInput struct {
	FirstName       string `json:"firstname"        validate:"required"`
	LastName        string `json:"lastname"         validate:"required"`
	Username        string `json:"username"         validate:"required"`
	Email           string `json:"email"            validate:"required,email"`
	Password        string `json:"password"         validate:"required"`
	PasswordConfirm string `json:"password_confirm" validate:"required"`
	Phone           string `json:"phone"            validate:"required"`
	Address         string `json:"address"          validate:"required"`
	Role            string `json:"role"             validate:"required"`
}

type RegistrationService interface {
	Register(ctx context.Context, in RegistrationInput) (*domain.PublicUser, error)
}

type AuthService interface {
	Login(ctx context.Context, email, password string) (string, error)
	// Authenticate verifies the value of an Authorization header.
	Authenticate(ctx context.Context, authorization string) (domain.Identity, error)
	Authorize(id domain.Identity, required domain.Role) error
}

type UserService interface {
	ListUsers(ctx context.Context) ([]domain.PublicUser, error)
}
