package ports

import (
	"context"

	"github.com/artistsnetwork/identity/internal/core/domain"
)

// UserDirectory is the persistent user store.
type UserDirectory interface {
	// InsertUnique stores user and returns it with its assigned ID. It returns
	// domain.ErrDuplicateKey, atomically, when the email or username is taken.
	InsertUnique(ctx context.Context, user *domain.User) (*domain.User, error)
	// FindByEmail returns domain.ErrUserNotFound when no record matches.
	FindByEmail(ctx context.Context, email string, caseInsensitive bool) (*domain.User, error)
	ListAll(ctx context.Context) ([]*domain.User, error)
}
