package ports

import (
	"context"
	"time"

	"github.com/artistsnetwork/identity/internal/core/domain"
)

// CredentialHasher hashes and verifies passwords.
type CredentialHasher interface {
	Hash(ctx context.Context, plaintext string) (string, error)
	// Verify reports (false, nil) on mismatch and an error only when the
	// stored hash cannot be used.
	Verify(ctx context.Context, plaintext, hash string) (bool, error)
}

// TokenService issues and verifies bearer tokens.
type TokenService interface {
	Issue(userID string, role domain.Role, ttl time.Duration) (string, error)
	Verify(token string) (userID string, role domain.Role, err error)
}

// LoginThrottle counts failed logins per key.
type LoginThrottle interface {
	Allow(ctx context.Context, key string) (bool, error)
	RecordFailure(ctx context.Context, key string) error
	Reset(ctx context.Context, key string) error
}
