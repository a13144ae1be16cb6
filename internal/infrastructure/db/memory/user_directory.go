// Package memory provides a thread-safe in-memory UserDirectory for tests
// and local development.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/artistsnetwork/identity/internal/core/domain"
)

// UserDirectory implements ports.UserDirectory.
type UserDirectory struct {
	mu         sync.RWMutex
	byID       map[string]*domain.User
	byEmail    map[string]string // lowercased email -> id
	byUsername map[string]string
}

func NewUserDirectory() *UserDirectory {
	return &UserDirectory{
		byID:       make(map[string]*domain.User),
		byEmail:    make(map[string]string),
		byUsername: make(map[string]string),
	}
}

// InsertUnique checks both unique keys and stores the user under one lock.
func (d *UserDirectory) InsertUnique(_ context.Context, user *domain.User) (*domain.User, error) {
	emailKey := strings.ToLower(user.Email)

	d.mu.Lock()
	defer d.mu.Unlock()

	if _, taken := d.byEmail[emailKey]; taken {
		return nil, domain.ErrDuplicateKey
	}
	if _, taken := d.byUsername[user.Username]; taken {
		return nil, domain.ErrDuplicateKey
	}

	stored := cloneUser(user)
	stored.ID = uuid.NewString()
	d.byID[stored.ID] = stored
	d.byEmail[emailKey] = stored.ID
	d.byUsername[stored.Username] = stored.ID
	return cloneUser(stored), nil
}

func (d *UserDirectory) FindByEmail(_ context.Context, email string, caseInsensitive bool) (*domain.User, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	id, ok := d.byEmail[strings.ToLower(email)]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	u := d.byID[id]
	if !caseInsensitive && u.Email != email {
		return nil, domain.ErrUserNotFound
	}
	return cloneUser(u), nil
}

// ListAll returns users ordered by creation time.
func (d *UserDirectory) ListAll(_ context.Context) ([]*domain.User, error) {
	d.mu.RLock()
	out := make([]*domain.User, 0, len(d.byID))
	for _, u := range d.byID {
		out = append(out, cloneUser(u))
	}
	d.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

// Ping always succeeds; it lets the directory sit behind readiness checks.
func (d *UserDirectory) Ping(context.Context) error { return nil }

func cloneUser(u *domain.User) *domain.User {
	if u == nil {
		return nil
	}
	clone := *u
	return &clone
}
