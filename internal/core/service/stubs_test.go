package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/artistsnetwork/identity/internal/core/domain"
)

type stubDirectory struct {
	mu      sync.Mutex
	users   []*domain.User
	seq     int
	findErr error
	// insertDelay widens the window between pre-check and insert.
	insertDelay time.Duration
}

func cloneUser(u *domain.User) *domain.User {
	if u == nil {
		return nil
	}
	clone := *u
	return &clone
}

func (d *stubDirectory) InsertUnique(_ context.Context, user *domain.User) (*domain.User, error) {
	if d.insertDelay > 0 {
		time.Sleep(d.insertDelay)
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	for _, u := range d.users {
		if strings.EqualFold(u.Email, user.Email) || u.Username == user.Username {
			return nil, domain.ErrDuplicateKey
		}
	}
	d.seq++
	stored := cloneUser(user)
	stored.ID = fmt.Sprintf("u%d", d.seq)
	d.users = append(d.users, stored)
	return cloneUser(stored), nil
}

func (d *stubDirectory) FindByEmail(_ context.Context, email string, caseInsensitive bool) (*domain.User, error) {
	if d.findErr != nil {
		return nil, d.findErr
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	for _, u := range d.users {
		if u.Email == email || (caseInsensitive && strings.EqualFold(u.Email, email)) {
			return cloneUser(u), nil
		}
	}
	return nil, domain.ErrUserNotFound
}

func (d *stubDirectory) ListAll(context.Context) ([]*domain.User, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]*domain.User, 0, len(d.users))
	for _, u := range d.users {
		out = append(out, cloneUser(u))
	}
	return out, nil
}

// stubHasher is reversible on purpose so tests can inspect stored hashes.
type stubHasher struct {
	mu     sync.Mutex
	hashed int
}

func (h *stubHasher) Hash(ctx context.Context, plaintext string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	h.mu.Lock()
	h.hashed++
	h.mu.Unlock()
	return "hashed:" + plaintext, nil
}

func (h *stubHasher) Verify(_ context.Context, plaintext, hash string) (bool, error) {
	if !strings.HasPrefix(hash, "hashed:") {
		return false, errors.New("unrecognised hash")
	}
	return hash == "hashed:"+plaintext, nil
}

func (h *stubHasher) calls() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.hashed
}

type issued struct {
	userID string
	role   domain.Role
	ttl    time.Duration
}

type stubTokens struct {
	last   issued
	valid  map[string]domain.Identity
	verErr error
}

func (t *stubTokens) Issue(userID string, role domain.Role, ttl time.Duration) (string, error) {
	t.last = issued{userID: userID, role: role, ttl: ttl}
	return "token-" + userID, nil
}

func (t *stubTokens) Verify(token string) (string, domain.Role, error) {
	if id, ok := t.valid[token]; ok {
		return id.UserID, id.Role, nil
	}
	if t.verErr != nil {
		return "", 0, t.verErr
	}
	return "", 0, errors.New("token: malformed")
}

type stubThrottle struct {
	max      int
	failures map[string]int
	err      error
}

func newStubThrottle(max int) *stubThrottle {
	return &stubThrottle{max: max, failures: make(map[string]int)}
}

func (t *stubThrottle) Allow(_ context.Context, key string) (bool, error) {
	if t.err != nil {
		return false, t.err
	}
	return t.failures[key] < t.max, nil
}

func (t *stubThrottle) RecordFailure(_ context.Context, key string) error {
	if t.err != nil {
		return t.err
	}
	t.failures[key]++
	return nil
}

func (t *stubThrottle) Reset(_ context.Context, key string) error {
	if t.err != nil {
		return t.err
	}
	delete(t.failures, key)
	return nil
}
