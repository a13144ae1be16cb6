package middleware

import (
	"context"
	"strings"

	"github.com/artistsnetwork/identity/internal/core/domain"
)

// stubAuth accepts "Bearer <token>" where token is a key of tokens.
type stubAuth struct {
	tokens map[string]domain.Identity
}

func (s *stubAuth) Login(context.Context, string, string) (string, error) { return "", nil }

func (s *stubAuth) Authenticate(_ context.Context, header string) (domain.Identity, error) {
	if header == "" {
		return domain.Identity{}, domain.ErrMissingToken
	}
	id, ok := s.tokens[strings.TrimPrefix(header, "Bearer ")]
	if !ok {
		return domain.Identity{}, domain.ErrUnauthorized
	}
	return id, nil
}

func (s *stubAuth) Authorize(id domain.Identity, required domain.Role) error {
	if !id.Role.Satisfies(required) {
		return domain.ErrForbidden
	}
	return nil
}

func newStubAuth() *stubAuth {
	return &stubAuth{tokens: map[string]domain.Identity{
		"admin-token":  {UserID: "u1", Role: domain.RoleAdmin},
		"artist-token": {UserID: "u2", Role: domain.RoleArtist},
	}}
}
