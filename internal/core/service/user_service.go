package service

import (
	"context"
	"fmt"

	"github.com/artistsnetwork/identity/internal/core/domain"
	"github.com/artistsnetwork/identity/internal/core/ports"
)

type UserService struct {
	dir ports.UserDirectory
}

func NewUserService(dir ports.UserDirectory) *UserService {
	return &UserService{dir: dir}
}

// ListUsers returns every user in creation order. The result is never nil.
func (s *UserService) ListUsers(ctx context.Context) ([]domain.PublicUser, error) {
	users, err := s.dir.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	out := make([]domain.PublicUser, 0, len(users))
	for _, u := range users {
		out = append(out, u.Public())
	}
	return out, nil
}
