package service

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestListUsers_EmptyIsArray(t *testing.T) {
	svc := NewUserService(&stubDirectory{})

	users, err := svc.ListUsers(context.Background())
	require.NoError(t, err)

	body, err := json.Marshal(users)
	require.NoError(t, err)
	assert.Equal(t, "[]", string(body))
}

func TestListUsers_ReturnsPublicViews(t *testing.T) {
	dir := &stubDirectory{}
	reg := NewRegistrationService(dir, &stubHasher{}, PasswordPolicy{}, zerolog.Nop())
	_, err := reg.Register(context.Background(), validInput())
	require.NoError(t, err)

	users, err := NewUserService(dir).ListUsers(context.Background())
	require.NoError(t, err)
	require.Len(t, users, 1)
	assert.Equal(t, "ana", users[0].Username)

	body, _ := json.Marshal(users)
	assert.NotContains(t, string(body), "hashed:")
}
