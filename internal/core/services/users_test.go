package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/pdfrag/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/pdfrag/internal/core/domain"
)

func TestCreateUser(t *testing.T) {
	s := NewUserService(memory.NewUserStore())
	ctx := context.Background()

	user, err := s.Create(ctx, "alice", "alice@example.com", "correct-horse", domain.RoleUser)
	require.NoError(t, err)
	assert.Equal(t, "alice", user.Username)
	assert.True(t, user.Active)
	assert.NotEqual(t, "correct-horse", user.PasswordHash)
}

func TestCreateUserValidation(t *testing.T) {
	s := NewUserService(memory.NewUserStore())
	ctx := context.Background()

	tests := []struct {
		name     string
		username string
		email    string
		password string
	}{
		{"short username", "al", "al@example.com", "long-enough-pass"},
		{"bad email", "alice", "not-an-email", "long-enough-pass"},
		{"short password", "alice", "alice@example.com", "short"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := s.Create(ctx, tt.username, tt.email, tt.password, domain.RoleUser)
			assert.ErrorIs(t, err, domain.ErrInvalidInput)
		})
	}
}

func TestCreateUserDuplicateUsername(t *testing.T) {
	s := NewUserService(memory.NewUserStore())
	ctx := context.Background()

	_, err := s.Create(ctx, "alice", "alice@example.com", "correct-horse", domain.RoleUser)
	require.NoError(t, err)
	_, err = s.Create(ctx, "alice", "other@example.com", "correct-horse", domain.RoleUser)
	assert.ErrorIs(t, err, domain.ErrAlreadyExists)
}

func TestAuthenticate(t *testing.T) {
	s := NewUserService(memory.NewUserStore())
	ctx := context.Background()

	created, err := s.Create(ctx, "alice", "alice@example.com", "correct-horse", domain.RoleUser)
	require.NoError(t, err)

	user, err := s.Authenticate(ctx, "alice", "correct-horse")
	require.NoError(t, err)
	assert.Equal(t, created.ID, user.ID)
	assert.False(t, user.LastLogin.IsZero())

	_, err = s.Authenticate(ctx, "alice", "wrong-password")
	assert.ErrorIs(t, err, domain.ErrAccessDenied)

	_, err = s.Authenticate(ctx, "nobody", "correct-horse")
	assert.ErrorIs(t, err, domain.ErrAccessDenied)
}

func TestAuthenticateInactive(t *testing.T) {
	s := NewUserService(memory.NewUserStore())
	ctx := context.Background()

	user, err := s.Create(ctx, "alice", "alice@example.com", "correct-horse", domain.RoleUser)
	require.NoError(t, err)
	require.NoError(t, s.SetActive(ctx, user.ID, false))

	_, err = s.Authenticate(ctx, "alice", "correct-horse")
	assert.ErrorIs(t, err, domain.ErrAccessDenied)
}

func TestCreateUserDefaultsRole(t *testing.T) {
	s := NewUserService(memory.NewUserStore())
	user, err := s.Create(context.Background(), "alice", "alice@example.com", "correct-horse", domain.Role("wizard"))
	require.NoError(t, err)
	assert.Equal(t, domain.RoleUser, user.Role)
}
