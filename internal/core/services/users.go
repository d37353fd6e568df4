package services

import (
	"context"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/custodia-labs/pdfrag/internal/core/domain"
	"github.com/custodia-labs/pdfrag/internal/core/ports/driven"
	"github.com/custodia-labs/pdfrag/internal/core/ports/driving"
	"github.com/custodia-labs/pdfrag/internal/logger"
)

// Ensure UserService implements the interface.
var _ driving.UserService = (*UserService)(nil)

// minPasswordLength rejects trivially guessable passwords.
const minPasswordLength = 8

// UserService manages accounts and password verification.
type UserService struct {
	store driven.UserStore
}

// NewUserService creates a user service.
func NewUserService(store driven.UserStore) *UserService {
	return &UserService{store: store}
}

// Create registers a new user with a bcrypt-hashed password.
func (s *UserService) Create(ctx context.Context, username, email, password string, role domain.Role) (*domain.User, error) {
	username = strings.TrimSpace(username)
	if len(username) < 3 {
		return nil, fmt.Errorf("%w: username must be at least 3 characters", domain.ErrInvalidInput)
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return nil, fmt.Errorf("%w: invalid email address", domain.ErrInvalidInput)
	}
	if len(password) < minPasswordLength {
		return nil, fmt.Errorf("%w: password must be at least %d characters", domain.ErrInvalidInput, minPasswordLength)
	}
	if !role.Valid() {
		role = domain.RoleUser
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hashing password: %w", err)
	}

	user := &domain.User{
		ID:           uuid.New().String(),
		Username:     username,
		Email:        email,
		PasswordHash: string(hash),
		Role:         role,
		Active:       true,
		CreatedAt:    time.Now().UTC(),
	}
	if err := s.store.SaveUser(ctx, user); err != nil {
		return nil, err
	}
	logger.Info("Created user %s (%s)", username, role)
	return user, nil
}

// Authenticate verifies a username/password pair and records the login
// time. Unknown users and wrong passwords both return
// domain.ErrAccessDenied so callers cannot probe for accounts.
func (s *UserService) Authenticate(ctx context.Context, username, password string) (*domain.User, error) {
	user, err := s.store.GetUserByUsername(ctx, username)
	if err != nil {
		return nil, domain.ErrAccessDenied
	}
	if !user.Active {
		return nil, domain.ErrAccessDenied
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, domain.ErrAccessDenied
	}

	now := time.Now().UTC()
	if err := s.store.TouchLogin(ctx, user.ID, now); err != nil {
		logger.Warn("Recording login for %s: %v", username, err)
	}
	user.LastLogin = now
	return user, nil
}

// Get retrieves a user by ID.
func (s *UserService) Get(ctx context.Context, id string) (*domain.User, error) {
	return s.store.GetUser(ctx, id)
}

// List returns all accounts.
func (s *UserService) List(ctx context.Context) ([]*domain.User, error) {
	return s.store.ListUsers(ctx)
}

// SetActive activates or deactivates an account.
func (s *UserService) SetActive(ctx context.Context, id string, active bool) error {
	return s.store.SetActive(ctx, id, active)
}
