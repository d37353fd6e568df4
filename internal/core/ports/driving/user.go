package driving

import (
	"context"

	"github.com/custodia-labs/pdfrag/internal/core/domain"
)

// UserService manages accounts.
type UserService interface {
	// Create registers a new user with a bcrypt-hashed password.
	// Returns domain.ErrAlreadyExists if the username is taken.
	Create(ctx context.Context, username, email, password string, role domain.Role) (*domain.User, error)

	// Authenticate verifies a username/password pair and records the login.
	Authenticate(ctx context.Context, username, password string) (*domain.User, error)

	// Get retrieves a user by ID.
	Get(ctx context.Context, id string) (*domain.User, error)

	// List returns all accounts.
	List(ctx context.Context) ([]*domain.User, error)

	// SetActive activates or deactivates an account.
	SetActive(ctx context.Context, id string, active bool) error
}

// Statistics summarizes corpus and query activity for one user.
type Statistics struct {
	DocumentCount      int
	CompletedCount     int
	FailedCount        int
	TotalPages         int
	TotalChunks        int
	TotalFileBytes     int64
	QueryCount         int
	AvgResponseSeconds float64
}

// StatsService reports usage statistics.
type StatsService interface {
	// ForUser computes statistics over the user's own documents and queries.
	ForUser(ctx context.Context, userID string) (Statistics, error)
}
