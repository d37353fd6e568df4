package driven

import (
	"context"
	"time"

	"github.com/custodia-labs/pdfrag/internal/core/domain"
)

// DocumentStore persists documents and their chunks.
type DocumentStore interface {
	// SaveDocument inserts or updates a document record.
	SaveDocument(ctx context.Context, doc *domain.Document) error

	// GetDocument retrieves a document by ID.
	// Returns domain.ErrNotFound if the document does not exist.
	GetDocument(ctx context.Context, id string) (*domain.Document, error)

	// FindByHash looks up an owner's document with the given file hash.
	// Returns domain.ErrNotFound when the owner has no such upload.
	FindByHash(ctx context.Context, ownerID, fileHash string) (*domain.Document, error)

	// ListByOwner returns all documents uploaded by the given user.
	ListByOwner(ctx context.Context, ownerID string) ([]*domain.Document, error)

	// ListVisible returns the documents a user may retrieve from:
	// their own plus every public document.
	ListVisible(ctx context.Context, userID string) ([]*domain.Document, error)

	// ListAll returns every document regardless of owner.
	ListAll(ctx context.Context) ([]*domain.Document, error)

	// UpdateStatus transitions a document's processing status.
	// The error message is stored only for domain.StatusFailed.
	UpdateStatus(ctx context.Context, id string, status domain.ProcessingStatus, errMsg string) error

	// UpdateVisibility changes who may retrieve from the document.
	UpdateVisibility(ctx context.Context, id string, visibility domain.Visibility) error

	// CompleteProcessing atomically replaces the document's chunks and
	// marks it completed with the given page and chunk counts. Chunks
	// from any earlier processing run are removed in the same transaction.
	CompleteProcessing(ctx context.Context, id string, pageCount int, chunks []domain.Chunk) error

	// GetChunks returns the stored chunks for a document in index order.
	GetChunks(ctx context.Context, documentID string) ([]domain.Chunk, error)

	// GetChunksByID resolves chunk IDs to chunks, skipping unknown IDs.
	GetChunksByID(ctx context.Context, chunkIDs []string) ([]domain.Chunk, error)

	// DeleteDocument removes the document and all of its chunks.
	DeleteDocument(ctx context.Context, id string) error

	// Close releases resources.
	Close() error
}

// UserStore persists user accounts.
type UserStore interface {
	// SaveUser inserts a new user.
	// Returns domain.ErrAlreadyExists if the username is taken.
	SaveUser(ctx context.Context, user *domain.User) error

	// GetUser retrieves a user by ID.
	GetUser(ctx context.Context, id string) (*domain.User, error)

	// GetUserByUsername retrieves a user by login name.
	GetUserByUsername(ctx context.Context, username string) (*domain.User, error)

	// ListUsers returns all accounts.
	ListUsers(ctx context.Context) ([]*domain.User, error)

	// TouchLogin records a successful login time.
	TouchLogin(ctx context.Context, id string, at time.Time) error

	// SetActive activates or deactivates an account.
	SetActive(ctx context.Context, id string, active bool) error
}

// QueryRecord is one logged question and its outcome.
type QueryRecord struct {
	ID         string
	UserID     string
	Question   string
	Answer     string
	Confidence float64
	Sources    int
	Duration   time.Duration
	CreatedAt  time.Time
}

// QueryLogStore records query history for inspection and statistics.
type QueryLogStore interface {
	// LogQuery appends one query record.
	LogQuery(ctx context.Context, rec QueryRecord) error

	// RecentQueries returns the newest records for a user, most recent first.
	RecentQueries(ctx context.Context, userID string, limit int) ([]QueryRecord, error)

	// CountQueries returns the total number of logged queries.
	CountQueries(ctx context.Context) (int, error)
}
