package driving

import (
	"context"
	"io"

	"github.com/custodia-labs/pdfrag/internal/core/domain"
)

// UploadRequest describes one incoming PDF.
type UploadRequest struct {
	// OwnerID is the uploading user.
	OwnerID string

	// Filename is the original upload name.
	Filename string

	// Visibility is private or public. Public requires the admin role.
	Visibility domain.Visibility

	// Content is the PDF bytes.
	Content io.Reader
}

// DocumentService manages uploaded documents and their processing lifecycle.
type DocumentService interface {
	// Upload stores a PDF and queues it for processing. A re-upload of
	// identical bytes by the same owner returns the existing document
	// with domain.ErrAlreadyExists instead of creating a duplicate.
	Upload(ctx context.Context, req UploadRequest) (*domain.Document, error)

	// Get retrieves a document the caller may see.
	Get(ctx context.Context, callerID, documentID string) (*domain.Document, error)

	// List returns the documents visible to the caller.
	List(ctx context.Context, callerID string) ([]*domain.Document, error)

	// Delete removes a document, its chunks, its vectors and its file.
	// Only the owner or an admin may delete.
	Delete(ctx context.Context, callerID, documentID string) error

	// SetVisibility switches a document between private and public.
	SetVisibility(ctx context.Context, callerID, documentID string, v domain.Visibility) error

	// Reprocess re-runs the extraction pipeline for a stuck or failed
	// document. Safe to repeat; chunks are replaced, never appended.
	Reprocess(ctx context.Context, callerID, documentID string) error
}
