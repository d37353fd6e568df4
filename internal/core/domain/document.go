package domain

import (
	"strings"
	"time"
)

// ProcessingStatus tracks a document through the ingestion pipeline.
// A document is created as StatusPending and moves to StatusProcessing,
// then exactly once to StatusCompleted or StatusFailed.
type ProcessingStatus string

const (
	StatusPending    ProcessingStatus = "pending"
	StatusProcessing ProcessingStatus = "processing"
	StatusCompleted  ProcessingStatus = "completed"
	StatusFailed     ProcessingStatus = "failed"
)

// Valid reports whether the status is one of the known states.
func (s ProcessingStatus) Valid() bool {
	switch s {
	case StatusPending, StatusProcessing, StatusCompleted, StatusFailed:
		return true
	}
	return false
}

// Terminal reports whether the status is an end state.
func (s ProcessingStatus) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// Visibility controls who may retrieve from a document.
type Visibility string

const (
	// VisibilityPrivate restricts retrieval to the owner (and admins).
	VisibilityPrivate Visibility = "private"

	// VisibilityPublic makes the document retrievable by every user.
	VisibilityPublic Visibility = "public"
)

// Valid reports whether the visibility is a known value.
func (v Visibility) Valid() bool {
	return v == VisibilityPrivate || v == VisibilityPublic
}

// Document represents one uploaded PDF and its processing state.
type Document struct {
	// ID is the unique identifier for the document.
	ID string

	// OwnerID is the user who uploaded the document.
	OwnerID string

	// Filename is the original upload filename, used as the source label.
	Filename string

	// StoredPath is where the PDF bytes live on disk.
	StoredPath string

	// FileHash is the SHA-256 of the upload, used for per-owner dedup.
	FileHash string

	// FileSize is the upload size in bytes.
	FileSize int64

	// Visibility is private or public.
	Visibility Visibility

	// Status is the processing lifecycle state.
	Status ProcessingStatus

	// ProcessingError holds the failure reason when Status is failed.
	ProcessingError string

	// PageCount and ChunkCount are filled in when processing completes.
	PageCount  int
	ChunkCount int

	CreatedAt time.Time
	UpdatedAt time.Time
}

// NewDocument creates a pending document for a fresh upload.
func NewDocument(id, ownerID, filename, fileHash string, fileSize int64, visibility Visibility) (*Document, error) {
	if id == "" || ownerID == "" {
		return nil, ErrInvalidInput
	}
	if strings.TrimSpace(filename) == "" {
		return nil, ErrInvalidInput
	}
	if !visibility.Valid() {
		visibility = VisibilityPrivate
	}
	now := time.Now().UTC()
	return &Document{
		ID:         id,
		OwnerID:    ownerID,
		Filename:   filename,
		FileHash:   fileHash,
		FileSize:   fileSize,
		Visibility: visibility,
		Status:     StatusPending,
		CreatedAt:  now,
		UpdatedAt:  now,
	}, nil
}

// FingerprintLength is the chunk-content prefix used for duplicate detection.
const FingerprintLength = 100

// Chunk is one bounded span of document text, stored and indexed as a
// single retrievable unit. A chunk belongs to exactly one document;
// deleting the document deletes its chunks.
type Chunk struct {
	// ID is the unique identifier for the chunk.
	ID string

	// DocumentID links to the owning Document.
	DocumentID string

	// Index is the ordinal position within the document.
	Index int

	// Page is the 1-based source page the chunk was extracted from.
	Page int

	// Section is the detected section title, when section detection ran.
	Section string

	// Content is the chunk text.
	Content string

	// Embedding is the vector representation, set after embedding.
	Embedding []float32
}

// Fingerprint returns the content prefix used to detect near-duplicate
// chunks pooled from different retrieval strategies.
func (c Chunk) Fingerprint() string {
	content := strings.TrimSpace(c.Content)
	if len(content) <= FingerprintLength {
		return content
	}
	return content[:FingerprintLength]
}
