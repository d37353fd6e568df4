package domain

import "errors"

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrAlreadyExists indicates an entity already exists.
	ErrAlreadyExists = errors.New("already exists")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrAccessDenied indicates the caller may not see the requested document.
	ErrAccessDenied = errors.New("access denied")

	// ErrInvalidPDF indicates an upload that is not a readable PDF file.
	ErrInvalidPDF = errors.New("invalid PDF file")

	// ErrProcessingInProgress indicates the document is already queued or
	// being processed; a second submission is rejected, not duplicated.
	ErrProcessingInProgress = errors.New("processing in progress")

	// ErrNoReadableText indicates a PDF yielded no extractable text at all.
	// Note this is distinct from a document that processed successfully
	// with zero chunks after cleaning.
	ErrNoReadableText = errors.New("no readable text in document")

	// ErrLLMUnavailable indicates the LLM service is not configured.
	// Answer synthesis is disabled without it.
	ErrLLMUnavailable = errors.New("LLM service unavailable")

	// ErrEmbeddingUnavailable indicates the embedding service is not configured.
	// Both indexing and retrieval are disabled without embeddings.
	ErrEmbeddingUnavailable = errors.New("embedding service unavailable")

	// ErrVectorIndexUnavailable indicates the vector index is not configured.
	ErrVectorIndexUnavailable = errors.New("vector index unavailable")

	// ErrRetrievalFailed indicates every retrieval strategy failed for a query.
	// Callers translate this into a degraded answer, never a crash.
	ErrRetrievalFailed = errors.New("retrieval failed")
)
