package driven

import "context"

// VectorIndex provides semantic similarity search over chunk embeddings.
type VectorIndex interface {
	// Add inserts vectors for the given chunk IDs.
	Add(ctx context.Context, entries []VectorEntry) error

	// DeleteDocument removes every vector belonging to a document.
	DeleteDocument(ctx context.Context, documentID string) error

	// Search finds the k nearest neighbours to the query vector,
	// restricted to the given document IDs. A nil restriction means
	// no filter. Results are ordered by ascending distance.
	Search(ctx context.Context, query []float32, k int, documentIDs []string) ([]VectorHit, error)

	// Count returns the number of indexed vectors.
	Count(ctx context.Context) (int, error)

	// Close releases resources.
	Close() error
}

// VectorEntry is one vector to index.
type VectorEntry struct {
	// ChunkID identifies the chunk this vector represents.
	ChunkID string

	// DocumentID identifies the owning document, used for filtering
	// and bulk deletion.
	DocumentID string

	// Embedding is the vector.
	Embedding []float32
}

// VectorHit represents a similarity search result.
type VectorHit struct {
	// ChunkID is the matched chunk.
	ChunkID string

	// DocumentID is the owning document.
	DocumentID string

	// Distance is the cosine distance (lower = more similar).
	Distance float64

	// Embedding is the stored vector, returned when the backend
	// supports it. Diversity re-selection needs candidate vectors.
	Embedding []float32
}
