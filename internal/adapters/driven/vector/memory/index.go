// Package memory provides a brute-force in-memory vector index.
// Suitable for small corpora and tests; cosine distance, exact search.
package memory

import (
	"context"
	"math"
	"sort"
	"sync"

	"github.com/custodia-labs/pdfrag/internal/core/ports/driven"
)

// Ensure Index implements the interface.
var _ driven.VectorIndex = (*Index)(nil)

// Index is an exact-search vector index held in memory.
type Index struct {
	mu      sync.RWMutex
	entries []driven.VectorEntry
}

// New creates an empty index.
func New() *Index {
	return &Index{}
}

// Add inserts vectors, replacing any existing entry for the same chunk.
func (x *Index) Add(_ context.Context, entries []driven.VectorEntry) error {
	x.mu.Lock()
	defer x.mu.Unlock()

	replace := make(map[string]struct{}, len(entries))
	for _, e := range entries {
		replace[e.ChunkID] = struct{}{}
	}
	kept := x.entries[:0]
	for _, e := range x.entries {
		if _, gone := replace[e.ChunkID]; !gone {
			kept = append(kept, e)
		}
	}
	x.entries = append(kept, entries...)
	return nil
}

// DeleteDocument removes every vector belonging to a document.
func (x *Index) DeleteDocument(_ context.Context, documentID string) error {
	x.mu.Lock()
	defer x.mu.Unlock()
	kept := x.entries[:0]
	for _, e := range x.entries {
		if e.DocumentID != documentID {
			kept = append(kept, e)
		}
	}
	x.entries = kept
	return nil
}

// Search scans all entries and returns the k nearest by cosine
// distance, restricted to the given document IDs when non-nil.
func (x *Index) Search(_ context.Context, query []float32, k int, documentIDs []string) ([]driven.VectorHit, error) {
	if k <= 0 {
		return nil, nil
	}

	var allowed map[string]struct{}
	if documentIDs != nil {
		allowed = make(map[string]struct{}, len(documentIDs))
		for _, id := range documentIDs {
			allowed[id] = struct{}{}
		}
	}

	x.mu.RLock()
	defer x.mu.RUnlock()

	var hits []driven.VectorHit
	for _, e := range x.entries {
		if allowed != nil {
			if _, ok := allowed[e.DocumentID]; !ok {
				continue
			}
		}
		hits = append(hits, driven.VectorHit{
			ChunkID:    e.ChunkID,
			DocumentID: e.DocumentID,
			Distance:   cosineDistance(query, e.Embedding),
			Embedding:  e.Embedding,
		})
	}

	sort.Slice(hits, func(i, j int) bool { return hits[i].Distance < hits[j].Distance })
	if len(hits) > k {
		hits = hits[:k]
	}
	return hits, nil
}

// Count returns the number of indexed vectors.
func (x *Index) Count(_ context.Context) (int, error) {
	x.mu.RLock()
	defer x.mu.RUnlock()
	return len(x.entries), nil
}

// Close is a no-op for the in-memory index.
func (x *Index) Close() error {
	return nil
}

// cosineDistance is 1 minus the cosine similarity; 1.0 for degenerate
// vectors so they sort last.
func cosineDistance(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 1
	}
	var dot, na, nb float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 1
	}
	return 1 - dot/(math.Sqrt(na)*math.Sqrt(nb))
}
