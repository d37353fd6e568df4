// Package memory provides in-memory implementations of the storage
// ports, used in tests and as a zero-configuration fallback.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/custodia-labs/pdfrag/internal/core/domain"
	"github.com/custodia-labs/pdfrag/internal/core/ports/driven"
)

// Ensure DocStore implements the interface.
var _ driven.DocumentStore = (*DocStore)(nil)

// DocStore is an in-memory document and chunk store.
type DocStore struct {
	mu     sync.RWMutex
	docs   map[string]*domain.Document
	chunks map[string][]domain.Chunk
}

// NewDocStore creates an empty in-memory document store.
func NewDocStore() *DocStore {
	return &DocStore{
		docs:   make(map[string]*domain.Document),
		chunks: make(map[string][]domain.Chunk),
	}
}

// SaveDocument inserts or updates a document record.
func (s *DocStore) SaveDocument(_ context.Context, doc *domain.Document) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *doc
	s.docs[doc.ID] = &cp
	return nil
}

// GetDocument retrieves a document by ID.
func (s *DocStore) GetDocument(_ context.Context, id string) (*domain.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	doc, ok := s.docs[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *doc
	return &cp, nil
}

// FindByHash looks up an owner's document with the given file hash.
func (s *DocStore) FindByHash(_ context.Context, ownerID, fileHash string) (*domain.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, doc := range s.docs {
		if doc.OwnerID == ownerID && doc.FileHash == fileHash {
			cp := *doc
			return &cp, nil
		}
	}
	return nil, domain.ErrNotFound
}

// ListByOwner returns all documents uploaded by the given user.
func (s *DocStore) ListByOwner(_ context.Context, ownerID string) ([]*domain.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*domain.Document
	for _, doc := range s.docs {
		if doc.OwnerID == ownerID {
			cp := *doc
			out = append(out, &cp)
		}
	}
	sortDocs(out)
	return out, nil
}

// ListVisible returns the user's own documents plus public ones.
func (s *DocStore) ListVisible(_ context.Context, userID string) ([]*domain.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*domain.Document
	for _, doc := range s.docs {
		if doc.OwnerID == userID || doc.Visibility == domain.VisibilityPublic {
			cp := *doc
			out = append(out, &cp)
		}
	}
	sortDocs(out)
	return out, nil
}

// ListAll returns every document.
func (s *DocStore) ListAll(_ context.Context) ([]*domain.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*domain.Document, 0, len(s.docs))
	for _, doc := range s.docs {
		cp := *doc
		out = append(out, &cp)
	}
	sortDocs(out)
	return out, nil
}

// UpdateStatus transitions a document's processing status.
func (s *DocStore) UpdateStatus(_ context.Context, id string, status domain.ProcessingStatus, errMsg string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	doc, ok := s.docs[id]
	if !ok {
		return domain.ErrNotFound
	}
	doc.Status = status
	doc.UpdatedAt = time.Now().UTC()
	if status == domain.StatusFailed {
		doc.ProcessingError = errMsg
	} else {
		doc.ProcessingError = ""
	}
	return nil
}

// UpdateVisibility changes who may retrieve from the document.
func (s *DocStore) UpdateVisibility(_ context.Context, id string, visibility domain.Visibility) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	doc, ok := s.docs[id]
	if !ok {
		return domain.ErrNotFound
	}
	doc.Visibility = visibility
	doc.UpdatedAt = time.Now().UTC()
	return nil
}

// CompleteProcessing atomically replaces the document's chunks and
// marks it completed.
func (s *DocStore) CompleteProcessing(_ context.Context, id string, pageCount int, chunks []domain.Chunk) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	doc, ok := s.docs[id]
	if !ok {
		return domain.ErrNotFound
	}
	s.chunks[id] = append([]domain.Chunk(nil), chunks...)
	doc.Status = domain.StatusCompleted
	doc.ProcessingError = ""
	doc.PageCount = pageCount
	doc.ChunkCount = len(chunks)
	doc.UpdatedAt = time.Now().UTC()
	return nil
}

// GetChunks returns the stored chunks for a document in index order.
func (s *DocStore) GetChunks(_ context.Context, documentID string) ([]domain.Chunk, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if _, ok := s.docs[documentID]; !ok {
		return nil, domain.ErrNotFound
	}
	out := append([]domain.Chunk(nil), s.chunks[documentID]...)
	sort.Slice(out, func(i, j int) bool { return out[i].Index < out[j].Index })
	return out, nil
}

// GetChunksByID resolves chunk IDs to chunks, skipping unknown IDs.
func (s *DocStore) GetChunksByID(_ context.Context, chunkIDs []string) ([]domain.Chunk, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	want := make(map[string]struct{}, len(chunkIDs))
	for _, id := range chunkIDs {
		want[id] = struct{}{}
	}
	var out []domain.Chunk
	for _, chunks := range s.chunks {
		for _, c := range chunks {
			if _, ok := want[c.ID]; ok {
				out = append(out, c)
			}
		}
	}
	return out, nil
}

// DeleteDocument removes the document and all of its chunks.
func (s *DocStore) DeleteDocument(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.docs[id]; !ok {
		return domain.ErrNotFound
	}
	delete(s.docs, id)
	delete(s.chunks, id)
	return nil
}

// Close is a no-op for the in-memory store.
func (s *DocStore) Close() error {
	return nil
}

func sortDocs(docs []*domain.Document) {
	sort.Slice(docs, func(i, j int) bool {
		if docs[i].CreatedAt.Equal(docs[j].CreatedAt) {
			return docs[i].ID < docs[j].ID
		}
		return docs[i].CreatedAt.Before(docs[j].CreatedAt)
	})
}
