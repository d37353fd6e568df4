package services

import (
	"bytes"
	"context"
	"io"
	"sync"

	"github.com/custodia-labs/pdfrag/internal/core/ports/driven"
)

// --- Mock implementations ---

// mockVectorIndex implements driven.VectorIndex for testing.
type mockVectorIndex struct {
	mu        sync.Mutex
	hits      []driven.VectorHit
	scopedErr error
	searchErr error
	added     []driven.VectorEntry
	deleted   []string
}

func (m *mockVectorIndex) Add(_ context.Context, entries []driven.VectorEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.added = append(m.added, entries...)
	return nil
}

func (m *mockVectorIndex) DeleteDocument(_ context.Context, documentID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.deleted = append(m.deleted, documentID)
	return nil
}

func (m *mockVectorIndex) Search(_ context.Context, _ []float32, k int, documentIDs []string) ([]driven.VectorHit, error) {
	if m.searchErr != nil {
		return nil, m.searchErr
	}
	if documentIDs != nil && m.scopedErr != nil {
		return nil, m.scopedErr
	}

	hits := m.hits
	if documentIDs != nil {
		allowed := make(map[string]struct{}, len(documentIDs))
		for _, id := range documentIDs {
			allowed[id] = struct{}{}
		}
		var filtered []driven.VectorHit
		for _, h := range hits {
			if _, ok := allowed[h.DocumentID]; ok {
				filtered = append(filtered, h)
			}
		}
		hits = filtered
	}
	if k < len(hits) {
		hits = hits[:k]
	}
	return hits, nil
}

func (m *mockVectorIndex) Count(_ context.Context) (int, error) {
	return len(m.hits), nil
}

func (m *mockVectorIndex) Close() error { return nil }

// mockEmbedder implements driven.EmbeddingService for testing.
type mockEmbedder struct {
	embedding []float32
	embedErr  error

	mu    sync.Mutex
	calls []string
}

func (m *mockEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	if m.embedErr != nil {
		return nil, m.embedErr
	}
	m.mu.Lock()
	m.calls = append(m.calls, text)
	m.mu.Unlock()
	return m.vector(), nil
}

func (m *mockEmbedder) EmbedBatch(_ context.Context, texts []string) ([][]float32, error) {
	if m.embedErr != nil {
		return nil, m.embedErr
	}
	m.mu.Lock()
	m.calls = append(m.calls, texts...)
	m.mu.Unlock()
	out := make([][]float32, len(texts))
	for i := range texts {
		out[i] = m.vector()
	}
	return out, nil
}

func (m *mockEmbedder) vector() []float32 {
	if m.embedding != nil {
		return m.embedding
	}
	return []float32{0.1, 0.2, 0.3}
}

func (m *mockEmbedder) Dimensions() int               { return 3 }
func (m *mockEmbedder) ModelName() string             { return "mock-embed" }
func (m *mockEmbedder) Ping(_ context.Context) error  { return nil }
func (m *mockEmbedder) Close() error                  { return nil }

// mockLLM implements driven.LLMService for testing. Each Generate call
// consumes one queued error (nil entries succeed).
type mockLLM struct {
	response string
	errs     []error
	prompts  []string
}

func (m *mockLLM) Generate(_ context.Context, prompt string, _ driven.GenerateOptions) (string, error) {
	m.prompts = append(m.prompts, prompt)
	if len(m.errs) > 0 {
		err := m.errs[0]
		m.errs = m.errs[1:]
		if err != nil {
			return "", err
		}
	}
	return m.response, nil
}

func (m *mockLLM) ModelName() string            { return "mock-llm" }
func (m *mockLLM) Ping(_ context.Context) error { return nil }
func (m *mockLLM) Close() error                 { return nil }

// mockExtractor implements driven.PageExtractor for testing.
type mockExtractor struct {
	pages       []driven.PageText
	validateErr error
	extractErr  error
}

func (m *mockExtractor) Validate(_ context.Context, _ string) error {
	return m.validateErr
}

func (m *mockExtractor) Extract(_ context.Context, _ string) ([]driven.PageText, error) {
	if m.extractErr != nil {
		return nil, m.extractErr
	}
	return m.pages, nil
}

// mockFileStore implements driven.FileStore for testing.
type mockFileStore struct {
	mu      sync.Mutex
	files   map[string][]byte
	saveErr error
}

func newMockFileStore() *mockFileStore {
	return &mockFileStore{files: make(map[string][]byte)}
}

func (m *mockFileStore) Save(_ context.Context, filename, fileHash string, r io.Reader) (string, error) {
	if m.saveErr != nil {
		return "", m.saveErr
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}
	path := fileHash + "_" + filename
	m.mu.Lock()
	m.files[path] = data
	m.mu.Unlock()
	return path, nil
}

func (m *mockFileStore) Open(_ context.Context, storedPath string) (io.ReadCloser, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	data, ok := m.files[storedPath]
	if !ok {
		return nil, io.ErrUnexpectedEOF
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func (m *mockFileStore) Remove(_ context.Context, storedPath string) error {
	m.mu.Lock()
	delete(m.files, storedPath)
	m.mu.Unlock()
	return nil
}
