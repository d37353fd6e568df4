// Package chroma provides a vector index adapter backed by a Chroma server.
package chroma

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/custodia-labs/pdfrag/internal/core/ports/driven"
)

// Ensure Index implements the interface.
var _ driven.VectorIndex = (*Index)(nil)

// Default configuration values.
const (
	DefaultBaseURL    = "http://localhost:8000"
	DefaultCollection = "pdf_chunks"
	DefaultTimeout    = 30 * time.Second
)

// Config holds configuration for the Chroma index.
type Config struct {
	// BaseURL is the Chroma API base URL (default: http://localhost:8000).
	BaseURL string

	// Collection is the collection name (default: pdf_chunks).
	Collection string

	// Timeout is the request timeout (default: 30s).
	Timeout time.Duration
}

// Index stores and searches chunk embeddings in a Chroma collection.
type Index struct {
	client       *http.Client
	baseURL      string
	collection   string
	collectionID string
}

// collectionRequest is the create-collection request format.
type collectionRequest struct {
	Name        string `json:"name"`
	GetOrCreate bool   `json:"get_or_create"`
}

// collectionResponse is the create-collection response format.
type collectionResponse struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// upsertRequest is the collection upsert request format.
type upsertRequest struct {
	IDs        []string         `json:"ids"`
	Embeddings [][]float32      `json:"embeddings"`
	Metadatas  []map[string]any `json:"metadatas"`
}

// queryRequest is the collection query request format.
type queryRequest struct {
	QueryEmbeddings [][]float32    `json:"query_embeddings"`
	NResults        int            `json:"n_results"`
	Where           map[string]any `json:"where,omitempty"`
	Include         []string       `json:"include"`
}

// queryResponse is the collection query response format.
type queryResponse struct {
	IDs        [][]string         `json:"ids"`
	Distances  [][]float64        `json:"distances"`
	Metadatas  [][]map[string]any `json:"metadatas"`
	Embeddings [][][]float32      `json:"embeddings"`
}

// deleteRequest is the collection delete request format.
type deleteRequest struct {
	Where map[string]any `json:"where"`
}

// NewIndex creates a Chroma index and ensures the collection exists.
func NewIndex(ctx context.Context, cfg Config) (*Index, error) {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Collection == "" {
		cfg.Collection = DefaultCollection
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}

	idx := &Index{
		client: &http.Client{
			Timeout: cfg.Timeout,
		},
		baseURL:    cfg.BaseURL,
		collection: cfg.Collection,
	}

	if err := idx.ensureCollection(ctx); err != nil {
		return nil, err
	}
	return idx, nil
}

// ensureCollection creates or looks up the collection and caches its ID.
func (x *Index) ensureCollection(ctx context.Context) error {
	var resp collectionResponse
	err := x.post(ctx, "/api/v1/collections", collectionRequest{
		Name:        x.collection,
		GetOrCreate: true,
	}, &resp)
	if err != nil {
		return fmt.Errorf("ensure collection %q: %w", x.collection, err)
	}
	x.collectionID = resp.ID
	return nil
}

// Add upserts vectors into the collection.
func (x *Index) Add(ctx context.Context, entries []driven.VectorEntry) error {
	if len(entries) == 0 {
		return nil
	}

	req := upsertRequest{
		IDs:        make([]string, len(entries)),
		Embeddings: make([][]float32, len(entries)),
		Metadatas:  make([]map[string]any, len(entries)),
	}
	for i, e := range entries {
		req.IDs[i] = e.ChunkID
		req.Embeddings[i] = e.Embedding
		req.Metadatas[i] = map[string]any{"document_id": e.DocumentID}
	}

	if err := x.post(ctx, "/api/v1/collections/"+x.collectionID+"/upsert", req, nil); err != nil {
		return fmt.Errorf("upsert %d vectors: %w", len(entries), err)
	}
	return nil
}

// DeleteDocument removes every vector belonging to a document.
func (x *Index) DeleteDocument(ctx context.Context, documentID string) error {
	req := deleteRequest{
		Where: map[string]any{"document_id": documentID},
	}
	if err := x.post(ctx, "/api/v1/collections/"+x.collectionID+"/delete", req, nil); err != nil {
		return fmt.Errorf("delete vectors for document %s: %w", documentID, err)
	}
	return nil
}

// Search finds the k nearest neighbours, optionally restricted to documentIDs.
func (x *Index) Search(ctx context.Context, query []float32, k int, documentIDs []string) ([]driven.VectorHit, error) {
	if k <= 0 {
		return nil, nil
	}

	req := queryRequest{
		QueryEmbeddings: [][]float32{query},
		NResults:        k,
		Include:         []string{"metadatas", "distances", "embeddings"},
	}
	if documentIDs != nil {
		if len(documentIDs) == 0 {
			return nil, nil
		}
		ids := make([]any, len(documentIDs))
		for i, id := range documentIDs {
			ids[i] = id
		}
		req.Where = map[string]any{"document_id": map[string]any{"$in": ids}}
	}

	var resp queryResponse
	if err := x.post(ctx, "/api/v1/collections/"+x.collectionID+"/query", req, &resp); err != nil {
		return nil, fmt.Errorf("query: %w", err)
	}
	if len(resp.IDs) == 0 {
		return nil, nil
	}

	// Chroma returns one result set per query embedding; we send one.
	hits := make([]driven.VectorHit, 0, len(resp.IDs[0]))
	for i, chunkID := range resp.IDs[0] {
		hit := driven.VectorHit{ChunkID: chunkID}
		if len(resp.Distances) > 0 && i < len(resp.Distances[0]) {
			hit.Distance = resp.Distances[0][i]
		}
		if len(resp.Metadatas) > 0 && i < len(resp.Metadatas[0]) {
			if docID, ok := resp.Metadatas[0][i]["document_id"].(string); ok {
				hit.DocumentID = docID
			}
		}
		if len(resp.Embeddings) > 0 && i < len(resp.Embeddings[0]) {
			hit.Embedding = resp.Embeddings[0][i]
		}
		hits = append(hits, hit)
	}
	return hits, nil
}

// Count returns the number of indexed vectors.
func (x *Index) Count(ctx context.Context) (int, error) {
	req, err := http.NewRequestWithContext(
		ctx,
		http.MethodGet,
		x.baseURL+"/api/v1/collections/"+x.collectionID+"/count",
		http.NoBody,
	)
	if err != nil {
		return 0, fmt.Errorf("create request: %w", err)
	}

	resp, err := x.client.Do(req)
	if err != nil {
		return 0, fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return 0, fmt.Errorf("chroma error (status %d): %s", resp.StatusCode, string(body))
	}

	var count int
	if err := json.NewDecoder(resp.Body).Decode(&count); err != nil {
		return 0, fmt.Errorf("decode response: %w", err)
	}
	return count, nil
}

// Close releases resources.
func (x *Index) Close() error {
	// HTTP client doesn't need explicit cleanup
	return nil
}

// post sends a JSON request and optionally decodes a JSON response into out.
func (x *Index) post(ctx context.Context, path string, payload, out any) error {
	jsonBody, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(
		ctx,
		http.MethodPost,
		x.baseURL+path,
		bytes.NewReader(jsonBody),
	)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := x.client.Do(req)
	if err != nil {
		return fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return fmt.Errorf("chroma error (status %d): failed to read response", resp.StatusCode)
		}
		return fmt.Errorf("chroma error (status %d): %s", resp.StatusCode, string(body))
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
