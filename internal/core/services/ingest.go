package services

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"github.com/custodia-labs/pdfrag/internal/core/domain"
	"github.com/custodia-labs/pdfrag/internal/core/ports/driven"
	"github.com/custodia-labs/pdfrag/internal/core/ports/driving"
	"github.com/custodia-labs/pdfrag/internal/logger"
	"github.com/custodia-labs/pdfrag/internal/textproc"
)

// Ensure IngestService implements the interface.
var _ driving.DocumentService = (*IngestService)(nil)

// embedBatchSize is how many chunks are embedded per request.
const embedBatchSize = 16

// IngestService handles uploads and runs the processing pipeline:
// extract, clean, section-detect, chunk, embed, index, persist.
type IngestService struct {
	docStore    driven.DocumentStore
	userStore   driven.UserStore
	fileStore   driven.FileStore
	extractor   driven.PageExtractor
	embedder    driven.EmbeddingService
	vectorIndex driven.VectorIndex

	splitter *textproc.Splitter
	limiter  *rate.Limiter
	queue    *ProcessingQueue
}

// IngestOption configures the ingest service.
type IngestOption func(*IngestService)

// WithSplitter replaces the default chunk splitter.
func WithSplitter(s *textproc.Splitter) IngestOption {
	return func(i *IngestService) {
		if s != nil {
			i.splitter = s
		}
	}
}

// WithEmbedRateLimit caps embedding requests per second during
// ingestion, protecting a shared model server.
func WithEmbedRateLimit(perSecond float64) IngestOption {
	return func(i *IngestService) {
		if perSecond > 0 {
			i.limiter = rate.NewLimiter(rate.Limit(perSecond), 1)
		}
	}
}

// NewIngestService creates the ingestion service and starts its
// processing workers.
func NewIngestService(
	docStore driven.DocumentStore,
	userStore driven.UserStore,
	fileStore driven.FileStore,
	extractor driven.PageExtractor,
	embedder driven.EmbeddingService,
	vectorIndex driven.VectorIndex,
	workers int,
	opts ...IngestOption,
) *IngestService {
	s := &IngestService{
		docStore:    docStore,
		userStore:   userStore,
		fileStore:   fileStore,
		extractor:   extractor,
		embedder:    embedder,
		vectorIndex: vectorIndex,
		splitter:    textproc.NewSplitter(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.queue = NewProcessingQueue(workers, s.processQueued)
	return s
}

// Close drains the processing queue.
func (s *IngestService) Close() {
	s.queue.Close()
}

// Upload stores a PDF, records a pending document and queues it for
// processing. Re-uploading identical bytes returns the existing
// document wrapped in domain.ErrAlreadyExists.
func (s *IngestService) Upload(ctx context.Context, req driving.UploadRequest) (*domain.Document, error) {
	owner, err := s.userStore.GetUser(ctx, req.OwnerID)
	if err != nil {
		return nil, fmt.Errorf("resolving owner: %w", err)
	}
	if req.Visibility == domain.VisibilityPublic && owner.Role != domain.RoleAdmin {
		return nil, domain.ErrAccessDenied
	}
	if !strings.HasSuffix(strings.ToLower(req.Filename), ".pdf") {
		return nil, fmt.Errorf("%w: only PDF uploads are supported", domain.ErrInvalidInput)
	}

	data, err := io.ReadAll(req.Content)
	if err != nil {
		return nil, fmt.Errorf("reading upload: %w", err)
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: empty upload", domain.ErrInvalidInput)
	}

	sum := sha256.Sum256(data)
	fileHash := hex.EncodeToString(sum[:])

	if existing, err := s.docStore.FindByHash(ctx, req.OwnerID, fileHash); err == nil {
		logger.Info("Duplicate upload of %s by %s", req.Filename, owner.Username)
		return existing, domain.ErrAlreadyExists
	} else if !errors.Is(err, domain.ErrNotFound) {
		return nil, fmt.Errorf("checking for duplicate: %w", err)
	}

	storedPath, err := s.fileStore.Save(ctx, req.Filename, fileHash, bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("storing file: %w", err)
	}

	if err := s.extractor.Validate(ctx, storedPath); err != nil {
		_ = s.fileStore.Remove(ctx, storedPath)
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidInput, err)
	}

	doc, err := domain.NewDocument(uuid.New().String(), req.OwnerID, req.Filename, fileHash, int64(len(data)), req.Visibility)
	if err != nil {
		_ = s.fileStore.Remove(ctx, storedPath)
		return nil, err
	}
	doc.StoredPath = storedPath

	if err := s.docStore.SaveDocument(ctx, doc); err != nil {
		_ = s.fileStore.Remove(ctx, storedPath)
		return nil, fmt.Errorf("saving document: %w", err)
	}

	if err := s.queue.Enqueue(doc.ID); err != nil {
		logger.Warn("Enqueue %s: %v", doc.ID, err)
	}
	logger.Info("Uploaded %s (%d bytes) as document %s", req.Filename, len(data), doc.ID)
	return doc, nil
}

// Get retrieves a document the caller may see.
func (s *IngestService) Get(ctx context.Context, callerID, documentID string) (*domain.Document, error) {
	doc, err := s.docStore.GetDocument(ctx, documentID)
	if err != nil {
		return nil, err
	}
	if err := s.authorize(ctx, callerID, doc, false); err != nil {
		return nil, err
	}
	return doc, nil
}

// List returns the documents visible to the caller.
func (s *IngestService) List(ctx context.Context, callerID string) ([]*domain.Document, error) {
	caller, err := s.userStore.GetUser(ctx, callerID)
	if err != nil {
		return nil, fmt.Errorf("resolving caller: %w", err)
	}
	if caller.Role == domain.RoleAdmin {
		return s.docStore.ListAll(ctx)
	}
	return s.docStore.ListVisible(ctx, callerID)
}

// Delete removes a document with its chunks, vectors and stored file.
func (s *IngestService) Delete(ctx context.Context, callerID, documentID string) error {
	doc, err := s.docStore.GetDocument(ctx, documentID)
	if err != nil {
		return err
	}
	if err := s.authorize(ctx, callerID, doc, true); err != nil {
		return err
	}

	if err := s.vectorIndex.DeleteDocument(ctx, documentID); err != nil {
		logger.Warn("Deleting vectors for %s: %v", documentID, err)
	}
	if err := s.docStore.DeleteDocument(ctx, documentID); err != nil {
		return fmt.Errorf("deleting document: %w", err)
	}
	if doc.StoredPath != "" {
		if err := s.fileStore.Remove(ctx, doc.StoredPath); err != nil {
			logger.Warn("Removing file %s: %v", doc.StoredPath, err)
		}
	}
	logger.Info("Deleted document %s", documentID)
	return nil
}

// SetVisibility switches a document between private and public.
func (s *IngestService) SetVisibility(ctx context.Context, callerID, documentID string, v domain.Visibility) error {
	if !v.Valid() {
		return domain.ErrInvalidInput
	}
	doc, err := s.docStore.GetDocument(ctx, documentID)
	if err != nil {
		return err
	}
	if err := s.authorize(ctx, callerID, doc, true); err != nil {
		return err
	}
	return s.docStore.UpdateVisibility(ctx, documentID, v)
}

// Reprocess re-runs the pipeline for a document. Chunks are replaced
// atomically, so repeating a stuck run is safe.
func (s *IngestService) Reprocess(ctx context.Context, callerID, documentID string) error {
	doc, err := s.docStore.GetDocument(ctx, documentID)
	if err != nil {
		return err
	}
	if err := s.authorize(ctx, callerID, doc, true); err != nil {
		return err
	}
	return s.queue.Enqueue(documentID)
}

// authorize checks that the caller may see (or, for write=true,
// modify) the document. Owners and admins may modify; private
// documents are invisible to other users.
func (s *IngestService) authorize(ctx context.Context, callerID string, doc *domain.Document, write bool) error {
	if doc.OwnerID == callerID {
		return nil
	}
	caller, err := s.userStore.GetUser(ctx, callerID)
	if err != nil {
		return fmt.Errorf("resolving caller: %w", err)
	}
	if caller.Role == domain.RoleAdmin {
		return nil
	}
	if !write && doc.Visibility == domain.VisibilityPublic {
		return nil
	}
	return domain.ErrAccessDenied
}

// processQueued adapts the pipeline to the queue's callback shape.
func (s *IngestService) processQueued(ctx context.Context, documentID string) {
	if err := s.Process(ctx, documentID); err != nil {
		logger.Warn("Processing %s: %v", documentID, err)
	}
}

// Process runs the full pipeline for one document: extract pages,
// clean, detect sections, chunk, embed and index, then atomically
// persist the chunks with the completed transition. A document whose
// pages yield no text completes with zero chunks; only extraction or
// infrastructure failures mark it failed.
func (s *IngestService) Process(ctx context.Context, documentID string) error {
	doc, err := s.docStore.GetDocument(ctx, documentID)
	if err != nil {
		return err
	}

	if err := s.docStore.UpdateStatus(ctx, documentID, domain.StatusProcessing, ""); err != nil {
		return fmt.Errorf("marking processing: %w", err)
	}

	if err := s.runPipeline(ctx, doc); err != nil {
		if serr := s.docStore.UpdateStatus(ctx, documentID, domain.StatusFailed, err.Error()); serr != nil {
			logger.Warn("Marking %s failed: %v", documentID, serr)
		}
		return err
	}
	return nil
}

func (s *IngestService) runPipeline(ctx context.Context, doc *domain.Document) error {
	logger.Section("Document Processing")
	logger.Debug("Document %s (%s)", doc.ID, doc.Filename)

	pages, err := s.extractor.Extract(ctx, doc.StoredPath)
	if err != nil {
		return fmt.Errorf("extracting text: %w", err)
	}

	chunks := s.buildChunks(doc.ID, pages)
	logger.Info("Document %s: %d pages, %d chunks", doc.ID, len(pages), len(chunks))

	if len(chunks) > 0 {
		if err := s.embedChunks(ctx, chunks); err != nil {
			return fmt.Errorf("embedding chunks: %w", err)
		}

		// Replace, never append: stale vectors from an earlier run go first.
		if err := s.vectorIndex.DeleteDocument(ctx, doc.ID); err != nil {
			return fmt.Errorf("clearing old vectors: %w", err)
		}
		entries := make([]driven.VectorEntry, len(chunks))
		for i, c := range chunks {
			entries[i] = driven.VectorEntry{ChunkID: c.ID, DocumentID: doc.ID, Embedding: c.Embedding}
		}
		if err := s.vectorIndex.Add(ctx, entries); err != nil {
			return fmt.Errorf("indexing vectors: %w", err)
		}
	}

	if err := s.docStore.CompleteProcessing(ctx, doc.ID, len(pages), chunks); err != nil {
		return fmt.Errorf("persisting chunks: %w", err)
	}
	return nil
}

// buildChunks cleans the extracted pages, attempts section detection
// over the full text and splits section-wise when structure was found,
// page-wise otherwise.
func (s *IngestService) buildChunks(documentID string, pages []driven.PageText) []domain.Chunk {
	cleaned := make([]string, len(pages))
	var full strings.Builder
	for i, p := range pages {
		cleaned[i] = textproc.Clean(p.Text, p.Number)
		if cleaned[i] == "" {
			continue
		}
		fmt.Fprintf(&full, "[Page %d]\n%s\n", p.Number, cleaned[i])
	}

	var chunks []domain.Chunk
	index := 0
	add := func(content, section string, page int) {
		chunks = append(chunks, domain.Chunk{
			ID:         uuid.New().String(),
			DocumentID: documentID,
			Index:      index,
			Page:       page,
			Section:    section,
			Content:    content,
		})
		index++
	}

	if sections := textproc.DetectSections(full.String()); sections != nil {
		logger.Debug("Detected %d sections", len(sections))
		for _, sec := range sections {
			for _, piece := range s.splitter.Split(sec.Content) {
				add(piece, sec.Title, sec.Page)
			}
		}
		return chunks
	}

	for i, p := range pages {
		for _, piece := range s.splitter.Split(cleaned[i]) {
			add(piece, "", p.Number)
		}
	}
	return chunks
}

// embedChunks fills in chunk embeddings in batches, honouring the
// configured rate limit.
func (s *IngestService) embedChunks(ctx context.Context, chunks []domain.Chunk) error {
	if s.embedder == nil {
		return domain.ErrEmbeddingUnavailable
	}

	for start := 0; start < len(chunks); start += embedBatchSize {
		end := start + embedBatchSize
		if end > len(chunks) {
			end = len(chunks)
		}

		if s.limiter != nil {
			if err := s.limiter.Wait(ctx); err != nil {
				return err
			}
		}

		texts := make([]string, end-start)
		for i := start; i < end; i++ {
			texts[i-start] = chunks[i].Content
		}
		vectors, err := s.embedder.EmbedBatch(ctx, texts)
		if err != nil {
			return err
		}
		if len(vectors) != len(texts) {
			return fmt.Errorf("embedding batch returned %d vectors for %d texts", len(vectors), len(texts))
		}
		for i := start; i < end; i++ {
			chunks[i].Embedding = vectors[i-start]
		}
	}
	return nil
}
