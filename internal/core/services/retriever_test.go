package services

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/pdfrag/internal/core/domain"
	"github.com/custodia-labs/pdfrag/internal/core/ports/driven"
)

func TestRetrieveDirect(t *testing.T) {
	index := &mockVectorIndex{hits: []driven.VectorHit{
		{ChunkID: "c1", DocumentID: "d1", Distance: 0.1},
		{ChunkID: "c2", DocumentID: "d1", Distance: 0.3},
	}}
	r := NewRetriever(index, &mockEmbedder{})

	scope := domain.NewAccessScope([]string{"d1"})
	got, err := r.Retrieve(context.Background(), "question text", scope, domain.AskOptions{})
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, domain.StrategyDirect, got[0].Strategy)
	assert.Equal(t, "c1", got[0].Chunk.ID)
}

func TestRetrieveEmptyScope(t *testing.T) {
	r := NewRetriever(&mockVectorIndex{}, &mockEmbedder{})
	got, err := r.Retrieve(context.Background(), "question", domain.NewAccessScope(nil), domain.AskOptions{})
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestRetrieveMissingServices(t *testing.T) {
	scope := domain.NewAccessScope([]string{"d1"})

	_, err := NewRetriever(nil, &mockEmbedder{}).Retrieve(context.Background(), "q", scope, domain.AskOptions{})
	assert.ErrorIs(t, err, domain.ErrVectorIndexUnavailable)

	_, err = NewRetriever(&mockVectorIndex{}, nil).Retrieve(context.Background(), "q", scope, domain.AskOptions{})
	assert.ErrorIs(t, err, domain.ErrEmbeddingUnavailable)
}

func TestRetrieveScopedFallback(t *testing.T) {
	// The scoped search fails; the retriever must retry unfiltered and
	// apply the scope in process.
	index := &mockVectorIndex{
		scopedErr: errors.New("filter not supported"),
		hits: []driven.VectorHit{
			{ChunkID: "mine", DocumentID: "d1", Distance: 0.1},
			{ChunkID: "other", DocumentID: "d-hidden", Distance: 0.05},
		},
	}
	r := NewRetriever(index, &mockEmbedder{})

	got, err := r.Retrieve(context.Background(), "question", domain.NewAccessScope([]string{"d1"}), domain.AskOptions{})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "mine", got[0].Chunk.ID)
}

func TestRetrieveAllStrategiesFail(t *testing.T) {
	index := &mockVectorIndex{searchErr: errors.New("index down")}
	r := NewRetriever(index, &mockEmbedder{})

	_, err := r.Retrieve(context.Background(), "question", domain.NewAccessScope([]string{"d1"}), domain.AskOptions{})
	assert.ErrorIs(t, err, domain.ErrRetrievalFailed)
}

func TestRetrieveStrategyFailureIsolated(t *testing.T) {
	// The direct strategy succeeds while keyword expansion fails at the
	// embedding stage for every keyword; partial results are fine.
	index := &mockVectorIndex{hits: []driven.VectorHit{
		{ChunkID: "c1", DocumentID: "d1", Distance: 0.2},
	}}
	embedder := &failAfterFirstEmbedder{inner: &mockEmbedder{}}
	r := NewRetriever(index, embedder)

	opts := domain.AskOptions{KeywordExpansion: true}
	got, err := r.Retrieve(context.Background(), "university parking regulations", domain.NewAccessScope([]string{"d1"}), opts)
	require.NoError(t, err)
	require.NotEmpty(t, got)
	for _, c := range got {
		assert.Equal(t, domain.StrategyDirect, c.Strategy)
	}
}

func TestRetrieveExpansionStrategiesPool(t *testing.T) {
	index := &mockVectorIndex{hits: []driven.VectorHit{
		{ChunkID: "c1", DocumentID: "d1", Distance: 0.2},
	}}
	embedder := &mockEmbedder{}
	r := NewRetriever(index, embedder)

	opts := domain.AskOptions{KeywordExpansion: true, SemanticExpansion: true}
	got, err := r.Retrieve(context.Background(), "university parking regulations", domain.NewAccessScope([]string{"d1"}), opts)
	require.NoError(t, err)

	// direct + 3 keywords + semantic all hit the same single vector.
	assert.Len(t, got, 5)

	strategies := make(map[domain.RetrievalStrategy]bool)
	for _, c := range got {
		strategies[c.Strategy] = true
	}
	assert.True(t, strategies[domain.StrategyDirect])
	assert.True(t, strategies[domain.StrategyKeyword])
	assert.True(t, strategies[domain.StrategySemantic])

	// The semantic expansion rewords the question.
	assert.Contains(t, embedder.calls, "Information about university parking regulations")
}

func TestRetrieveMMRSelectsDiverse(t *testing.T) {
	// Two near-identical vectors and one distinct; MMR over the pool
	// must pick the distinct vector second despite its worse distance.
	index := &mockVectorIndex{hits: []driven.VectorHit{
		{ChunkID: "a", DocumentID: "d1", Distance: 0.10, Embedding: []float32{1, 0, 0}},
		{ChunkID: "a2", DocumentID: "d1", Distance: 0.11, Embedding: []float32{0.99, 0.01, 0}},
		{ChunkID: "b", DocumentID: "d1", Distance: 0.30, Embedding: []float32{0, 1, 0}},
	}}
	r := NewRetriever(index, &mockEmbedder{embedding: []float32{1, 0, 0}})

	opts := domain.AskOptions{UseMMR: true, TopK: 2, MMRLambda: 0.5}
	got, err := r.Retrieve(context.Background(), "question", domain.NewAccessScope([]string{"d1"}), opts)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "a", got[0].Chunk.ID)
	assert.Equal(t, "b", got[1].Chunk.ID)
	assert.Equal(t, domain.StrategyMMR, got[0].Strategy)
}

func TestExpansionKeywords(t *testing.T) {
	kws := expansionKeywords("What does the university charge for parking permits annually")
	require.LessOrEqual(t, len(kws), maxExpansionKeywords)
	assert.Equal(t, []string{"university", "charge", "parking"}, kws)

	assert.Empty(t, expansionKeywords("is it ok"))
}

// failAfterFirstEmbedder lets the first Embed call through and fails
// the rest, isolating the expansion strategies.
type failAfterFirstEmbedder struct {
	inner *mockEmbedder
	mu    sync.Mutex
	n     int
}

func (f *failAfterFirstEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	f.mu.Lock()
	f.n++
	n := f.n
	f.mu.Unlock()
	if n > 1 {
		return nil, errors.New("embedder overloaded")
	}
	return f.inner.Embed(ctx, text)
}

func (f *failAfterFirstEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	return f.inner.EmbedBatch(ctx, texts)
}

func (f *failAfterFirstEmbedder) Dimensions() int              { return f.inner.Dimensions() }
func (f *failAfterFirstEmbedder) ModelName() string            { return f.inner.ModelName() }
func (f *failAfterFirstEmbedder) Ping(ctx context.Context) error { return f.inner.Ping(ctx) }
func (f *failAfterFirstEmbedder) Close() error                 { return nil }
