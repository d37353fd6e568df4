package services

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/custodia-labs/pdfrag/internal/core/domain"
	"github.com/custodia-labs/pdfrag/internal/core/ports/driven"
	"github.com/custodia-labs/pdfrag/internal/logger"
)

// DefaultTopK is the candidate count per retrieval strategy.
const DefaultTopK = 10

// DefaultMMRLambda trades relevance against diversity in MMR selection.
const DefaultMMRLambda = 0.5

// maxExpansionKeywords bounds the keyword-expansion fan-out.
const maxExpansionKeywords = 3

// minKeywordLength is the shortest question word worth expanding.
const minKeywordLength = 4

// keywordSearchK is the per-keyword result count.
const keywordSearchK = 3

// Retriever fans a question out across several similarity-search
// strategies against the vector index, restricted to an access scope.
// Strategy failures are isolated; partial results are acceptable.
type Retriever struct {
	vectorIndex driven.VectorIndex
	embedder    driven.EmbeddingService
}

// NewRetriever creates a retriever.
func NewRetriever(vectorIndex driven.VectorIndex, embedder driven.EmbeddingService) *Retriever {
	return &Retriever{vectorIndex: vectorIndex, embedder: embedder}
}

// Retrieve runs the enabled strategies concurrently and pools their
// candidates. Only when every strategy fails does it return
// domain.ErrRetrievalFailed; the caller turns that into a degraded
// answer, never a crash.
func (r *Retriever) Retrieve(ctx context.Context, question string, scope domain.AccessScope, opts domain.AskOptions) ([]domain.RetrievalCandidate, error) {
	if r.vectorIndex == nil {
		return nil, domain.ErrVectorIndexUnavailable
	}
	if r.embedder == nil {
		return nil, domain.ErrEmbeddingUnavailable
	}
	if scope.Empty() {
		logger.Debug("Empty access scope, nothing to retrieve")
		return nil, nil
	}

	k := opts.TopK
	if k <= 0 {
		k = DefaultTopK
	}

	queryVec, err := r.embedder.Embed(ctx, question)
	if err != nil {
		return nil, fmt.Errorf("embedding question: %w", err)
	}

	logger.Section("Retrieval")

	var mu sync.Mutex
	var pooled []domain.RetrievalCandidate
	failures := 0
	strategies := 0

	collect := func(strategy domain.RetrievalStrategy, run func() ([]domain.RetrievalCandidate, error)) func() error {
		strategies++
		return func() error {
			candidates, err := run()
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				logger.Warn("Strategy %s failed: %v", strategy, err)
				failures++
				return nil
			}
			logger.Debug("Strategy %s: %d candidates", strategy, len(candidates))
			pooled = append(pooled, candidates...)
			return nil
		}
	}

	g, gctx := errgroup.WithContext(ctx)

	if opts.UseMMR {
		g.Go(collect(domain.StrategyMMR, func() ([]domain.RetrievalCandidate, error) {
			return r.mmrSearch(gctx, queryVec, k, opts.MMRLambda, scope)
		}))
	} else {
		g.Go(collect(domain.StrategyDirect, func() ([]domain.RetrievalCandidate, error) {
			return r.search(gctx, queryVec, k, scope, domain.StrategyDirect)
		}))
	}

	if opts.KeywordExpansion {
		for _, kw := range expansionKeywords(question) {
			keyword := kw
			g.Go(collect(domain.StrategyKeyword, func() ([]domain.RetrievalCandidate, error) {
				vec, err := r.embedder.Embed(gctx, keyword)
				if err != nil {
					return nil, err
				}
				return r.search(gctx, vec, keywordSearchK, scope, domain.StrategyKeyword)
			}))
		}
	}

	if opts.SemanticExpansion {
		g.Go(collect(domain.StrategySemantic, func() ([]domain.RetrievalCandidate, error) {
			vec, err := r.embedder.Embed(gctx, "Information about "+question)
			if err != nil {
				return nil, err
			}
			return r.search(gctx, vec, k, scope, domain.StrategySemantic)
		}))
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	if failures == strategies && strategies > 0 {
		return nil, domain.ErrRetrievalFailed
	}
	return pooled, nil
}

// search issues one scoped nearest-neighbour search. If the backend
// rejects the scoped query, it retries unfiltered and applies the
// access scope in process.
func (r *Retriever) search(ctx context.Context, vec []float32, k int, scope domain.AccessScope, strategy domain.RetrievalStrategy) ([]domain.RetrievalCandidate, error) {
	hits, err := r.vectorIndex.Search(ctx, vec, k, scope.IDs())
	if err != nil {
		logger.Warn("Scoped search failed, retrying unfiltered: %v", err)
		unfiltered, uerr := r.vectorIndex.Search(ctx, vec, k, nil)
		if uerr != nil {
			return nil, fmt.Errorf("vector search: %w", uerr)
		}
		hits = filterHits(unfiltered, scope)
	}
	return hitsToCandidates(hits, strategy), nil
}

// mmrSearch fetches a doubled candidate pool and re-selects k results
// by maximal marginal relevance, balancing similarity to the query
// against pairwise diversity.
func (r *Retriever) mmrSearch(ctx context.Context, queryVec []float32, k int, lambda float64, scope domain.AccessScope) ([]domain.RetrievalCandidate, error) {
	if lambda <= 0 || lambda > 1 {
		lambda = DefaultMMRLambda
	}

	fetchK := 2 * k
	hits, err := r.vectorIndex.Search(ctx, queryVec, fetchK, scope.IDs())
	if err != nil {
		unfiltered, uerr := r.vectorIndex.Search(ctx, queryVec, fetchK, nil)
		if uerr != nil {
			return nil, fmt.Errorf("vector search: %w", uerr)
		}
		hits = filterHits(unfiltered, scope)
	}

	// Without stored vectors there is nothing to diversify against;
	// fall back to the plain ordering.
	pool := hits[:0:0]
	for _, h := range hits {
		if len(h.Embedding) > 0 {
			pool = append(pool, h)
		}
	}
	if len(pool) < 2 {
		if len(hits) > k {
			hits = hits[:k]
		}
		return hitsToCandidates(hits, domain.StrategyMMR), nil
	}

	selected := mmrSelect(queryVec, pool, k, lambda)
	return hitsToCandidates(selected, domain.StrategyMMR), nil
}

// mmrSelect greedily picks hits maximizing
// lambda*sim(query, hit) - (1-lambda)*max sim(hit, already selected).
func mmrSelect(queryVec []float32, pool []driven.VectorHit, k int, lambda float64) []driven.VectorHit {
	if k > len(pool) {
		k = len(pool)
	}

	remaining := append([]driven.VectorHit(nil), pool...)
	sort.SliceStable(remaining, func(i, j int) bool {
		return remaining[i].Distance < remaining[j].Distance
	})

	var selected []driven.VectorHit
	for len(selected) < k && len(remaining) > 0 {
		bestIdx := 0
		bestScore := -1.0
		for i, h := range remaining {
			rel := 1 - h.Distance
			maxSim := 0.0
			for _, s := range selected {
				if sim := cosineSimilarity(h.Embedding, s.Embedding); sim > maxSim {
					maxSim = sim
				}
			}
			score := lambda*rel - (1-lambda)*maxSim
			if score > bestScore {
				bestScore = score
				bestIdx = i
			}
		}
		selected = append(selected, remaining[bestIdx])
		remaining = append(remaining[:bestIdx], remaining[bestIdx+1:]...)
	}
	return selected
}

func cosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, na, nb float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}

func filterHits(hits []driven.VectorHit, scope domain.AccessScope) []driven.VectorHit {
	out := hits[:0:0]
	for _, h := range hits {
		if scope.Allows(h.DocumentID) {
			out = append(out, h)
		}
	}
	return out
}

func hitsToCandidates(hits []driven.VectorHit, strategy domain.RetrievalStrategy) []domain.RetrievalCandidate {
	out := make([]domain.RetrievalCandidate, 0, len(hits))
	for _, h := range hits {
		out = append(out, domain.RetrievalCandidate{
			Chunk:    domain.Chunk{ID: h.ChunkID, DocumentID: h.DocumentID, Embedding: h.Embedding},
			Distance: h.Distance,
			Strategy: strategy,
		})
	}
	return out
}

// expansionKeywords extracts up to three important words (longer than
// three characters) from the question for keyword-expansion searches.
func expansionKeywords(question string) []string {
	var keywords []string
	for _, w := range questionWords(question) {
		if len(w) >= minKeywordLength && !stopWords[w] {
			keywords = append(keywords, w)
			if len(keywords) == maxExpansionKeywords {
				break
			}
		}
	}
	return keywords
}

var stopWords = map[string]bool{
	"what": true, "when": true, "where": true, "which": true,
	"this": true, "that": true, "with": true, "from": true,
	"about": true, "does": true, "have": true, "will": true,
}
