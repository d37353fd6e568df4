package services

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/pdfrag/internal/core/domain"
)

func candidate(content string, distance float64) domain.RetrievalCandidate {
	return domain.RetrievalCandidate{
		Chunk:    domain.Chunk{ID: content[:8], Content: content, Page: 1},
		Distance: distance,
		Strategy: domain.StrategyDirect,
	}
}

func TestRankEmpty(t *testing.T) {
	r := NewRanker()
	assert.Nil(t, r.Rank("question", nil))
}

func TestRankMergesFingerprintCollisions(t *testing.T) {
	r := NewRanker(WithKeywordBlend(false))

	// Two candidates sharing the first 100 characters must merge into
	// one entry carrying the better distance.
	prefix := strings.Repeat("shared text ", 10)
	a := candidate(prefix+"tail one", 0.5)
	b := candidate(prefix+"tail two", 0.3)

	ranked := r.Rank("question", []domain.RetrievalCandidate{a, b})
	require.Len(t, ranked, 1)
	assert.Equal(t, 0.3, ranked[0].Distance)
}

func TestRankOrdersByDistance(t *testing.T) {
	r := NewRanker(WithKeywordBlend(false))

	ranked := r.Rank("question", []domain.RetrievalCandidate{
		candidate("third candidate content here", 0.9),
		candidate("first candidate content here", 0.1),
		candidate("second candidate content yes", 0.5),
	})
	require.Len(t, ranked, 3)
	assert.Equal(t, 0.1, ranked[0].Distance)
	assert.Equal(t, 0.5, ranked[1].Distance)
	assert.Equal(t, 0.9, ranked[2].Distance)
}

func TestRankKeywordBlendPromotesOverlap(t *testing.T) {
	r := NewRanker(WithKeywordBlend(true), WithBlendWeights(0.7, 0.3))

	// Slightly worse distance but full keyword overlap should win over
	// a closer vector with no overlap.
	relevant := candidate("the annual parking permit costs fifty dollars", 0.45)
	irrelevant := candidate("completely unrelated content about weather", 0.40)

	ranked := r.Rank("parking permit costs", []domain.RetrievalCandidate{irrelevant, relevant})
	require.Len(t, ranked, 2)
	assert.Equal(t, relevant.Chunk.Content, ranked[0].Chunk.Content)
}

func TestRankCutoffKeepsTopThree(t *testing.T) {
	r := NewRanker(WithKeywordBlend(false), WithDistanceCutoff(0.5))

	// All five candidates sit above the cutoff; the three best must
	// survive rather than returning nothing.
	ranked := r.Rank("question", []domain.RetrievalCandidate{
		candidate("candidate number one content", 0.95),
		candidate("candidate number two content", 0.70),
		candidate("candidate number three stuff", 0.99),
		candidate("candidate number four filler", 0.80),
		candidate("candidate number five extras", 0.60),
	})
	require.Len(t, ranked, 3)
	assert.Equal(t, 0.60, ranked[0].Distance)
	assert.Equal(t, 0.70, ranked[1].Distance)
	assert.Equal(t, 0.80, ranked[2].Distance)
}

func TestRankCutoffFilters(t *testing.T) {
	r := NewRanker(WithKeywordBlend(false), WithDistanceCutoff(0.5))

	ranked := r.Rank("question", []domain.RetrievalCandidate{
		candidate("kept candidate content here", 0.2),
		candidate("discarded candidate content", 0.9),
	})
	require.Len(t, ranked, 1)
	assert.Equal(t, 0.2, ranked[0].Distance)
}

func TestRankIsIdempotent(t *testing.T) {
	r := NewRanker()

	input := []domain.RetrievalCandidate{
		candidate("one candidate with parking words", 0.4),
		candidate("two candidate with other words", 0.2),
		candidate("three candidate more filler text", 0.6),
	}

	first := r.Rank("parking rules", input)
	second := r.Rank("parking rules", input)
	require.Equal(t, len(first), len(second))
	for i := range first {
		assert.Equal(t, first[i].Chunk.ID, second[i].Chunk.ID)
		assert.Equal(t, first[i].Distance, second[i].Distance)
	}
}

func TestKeywordOverlap(t *testing.T) {
	words := questionWords("Where is the parking garage")
	full := keywordOverlap("the parking garage is where the cars go", words)
	assert.Equal(t, 1.0, full)

	none := keywordOverlap("completely different text", []string{"parking"})
	assert.Equal(t, 0.0, none)
}
