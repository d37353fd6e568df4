package domain

import "time"

// RetrievalStrategy tags which search produced a candidate.
type RetrievalStrategy string

const (
	StrategyDirect   RetrievalStrategy = "direct"
	StrategyMMR      RetrievalStrategy = "mmr"
	StrategyKeyword  RetrievalStrategy = "keyword"
	StrategySemantic RetrievalStrategy = "semantic"
)

// RetrievalCandidate is one chunk surfaced by a retrieval strategy.
// Candidates are ephemeral: produced per query, merged, ranked and
// discarded after answer synthesis.
type RetrievalCandidate struct {
	// Chunk is the matched chunk.
	Chunk Chunk

	// Distance is the similarity distance (lower = more similar).
	Distance float64

	// Strategy identifies the search that produced this candidate.
	Strategy RetrievalStrategy
}

// SourceRef is one citation attached to an answer.
type SourceRef struct {
	// DocumentID identifies the source document.
	DocumentID string `json:"document_id"`

	// Filename is the human-readable source label.
	Filename string `json:"filename"`

	// Page is the source page number.
	Page int `json:"page"`

	// Excerpt is a short preview of the matched chunk.
	Excerpt string `json:"excerpt"`

	// Relevance is 1-distance, clamped to [0,1].
	Relevance float64 `json:"relevance"`
}

// Answer is the result of one question against the corpus.
// Degraded outcomes use the same shape: a message in Text, no sources,
// zero confidence. Callers never need to distinguish failure shapes.
type Answer struct {
	// Text is the synthesized answer, or a degraded-service message.
	Text string `json:"answer"`

	// Sources lists up to five cited document/page pairs.
	Sources []SourceRef `json:"sources"`

	// Confidence is the best candidate's relevance, zero when degraded.
	Confidence float64 `json:"confidence"`

	// Duration is the total query wall time.
	Duration time.Duration `json:"response_time"`
}

// Degraded builds the uniform fallback answer shape.
func Degraded(message string) Answer {
	return Answer{Text: message, Sources: []SourceRef{}}
}

// AskOptions configures a single query.
type AskOptions struct {
	// TopK is the number of candidates per strategy (default 10).
	TopK int

	// UseMMR enables diversity-aware re-selection over a 2k pool.
	UseMMR bool

	// MMRLambda trades relevance (1.0) against diversity (0.0).
	MMRLambda float64

	// KeywordExpansion issues one small search per important question word.
	KeywordExpansion bool

	// SemanticExpansion issues one search for a reworded question.
	SemanticExpansion bool
}
