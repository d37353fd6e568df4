package services

import (
	"sort"
	"strings"
	"unicode"

	"github.com/custodia-labs/pdfrag/internal/core/domain"
	"github.com/custodia-labs/pdfrag/internal/logger"
)

// DefaultDistanceWeight and DefaultOverlapWeight blend vector distance
// with keyword overlap during re-ranking. The split is a tunable policy
// choice, not a derived optimum.
const (
	DefaultDistanceWeight = 0.7
	DefaultOverlapWeight  = 0.3
)

// DefaultDistanceCutoff discards candidates whose distance exceeds it.
const DefaultDistanceCutoff = 1.0

// fallbackKeep is how many candidates survive when the cutoff would
// otherwise discard everything.
const fallbackKeep = 3

// Ranker merges, deduplicates and orders retrieval candidates.
// Ranking is a pure function of its input; ranking the same candidate
// list twice yields the same output.
type Ranker struct {
	distanceWeight float64
	overlapWeight  float64
	cutoff         float64
	blendKeywords  bool
}

// RankerOption configures the ranker.
type RankerOption func(*Ranker)

// WithBlendWeights sets the distance/overlap blend weights.
func WithBlendWeights(distance, overlap float64) RankerOption {
	return func(r *Ranker) {
		if distance >= 0 && overlap >= 0 && distance+overlap > 0 {
			r.distanceWeight = distance
			r.overlapWeight = overlap
		}
	}
}

// WithDistanceCutoff sets the similarity threshold filter.
func WithDistanceCutoff(cutoff float64) RankerOption {
	return func(r *Ranker) {
		if cutoff > 0 {
			r.cutoff = cutoff
		}
	}
}

// WithKeywordBlend enables keyword-overlap re-ranking.
func WithKeywordBlend(enabled bool) RankerOption {
	return func(r *Ranker) {
		r.blendKeywords = enabled
	}
}

// NewRanker creates a ranker with the given options.
func NewRanker(opts ...RankerOption) *Ranker {
	r := &Ranker{
		distanceWeight: DefaultDistanceWeight,
		overlapWeight:  DefaultOverlapWeight,
		cutoff:         DefaultDistanceCutoff,
		blendKeywords:  true,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Rank deduplicates candidates by content fingerprint, orders them by
// ascending distance (optionally blended with keyword overlap against
// the question) and applies the distance cutoff. When the cutoff would
// discard every candidate, the best three are kept instead, so the
// synthesizer always receives context when any candidates exist.
func (r *Ranker) Rank(question string, candidates []domain.RetrievalCandidate) []domain.RetrievalCandidate {
	if len(candidates) == 0 {
		return nil
	}

	merged := dedupByFingerprint(candidates)
	logger.Debug("Ranking %d candidates (%d after dedup)", len(candidates), len(merged))

	if r.blendKeywords {
		words := questionWords(question)
		sort.SliceStable(merged, func(i, j int) bool {
			return r.blended(merged[i], words) < r.blended(merged[j], words)
		})
	} else {
		sort.SliceStable(merged, func(i, j int) bool {
			return merged[i].Distance < merged[j].Distance
		})
	}

	kept := merged[:0:0]
	for _, c := range merged {
		if c.Distance <= r.cutoff {
			kept = append(kept, c)
		}
	}
	if len(kept) == 0 {
		// Threshold would starve the synthesizer; keep the best few.
		n := fallbackKeep
		if n > len(merged) {
			n = len(merged)
		}
		logger.Debug("All candidates above cutoff %.2f, keeping top %d", r.cutoff, n)
		byDistance := append([]domain.RetrievalCandidate(nil), merged...)
		sort.SliceStable(byDistance, func(i, j int) bool {
			return byDistance[i].Distance < byDistance[j].Distance
		})
		return byDistance[:n]
	}
	return kept
}

func (r *Ranker) blended(c domain.RetrievalCandidate, words []string) float64 {
	overlap := keywordOverlap(c.Chunk.Content, words)
	return r.distanceWeight*c.Distance + r.overlapWeight*(1-overlap)
}

// dedupByFingerprint merges candidates whose content fingerprints
// collide, keeping the lowest distance for each. Input order is
// preserved for the surviving entries.
func dedupByFingerprint(candidates []domain.RetrievalCandidate) []domain.RetrievalCandidate {
	best := make(map[string]int, len(candidates))
	var out []domain.RetrievalCandidate
	for _, c := range candidates {
		fp := c.Chunk.Fingerprint()
		if i, seen := best[fp]; seen {
			if c.Distance < out[i].Distance {
				out[i] = c
			}
			continue
		}
		best[fp] = len(out)
		out = append(out, c)
	}
	return out
}

// keywordOverlap is the fraction of question words present in the text.
func keywordOverlap(text string, words []string) float64 {
	if len(words) == 0 {
		return 0
	}
	lower := strings.ToLower(text)
	hits := 0
	for _, w := range words {
		if strings.Contains(lower, w) {
			hits++
		}
	}
	return float64(hits) / float64(len(words))
}

// questionWords tokenizes a question into lowercase word forms.
func questionWords(question string) []string {
	fields := strings.FieldsFunc(strings.ToLower(question), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	var words []string
	for _, f := range fields {
		if f != "" {
			words = append(words, f)
		}
	}
	return words
}
