package services

import (
	"fmt"
	"strings"

	"github.com/custodia-labs/pdfrag/internal/core/domain"
)

// DefaultContextBudget bounds the assembled context in characters,
// sized to fit the default model context window.
const DefaultContextBudget = 4000

// maxSources caps the citation list shown to callers.
const maxSources = 5

// excerptLength is the citation preview size in characters.
const excerptLength = 200

// blockSeparator joins context blocks in the prompt.
const blockSeparator = "\n\n"

// Assembler builds a length-bounded, source-attributed context string
// from ranked candidates, plus a deduplicated citation list.
type Assembler struct {
	maxLength int
	labels    map[string]string
}

// NewAssembler creates an assembler with the given context budget.
// Labels map document IDs to display names (usually filenames).
func NewAssembler(maxLength int, labels map[string]string) *Assembler {
	if maxLength <= 0 {
		maxLength = DefaultContextBudget
	}
	return &Assembler{maxLength: maxLength, labels: labels}
}

// Assemble walks ranked candidates in order, prefixing each chunk with
// a source tag and appending until the next whole block would overflow
// the budget. Blocks are all-or-nothing; no partial truncation.
func (a *Assembler) Assemble(ranked []domain.RetrievalCandidate) (string, []domain.SourceRef) {
	var blocks []string
	total := 0

	for _, c := range ranked {
		block := fmt.Sprintf("From %s page %d:\n%s", a.label(c.Chunk.DocumentID), c.Chunk.Page, c.Chunk.Content)
		cost := len(block)
		if len(blocks) > 0 {
			cost += len(blockSeparator)
		}
		if total+cost > a.maxLength {
			break
		}
		blocks = append(blocks, block)
		total += cost
	}

	return strings.Join(blocks, blockSeparator), a.sources(ranked)
}

// sources builds the citation list, deduplicated by document and page,
// capped at five entries.
func (a *Assembler) sources(ranked []domain.RetrievalCandidate) []domain.SourceRef {
	seen := make(map[string]struct{})
	var refs []domain.SourceRef

	for _, c := range ranked {
		if len(refs) >= maxSources {
			break
		}
		key := fmt.Sprintf("%s:%d", c.Chunk.DocumentID, c.Chunk.Page)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}

		refs = append(refs, domain.SourceRef{
			DocumentID: c.Chunk.DocumentID,
			Filename:   a.label(c.Chunk.DocumentID),
			Page:       c.Chunk.Page,
			Excerpt:    excerpt(c.Chunk.Content),
			Relevance:  relevance(c.Distance),
		})
	}
	return refs
}

func (a *Assembler) label(documentID string) string {
	if name, ok := a.labels[documentID]; ok && name != "" {
		return name
	}
	return "Unknown"
}

// excerpt returns the first excerptLength characters of the chunk,
// with an ellipsis when truncated.
func excerpt(content string) string {
	content = strings.TrimSpace(content)
	runes := []rune(content)
	if len(runes) <= excerptLength {
		return content
	}
	return string(runes[:excerptLength]) + "..."
}

// relevance converts a distance into a score in [0,1].
func relevance(distance float64) float64 {
	r := 1 - distance
	if r < 0 {
		return 0
	}
	if r > 1 {
		return 1
	}
	return r
}
