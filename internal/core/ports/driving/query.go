package driving

import (
	"context"

	"github.com/custodia-labs/pdfrag/internal/core/domain"
)

// QuestionService answers natural-language questions over the corpus.
type QuestionService interface {
	// Ask retrieves relevant chunks within the caller's access scope and
	// synthesizes an answer. It never returns an error for degraded
	// service conditions; those surface as a degraded Answer instead.
	Ask(ctx context.Context, callerID, question string, opts domain.AskOptions) (domain.Answer, error)

	// Search runs retrieval and ranking without answer synthesis,
	// returning the ranked candidates directly.
	Search(ctx context.Context, callerID, question string, opts domain.AskOptions) ([]domain.RetrievalCandidate, error)
}
