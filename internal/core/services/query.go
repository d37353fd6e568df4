package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/custodia-labs/pdfrag/internal/core/domain"
	"github.com/custodia-labs/pdfrag/internal/core/ports/driven"
	"github.com/custodia-labs/pdfrag/internal/core/ports/driving"
	"github.com/custodia-labs/pdfrag/internal/logger"
)

// Ensure QueryService implements the interface.
var _ driving.QuestionService = (*QueryService)(nil)

// Degraded-service messages. All degraded outcomes share the success
// shape: answer text, empty sources, zero confidence.
const (
	msgNoDocuments       = "No relevant documents found. Please upload some PDFs first."
	msgSearchUnavailable = "Unable to search your documents right now. Please try again later."
	msgAnswerUnavailable = "The language model could not produce an answer right now. Please try again later."
)

const promptTemplate = `You are an expert in answering questions about uploaded documents.

Here are some relevant excerpts from uploaded documents:
%s

Question: %s

Please provide a clear, helpful, and concise answer.
- Focus on summarizing what the documents say
- If the exact answer is not found, provide the closest related information
- Do not invent facts outside the documents
`

// Generation defaults matched to the retrieval context budget.
const (
	defaultTemperature   = 0.2
	defaultMaxTokens     = 512
	defaultContextWindow = 4096
)

// retryContextBudget truncates the context for the simplified retry.
const retryContextBudget = 1000

// QueryService answers questions by retrieving, ranking and assembling
// chunk context, then synthesizing an answer with the language model.
type QueryService struct {
	access    *AccessControl
	retriever *Retriever
	ranker    *Ranker
	docStore  driven.DocumentStore
	llm       driven.LLMService
	queryLog  driven.QueryLogStore

	contextBudget int
	genOpts       driven.GenerateOptions
}

// QueryOption configures the query service.
type QueryOption func(*QueryService)

// WithContextBudget sets the assembled-context character budget.
func WithContextBudget(budget int) QueryOption {
	return func(q *QueryService) {
		if budget > 0 {
			q.contextBudget = budget
		}
	}
}

// WithGenerateOptions overrides the default generation parameters.
func WithGenerateOptions(opts driven.GenerateOptions) QueryOption {
	return func(q *QueryService) {
		if opts.Temperature > 0 {
			q.genOpts.Temperature = opts.Temperature
		}
		if opts.MaxTokens > 0 {
			q.genOpts.MaxTokens = opts.MaxTokens
		}
		if opts.ContextWindow > 0 {
			q.genOpts.ContextWindow = opts.ContextWindow
		}
	}
}

// NewQueryService creates a query service. The LLM service may be nil;
// Ask then degrades to a sources-only answer. The query log may be nil.
func NewQueryService(
	access *AccessControl,
	retriever *Retriever,
	ranker *Ranker,
	docStore driven.DocumentStore,
	llm driven.LLMService,
	queryLog driven.QueryLogStore,
	opts ...QueryOption,
) *QueryService {
	q := &QueryService{
		access:        access,
		retriever:     retriever,
		ranker:        ranker,
		docStore:      docStore,
		llm:           llm,
		queryLog:      queryLog,
		contextBudget: DefaultContextBudget,
		genOpts: driven.GenerateOptions{
			Temperature:   defaultTemperature,
			MaxTokens:     defaultMaxTokens,
			ContextWindow: defaultContextWindow,
		},
	}
	for _, opt := range opts {
		opt(q)
	}
	return q
}

// Ask answers a question over the caller's visible documents.
// Degraded conditions (no documents, retrieval failure, generation
// failure) surface as answers, never as errors; only an unknown or
// inactive caller returns an error.
func (q *QueryService) Ask(ctx context.Context, callerID, question string, opts domain.AskOptions) (domain.Answer, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return domain.Answer{}, domain.ErrInvalidInput
	}

	start := time.Now()
	logger.Section("Query")
	logger.Debug("Question: %q", question)

	scope, err := q.access.ScopeFor(ctx, callerID)
	if err != nil {
		return domain.Answer{}, err
	}

	ranked, err := q.searchScoped(ctx, question, scope, opts)
	if err != nil {
		logger.Warn("Retrieval failed: %v", err)
		return q.finish(ctx, callerID, question, domain.Degraded(msgSearchUnavailable), start), nil
	}
	if len(ranked) == 0 {
		return q.finish(ctx, callerID, question, domain.Degraded(msgNoDocuments), start), nil
	}

	labels, err := q.documentLabels(ctx, ranked)
	if err != nil {
		logger.Warn("Resolving document labels: %v", err)
	}

	assembler := NewAssembler(q.contextBudget, labels)
	contextText, sources := assembler.Assemble(ranked)

	answerText, err := q.generate(ctx, question, contextText)
	if err != nil {
		logger.Warn("Answer synthesis failed twice: %v", err)
		return q.finish(ctx, callerID, question, domain.Degraded(msgAnswerUnavailable), start), nil
	}

	answer := domain.Answer{
		Text:       answerText,
		Sources:    sources,
		Confidence: relevance(ranked[0].Distance),
	}
	return q.finish(ctx, callerID, question, answer, start), nil
}

// Search runs retrieval and ranking without answer synthesis.
func (q *QueryService) Search(ctx context.Context, callerID, question string, opts domain.AskOptions) ([]domain.RetrievalCandidate, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return nil, domain.ErrInvalidInput
	}

	scope, err := q.access.ScopeFor(ctx, callerID)
	if err != nil {
		return nil, err
	}
	return q.searchScoped(ctx, question, scope, opts)
}

// searchScoped retrieves, hydrates chunk content from the store and
// ranks the pooled candidates.
func (q *QueryService) searchScoped(ctx context.Context, question string, scope domain.AccessScope, opts domain.AskOptions) ([]domain.RetrievalCandidate, error) {
	candidates, err := q.retriever.Retrieve(ctx, question, scope, opts)
	if err != nil {
		return nil, err
	}
	if len(candidates) == 0 {
		return nil, nil
	}

	hydrated, err := q.hydrate(ctx, candidates)
	if err != nil {
		return nil, fmt.Errorf("hydrating candidates: %w", err)
	}
	return q.ranker.Rank(question, hydrated), nil
}

// hydrate fills candidate chunks with stored content and metadata.
// Candidates whose chunks no longer exist are dropped.
func (q *QueryService) hydrate(ctx context.Context, candidates []domain.RetrievalCandidate) ([]domain.RetrievalCandidate, error) {
	ids := make([]string, 0, len(candidates))
	for _, c := range candidates {
		ids = append(ids, c.Chunk.ID)
	}

	chunks, err := q.docStore.GetChunksByID(ctx, ids)
	if err != nil {
		return nil, err
	}
	byID := make(map[string]domain.Chunk, len(chunks))
	for _, ch := range chunks {
		byID[ch.ID] = ch
	}

	out := candidates[:0:0]
	for _, c := range candidates {
		stored, ok := byID[c.Chunk.ID]
		if !ok {
			continue
		}
		embedding := c.Chunk.Embedding
		c.Chunk = stored
		if len(c.Chunk.Embedding) == 0 {
			c.Chunk.Embedding = embedding
		}
		out = append(out, c)
	}
	return out, nil
}

// generate calls the language model, retrying once with a simplified
// prompt and truncated context before giving up.
func (q *QueryService) generate(ctx context.Context, question, contextText string) (string, error) {
	if q.llm == nil {
		return "", domain.ErrLLMUnavailable
	}

	opts := q.genOpts

	prompt := fmt.Sprintf(promptTemplate, contextText, question)
	answer, err := q.llm.Generate(ctx, prompt, opts)
	if err == nil {
		return strings.TrimSpace(answer), nil
	}
	logger.Warn("Generation failed, retrying with simplified prompt: %v", err)

	truncated := contextText
	if len(truncated) > retryContextBudget {
		truncated = truncated[:retryContextBudget]
	}
	simple := fmt.Sprintf("Context:\n%s\n\nQuestion: %s\nAnswer briefly using only the context.", truncated, question)
	answer, err = q.llm.Generate(ctx, simple, opts)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(answer), nil
}

// documentLabels maps the candidates' document IDs to filenames.
func (q *QueryService) documentLabels(ctx context.Context, ranked []domain.RetrievalCandidate) (map[string]string, error) {
	labels := make(map[string]string)
	var firstErr error
	for _, c := range ranked {
		id := c.Chunk.DocumentID
		if _, done := labels[id]; done {
			continue
		}
		doc, err := q.docStore.GetDocument(ctx, id)
		if err != nil {
			if firstErr == nil {
				firstErr = err
			}
			labels[id] = ""
			continue
		}
		labels[id] = doc.Filename
	}
	return labels, firstErr
}

// finish stamps the duration and logs the query outcome.
func (q *QueryService) finish(ctx context.Context, callerID, question string, answer domain.Answer, start time.Time) domain.Answer {
	answer.Duration = time.Since(start)

	if q.queryLog != nil {
		rec := driven.QueryRecord{
			ID:         uuid.New().String(),
			UserID:     callerID,
			Question:   question,
			Answer:     answer.Text,
			Confidence: answer.Confidence,
			Sources:    len(answer.Sources),
			Duration:   answer.Duration,
			CreatedAt:  time.Now().UTC(),
		}
		if err := q.queryLog.LogQuery(ctx, rec); err != nil {
			logger.Warn("Logging query: %v", err)
		}
	}
	return answer
}
