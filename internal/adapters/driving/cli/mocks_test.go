package cli

import (
	"context"
	"time"

	"github.com/custodia-labs/pdfrag/internal/core/domain"
	"github.com/custodia-labs/pdfrag/internal/core/ports/driving"
)

// mockQuestionService is a mock implementation of driving.QuestionService.
type mockQuestionService struct {
	answer     domain.Answer
	candidates []domain.RetrievalCandidate
	err        error
}

func (m *mockQuestionService) Ask(_ context.Context, _, _ string, _ domain.AskOptions) (domain.Answer, error) {
	return m.answer, m.err
}

func (m *mockQuestionService) Search(_ context.Context, _, _ string, _ domain.AskOptions) ([]domain.RetrievalCandidate, error) {
	return m.candidates, m.err
}

// mockDocumentService is a mock implementation of driving.DocumentService.
type mockDocumentService struct {
	documents []*domain.Document
	document  *domain.Document
	uploadErr error
	err       error
}

func (m *mockDocumentService) Upload(_ context.Context, _ driving.UploadRequest) (*domain.Document, error) {
	if m.uploadErr != nil {
		return m.document, m.uploadErr
	}
	return m.document, m.err
}

func (m *mockDocumentService) Get(_ context.Context, _, _ string) (*domain.Document, error) {
	return m.document, m.err
}

func (m *mockDocumentService) List(_ context.Context, _ string) ([]*domain.Document, error) {
	return m.documents, m.err
}

func (m *mockDocumentService) Delete(_ context.Context, _, _ string) error {
	return m.err
}

func (m *mockDocumentService) SetVisibility(_ context.Context, _, _ string, _ domain.Visibility) error {
	return m.err
}

func (m *mockDocumentService) Reprocess(_ context.Context, _, _ string) error {
	return m.err
}

// mockUserService is a mock implementation of driving.UserService.
type mockUserService struct {
	users []*domain.User
	user  *domain.User
	err   error
}

func (m *mockUserService) Create(_ context.Context, _, _, _ string, _ domain.Role) (*domain.User, error) {
	return m.user, m.err
}

func (m *mockUserService) Authenticate(_ context.Context, _, _ string) (*domain.User, error) {
	return m.user, m.err
}

func (m *mockUserService) Get(_ context.Context, _ string) (*domain.User, error) {
	return m.user, m.err
}

func (m *mockUserService) List(_ context.Context) ([]*domain.User, error) {
	return m.users, m.err
}

func (m *mockUserService) SetActive(_ context.Context, _ string, _ bool) error {
	return m.err
}

// mockStatsService is a mock implementation of driving.StatsService.
type mockStatsService struct {
	stats driving.Statistics
	err   error
}

func (m *mockStatsService) ForUser(_ context.Context, _ string) (driving.Statistics, error) {
	return m.stats, m.err
}

// setupTestServices injects mock services and returns a cleanup func.
func setupTestServices() func() {
	oldDocument := documentService
	oldQuestion := questionService
	oldUser := userService
	oldStats := statsService

	questionService = &mockQuestionService{
		answer: domain.Answer{
			Text:       "Permits cost fifty dollars.",
			Confidence: 0.8,
			Duration:   1500 * time.Millisecond,
			Sources: []domain.SourceRef{
				{DocumentID: "doc-1", Filename: "handbook.pdf", Page: 3, Relevance: 0.8},
			},
		},
		candidates: []domain.RetrievalCandidate{
			{
				Chunk:    domain.Chunk{ID: "c1", DocumentID: "doc-1", Page: 3, Content: "Permits cost fifty dollars per year."},
				Distance: 0.2,
				Strategy: domain.StrategyDirect,
			},
		},
	}
	documentService = &mockDocumentService{
		documents: []*domain.Document{
			{ID: "doc-1", Filename: "handbook.pdf", Status: domain.StatusCompleted,
				Visibility: domain.VisibilityPrivate, PageCount: 12, ChunkCount: 40},
		},
		document: &domain.Document{ID: "doc-1", Filename: "handbook.pdf",
			Status: domain.StatusCompleted, Visibility: domain.VisibilityPrivate},
	}
	userService = &mockUserService{
		users: []*domain.User{
			{ID: "u1", Username: "alice", Role: domain.RoleUser, Active: true},
		},
		user: &domain.User{ID: "u1", Username: "alice", Role: domain.RoleUser},
	}
	statsService = &mockStatsService{
		stats: driving.Statistics{DocumentCount: 2, CompletedCount: 1, FailedCount: 1},
	}

	return func() {
		documentService = oldDocument
		questionService = oldQuestion
		userService = oldUser
		statsService = oldStats
	}
}
