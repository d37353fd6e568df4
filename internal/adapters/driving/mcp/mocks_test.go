package mcp

import (
	"context"

	"github.com/custodia-labs/pdfrag/internal/core/domain"
	"github.com/custodia-labs/pdfrag/internal/core/ports/driving"
)

// mockQuestionService is a mock implementation of driving.QuestionService.
type mockQuestionService struct {
	answer     domain.Answer
	candidates []domain.RetrievalCandidate
	lastCaller string
	lastOpts   domain.AskOptions
	err        error
}

func (m *mockQuestionService) Ask(
	_ context.Context,
	callerID, _ string,
	opts domain.AskOptions,
) (domain.Answer, error) {
	m.lastCaller = callerID
	m.lastOpts = opts
	return m.answer, m.err
}

func (m *mockQuestionService) Search(
	_ context.Context,
	callerID, _ string,
	opts domain.AskOptions,
) ([]domain.RetrievalCandidate, error) {
	m.lastCaller = callerID
	m.lastOpts = opts
	return m.candidates, m.err
}

// mockDocumentService is a mock implementation of driving.DocumentService.
type mockDocumentService struct {
	documents []*domain.Document
	document  *domain.Document
	err       error
}

func (m *mockDocumentService) Upload(_ context.Context, _ driving.UploadRequest) (*domain.Document, error) {
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
