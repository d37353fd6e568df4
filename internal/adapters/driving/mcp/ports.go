package mcp

import (
	"github.com/custodia-labs/pdfrag/internal/core/domain"
	"github.com/custodia-labs/pdfrag/internal/core/ports/driving"
)

// Ports aggregates the driving port interfaces required by the MCP server.
// This provides a single injection point for dependency injection.
type Ports struct {
	// Question answers questions over the corpus.
	Question driving.QuestionService

	// Document manages uploaded documents.
	Document driving.DocumentService

	// UserID is the account all tool calls act as. Access control is
	// enforced by the services, so the server only ever sees documents
	// this user may see.
	UserID string

	// AskDefaults seeds retrieval options for tool calls; the tool
	// input may override TopK.
	AskDefaults domain.AskOptions
}

// Validate ensures all required ports are set.
// Returns an error if any required port is nil.
func (p *Ports) Validate() error {
	if p.Question == nil {
		return ErrMissingQuestionService
	}
	if p.UserID == "" {
		return ErrMissingUserID
	}
	// Document is optional; resources degrade to empty lists without it.
	return nil
}
