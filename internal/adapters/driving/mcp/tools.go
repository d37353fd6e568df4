package mcp

import (
	"context"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// AskInput is the input schema for the ask tool.
type AskInput struct {
	Question string `json:"question" jsonschema:"the question to answer from the indexed PDFs"`
	TopK     int    `json:"top_k,omitempty" jsonschema:"number of chunks to retrieve (default 10)"`
}

// AskOutput is the output schema for the ask tool.
type AskOutput struct {
	Answer     string         `json:"answer"`
	Confidence float64        `json:"confidence"`
	Sources    []SourceOutput `json:"sources"`
}

// SourceOutput is one cited source.
type SourceOutput struct {
	DocumentID string  `json:"document_id"`
	Filename   string  `json:"filename"`
	Page       int     `json:"page"`
	Excerpt    string  `json:"excerpt,omitempty"`
	Relevance  float64 `json:"relevance"`
}

// SearchInput is the input schema for the search tool.
type SearchInput struct {
	Question string `json:"question" jsonschema:"the query to match against indexed chunks"`
	TopK     int    `json:"top_k,omitempty" jsonschema:"maximum number of chunks to return (default 10)"`
}

// SearchOutput is the output schema for the search tool.
type SearchOutput struct {
	Results []ChunkOutput `json:"results"`
	Count   int           `json:"count"`
}

// ChunkOutput represents a single retrieved chunk.
type ChunkOutput struct {
	ChunkID    string  `json:"chunk_id"`
	DocumentID string  `json:"document_id"`
	Page       int     `json:"page"`
	Content    string  `json:"content"`
	Distance   float64 `json:"distance"`
	Strategy   string  `json:"strategy"`
}

// registerTools registers all tool handlers with the MCP server.
func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "ask",
		Description: "Answer a question using the indexed PDF documents, with cited sources",
	}, s.handleAsk)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "search",
		Description: "Retrieve the most relevant document chunks for a query without generating an answer",
	}, s.handleSearch)
}

// handleAsk handles the ask tool invocation.
func (s *Server) handleAsk(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input AskInput,
) (*mcp.CallToolResult, AskOutput, error) {
	opts := s.ports.AskDefaults
	if input.TopK > 0 {
		opts.TopK = input.TopK
	}

	answer, err := s.ports.Question.Ask(ctx, s.ports.UserID, input.Question, opts)
	if err != nil {
		return nil, AskOutput{}, err
	}

	output := AskOutput{
		Answer:     answer.Text,
		Confidence: answer.Confidence,
		Sources:    make([]SourceOutput, len(answer.Sources)),
	}
	for i, src := range answer.Sources {
		output.Sources[i] = SourceOutput{
			DocumentID: src.DocumentID,
			Filename:   src.Filename,
			Page:       src.Page,
			Excerpt:    src.Excerpt,
			Relevance:  src.Relevance,
		}
	}

	return nil, output, nil
}

// handleSearch handles the search tool invocation.
func (s *Server) handleSearch(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input SearchInput,
) (*mcp.CallToolResult, SearchOutput, error) {
	opts := s.ports.AskDefaults
	if input.TopK > 0 {
		opts.TopK = input.TopK
	}

	candidates, err := s.ports.Question.Search(ctx, s.ports.UserID, input.Question, opts)
	if err != nil {
		return nil, SearchOutput{}, err
	}

	output := SearchOutput{
		Results: make([]ChunkOutput, len(candidates)),
		Count:   len(candidates),
	}
	for i := range candidates {
		output.Results[i] = ChunkOutput{
			ChunkID:    candidates[i].Chunk.ID,
			DocumentID: candidates[i].Chunk.DocumentID,
			Page:       candidates[i].Chunk.Page,
			Content:    candidates[i].Chunk.Content,
			Distance:   candidates[i].Distance,
			Strategy:   string(candidates[i].Strategy),
		}
	}

	return nil, output, nil
}
