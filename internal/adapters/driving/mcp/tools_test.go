package mcp

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/pdfrag/internal/core/domain"
)

func TestServer_handleAsk(t *testing.T) {
	ctx := context.Background()

	t.Run("returns answer with sources", func(t *testing.T) {
		mockQuestion := &mockQuestionService{
			answer: domain.Answer{
				Text:       "Permits cost fifty dollars.",
				Confidence: 0.8,
				Sources: []domain.SourceRef{
					{DocumentID: "doc-1", Filename: "handbook.pdf", Page: 3, Excerpt: "Permits cost...", Relevance: 0.8},
				},
			},
		}

		ports := &Ports{Question: mockQuestion, UserID: "u1"}
		server, err := NewServer(ports)
		require.NoError(t, err)

		input := AskInput{Question: "how much is a permit?"}
		_, output, err := server.handleAsk(ctx, nil, input)

		require.NoError(t, err)
		assert.Equal(t, "Permits cost fifty dollars.", output.Answer)
		assert.Equal(t, 0.8, output.Confidence)
		require.Len(t, output.Sources, 1)
		assert.Equal(t, "doc-1", output.Sources[0].DocumentID)
		assert.Equal(t, "handbook.pdf", output.Sources[0].Filename)
		assert.Equal(t, 3, output.Sources[0].Page)
		assert.Equal(t, "u1", mockQuestion.lastCaller)
	})

	t.Run("forwards top_k", func(t *testing.T) {
		mockQuestion := &mockQuestionService{}
		ports := &Ports{Question: mockQuestion, UserID: "u1"}
		server, err := NewServer(ports)
		require.NoError(t, err)

		input := AskInput{Question: "q", TopK: 5}
		_, _, err = server.handleAsk(ctx, nil, input)

		require.NoError(t, err)
		assert.Equal(t, 5, mockQuestion.lastOpts.TopK)
	})

	t.Run("returns error on failure", func(t *testing.T) {
		mockQuestion := &mockQuestionService{err: errors.New("ask failed")}
		ports := &Ports{Question: mockQuestion, UserID: "u1"}
		server, err := NewServer(ports)
		require.NoError(t, err)

		_, _, err = server.handleAsk(ctx, nil, AskInput{Question: "q"})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "ask failed")
	})
}

func TestServer_handleSearch(t *testing.T) {
	ctx := context.Background()

	t.Run("returns retrieved chunks", func(t *testing.T) {
		mockQuestion := &mockQuestionService{
			candidates: []domain.RetrievalCandidate{
				{
					Chunk: domain.Chunk{
						ID:         "c1",
						DocumentID: "doc-1",
						Page:       2,
						Content:    "Visitor parking requires a permit.",
					},
					Distance: 0.25,
					Strategy: domain.StrategyDirect,
				},
			},
		}

		ports := &Ports{Question: mockQuestion, UserID: "u1"}
		server, err := NewServer(ports)
		require.NoError(t, err)

		input := SearchInput{Question: "parking"}
		_, output, err := server.handleSearch(ctx, nil, input)

		require.NoError(t, err)
		assert.Equal(t, 1, output.Count)
		require.Len(t, output.Results, 1)
		assert.Equal(t, "c1", output.Results[0].ChunkID)
		assert.Equal(t, "doc-1", output.Results[0].DocumentID)
		assert.Equal(t, 0.25, output.Results[0].Distance)
		assert.Equal(t, "direct", output.Results[0].Strategy)
	})

	t.Run("returns error on failure", func(t *testing.T) {
		mockQuestion := &mockQuestionService{err: errors.New("search failed")}
		ports := &Ports{Question: mockQuestion, UserID: "u1"}
		server, err := NewServer(ports)
		require.NoError(t, err)

		_, _, err = server.handleSearch(ctx, nil, SearchInput{Question: "q"})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "search failed")
	})
}

func TestNewServer_validation(t *testing.T) {
	_, err := NewServer(&Ports{UserID: "u1"})
	assert.ErrorIs(t, err, ErrMissingQuestionService)

	_, err = NewServer(&Ports{Question: &mockQuestionService{}})
	assert.ErrorIs(t, err, ErrMissingUserID)
}
