package mcp

import (
	"context"
	"testing"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/pdfrag/internal/core/domain"
)

func newResourceServer(t *testing.T, docs *mockDocumentService) *Server {
	t.Helper()
	server, err := NewServer(&Ports{
		Question: &mockQuestionService{},
		Document: docs,
		UserID:   "u1",
	})
	require.NoError(t, err)
	return server
}

func readRequest(uri string) *mcp.ReadResourceRequest {
	return &mcp.ReadResourceRequest{
		Params: &mcp.ReadResourceParams{URI: uri},
	}
}

func TestServer_handleDocumentsResource(t *testing.T) {
	ctx := context.Background()

	t.Run("lists visible documents", func(t *testing.T) {
		server := newResourceServer(t, &mockDocumentService{
			documents: []*domain.Document{
				{ID: "doc-1", Filename: "handbook.pdf", Status: domain.StatusCompleted, Visibility: domain.VisibilityPrivate},
			},
		})

		result, err := server.handleDocumentsResource(ctx, readRequest(uriScheme+"documents"))
		require.NoError(t, err)
		require.Len(t, result.Contents, 1)
		assert.Contains(t, result.Contents[0].Text, "handbook.pdf")
		assert.Contains(t, result.Contents[0].Text, "completed")
	})

	t.Run("empty list without document service", func(t *testing.T) {
		server, err := NewServer(&Ports{Question: &mockQuestionService{}, UserID: "u1"})
		require.NoError(t, err)

		result, err := server.handleDocumentsResource(ctx, readRequest(uriScheme+"documents"))
		require.NoError(t, err)
		assert.Equal(t, "[]", result.Contents[0].Text)
	})
}

func TestServer_handleDocumentResource(t *testing.T) {
	ctx := context.Background()

	server := newResourceServer(t, &mockDocumentService{
		document: &domain.Document{
			ID: "doc-1", Filename: "handbook.pdf",
			Status: domain.StatusCompleted, Visibility: domain.VisibilityPublic,
			PageCount: 12, ChunkCount: 40,
		},
	})

	result, err := server.handleDocumentResource(ctx, readRequest(uriScheme+"documents/doc-1"))
	require.NoError(t, err)
	assert.Contains(t, result.Contents[0].Text, "\"pages\": 12")
	assert.Contains(t, result.Contents[0].Text, "public")
}

func TestExtractDocumentID(t *testing.T) {
	assert.Equal(t, "doc-1", extractDocumentID(uriScheme+"documents/doc-1"))
	assert.Empty(t, extractDocumentID("wrong://documents/doc-1"))
}
