// Package mcp provides an MCP (Model Context Protocol) server adapter.
// It lets AI assistants ask questions over the indexed PDF corpus.
package mcp

import "errors"

// ErrMissingQuestionService is returned when the question service is not provided.
var ErrMissingQuestionService = errors.New("mcp: question service is required")

// ErrMissingUserID is returned when no acting user is configured.
var ErrMissingUserID = errors.New("mcp: user id is required")
