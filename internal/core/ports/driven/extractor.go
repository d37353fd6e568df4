package driven

import "context"

// PageText is the extracted text of one PDF page.
type PageText struct {
	// Number is the 1-based page number.
	Number int

	// Text is the raw extracted text, before cleaning.
	Text string
}

// PageExtractor pulls text out of PDF files page by page.
type PageExtractor interface {
	// Validate checks that the file is a structurally sound PDF.
	Validate(ctx context.Context, path string) error

	// Extract returns per-page text for the PDF at path.
	// Pages that yield no text are returned with an empty Text so the
	// caller still sees the true page count.
	Extract(ctx context.Context, path string) ([]PageText, error)
}
