// Package extract pulls text out of PDF files page by page.
package extract

import (
	"context"
	"fmt"
	"os"

	"github.com/ledongthuc/pdf"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"

	"github.com/custodia-labs/pdfrag/internal/core/domain"
	"github.com/custodia-labs/pdfrag/internal/core/ports/driven"
)

// Ensure Extractor implements the interface.
var _ driven.PageExtractor = (*Extractor)(nil)

// Extractor reads PDF text using ledongthuc/pdf and validates
// file structure with pdfcpu.
type Extractor struct {
	conf *model.Configuration
}

// NewExtractor creates a PDF extractor. Validation is relaxed so that
// slightly malformed but readable files still pass.
func NewExtractor() *Extractor {
	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed
	return &Extractor{conf: conf}
}

// Validate checks that the file is a structurally sound PDF with at
// least one page.
func (e *Extractor) Validate(ctx context.Context, path string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if err := api.ValidateFile(path, e.conf); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrInvalidPDF, err)
	}

	pages, err := api.PageCountFile(path)
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrInvalidPDF, err)
	}
	if pages == 0 {
		return fmt.Errorf("%w: document has no pages", domain.ErrInvalidPDF)
	}
	return nil
}

// Extract returns per-page text for the PDF at path. Pages that yield
// no text come back with an empty Text so the caller still sees the
// true page count.
func (e *Extractor) Extract(ctx context.Context, path string) ([]driven.PageText, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open pdf: %w", err)
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return nil, fmt.Errorf("stat pdf: %w", err)
	}

	reader, err := pdf.NewReader(file, info.Size())
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidPDF, err)
	}

	pageCount := reader.NumPage()
	pages := make([]driven.PageText, 0, pageCount)

	readable := 0
	for i := 1; i <= pageCount; i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		entry := driven.PageText{Number: i}
		page := reader.Page(i)
		if !page.V.IsNull() {
			// Extraction failures on single pages are tolerated; the
			// page is recorded as empty and processing continues.
			if text, err := page.GetPlainText(nil); err == nil {
				entry.Text = text
			}
		}
		if entry.Text != "" {
			readable++
		}
		pages = append(pages, entry)
	}

	if pageCount > 0 && readable == 0 {
		return pages, domain.ErrNoReadableText
	}
	return pages, nil
}
