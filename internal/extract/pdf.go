package extract

import (
	"bytes"
	"context"
	"fmt"

	"github.com/tmc/langchaingo/documentloaders"
)

// PDFPages loads a PDF with langchaingo and returns one string per page.
func PDFPages(ctx context.Context, data []byte) ([]string, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("empty pdf")
	}
	loader := documentloaders.NewPDF(bytes.NewReader(data), int64(len(data)))
	docs, err := loader.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("read pdf: %w", err)
	}
	pages := make([]string, len(docs))
	for i, d := range docs {
		pages[i] = d.PageContent
	}
	return pages, nil
}
