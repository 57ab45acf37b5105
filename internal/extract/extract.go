// Package extract turns uploaded PDF and DOCX files into plain text.
package extract

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"ragchat/internal/domain"
	"ragchat/internal/logger"
)

// PageReader returns the text of every page of a PDF, in order.
type PageReader func(ctx context.Context, data []byte) ([]string, error)

// ParagraphReader returns the text of every paragraph of a DOCX, in order.
type ParagraphReader func(data []byte) ([]string, error)

// Extractor implements domain.Extractor.
type Extractor struct {
	pdfPages       PageReader
	docxParagraphs ParagraphReader
}

// Option customizes an Extractor.
type Option func(*Extractor)

// WithPageReader replaces the PDF page reader.
func WithPageReader(r PageReader) Option {
	return func(e *Extractor) { e.pdfPages = r }
}

// WithParagraphReader replaces the DOCX paragraph reader.
func WithParagraphReader(r ParagraphReader) Option {
	return func(e *Extractor) { e.docxParagraphs = r }
}

// New returns an Extractor backed by the langchaingo PDF loader and the built-in DOCX reader.
func New(opts ...Option) *Extractor {
	e := &Extractor{pdfPages: PDFPages, docxParagraphs: DOCXParagraphs}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// DetectType maps a file name to its document type by extension.
func DetectType(name string) (domain.DocumentType, error) {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".pdf":
		return domain.TypePDF, nil
	case ".docx":
		return domain.TypeDOCX, nil
	}
	return "", domain.E(domain.KindUnsupportedFormat, "detect type", fmt.Errorf("%q: only PDF and DOCX files are supported", name))
}

// Extract returns the document text. Pages or paragraphs are each followed by a newline;
// PDF pages without extractable text are skipped. A document with no text at all
// yields an empty string and no error; callers decide whether that is acceptable.
func (e *Extractor) Extract(ctx context.Context, doc domain.Document) (string, error) {
	var (
		parts []string
		err   error
	)
	switch doc.Type {
	case domain.TypePDF:
		parts, err = e.pdfPages(ctx, doc.Data)
	case domain.TypeDOCX:
		parts, err = e.docxParagraphs(doc.Data)
	default:
		return "", domain.E(domain.KindUnsupportedFormat, "extract", fmt.Errorf("type %q", doc.Type))
	}
	if err != nil {
		logger.Error("extract %s (%s): %v", doc.Name, doc.Type, err)
		return "", domain.E(domain.KindExtractionFailed, "extract "+string(doc.Type), err)
	}

	var sb strings.Builder
	skipped := 0
	for _, p := range parts {
		if doc.Type == domain.TypePDF && strings.TrimSpace(p) == "" {
			skipped++
			continue
		}
		sb.WriteString(p)
		sb.WriteString("\n")
	}
	if skipped > 0 {
		logger.Debug("extract %s: %d of %d pages had no text", doc.Name, skipped, len(parts))
	}
	return sb.String(), nil
}
