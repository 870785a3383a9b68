package extractor

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/skobelevs/policy-qa/internal/core/domain"
	"github.com/skobelevs/policy-qa/internal/core/ports"
)

// Registry routes extraction by mime type with a filename extension
// fallback. Unknown formats are a hard failure so the document ends up
// marked failed instead of silently indexing garbage.
type Registry struct {
	markdown  ports.TextExtractor
	plaintext ports.TextExtractor
	pdf       ports.TextExtractor
}

func NewRegistry(markdown, plaintext, pdf ports.TextExtractor) *Registry {
	return &Registry{markdown: markdown, plaintext: plaintext, pdf: pdf}
}

func (r *Registry) Extract(ctx context.Context, doc *domain.Document) (domain.ExtractedDocument, error) {
	target := r.pick(doc.MimeType, doc.Filename)
	if target == nil {
		return domain.ExtractedDocument{}, fmt.Errorf("unsupported document format: mime=%s filename=%s", doc.MimeType, doc.Filename)
	}
	return target.Extract(ctx, doc)
}

// Supports lets the upload path reject formats no extractor can handle
// before the file is stored and queued.
func (r *Registry) Supports(mimeType, filename string) bool {
	return r.pick(mimeType, filename) != nil
}

func (r *Registry) pick(mimeType, filename string) ports.TextExtractor {
	mime := mimeType
	if idx := strings.Index(mime, ";"); idx >= 0 {
		mime = mime[:idx]
	}
	switch strings.ToLower(strings.TrimSpace(mime)) {
	case "text/markdown":
		return r.markdown
	case "text/plain":
		return r.plaintext
	case "application/pdf":
		return r.pdf
	}

	switch strings.ToLower(filepath.Ext(filename)) {
	case ".md", ".markdown":
		return r.markdown
	case ".txt":
		return r.plaintext
	case ".pdf":
		return r.pdf
	}
	return nil
}
