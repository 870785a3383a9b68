package plaintext

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/skobelevs/policy-qa/internal/core/domain"
	"github.com/skobelevs/policy-qa/internal/core/ports"
)

// Extractor handles plain text documents: no front matter, a single root
// section carrying the whole body.
type Extractor struct {
	storage ports.ObjectStorage
}

func NewExtractor(storage ports.ObjectStorage) *Extractor {
	return &Extractor{storage: storage}
}

func (e *Extractor) Extract(ctx context.Context, doc *domain.Document) (domain.ExtractedDocument, error) {
	reader, err := e.storage.Open(ctx, doc.StoragePath)
	if err != nil {
		return domain.ExtractedDocument{}, fmt.Errorf("open source document: %w", err)
	}
	defer reader.Close()

	raw, err := io.ReadAll(reader)
	if err != nil {
		return domain.ExtractedDocument{}, fmt.Errorf("read source document: %w", err)
	}
	if !utf8.Valid(raw) {
		return domain.ExtractedDocument{}, fmt.Errorf("not valid utf-8: %s", doc.Filename)
	}

	stem := filenameStem(doc.Filename)
	out := domain.ExtractedDocument{
		Meta: domain.PolicyMeta{DocID: stem, Title: stem},
	}

	text := strings.TrimSpace(string(raw))
	if text != "" {
		out.Sections = []domain.Section{{Path: []string{stem}, Text: text}}
	}
	return out, nil
}

func filenameStem(filename string) string {
	base := filepath.Base(filename)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
