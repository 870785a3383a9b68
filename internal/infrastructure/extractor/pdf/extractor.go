package pdf

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	pdfreader "github.com/ledongthuc/pdf"

	"github.com/skobelevs/policy-qa/internal/core/domain"
	"github.com/skobelevs/policy-qa/internal/core/ports"
)

// Extractor pulls plain text out of PDF policy documents. PDFs carry no
// front matter, so metadata falls back to the filename stem and the whole
// body becomes one root section.
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

	parsed, err := pdfreader.NewReader(bytes.NewReader(raw), int64(len(raw)))
	if err != nil {
		return domain.ExtractedDocument{}, fmt.Errorf("parse pdf: %w", err)
	}

	textReader, err := parsed.GetPlainText()
	if err != nil {
		return domain.ExtractedDocument{}, fmt.Errorf("extract pdf text: %w", err)
	}
	var buf bytes.Buffer
	if _, err := io.Copy(&buf, textReader); err != nil {
		return domain.ExtractedDocument{}, fmt.Errorf("read pdf text: %w", err)
	}

	stem := filenameStem(doc.Filename)
	out := domain.ExtractedDocument{
		Meta: domain.PolicyMeta{DocID: stem, Title: stem},
	}

	text := strings.TrimSpace(buf.String())
	if text != "" {
		out.Sections = []domain.Section{{Path: []string{stem}, Text: text}}
	}
	return out, nil
}

func filenameStem(filename string) string {
	base := filepath.Base(filename)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
