package ports

import (
	"context"
	"io"

	"github.com/skobelevs/policy-qa/internal/core/domain"
)

// QuestionAnswerer is the inbound contract for grounded question answering.
type QuestionAnswerer interface {
	Ask(ctx context.Context, query domain.Query) (*domain.AskResponse, error)
}

// DocumentIngestor is the inbound contract for policy document upload.
type DocumentIngestor interface {
	Upload(ctx context.Context, filename, mimeType string, body io.Reader) (*domain.Document, error)
}

// DocumentProcessor is the inbound contract for asynchronous indexing.
type DocumentProcessor interface {
	ProcessByID(ctx context.Context, documentID string) error
}

// DocumentReader is the inbound read model for document registry state.
type DocumentReader interface {
	GetByID(ctx context.Context, id string) (*domain.Document, error)
}
