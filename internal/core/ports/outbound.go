package ports

import (
	"context"
	"io"

	"github.com/skobelevs/policy-qa/internal/core/domain"
)

// Embedder builds vectors for chunks and query text.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
	EmbedQuery(ctx context.Context, text string) ([]float32, error)
}

// VectorIndex performs dense nearest-neighbour search over the corpus.
// Hits report a distance >= 0, smaller = closer; converting distance to a
// similarity is the fusion ranker's job, not the index adapter's.
type VectorIndex interface {
	IndexChunks(ctx context.Context, doc *domain.Document, chunks []domain.Chunk, vectors [][]float32) error
	Search(ctx context.Context, queryVector []float32, limit int) ([]domain.VectorHit, error)
}

// LexicalIndex performs bag-of-words search over the corpus. Scores are raw
// and unbounded, larger = more relevant.
type LexicalIndex interface {
	Search(ctx context.Context, queryTokens []string, limit int) ([]domain.LexicalHit, error)
}

// AnswerGenerator produces the natural-language answer for a gated result
// set. Failures (timeouts, malformed output, unreachable backend) fold into
// a Failed outcome instead of an error; the pipeline recovers locally.
// Returned used ids are already restricted to the candidate set.
type AnswerGenerator interface {
	Generate(ctx context.Context, question string, candidates []domain.Candidate) domain.GenerationOutcome
}

// RetrievalCache memoizes filtered ranked result sets per retrieval key.
type RetrievalCache interface {
	Get(key domain.RetrievalKey) ([]domain.Candidate, bool)
	Set(key domain.RetrievalKey, results []domain.Candidate)
}

// DocumentRepository persists and reads document registry state.
type DocumentRepository interface {
	Create(ctx context.Context, doc *domain.Document) error
	GetByID(ctx context.Context, id string) (*domain.Document, error)
	UpdateStatus(ctx context.Context, id string, status domain.DocumentStatus, errMessage string) error
	SaveIndexedMetadata(ctx context.Context, id string, meta domain.PolicyMeta, chunkCount int) error
}

// ObjectStorage stores source documents.
type ObjectStorage interface {
	Save(ctx context.Context, key string, data io.Reader) error
	Open(ctx context.Context, key string) (io.ReadCloser, error)
}

// MessageQueue publishes/consumes ingestion events.
type MessageQueue interface {
	PublishDocumentIngested(ctx context.Context, documentID string) error
	SubscribeDocumentIngested(ctx context.Context, handler func(context.Context, string) error) error
}

// TextExtractor turns a stored document into front-matter metadata plus
// heading-delimited sections.
type TextExtractor interface {
	Extract(ctx context.Context, doc *domain.Document) (domain.ExtractedDocument, error)
}

// FormatCatalog reports which upload formats have a registered extractor,
// so unsupported files are rejected at upload instead of failing in the
// worker.
type FormatCatalog interface {
	Supports(mimeType, filename string) bool
}

// SectionChunker splits section text into indexable pieces.
type SectionChunker interface {
	Split(text string) []string
}
