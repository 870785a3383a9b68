package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/skobelevs/policy-qa/internal/core/domain"
	"github.com/skobelevs/policy-qa/internal/core/ports"
)

// Sections shorter than this carry no answerable policy content.
const minSectionChars = 40

// ProcessDocumentUseCase indexes an uploaded policy document: extract front
// matter and sections, chunk, embed, and write the dense+sparse points.
type ProcessDocumentUseCase struct {
	repo      ports.DocumentRepository
	extractor ports.TextExtractor
	chunker   ports.SectionChunker
	embedder  ports.Embedder
	vectorDB  ports.VectorIndex
}

func NewProcessDocumentUseCase(
	repo ports.DocumentRepository,
	extractor ports.TextExtractor,
	chunker ports.SectionChunker,
	embedder ports.Embedder,
	vectorDB ports.VectorIndex,
) *ProcessDocumentUseCase {
	return &ProcessDocumentUseCase{
		repo:      repo,
		extractor: extractor,
		chunker:   chunker,
		embedder:  embedder,
		vectorDB:  vectorDB,
	}
}

func (uc *ProcessDocumentUseCase) ProcessByID(ctx context.Context, documentID string) error {
	if err := uc.repo.UpdateStatus(ctx, documentID, domain.StatusProcessing, ""); err != nil {
		return fmt.Errorf("set status=processing: %w", err)
	}

	if err := uc.processPipeline(ctx, documentID); err != nil {
		if failErr := uc.repo.UpdateStatus(ctx, documentID, domain.StatusFailed, err.Error()); failErr != nil {
			return fmt.Errorf("%w; mark failed status: %v", err, failErr)
		}
		return err
	}

	if err := uc.repo.UpdateStatus(ctx, documentID, domain.StatusReady, ""); err != nil {
		return fmt.Errorf("set status=ready: %w", err)
	}
	return nil
}

func (uc *ProcessDocumentUseCase) processPipeline(ctx context.Context, documentID string) error {
	doc, err := uc.repo.GetByID(ctx, documentID)
	if err != nil {
		return fmt.Errorf("fetch document by id: %w", err)
	}

	extracted, err := uc.extractor.Extract(ctx, doc)
	if err != nil {
		return fmt.Errorf("extract document: %w", err)
	}

	chunks := uc.buildChunks(extracted)
	if len(chunks) == 0 {
		return domain.WrapError(domain.ErrInvalidInput, "chunk document", errors.New("no indexable sections"))
	}

	texts := make([]string, len(chunks))
	for i, chunk := range chunks {
		texts[i] = chunk.Text
	}
	vectors, err := uc.embedder.Embed(ctx, texts)
	if err != nil {
		return fmt.Errorf("embed chunks: %w", err)
	}
	if len(vectors) != len(chunks) {
		return domain.WrapError(
			domain.ErrInvalidInput,
			"embed chunks",
			fmt.Errorf("vectors/chunks mismatch: %d/%d", len(vectors), len(chunks)),
		)
	}

	applyPolicyMeta(doc, extracted.Meta)

	if err := uc.vectorDB.IndexChunks(ctx, doc, chunks, vectors); err != nil {
		return fmt.Errorf("index chunks: %w", err)
	}

	if err := uc.repo.SaveIndexedMetadata(ctx, doc.ID, extracted.Meta, len(chunks)); err != nil {
		return fmt.Errorf("save indexed metadata: %w", err)
	}
	return nil
}

// buildChunks flattens sections into chunks with stable "<doc_id>::cNNNN"
// ids. Chunk numbering is continuous across sections so ids stay unique
// within a document.
func (uc *ProcessDocumentUseCase) buildChunks(extracted domain.ExtractedDocument) []domain.Chunk {
	out := make([]domain.Chunk, 0, len(extracted.Sections))
	index := 0
	for _, section := range extracted.Sections {
		if len(strings.TrimSpace(section.Text)) < minSectionChars {
			continue
		}
		for _, piece := range uc.chunker.Split(section.Text) {
			out = append(out, domain.Chunk{
				ID:          fmt.Sprintf("%s::c%04d", extracted.Meta.DocID, index),
				Text:        piece,
				SectionPath: section.Path,
				Index:       index,
			})
			index++
		}
	}
	return out
}

func applyPolicyMeta(doc *domain.Document, meta domain.PolicyMeta) {
	doc.DocID = meta.DocID
	doc.Title = meta.Title
	doc.Category = meta.Category
	doc.Version = meta.Version
	doc.AppliesTo = strings.Join(meta.AppliesTo, ", ")
}
