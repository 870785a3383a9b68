package usecase

import (
	"context"
	"strings"
	"testing"

	"github.com/skobelevs/policy-qa/internal/core/domain"
)

type fakeEmbedder struct {
	calls int
}

func (f *fakeEmbedder) Embed(_ context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i := range texts {
		out[i] = []float32{0.1, 0.2}
	}
	return out, nil
}

func (f *fakeEmbedder) EmbedQuery(_ context.Context, _ string) ([]float32, error) {
	f.calls++
	return []float32{0.1, 0.2}, nil
}

type fakeVectorIndex struct {
	hits  []domain.VectorHit
	calls int
}

func (f *fakeVectorIndex) IndexChunks(_ context.Context, _ *domain.Document, _ []domain.Chunk, _ [][]float32) error {
	return nil
}

func (f *fakeVectorIndex) Search(_ context.Context, _ []float32, _ int) ([]domain.VectorHit, error) {
	f.calls++
	return f.hits, nil
}

type fakeLexicalIndex struct {
	hits []domain.LexicalHit
}

func (f *fakeLexicalIndex) Search(_ context.Context, _ []string, _ int) ([]domain.LexicalHit, error) {
	return f.hits, nil
}

type fakeGenerator struct {
	outcome    domain.GenerationOutcome
	calls      int
	candidates []domain.Candidate
}

func (f *fakeGenerator) Generate(_ context.Context, _ string, candidates []domain.Candidate) domain.GenerationOutcome {
	f.calls++
	f.candidates = candidates
	return f.outcome
}

type fakeCache struct {
	entries map[domain.RetrievalKey][]domain.Candidate
	sets    int
}

func newFakeCache() *fakeCache {
	return &fakeCache{entries: make(map[domain.RetrievalKey][]domain.Candidate)}
}

func (f *fakeCache) Get(key domain.RetrievalKey) ([]domain.Candidate, bool) {
	v, ok := f.entries[key]
	return v, ok
}

func (f *fakeCache) Set(key domain.RetrievalKey, results []domain.Candidate) {
	f.sets++
	f.entries[key] = results
}

func refundCorpusHit() domain.VectorHit {
	return domain.VectorHit{
		ID:   "refund-policy::c0000",
		Text: "- Eligible for refund within 14 days of purchase.",
		Metadata: domain.ChunkMetadata{
			DocID:       "refund-policy",
			Category:    "billing",
			AppliesTo:   "Pro, Team",
			SectionPath: "Refund Policy > Eligibility",
		},
		Distance: 0.2,
	}
}

func newAskFixture(generated domain.GenerationOutcome) (*AskUseCase, *fakeEmbedder, *fakeVectorIndex, *fakeGenerator, *fakeCache) {
	embedder := &fakeEmbedder{}
	vectorIndex := &fakeVectorIndex{hits: []domain.VectorHit{refundCorpusHit()}}
	lexicalIndex := &fakeLexicalIndex{hits: []domain.LexicalHit{{
		ID:       "refund-policy::c0000",
		Text:     "- Eligible for refund within 14 days of purchase.",
		Metadata: refundCorpusHit().Metadata,
		Score:    5.0,
	}}}
	generator := &fakeGenerator{outcome: generated}
	cache := newFakeCache()
	uc := NewAskUseCase(embedder, vectorIndex, lexicalIndex, generator, cache)
	return uc, embedder, vectorIndex, generator, cache
}

func TestAskAnswersRefundWindowWithCitation(t *testing.T) {
	uc, _, _, generator, _ := newAskFixture(
		domain.GeneratedOutcome("The refund window is 14 days.", []string{"refund-policy::c0000"}),
	)

	resp, err := uc.Ask(context.Background(), domain.Query{
		Question:  "How long is the refund window for Pro?",
		TopK:      3,
		AppliesTo: "Pro",
	})
	if err != nil {
		t.Fatalf("Ask() error = %v", err)
	}

	if !strings.Contains(resp.FinalAnswer, "14") {
		t.Fatalf("expected answer to contain 14, got %q", resp.FinalAnswer)
	}
	if len(resp.Citations) < 1 || resp.Citations[0].ChunkID != "refund-policy::c0000" {
		t.Fatalf("expected citation of refund-policy::c0000, got %+v", resp.Citations)
	}
	if resp.Debug.Category != "billing" {
		t.Fatalf("expected inferred category billing, got %q", resp.Debug.Category)
	}
	if resp.Debug.TopScore < confidenceThreshold {
		t.Fatalf("expected confident top score, got %f", resp.Debug.TopScore)
	}
	if generator.calls != 1 {
		t.Fatalf("expected exactly one generation call, got %d", generator.calls)
	}
}

func TestAskRefusesOffTopicQuestion(t *testing.T) {
	uc, _, _, generator, _ := newAskFixture(
		domain.GeneratedOutcome("should never be called", nil),
	)

	resp, err := uc.Ask(context.Background(), domain.Query{
		Question: "What is the capital of France?",
		TopK:     3,
	})
	if err != nil {
		t.Fatalf("Ask() error = %v", err)
	}

	if resp.FinalAnswer != domain.RefusalAnswer {
		t.Fatalf("expected fixed refusal sentence, got %q", resp.FinalAnswer)
	}
	if len(resp.Citations) != 0 {
		t.Fatalf("refusal must carry zero citations, got %+v", resp.Citations)
	}
	if resp.Debug.Reason != string(domain.RefuseLowConfidence) && resp.Debug.Reason != string(domain.RefuseTopicMismatch) {
		t.Fatalf("unexpected refusal reason %q", resp.Debug.Reason)
	}
	if generator.calls != 0 {
		t.Fatalf("generation must not run after a refusal, got %d calls", generator.calls)
	}
}

func TestAskRecoversFromGenerationFailure(t *testing.T) {
	uc, _, _, _, _ := newAskFixture(domain.FailedOutcome("generation_failed: timeout"))

	resp, err := uc.Ask(context.Background(), domain.Query{
		Question: "How long is the refund window for Pro?",
		TopK:     3,
	})
	if err != nil {
		t.Fatalf("Ask() error = %v", err)
	}

	if resp.FinalAnswer != "- Eligible for refund within 14 days of purchase." {
		t.Fatalf("expected extractive bullet answer, got %q", resp.FinalAnswer)
	}
	if len(resp.Citations) != 1 || resp.Citations[0].ChunkID != "refund-policy::c0000" {
		t.Fatalf("expected single fallback citation, got %+v", resp.Citations)
	}
	if resp.Debug.Path != string(domain.PathExtractive) {
		t.Fatalf("expected extractive path, got %q", resp.Debug.Path)
	}
	if resp.Debug.GenWarning == "" {
		t.Fatalf("expected generation warning in debug bag")
	}
}

func TestAskCachesFilteredResultsBeforeGeneration(t *testing.T) {
	uc, embedder, vectorIndex, _, cache := newAskFixture(
		domain.GeneratedOutcome("The refund window is 14 days.", []string{"refund-policy::c0000"}),
	)
	query := domain.Query{Question: "How long is the refund window for Pro?", TopK: 3}

	first, err := uc.Ask(context.Background(), query)
	if err != nil {
		t.Fatalf("Ask() error = %v", err)
	}
	if first.Debug.CacheHit {
		t.Fatalf("first request must miss the cache")
	}
	if cache.sets != 1 {
		t.Fatalf("expected one cache population, got %d", cache.sets)
	}

	second, err := uc.Ask(context.Background(), query)
	if err != nil {
		t.Fatalf("Ask() error = %v", err)
	}
	if !second.Debug.CacheHit {
		t.Fatalf("second identical request must hit the cache")
	}
	if embedder.calls != 1 || vectorIndex.calls != 1 {
		t.Fatalf("cache hit must skip retrieval, embed=%d search=%d", embedder.calls, vectorIndex.calls)
	}
}

func TestAskCitationsAlwaysTraceableToRankedSet(t *testing.T) {
	uc, _, _, generator, _ := newAskFixture(
		domain.GeneratedOutcome("Answer.", []string{"refund-policy::c0000"}),
	)

	resp, err := uc.Ask(context.Background(), domain.Query{
		Question: "How long is the refund window for Pro?",
		TopK:     3,
	})
	if err != nil {
		t.Fatalf("Ask() error = %v", err)
	}

	ranked := make(map[string]struct{}, len(generator.candidates))
	for _, c := range generator.candidates {
		ranked[c.ID] = struct{}{}
	}
	for _, citation := range resp.Citations {
		if _, ok := ranked[citation.ChunkID]; !ok {
			t.Fatalf("citation %s not present in the ranked set passed to generation", citation.ChunkID)
		}
	}
}

func TestAskRejectsEmptyQuestion(t *testing.T) {
	uc, _, _, _, _ := newAskFixture(domain.GeneratedOutcome("x", nil))

	_, err := uc.Ask(context.Background(), domain.Query{Question: "   "})
	if err == nil {
		t.Fatalf("expected error for empty question")
	}
	if !domain.IsKind(err, domain.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestResolveTopK(t *testing.T) {
	if got, err := resolveTopK(0); err != nil || got != defaultTopK {
		t.Fatalf("expected absent top_k to default to %d, got %d (err %v)", defaultTopK, got, err)
	}
	if got, err := resolveTopK(7); err != nil || got != 7 {
		t.Fatalf("expected pass-through 7, got %d (err %v)", got, err)
	}
	if _, err := resolveTopK(50); !domain.IsKind(err, domain.ErrInvalidInput) {
		t.Fatalf("expected invalid input for top_k 50, got %v", err)
	}
	if _, err := resolveTopK(-1); !domain.IsKind(err, domain.ErrInvalidInput) {
		t.Fatalf("expected invalid input for negative top_k, got %v", err)
	}
}

func TestAskRejectsOutOfRangeTopK(t *testing.T) {
	uc, embedder, _, generator, _ := newAskFixture(
		domain.GeneratedOutcome("The refund window is 14 days.", []string{"refund-policy::c0000"}),
	)

	_, err := uc.Ask(context.Background(), domain.Query{
		Question: "How long is the refund window?",
		TopK:     50,
	})
	if !domain.IsKind(err, domain.ErrInvalidInput) {
		t.Fatalf("expected invalid input error, got %v", err)
	}
	if embedder.calls != 0 || generator.calls != 0 {
		t.Fatalf("pipeline must not run on invalid top_k: embed=%d generate=%d", embedder.calls, generator.calls)
	}
}
