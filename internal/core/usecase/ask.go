package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/skobelevs/policy-qa/internal/core/domain"
	"github.com/skobelevs/policy-qa/internal/core/ports"
)

const (
	defaultTopK = 5
	maxTopK     = 10
)

// AskUseCase runs the full question-answering pipeline: hybrid retrieval,
// fusion, metadata filtering, the evidence gate, generation, and citation
// selection. Every failure mode past input validation terminates in a
// well-formed response, never an error.
type AskUseCase struct {
	embedder     ports.Embedder
	vectorIndex  ports.VectorIndex
	lexicalIndex ports.LexicalIndex
	generator    ports.AnswerGenerator
	cache        ports.RetrievalCache
}

func NewAskUseCase(
	embedder ports.Embedder,
	vectorIndex ports.VectorIndex,
	lexicalIndex ports.LexicalIndex,
	generator ports.AnswerGenerator,
	cache ports.RetrievalCache,
) *AskUseCase {
	return &AskUseCase{
		embedder:     embedder,
		vectorIndex:  vectorIndex,
		lexicalIndex: lexicalIndex,
		generator:    generator,
		cache:        cache,
	}
}

func (uc *AskUseCase) Ask(ctx context.Context, query domain.Query) (*domain.AskResponse, error) {
	question := strings.TrimSpace(query.Question)
	if question == "" {
		return nil, domain.WrapError(domain.ErrInvalidInput, "ask", errors.New("question is required"))
	}
	topK, err := resolveTopK(query.TopK)
	if err != nil {
		return nil, err
	}

	category := query.Category
	if category == "" {
		category = inferCategory(question)
	}

	start := time.Now()
	key := domain.RetrievalKey{
		Question:  question,
		TopK:      topK,
		Category:  category,
		AppliesTo: query.AppliesTo,
	}

	results, cacheHit := uc.lookupCache(key)
	if !cacheHit {
		var err error
		results, err = uc.retrieve(ctx, question, topK, category, query.AppliesTo)
		if err != nil {
			return nil, err
		}
		uc.storeCache(key, results)
	}
	retrieveMS := millisSince(start)

	debug := domain.RetrievalDebug{
		TopK:      topK,
		Results:   results,
		Category:  category,
		AppliesTo: query.AppliesTo,
		CacheHit:  cacheHit,
	}

	decision := evaluateEvidence(question, results)
	debug.TopScore = decision.TopScore
	if !decision.Proceed {
		debug.Reason = string(decision.Reason)
		debug.Path = string(domain.PathRefused)
		debug.TimingsMS = domain.StageTimings{Retrieve: retrieveMS, Total: millisSince(start)}
		return &domain.AskResponse{
			Question:    question,
			FinalAnswer: domain.RefusalAnswer,
			Citations:   []domain.Citation{},
			Debug:       debug,
		}, nil
	}

	genStart := time.Now()
	outcome := uc.generator.Generate(ctx, question, decision.Results)
	grounded := selectAnswer(question, decision.Results, outcome)

	debug.GenWarning = outcome.FailReason
	debug.Path = string(grounded.Path)
	debug.TimingsMS = domain.StageTimings{
		Retrieve: retrieveMS,
		Generate: millisSince(genStart),
		Total:    millisSince(start),
	}

	return &domain.AskResponse{
		Question:    question,
		FinalAnswer: grounded.Answer,
		Citations:   grounded.Citations,
		Debug:       debug,
	}, nil
}

// retrieve queries both indexes, fuses the candidate lists, and applies the
// metadata filter. The two index calls are independent; fusion merges by id
// after both complete, so their relative timing never affects the ranking.
func (uc *AskUseCase) retrieve(ctx context.Context, question string, topK int, category, appliesTo string) ([]domain.Candidate, error) {
	fetchLimit := overfetchLimit(topK)

	queryVector, err := uc.embedder.EmbedQuery(ctx, question)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	vectorHits, err := uc.vectorIndex.Search(ctx, queryVector, fetchLimit)
	if err != nil {
		return nil, fmt.Errorf("vector search: %w", err)
	}

	lexicalHits, err := uc.lexicalIndex.Search(ctx, splitAlphaNumLower(question), fetchLimit)
	if err != nil {
		return nil, fmt.Errorf("lexical search: %w", err)
	}

	fused := fuseCandidates(question, vectorHits, lexicalHits, topK)
	return filterCandidates(fused, category, appliesTo), nil
}

func (uc *AskUseCase) lookupCache(key domain.RetrievalKey) ([]domain.Candidate, bool) {
	if uc.cache == nil {
		return nil, false
	}
	return uc.cache.Get(key)
}

func (uc *AskUseCase) storeCache(key domain.RetrievalKey, results []domain.Candidate) {
	if uc.cache == nil {
		return
	}
	uc.cache.Set(key, results)
}

// resolveTopK treats the zero value as "absent" and rejects everything else
// outside [1, maxTopK] as a contract violation.
func resolveTopK(topK int) (int, error) {
	if topK == 0 {
		return defaultTopK, nil
	}
	if topK < 1 || topK > maxTopK {
		return 0, domain.WrapError(domain.ErrInvalidInput, "ask", fmt.Errorf("top_k must be between 1 and %d", maxTopK))
	}
	return topK, nil
}

func millisSince(t time.Time) int64 {
	return time.Since(t).Milliseconds()
}
