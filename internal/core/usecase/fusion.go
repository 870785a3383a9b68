package usecase

import (
	"sort"
	"strings"

	"github.com/skobelevs/policy-qa/internal/core/domain"
)

const (
	fusionVectorWeight  = 0.55
	fusionLexicalWeight = 0.30
	fusionKeywordWeight = 0.15

	bonusTermWeight         = 0.05
	refundMatchBonus        = 0.20
	eligibilitySectionBonus = 0.08

	minOverfetch        = 10
	overfetchMultiplier = 3
)

// overfetchLimit gives fusion room to work: each index is queried for more
// candidates than the caller asked for, and the merged ranking is truncated
// back to topK afterwards.
func overfetchLimit(topK int) int {
	limit := topK * overfetchMultiplier
	if limit < minOverfetch {
		limit = minOverfetch
	}
	return limit
}

// fuseCandidates merges dense and lexical hits into one ranking.
//
// Vector distance is mapped to similarity via 1/(1+d). Lexical scores are
// normalized by the batch maximum. The keyword boost rewards exact token
// overlap with the question plus the domain bonus vocabulary. A candidate
// seen by only one index keeps a zero score for the other signal.
//
// The result is deterministic: ties keep original fetch order (vector hits
// first, then lexical-only hits, each in index order).
func fuseCandidates(question string, vectorHits []domain.VectorHit, lexicalHits []domain.LexicalHit, topK int) []domain.Candidate {
	merged := make([]domain.Candidate, 0, len(vectorHits)+len(lexicalHits))
	byID := make(map[string]int, len(vectorHits)+len(lexicalHits))

	for _, hit := range vectorHits {
		byID[hit.ID] = len(merged)
		merged = append(merged, domain.Candidate{
			ID:          hit.ID,
			Text:        hit.Text,
			Metadata:    hit.Metadata,
			VectorScore: 1.0 / (1.0 + hit.Distance),
		})
	}
	for _, hit := range lexicalHits {
		if idx, ok := byID[hit.ID]; ok {
			if hit.Score > merged[idx].LexicalScore {
				merged[idx].LexicalScore = hit.Score
			}
			continue
		}
		byID[hit.ID] = len(merged)
		merged = append(merged, domain.Candidate{
			ID:           hit.ID,
			Text:         hit.Text,
			Metadata:     hit.Metadata,
			LexicalScore: hit.Score,
		})
	}

	maxLexical := 0.0
	for _, c := range merged {
		if c.LexicalScore > maxLexical {
			maxLexical = c.LexicalScore
		}
	}
	if maxLexical == 0 {
		maxLexical = 1.0
	}

	questionLower := strings.ToLower(question)
	queryTokens := toTokenSet(question)

	for i := range merged {
		merged[i].KeywordBoost = keywordBoost(queryTokens, questionLower, merged[i].Text)

		lexicalNorm := merged[i].LexicalScore / maxLexical
		score := fusionVectorWeight*merged[i].VectorScore +
			fusionLexicalWeight*lexicalNorm +
			fusionKeywordWeight*merged[i].KeywordBoost

		if strings.Contains(strings.ToLower(merged[i].Metadata.SectionPath), "eligibility") {
			score += eligibilitySectionBonus
		}
		merged[i].FinalScore = score
	}

	sort.SliceStable(merged, func(i, j int) bool {
		return merged[i].FinalScore > merged[j].FinalScore
	})

	if topK > 0 && len(merged) > topK {
		merged = merged[:topK]
	}
	return merged
}

// keywordBoost counts exact token overlap between question and passage plus
// a fixed bonus per matched domain/query term. Questions about refunds that
// land on refund passages get an extra flat bonus.
func keywordBoost(queryTokens map[string]struct{}, questionLower, text string) float64 {
	textTokens := toTokenSet(text)
	if len(queryTokens) == 0 || len(textTokens) == 0 {
		return 0
	}

	overlap := tokenOverlap(queryTokens, textTokens)

	bonusMatches := 0
	for token := range textTokens {
		if _, ok := bonusVocabulary[token]; ok {
			bonusMatches++
			continue
		}
		if _, ok := queryTokens[token]; ok {
			bonusMatches++
		}
	}

	boost := overlap + bonusTermWeight*float64(bonusMatches)
	if strings.Contains(questionLower, "refund") && strings.Contains(strings.ToLower(text), "refund") {
		boost += refundMatchBonus
	}
	return boost
}
