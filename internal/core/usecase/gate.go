package usecase

import (
	"strings"

	"github.com/skobelevs/policy-qa/internal/core/domain"
)

const (
	confidenceThreshold = 0.45
	minKeywordLength    = 4
	topicCheckDepth     = 3
)

// evaluateEvidence decides whether retrieved evidence is strong enough to
// attempt an answer. Exactly one terminal state is reached per request:
// empty result sets and weak top scores refuse outright, and a confident
// ranking is still refused when none of the question's meaningful keywords
// appear in the top evidence (correct category, wrong sub-question).
func evaluateEvidence(question string, results []domain.Candidate) domain.GateDecision {
	if len(results) == 0 {
		return domain.RefuseDecision(domain.RefuseNoResults, 0.0)
	}

	topScore := results[0].FinalScore
	if topScore < confidenceThreshold {
		return domain.RefuseDecision(domain.RefuseLowConfidence, topScore)
	}

	if !evidenceMentionsQuestion(question, results) {
		return domain.RefuseDecision(domain.RefuseTopicMismatch, topScore)
	}

	return domain.ProceedDecision(results, topScore)
}

// evidenceMentionsQuestion checks that at least one meaningful question
// keyword appears verbatim in the concatenated top evidence. An empty
// keyword set trivially passes: there is nothing to verify.
func evidenceMentionsQuestion(question string, results []domain.Candidate) bool {
	keywords := meaningfulKeywords(question)
	if len(keywords) == 0 {
		return true
	}

	depth := topicCheckDepth
	if depth > len(results) {
		depth = len(results)
	}
	var b strings.Builder
	for _, c := range results[:depth] {
		b.WriteString(strings.ToLower(c.Text))
		b.WriteString(" ")
	}
	evidence := b.String()

	for _, keyword := range keywords {
		if strings.Contains(evidence, keyword) {
			return true
		}
	}
	return false
}

func meaningfulKeywords(question string) []string {
	tokens := splitAlphaNumLower(question)
	out := make([]string, 0, len(tokens))
	for _, token := range tokens {
		if len(token) < minKeywordLength {
			continue
		}
		if _, ok := stopWords[token]; ok {
			continue
		}
		out = append(out, token)
	}
	return out
}
