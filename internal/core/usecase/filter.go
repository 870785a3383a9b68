package usecase

import (
	"strings"

	"github.com/skobelevs/policy-qa/internal/core/domain"
)

// inferCategory derives a corpus category from question phrasing. Returns
// the empty string when no rule matches, which disables category filtering.
func inferCategory(question string) string {
	q := strings.ToLower(question)
	for _, rule := range categoryRules {
		for _, keyword := range rule.keywords {
			if strings.Contains(q, keyword) {
				return rule.category
			}
		}
	}
	return ""
}

// filterCandidates narrows a ranked result set by metadata, preserving
// relative order. Category matches by exact equality; appliesTo matches by
// case-insensitive substring containment against the comma-joined audience
// list. An empty result is a valid outcome and feeds into the gate.
func filterCandidates(results []domain.Candidate, category, appliesTo string) []domain.Candidate {
	if category == "" && appliesTo == "" {
		return results
	}

	out := make([]domain.Candidate, 0, len(results))
	for _, c := range results {
		if category != "" && c.Metadata.Category != category {
			continue
		}
		if appliesTo != "" {
			allowed := strings.ToLower(c.Metadata.AppliesTo)
			if !strings.Contains(allowed, strings.ToLower(appliesTo)) {
				continue
			}
		}
		out = append(out, c)
	}
	return out
}
