package usecase

// Heuristic tables for policy lookups. Kept as plain data so they can be
// unit-tested and tuned without touching the control flow that consumes them.

// bonusVocabulary lists tokens that frequently carry the actual policy
// answer ("Eligible for refund within 14 days"). Embedding models tend to
// under-weight these exact keywords, so fusion boosts them explicitly.
var bonusVocabulary = map[string]struct{}{
	"within":   {},
	"eligible": {},
	"refund":   {},
	"days":     {},
	"window":   {},
}

type categoryRule struct {
	category string
	keywords []string
}

// categoryRules maps question phrasing to a corpus category. Rules are
// checked in order, first match wins. Inference never overrides a category
// the caller supplied explicitly.
var categoryRules = []categoryRule{
	{category: "billing", keywords: []string{"refund", "billing", "plan", "pricing", "downgrade", "upgrade", "past due"}},
	{category: "privacy", keywords: []string{"privacy", "retention", "delete", "gdpr", "data"}},
	{category: "support", keywords: []string{"support", "response time", "sla", "ticket"}},
	{category: "operations", keywords: []string{"incident", "outage", "status", "downtime"}},
}

// stopWords excludes filler tokens from the topic-match check.
var stopWords = map[string]struct{}{
	"the": {}, "a": {}, "an": {}, "and": {}, "or": {}, "to": {}, "for": {},
	"of": {}, "in": {}, "on": {}, "with": {}, "is": {}, "are": {}, "do": {},
	"does": {}, "how": {}, "what": {}, "when": {}, "where": {}, "why": {},
	"can": {}, "i": {}, "we": {}, "you": {}, "your": {}, "our": {}, "it": {},
	"this": {}, "that": {},
}
