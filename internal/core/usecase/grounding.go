package usecase

import (
	"strings"

	"github.com/skobelevs/policy-qa/internal/core/domain"
)

const (
	snippetMaxChars  = 220
	bulletJoinLimit  = 120
	maxCitations     = 2
	bulletLinePrefix = "-"
)

type groundingResult struct {
	Answer    string
	Citations []domain.Citation
	Path      domain.CitationPath
}

// selectAnswer turns a generation outcome into the final answer text and a
// minimal citation set. Exactly one path is taken per request:
//
//   - the generator failed: deterministic extractive fallback, cited to the
//     single candidate the excerpt came from;
//   - the generated answer disclaims knowledge: refusal, zero citations;
//   - the generator reported used ids: cite those candidates in ranked
//     order (top-1 safety net when none match);
//   - no used ids: proximity heuristic over the top of the ranking.
func selectAnswer(question string, results []domain.Candidate, outcome domain.GenerationOutcome) groundingResult {
	if !outcome.Generated {
		return extractiveFallback(question, results)
	}

	answer := strings.TrimSpace(outcome.Answer)
	if isRefusalAnswer(answer) {
		return groundingResult{Answer: answer, Citations: []domain.Citation{}, Path: domain.PathRefused}
	}

	if len(outcome.UsedIDs) > 0 {
		selected := selectByIDs(results, outcome.UsedIDs)
		path := domain.PathGrounded
		if len(selected) == 0 && len(results) > 0 {
			// The generator cited ids that match nothing retrievable;
			// fall back to the top-ranked candidate.
			selected = results[:1]
			path = domain.PathGroundedFallback
		}
		return groundingResult{Answer: answer, Citations: buildCitations(selected), Path: path}
	}

	return groundingResult{
		Answer:    answer,
		Citations: buildCitations(proximitySelection(results)),
		Path:      domain.PathGroundedFallback,
	}
}

// extractiveFallback answers by excerpting retrieved text directly when the
// generative step is unavailable. The chosen candidate becomes the sole
// citation source.
func extractiveFallback(question string, results []domain.Candidate) groundingResult {
	best, ok := pickFallbackCandidate(question, results)
	if !ok {
		return groundingResult{Answer: domain.RefusalAnswer, Citations: []domain.Citation{}, Path: domain.PathExtractive}
	}
	return groundingResult{
		Answer:    extractAnswerFromText(best.Text),
		Citations: buildCitations([]domain.Candidate{best}),
		Path:      domain.PathExtractive,
	}
}

// pickFallbackCandidate applies two ordered question heuristics before
// defaulting to the top-ranked candidate.
func pickFallbackCandidate(question string, results []domain.Candidate) (domain.Candidate, bool) {
	if len(results) == 0 {
		return domain.Candidate{}, false
	}
	q := strings.ToLower(question)

	// Refund-window questions answer best from eligibility passages.
	if strings.Contains(q, "refund") && (strings.Contains(q, "window") || strings.Contains(q, "how long") || strings.Contains(q, "eligible")) {
		for _, c := range results {
			t := strings.ToLower(c.Text)
			if strings.Contains(t, "eligible") && strings.Contains(t, "within") && strings.Contains(t, "days") {
				return c, true
			}
		}
	}

	// "How do I request a refund" questions answer best from the
	// procedural refund-request passage.
	if strings.Contains(q, "request a refund") || (strings.Contains(q, "how do i") && strings.Contains(q, "refund")) {
		for _, c := range results {
			if strings.Contains(strings.ToLower(c.Text), "refund request") {
				return c, true
			}
		}
	}

	return results[0], true
}

// extractAnswerFromText excerpts a short answer from a passage: the first
// bullet line (joined with the second when the first is short), otherwise
// the first non-blank line, truncated to the snippet budget.
func extractAnswerFromText(text string) string {
	lines := make([]string, 0, 8)
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line != "" {
			lines = append(lines, line)
		}
	}
	if len(lines) == 0 {
		return ""
	}

	bullets := make([]string, 0, len(lines))
	for _, line := range lines {
		if strings.HasPrefix(line, bulletLinePrefix) {
			bullets = append(bullets, line)
		}
	}
	if len(bullets) > 0 {
		out := bullets[0]
		if len(bullets) > 1 && len(out) < bulletJoinLimit {
			out += " " + bullets[1]
		}
		return strings.TrimSpace(truncate(out, snippetMaxChars))
	}

	return strings.TrimSpace(truncate(lines[0], snippetMaxChars))
}

// isRefusalAnswer reports whether the answer text itself disclaims
// knowledge. A disclaimed answer is never cited.
func isRefusalAnswer(answer string) bool {
	t := strings.ToLower(strings.TrimSpace(answer))
	return strings.Contains(t, "don't know") || strings.Contains(t, "do not know")
}

// selectByIDs keeps ranked candidates whose id the generator reported as
// used, preserving ranked order rather than the generator's ordering.
func selectByIDs(results []domain.Candidate, usedIDs []string) []domain.Candidate {
	used := make(map[string]struct{}, len(usedIDs))
	for _, id := range usedIDs {
		used[id] = struct{}{}
	}
	selected := make([]domain.Candidate, 0, len(usedIDs))
	for _, c := range results {
		if _, ok := used[c.ID]; ok {
			selected = append(selected, c)
		}
	}
	return selected
}

// proximitySelection always cites the top candidate and adds the runner-up
// only when it shares a document or category with it, as a basis for
// believing it corroborates rather than dilutes.
func proximitySelection(results []domain.Candidate) []domain.Candidate {
	if len(results) == 0 {
		return nil
	}
	selected := results[:1]
	if len(results) > 1 {
		top, second := results[0], results[1]
		if second.Metadata.DocID == top.Metadata.DocID || second.Metadata.Category == top.Metadata.Category {
			selected = results[:2]
		}
	}
	return selected
}

func buildCitations(selected []domain.Candidate) []domain.Citation {
	if len(selected) > maxCitations {
		selected = selected[:maxCitations]
	}
	citations := make([]domain.Citation, 0, len(selected))
	for _, c := range selected {
		citations = append(citations, domain.Citation{
			ChunkID:     c.ID,
			DocID:       c.Metadata.DocID,
			SectionPath: c.Metadata.SectionPath,
			Score:       c.FinalScore,
			Snippet:     truncate(c.Text, snippetMaxChars),
		})
	}
	return citations
}

// truncate cuts on rune boundaries so a multi-byte character at the limit
// never leaves an invalid UTF-8 tail in a snippet or answer.
func truncate(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit])
}
