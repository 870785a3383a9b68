package ollama

import (
	"fmt"
	"strings"

	"github.com/skobelevs/policy-qa/internal/core/domain"
)

func buildAnswerPrompt(question string, candidates []domain.Candidate) string {
	var contextBuilder strings.Builder
	for idx, c := range candidates {
		contextBuilder.WriteString(fmt.Sprintf(
			"[%d] chunk_id=%s doc=%s section=%s score=%.3f\n%s\n\n",
			idx+1,
			c.ID,
			c.Metadata.DocID,
			c.Metadata.SectionPath,
			c.FinalScore,
			c.Text,
		))
	}

	return fmt.Sprintf(`You are a policy assistant. Answer the question using only the numbered context passages below.
Return a strict JSON object with keys:
final_answer (string), used_chunk_ids (array of chunk_id strings copied verbatim from the context).
If the context does not answer the question, set final_answer to exactly %q and used_chunk_ids to [].
No markdown, no extra keys.

Question:
%s

Context:
%s
`, domain.RefusalAnswer, question, contextBuilder.String())
}
