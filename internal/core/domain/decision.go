package domain

// RefusalReason enumerates the terminal refusal states of the evidence gate.
type RefusalReason string

const (
	RefuseNoResults     RefusalReason = "no_results"
	RefuseLowConfidence RefusalReason = "low_confidence"
	RefuseTopicMismatch RefusalReason = "topic_mismatch"
)

// GateDecision is the outcome of the evidence gate. Exactly one of the two
// variants is produced per request: Proceed carries the gated result set,
// a refusal carries the reason and the observed top score.
type GateDecision struct {
	Proceed  bool
	Reason   RefusalReason
	TopScore float64
	Results  []Candidate
}

func ProceedDecision(results []Candidate, topScore float64) GateDecision {
	return GateDecision{Proceed: true, TopScore: topScore, Results: results}
}

func RefuseDecision(reason RefusalReason, topScore float64) GateDecision {
	return GateDecision{Reason: reason, TopScore: topScore}
}

// GenerationOutcome is the tagged result of the generation adapter.
// Failures never surface as errors; they carry a reason string instead so
// the pipeline can recover with the extractive fallback.
type GenerationOutcome struct {
	Generated  bool
	Answer     string
	UsedIDs    []string
	FailReason string
}

func GeneratedOutcome(answer string, usedIDs []string) GenerationOutcome {
	return GenerationOutcome{Generated: true, Answer: answer, UsedIDs: usedIDs}
}

func FailedOutcome(reason string) GenerationOutcome {
	return GenerationOutcome{FailReason: reason}
}

// CitationPath names which grounding branch produced the final answer.
type CitationPath string

const (
	PathRefused          CitationPath = "refused"
	PathGrounded         CitationPath = "grounded"
	PathGroundedFallback CitationPath = "grounded_fallback"
	PathExtractive       CitationPath = "extractive"
)
