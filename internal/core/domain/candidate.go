package domain

// ChunkMetadata is the descriptive payload indexed with every passage.
// AppliesTo is a comma-joined audience list, e.g. "Pro, Team".
// SectionPath is a human-readable heading trail, e.g. "Refund Policy > Eligibility".
type ChunkMetadata struct {
	DocID       string `json:"doc_id"`
	Title       string `json:"title,omitempty"`
	Category    string `json:"category"`
	AppliesTo   string `json:"applies_to"`
	SectionPath string `json:"section_path"`
	ChunkIndex  int    `json:"chunk_index"`
}

// Candidate is one retrievable passage together with its relevance signals.
// FinalScore is always computed from the three component scores during
// fusion and is never edited afterwards.
type Candidate struct {
	ID           string        `json:"chunk_id"`
	Text         string        `json:"text"`
	Metadata     ChunkMetadata `json:"metadata"`
	VectorScore  float64       `json:"vector_score"`
	LexicalScore float64       `json:"lexical_score"`
	KeywordBoost float64       `json:"keyword_boost"`
	FinalScore   float64       `json:"final_score"`
}

// VectorHit is one nearest-neighbour match from the dense index.
// Distance is >= 0, smaller is closer.
type VectorHit struct {
	ID       string
	Text     string
	Metadata ChunkMetadata
	Distance float64
}

// LexicalHit is one bag-of-words match. Score is unbounded, larger is better.
type LexicalHit struct {
	ID       string
	Text     string
	Metadata ChunkMetadata
	Score    float64
}

// Query is a single question against the policy corpus. Category and
// AppliesTo are optional filters; an empty Category is inferred from the
// question text.
type Query struct {
	Question  string `json:"question"`
	TopK      int    `json:"top_k"`
	Category  string `json:"category,omitempty"`
	AppliesTo string `json:"applies_to,omitempty"`
}

// RetrievalKey identifies one filtered ranked result set in the cache.
type RetrievalKey struct {
	Question  string
	TopK      int
	Category  string
	AppliesTo string
}

// Citation points at one passage the answer is grounded on. Snippet is
// always excerpted from the retrieved passage, never from generated text.
type Citation struct {
	ChunkID     string  `json:"chunk_id"`
	DocID       string  `json:"doc_id"`
	SectionPath string  `json:"section_path"`
	Score       float64 `json:"score"`
	Snippet     string  `json:"snippet"`
}

// StageTimings reports per-stage latency in milliseconds.
type StageTimings struct {
	Retrieve int64 `json:"retrieve"`
	Generate int64 `json:"generate"`
	Total    int64 `json:"total"`
}

// RetrievalDebug is the observability bag attached to every response.
type RetrievalDebug struct {
	TopK       int          `json:"top_k"`
	Results    []Candidate  `json:"results"`
	TopScore   float64      `json:"top_score"`
	Reason     string       `json:"reason,omitempty"`
	Category   string       `json:"category,omitempty"`
	AppliesTo  string       `json:"applies_to,omitempty"`
	GenWarning string       `json:"gen_warning,omitempty"`
	Path       string       `json:"grounding_path,omitempty"`
	CacheHit   bool         `json:"cache_hit"`
	TraceID    string       `json:"trace_id,omitempty"`
	TimingsMS  StageTimings `json:"timings_ms"`
}

// AskResponse is the exposed answer contract. A refusal always carries
// RefusalAnswer as FinalAnswer and an empty citation list.
type AskResponse struct {
	Question    string         `json:"question"`
	FinalAnswer string         `json:"final_answer"`
	Citations   []Citation     `json:"citations"`
	Debug       RetrievalDebug `json:"retrieval_debug"`
}

// RefusalAnswer is the fixed sentence returned whenever the evidence gate
// refuses or the answer itself disclaims knowledge.
const RefusalAnswer = "I don't know based on the provided documents."
