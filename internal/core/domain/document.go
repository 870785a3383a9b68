package domain

import "time"

type DocumentStatus string

const (
	StatusUploaded   DocumentStatus = "uploaded"
	StatusProcessing DocumentStatus = "processing"
	StatusReady      DocumentStatus = "ready"
	StatusFailed     DocumentStatus = "failed"
)

// Document is one source policy file in the registry. DocID is the stable
// corpus identifier from the front matter (falls back to the filename stem)
// and prefixes every chunk id as "<doc_id>::cNNNN".
type Document struct {
	ID          string         `json:"id"`
	DocID       string         `json:"doc_id,omitempty"`
	Filename    string         `json:"filename"`
	MimeType    string         `json:"mime_type"`
	StoragePath string         `json:"storage_path"`
	Title       string         `json:"title,omitempty"`
	Category    string         `json:"category,omitempty"`
	AppliesTo   string         `json:"applies_to,omitempty"`
	Version     string         `json:"version,omitempty"`
	ChunkCount  int            `json:"chunk_count,omitempty"`
	Status      DocumentStatus `json:"status"`
	Error       string         `json:"error,omitempty"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
}

// PolicyMeta is the parsed front matter of a policy document.
type PolicyMeta struct {
	DocID       string
	Title       string
	Category    string
	Version     string
	LastUpdated string
	AppliesTo   []string
}

// Section is one heading-delimited block of a policy document. Path is the
// heading trail from the document root, e.g. ["Refund Policy", "Eligibility"].
type Section struct {
	Path []string
	Text string
}

// ExtractedDocument is the output of a text extractor before chunking.
type ExtractedDocument struct {
	Meta     PolicyMeta
	Sections []Section
}

// Chunk is one indexable passage produced from a section.
type Chunk struct {
	ID          string
	Text        string
	SectionPath []string
	Index       int
}
