package commonModels

import "time"

// Document is an uploaded file whose words feed the vocabulary index
type Document struct {
	Id                  string    `json:"source_doc_id"`
	Name                string    `json:"doc_name"`
	LastIngestTimestamp time.Time `json:"ingested_at"`
	ContentType         DocType   `json:"contentType"`
}

type DocType string

var PDF DocType = "PDF"
var DOCX DocType = "DOCX"
var TXT DocType = "TXT"
var ERR DocType = "ERROR"

// Neighbour is one most_similar hit
type Neighbour struct {
	Word       string    `json:"word"`
	Similarity float32   `json:"similarity"`
	Vector     []float32 `json:"-"`
}

// DropdownOption mirrors the {label, value} pairs of the dashboard dropdown
type DropdownOption struct {
	Label string `json:"label"`
	Value string `json:"value"`
}

func ToOptions(words []string) []DropdownOption {
	options := make([]DropdownOption, 0, len(words))
	for _, w := range words {
		options = append(options, DropdownOption{Label: w, Value: w})
	}
	return options
}

// AuditKind labels the rows of the audit store
type AuditKind string

const (
	AuditPrediction  AuditKind = "prediction"
	AuditReview      AuditKind = "review"
	AuditDetectFaces AuditKind = "detect_faces"
	AuditCelebrity   AuditKind = "celebrity"
)

type AuditRecord struct {
	Id        int64     `json:"id"`
	Kind      AuditKind `json:"kind"`
	TraceId   string    `json:"trace_id"`
	Input     string    `json:"input"`
	Output    string    `json:"output"`
	LatencyMs int64     `json:"latency_ms"`
	CreatedAt time.Time `json:"created_at"`
}
