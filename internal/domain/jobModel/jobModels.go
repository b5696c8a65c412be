package jobModel

import (
	"context"
	"encoding/json"
	"time"
)

type JobStatus string
type InternalStatus string

type JobType string

const (
	JobStatusQueued   JobStatus = "QUEUED"
	JobStatusRunning  JobStatus = "RUNNING"
	JobStatusComplete JobStatus = "COMPLETE"
	JobStatusError    JobStatus = "Error"

	FigureInit       InternalStatus = "Init"
	EmbeddingAPICall InternalStatus = "EmbeddingAPI"
	VectorDBCall     InternalStatus = "VectorDB"
	TSNECall         InternalStatus = "TSNE"
	PlotCall         InternalStatus = "Plot"
	RedisCall        InternalStatus = "Redis"

	IngestInit       InternalStatus = "IngestInit"
	IngestProcessing InternalStatus = "IngestProcessing"
	Error            InternalStatus = "Error"

	Complete InternalStatus = "Complete"

	JobTypeFigure JobType = "Figure"
	JobTypeIngest JobType = "Ingest"
)

type Job struct {
	Id          string         `json:"id"`
	BoardId     string         `json:"board_id,omitempty"`
	TraceId     string         `json:"trace_id"`
	JobType     JobType        `json:"job_type"`
	JobPayload  JobPayload     `json:"job_payload"`
	Error       JobError       `json:"error,omitempty"`
	CreatedTime time.Time      `json:"created_time"`
	EndTime     time.Time      `json:"end_time,omitempty"`
	Status      JobStatus      `json:"status"`
	CurrentStep InternalStatus `json:"current_step"`
}

type JobError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Retry   bool   `json:"retry"`
}

type JobPayload struct {
	Words        []string `json:"words,omitempty"`
	TopN         int      `json:"topn,omitempty"`
	MissingWords []string `json:"missing_words,omitempty"`
	// Figure is the plotly figure, kept as raw JSON so the store does not need the plot types
	Figure json.RawMessage `json:"figure,omitempty"`

	IngestFileName string `json:"ingest_file_name,omitempty"`
	IngestURL      string `json:"ingest_url,omitempty"`
	WordsIngested  int    `json:"words_ingested,omitempty"`
}

type JobStore interface {
	GetJob(ctx context.Context, jobId string) (Job, bool)
	SaveJob(ctx context.Context, job Job) error
	DeleteJob(ctx context.Context, jobID string)
}

// BoardStore persists the word list behind a dashboard board
type BoardStore interface {
	ValidateBoardId(ctx context.Context, id string) bool
	InitBoard(ctx context.Context, id string, words []string) error
	GetWords(ctx context.Context, id string) ([]string, error)
	AddWord(ctx context.Context, id string, word string) ([]string, error)
	DeleteWords(ctx context.Context, id string, words []string) ([]string, error)
}

// FigureNotifier is told about every finished figure job that belongs to a board
type FigureNotifier interface {
	PublishFigure(boardId string, job Job)
}
