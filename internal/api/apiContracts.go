package api

import (
	"encoding/json"
	"time"

	"github.com/akolanti/MLServe/internal/domain/commonModels"
)

type JobExternalStatus string

const (
	JobStatusError JobExternalStatus = "Error"
)

type JobResponse struct {
	Id        string            `json:"id" example:"job_cz109"`
	BoardId   string            `json:"board_id,omitempty" example:"board_550"`
	Result    Result            `json:"result"`
	Error     *JobOutgoingError `json:"error,omitempty"`
	StartTime time.Time         `json:"start_time"`
	EndTime   time.Time         `json:"end_time,omitempty"`
}

type JobOutgoingError struct {
	Code    int    `json:"code" example:"422"`
	Message string `json:"message" example:"Job not found"`
	Retry   bool   `json:"can_retry" example:"false"`
}

type FigureResponse struct {
	Words        []string        `json:"words"`
	TopN         int             `json:"topn"`
	MissingWords []string        `json:"missing_words,omitempty"`
	Figure       json.RawMessage `json:"figure,omitempty" swaggertype:"object"`
}

type IngestResponse struct {
	DocumentName  string `json:"document_name"`
	WordsIngested int    `json:"words_ingested"`
}

type Result struct {
	Status string          `json:"status"`
	Figure *FigureResponse `json:"figure_response,omitempty"`
	Ingest *IngestResponse `json:"ingest_response,omitempty"`
}

type InitJobResponse struct {
	Id        string `json:"id"`
	StatusURL string `json:"status_url"`
}

type MessageResponse struct {
	Message string `json:"message" example:"Model API is healthy!"`
}

// model serving ---------------------

type PredictRequest struct {
	Instances [][]float64 `json:"instances"`
}

type PredictResponse struct {
	Predictions []string `json:"predictions"`
}

type SinglePredictionResponse struct {
	Prediction string `json:"prediction" example:"setosa"`
}

// sentiment ---------------------

type ReviewRequest struct {
	Review *string `json:"review" validate:"required"`
}

type ReviewResponse struct {
	Message string `json:"message" example:"Review submitted successfully"`
	Success bool   `json:"success" example:"true"`
	Result  string `json:"result" example:"positive"`
}

// vision ---------------------

type DetectFacesResponse struct {
	Image     string         `json:"image"`
	Celebrity *string        `json:"celebrity"`
	Faces     []FaceResponse `json:"faces"`
	Vertices  [][2]int       `json:"vertices"`
}

type FaceResponse struct {
	Anger      string   `json:"anger"`
	Joy        string   `json:"joy"`
	Surprise   string   `json:"surprise"`
	Confidence float32  `json:"confidence"`
	Bounds     [][2]int `json:"bounds"`
}

type CelebrityResponse struct {
	Celebrity *string `json:"celebrity"`
}

// words ---------------------

type BoardRequest struct {
	Words []string `json:"words,omitempty"`
}

type BoardResponse struct {
	Id      string                        `json:"id"`
	Words   []string                      `json:"words"`
	Options []commonModels.DropdownOption `json:"options"`
}

type AddWordRequest struct {
	Word string `json:"word"`
}

type DeleteWordsRequest struct {
	Words []string `json:"words"`
}

type FigureRequest struct {
	TopN int `json:"topn,omitempty" example:"30"`
}

type SimilarWordsResponse struct {
	Word       string                   `json:"word"`
	Neighbours []commonModels.Neighbour `json:"neighbours"`
}

type HistoryResponse struct {
	Records []commonModels.AuditRecord `json:"records"`
}
