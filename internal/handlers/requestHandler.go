package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/akolanti/MLServe/internal/adapter"
	"github.com/akolanti/MLServe/internal/adapter/utils"
	"github.com/akolanti/MLServe/internal/api"
	"github.com/akolanti/MLServe/internal/config"
	"github.com/akolanti/MLServe/internal/domain/commonModels"
	"github.com/akolanti/MLServe/pkg/logger_i"
)

var logRH *logger_i.Logger

// HomeHandler godoc
// @Summary      Welcome message
// @Tags         General
// @Produce      json
// @Success      200  {object}  api.MessageResponse
// @Router       / [get]
func HomeHandler(w http.ResponseWriter, r *http.Request) {
	writeJsonResponse(w, http.StatusOK, api.MessageResponse{Message: "Hello! Welcome to MLE MasterClass!"})
}

// HealthHandler godoc
// @Summary      Health check
// @Description  Health route of the Vertex AI custom container contract, AIP_HEALTH_ROUTE overrides the path.
// @Tags         Model
// @Produce      json
// @Success      200  {object}  api.MessageResponse
// @Router       /health [get]
func HealthHandler(w http.ResponseWriter, r *http.Request) {
	writeJsonResponse(w, http.StatusOK, api.MessageResponse{Message: "Model API is healthy!"})
}

// GetStatusHandler godoc
// @Summary      Get job status
// @Description  Retrieves the current status of a figure or ingestion job using its ID.
// @Tags         Job Status
// @Produce      json
// @Param        id   path      string  true  "Job ID "
// @Success      200  {object}  api.JobResponse   "Successful retrieval of job status"
// @Failure      404  {object}  api.JobResponse   "Job not found (returns Error object within JobResponse)"
// @Router       /status/{id} [get]
func GetStatusHandler(w http.ResponseWriter, r *http.Request) {
	if !validateContext(r.Context()) {
		return
	}
	idString := utils.GetChiURLParam(r, "id")
	result, isFound := validateId(idString, traceId(r.Context()))

	logRH.Debug("Get Status Request", "URL path", r.URL.Path)
	if !isFound {
		WriteErrorResponse(w, http.StatusNotFound, idString, "Job not found")
		return
	}
	writeJsonResponse(w, http.StatusOK, adapter.ToAPIResponse(result))
}

// PostIngestHandler godoc
// @Summary      Upload a document into the word vocabulary
// @Description  Receives a PDF, DOCX or TXT file via multipart/form-data and queues an ingestion job that embeds its words.
// @Tags         Words
// @Accept       multipart/form-data
// @Produce      json
// @Param        document_name  formData  string  true  "The display name of the document"
// @Param        document       formData  file    true  "The PDF, DOCX or TXT file to upload"
// @Success      202  {object}  api.InitJobResponse
// @Failure      422  {object}  api.JobResponse "Missing fields or file too large"
// @Failure      500  {object}  api.JobResponse "Storage or Write Error"
// @Router       /api/words/ingest [post]
func PostIngestHandler(w http.ResponseWriter, r *http.Request) {
	if !validateContext(r.Context()) {
		return
	}
	if handlerInstance.cfg.JobService == nil || handlerInstance.cfg.Words == nil {
		writeUnavailable(w, "word embeddings")
		return
	}

	if err := r.ParseMultipartForm(config.MaxUploadSize); err != nil {
		WriteErrorResponse(w, http.StatusUnprocessableEntity, "", "File too large or bad request")
		return
	}

	docName := r.FormValue("document_name")
	if docName == "" {
		WriteErrorResponse(w, http.StatusUnprocessableEntity, "", "document_name is required")
		return
	}

	fileReader, fileMetadata, err := r.FormFile("document")
	if err != nil {
		WriteErrorResponse(w, http.StatusUnprocessableEntity, docName, "Could not retrieve file")
		return
	}
	defer fileReader.Close()

	targetDir, err := getTargetDirectory(handlerInstance.cfg.UploadDir)
	if err != nil {
		logRH.Error("Couldn't get target directory", "err", err)
		WriteErrorResponse(w, http.StatusInternalServerError, docName, "Storage error")
		return
	}

	tempFilePath, err := saveUpload(targetDir, fileMetadata.Filename, fileReader)
	if err != nil {
		logRH.Error("Couldn't store upload", "traceId", traceId(r.Context()), "err", err)
		WriteErrorResponse(w, http.StatusInternalServerError, docName, "Write error")
		return
	}

	newJob := newIngestJob(traceId(r.Context()), docName, tempFilePath)
	CreateNewJob(newJob)
	writeJsonResponse(w, http.StatusAccepted, adapter.ToInitJobResponse(newJob.Id))
}

// GetHistoryHandler godoc
// @Summary      Audit history
// @Description  Newest first list of predictions, reviews and detections served by this instance.
// @Tags         General
// @Produce      json
// @Param        kind   query     string  false  "prediction, review, detect_faces or celebrity"
// @Param        limit  query     int     false  "Maximum records, default 50, max 500"
// @Success      200  {object}  api.HistoryResponse
// @Failure      422  {object}  api.JobResponse
// @Router       /api/history [get]
func GetHistoryHandler(w http.ResponseWriter, r *http.Request) {
	if handlerInstance.cfg.Audit == nil {
		writeUnavailable(w, "audit store")
		return
	}

	limit := config.DefaultHistoryLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			WriteErrorResponse(w, http.StatusUnprocessableEntity, "", "limit must be a positive integer")
			return
		}
		limit = min(parsed, config.MaxHistoryLimit)
	}

	kind := commonModels.AuditKind(r.URL.Query().Get("kind"))
	records, err := handlerInstance.cfg.Audit.History(r.Context(), kind, limit)
	if err != nil {
		logRH.Error("History lookup failed", "traceId", traceId(r.Context()), "error", err)
		WriteErrorResponse(w, http.StatusInternalServerError, "", "Internal Server Error")
		return
	}
	if records == nil {
		records = []commonModels.AuditRecord{}
	}
	writeJsonResponse(w, http.StatusOK, api.HistoryResponse{Records: records})
}

func (h *Handler) audit(r *http.Request, kind commonModels.AuditKind, input any, output any, start time.Time) {
	if h.cfg.Audit == nil {
		return
	}
	h.cfg.Audit.Record(r.Context(), kind, input, output, time.Since(start))
}
