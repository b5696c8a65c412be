package handlers

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/akolanti/MLServe/internal/api"
	"github.com/akolanti/MLServe/internal/classifier"
	"github.com/akolanti/MLServe/internal/domain/commonModels"
	"github.com/akolanti/MLServe/internal/sentiment"
)

const sentimentFailure = "Failed to execute sentiment analysis."

// PredictInstancesHandler godoc
// @Summary      Batch iris prediction
// @Description  Vertex AI custom container predict route, AIP_PREDICT_ROUTE overrides the path.
// @Tags         Model
// @Accept       json
// @Produce      json
// @Param        request  body      api.PredictRequest  true  "Rows of sepal length, sepal width, petal length, petal width"
// @Success      200      {object}  api.PredictResponse
// @Failure      422      {object}  api.JobResponse
// @Router       /v1/predict [post]
func PredictInstancesHandler(w http.ResponseWriter, r *http.Request) {
	h := handlerInstance
	if h.cfg.Predictor == nil {
		writeUnavailable(w, "model")
		return
	}

	var request api.PredictRequest
	if err := decodeBody(r, &request, false); err != nil {
		writeUnprocessable(w, "", err)
		return
	}
	if request.Instances == nil {
		WriteErrorResponse(w, http.StatusUnprocessableEntity, "", "instances is required")
		return
	}

	start := time.Now()
	labels, err := h.cfg.Predictor.PredictLabels(r.Context(), request.Instances)
	if errors.Is(err, classifier.ErrFeatureCount) {
		writeUnprocessable(w, "", err)
		return
	}
	if err != nil {
		logRH.Error("Prediction failed", "traceId", traceId(r.Context()), "error", err)
		WriteErrorResponse(w, http.StatusInternalServerError, "", "Internal Server Error")
		return
	}

	h.audit(r, commonModels.AuditPrediction, request, labels, start)
	writeJsonResponse(w, http.StatusOK, api.PredictResponse{Predictions: labels})
}

// PredictHandler godoc
// @Summary      Single iris prediction
// @Description  Omitted measurements default to 5.1, 3.5, 1.4 and 0.2.
// @Tags         Model
// @Accept       json
// @Produce      json
// @Param        request  body      classifier.IrisSample  false  "Flower measurements in cm"
// @Success      200      {object}  api.SinglePredictionResponse
// @Failure      422      {object}  api.JobResponse
// @Router       /predict [post]
func PredictHandler(w http.ResponseWriter, r *http.Request) {
	h := handlerInstance
	if h.cfg.Predictor == nil {
		writeUnavailable(w, "model")
		return
	}

	sample := classifier.DefaultIrisSample()
	if err := decodeBody(r, &sample, true); err != nil {
		writeUnprocessable(w, "", err)
		return
	}

	start := time.Now()
	labels, err := h.cfg.Predictor.PredictLabels(r.Context(), [][]float64{sample.Features()})
	if err != nil || len(labels) != 1 {
		logRH.Error("Prediction failed", "traceId", traceId(r.Context()), "error", err)
		WriteErrorResponse(w, http.StatusInternalServerError, "", "Internal Server Error")
		return
	}

	h.audit(r, commonModels.AuditPrediction, sample, labels[0], start)
	writeJsonResponse(w, http.StatusOK, api.SinglePredictionResponse{Prediction: labels[0]})
}

// GetReviewHandler godoc
// @Summary      Review usage hint
// @Tags         Sentiment
// @Produce      json
// @Success      200  {object}  api.MessageResponse
// @Router       /api/review [get]
func GetReviewHandler(w http.ResponseWriter, r *http.Request) {
	writeJsonResponse(w, http.StatusOK, api.MessageResponse{
		Message: "Send a POST request to /api/review with your review to get sentiment analysis",
	})
}

// PostReviewHandler godoc
// @Summary      Review sentiment
// @Description  Classifies a review through the configured LLM backend. Blocked content is reported as negative.
// @Tags         Sentiment
// @Accept       json
// @Produce      json
// @Param        request  body      api.ReviewRequest  true  "The review text"
// @Success      200      {object}  api.ReviewResponse
// @Failure      422      {object}  api.JobResponse
// @Failure      500      {object}  api.JobResponse
// @Router       /api/review [post]
func PostReviewHandler(w http.ResponseWriter, r *http.Request) {
	h := handlerInstance
	if h.cfg.Sentiment == nil {
		writeUnavailable(w, "sentiment backend")
		return
	}

	var request api.ReviewRequest
	if err := decodeBody(r, &request, false); err != nil {
		writeUnprocessable(w, "", err)
		return
	}
	if request.Review == nil || strings.TrimSpace(*request.Review) == "" {
		WriteErrorResponse(w, http.StatusUnprocessableEntity, "", sentiment.ErrEmptyReview.Error())
		return
	}

	start := time.Now()
	label, err := h.cfg.Sentiment.Classify(r.Context(), *request.Review)
	if err != nil {
		logRH.Error("Sentiment analysis failed", "traceId", traceId(r.Context()), "error", err)
		WriteErrorResponse(w, http.StatusInternalServerError, "", sentimentFailure)
		return
	}

	h.audit(r, commonModels.AuditReview, *request.Review, label, start)
	writeJsonResponse(w, http.StatusOK, api.ReviewResponse{
		Message: "Review submitted successfully",
		Success: true,
		Result:  label,
	})
}
