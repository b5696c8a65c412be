package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/akolanti/MLServe/internal/adapter"
	"github.com/akolanti/MLServe/internal/api"
	"github.com/akolanti/MLServe/internal/domain/commonModels"
	"github.com/akolanti/MLServe/internal/vision"
)

// DetectFacesHandler godoc
// @Summary      Detect faces
// @Description  Outlines every face in red and labels the first one with the recognised celebrity.
// @Tags         Vision
// @Accept       multipart/form-data
// @Produce      json
// @Param        file  formData  file  true  "JPEG, PNG or GIF image"
// @Success      200   {object}  api.DetectFacesResponse
// @Failure      422   {object}  api.JobResponse
// @Failure      500   {object}  api.JobResponse
// @Router       /detect_faces [post]
func DetectFacesHandler(w http.ResponseWriter, r *http.Request) {
	h := handlerInstance
	if h.cfg.Vision == nil {
		writeUnavailable(w, "vision backend")
		return
	}

	upload, err := readUpload(r, "file")
	if err != nil {
		writeUnprocessable(w, "", err)
		return
	}

	start := time.Now()
	result, err := h.cfg.Vision.DetectFaces(r.Context(), upload)
	if err != nil {
		writeVisionError(w, r, err)
		return
	}

	response := adapter.ToDetectFacesResponse(result)
	h.audit(r, commonModels.AuditDetectFaces, len(upload), map[string]any{
		"faces":     len(result.Faces),
		"celebrity": response.Celebrity,
	}, start)
	writeJsonResponse(w, http.StatusOK, response)
}

// RecognizeCelebrityHandler godoc
// @Summary      Recognise a celebrity
// @Description  Runs the fine-tuned celebrity classifier; celebrity is null when the predicted class has no name.
// @Tags         Vision
// @Accept       multipart/form-data
// @Produce      json
// @Param        file  formData  file  true  "Face image"
// @Success      200   {object}  api.CelebrityResponse
// @Failure      422   {object}  api.JobResponse
// @Failure      500   {object}  api.JobResponse
// @Router       /recognize_celebrity [post]
func RecognizeCelebrityHandler(w http.ResponseWriter, r *http.Request) {
	h := handlerInstance
	if h.cfg.Vision == nil {
		writeUnavailable(w, "vision backend")
		return
	}

	upload, err := readUpload(r, "file")
	if err != nil {
		writeUnprocessable(w, "", err)
		return
	}

	start := time.Now()
	name, found, err := h.cfg.Vision.RecognizeFineTuned(r.Context(), upload)
	if err != nil {
		writeVisionError(w, r, err)
		return
	}

	response := api.CelebrityResponse{Celebrity: adapter.ToCelebrity(name, found)}
	h.audit(r, commonModels.AuditCelebrity, len(upload), response, start)
	writeJsonResponse(w, http.StatusOK, response)
}

func writeVisionError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, vision.ErrDecodeImage), errors.Is(err, vision.ErrEmptyImage):
		writeUnprocessable(w, "", err)
	case errors.Is(err, vision.ErrBackendUnavailable):
		WriteErrorResponse(w, http.StatusServiceUnavailable, "", err.Error())
	default:
		logRH.Error("Vision request failed", "traceId", traceId(r.Context()), "error", err)
		WriteErrorResponse(w, http.StatusInternalServerError, "", "Internal Server Error")
	}
}
