package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"

	"github.com/akolanti/MLServe/internal/adapter"
	"github.com/akolanti/MLServe/internal/adapter/utils"
	"github.com/akolanti/MLServe/internal/config"
	"github.com/akolanti/MLServe/internal/domain/jobModel"
)

var errMissingFile = errors.New("file is required")

func writeJsonResponse(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		// Log the error but can't send a clean status code now
		logRH.Error("Error encoding response", "error", err)
	}
}

func WriteErrorResponse(w http.ResponseWriter, httpCode int, id string, error string) {
	writeJsonResponse(w, httpCode, adapter.BadRequest(id, error, httpCode))
}

func writeUnprocessable(w http.ResponseWriter, id string, err error) {
	WriteErrorResponse(w, http.StatusUnprocessableEntity, id, err.Error())
}

func writeUnavailable(w http.ResponseWriter, what string) {
	WriteErrorResponse(w, http.StatusServiceUnavailable, "", what+" is not configured")
}

// decodeBody decodes a JSON body into v. An empty body is allowed when allowEmpty is set
// and leaves v untouched.
func decodeBody(r *http.Request, v any, allowEmpty bool) error {
	defer func(Body io.ReadCloser) {
		if err := Body.Close(); err != nil {
			logRH.Error("Couldn't close the request body", "error", err)
		}
	}(r.Body)

	err := json.NewDecoder(r.Body).Decode(v)
	if errors.Is(err, io.EOF) && allowEmpty {
		return nil
	}
	if err != nil {
		return fmt.Errorf("invalid request body: %w", err)
	}
	return nil
}

// readUpload pulls one multipart file into memory
func readUpload(r *http.Request, field string) ([]byte, error) {
	if err := r.ParseMultipartForm(config.MaxUploadSize); err != nil {
		return nil, fmt.Errorf("file too large or bad request: %w", err)
	}
	file, _, err := r.FormFile(field)
	if err != nil {
		return nil, errMissingFile
	}
	defer file.Close()
	return io.ReadAll(io.LimitReader(file, config.MaxUploadSize))
}

func traceId(ctx context.Context) string {
	trace, _ := ctx.Value(config.TRACE_ID_KEY).(string)
	return trace
}

func validateContext(ctx context.Context) bool {
	if ctx.Err() != nil {
		logRH.Warn("context error", "traceId", traceId(ctx), "error", ctx.Err())
		return false
	}
	return true
}

func validateId(id string, traceId string) (result jobModel.Job, isFound bool) {
	if id == "" {
		logRH.Warn("Empty Job ID")
		return result, false
	}
	return GetJobStatus(id, traceId)
}

func newId() string {
	return utils.GetNewUUID()
}

func getTargetDirectory(dir string) (string, error) {
	if dir == "" {
		root, err := os.Getwd()
		if err != nil {
			return "", err
		}
		dir = filepath.Join(root, "temporary_data")
	}
	if err := os.MkdirAll(dir, 0750); err != nil {
		return "", err
	}
	return dir, nil
}

// saveUpload copies src into a new file under dir and returns its path.
// The file is removed again if anything fails.
func saveUpload(dir string, name string, src io.Reader) (path string, err error) {
	tmp, err := os.CreateTemp(dir, "*-"+filepath.Base(name))
	if err != nil {
		return "", err
	}
	defer func() {
		if err != nil {
			_ = os.Remove(tmp.Name())
		}
	}()

	if _, err = io.Copy(tmp, src); err != nil {
		_ = tmp.Close()
		return "", fmt.Errorf("copy upload: %w", err)
	}
	if err = tmp.Close(); err != nil {
		return "", err
	}
	return tmp.Name(), nil
}
