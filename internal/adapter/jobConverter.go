package adapter

import (
	"encoding/base64"
	"fmt"
	"time"

	"github.com/akolanti/MLServe/internal/api"
	"github.com/akolanti/MLServe/internal/domain/commonModels"
	"github.com/akolanti/MLServe/internal/domain/jobModel"
	"github.com/akolanti/MLServe/internal/vision"
)

func ToInitJobResponse(id string) api.InitJobResponse {
	return api.InitJobResponse{
		Id:        id,
		StatusURL: fmt.Sprintf("status/%s", id), //pass "status/job.Id"
	}
}

func ToAPIResponse(job jobModel.Job) api.JobResponse {

	var errorPtr *api.JobOutgoingError
	if job.Error.Message != "" || job.Error.Code != 0 {
		errorPtr = &api.JobOutgoingError{
			Code:    job.Error.Code,
			Message: job.Error.Message,
			Retry:   job.Error.Retry,
		}
	}

	result := api.Result{Status: string(job.Status)}
	switch job.JobType {
	case jobModel.JobTypeFigure:
		result.Figure = ToFigureResponse(job.JobPayload)
	case jobModel.JobTypeIngest:
		if job.Status == jobModel.JobStatusComplete {
			result.Ingest = &api.IngestResponse{
				DocumentName:  job.JobPayload.IngestFileName,
				WordsIngested: job.JobPayload.WordsIngested,
			}
		}
	}

	return api.JobResponse{
		Id:        job.Id,
		BoardId:   job.BoardId,
		StartTime: job.CreatedTime,
		EndTime:   job.EndTime,
		Error:     errorPtr,
		Result:    result,
	}
}

func ToFigureResponse(payload jobModel.JobPayload) *api.FigureResponse {
	if len(payload.Words) == 0 && len(payload.Figure) == 0 {
		return nil
	}
	return &api.FigureResponse{
		Words:        payload.Words,
		TopN:         payload.TopN,
		MissingWords: payload.MissingWords,
		Figure:       payload.Figure,
	}
}

func ToBoardResponse(id string, words []string) api.BoardResponse {
	if words == nil {
		words = []string{}
	}
	return api.BoardResponse{
		Id:      id,
		Words:   words,
		Options: commonModels.ToOptions(words),
	}
}

func ToDetectFacesResponse(result vision.DetectionResult) api.DetectFacesResponse {
	faces := make([]api.FaceResponse, 0, len(result.Faces))
	for _, f := range result.Faces {
		faces = append(faces, api.FaceResponse{
			Anger:      f.Anger.String(),
			Joy:        f.Joy.String(),
			Surprise:   f.Surprise.String(),
			Confidence: f.Confidence,
			Bounds:     vision.ExtractVertices([]vision.Face{f}),
		})
	}
	vertices := vision.ExtractVertices(result.Faces)
	if vertices == nil {
		vertices = [][2]int{}
	}
	return api.DetectFacesResponse{
		Image:     base64.StdEncoding.EncodeToString(result.Image),
		Celebrity: ToCelebrity(result.Celebrity, result.Found),
		Faces:     faces,
		Vertices:  vertices,
	}
}

// ToCelebrity is nil when nobody was recognised so the field encodes as null
func ToCelebrity(name string, found bool) *string {
	if !found {
		return nil
	}
	return &name
}

func BadRequest(id string, error string, code int) api.JobResponse {
	return api.JobResponse{
		Id:        id,
		StartTime: time.Time{},
		EndTime:   time.Time{},
		Result: api.Result{
			Status: string(api.JobStatusError),
		},
		Error: &api.JobOutgoingError{
			Code:    code,
			Message: error,
			Retry:   false,
		},
	}
}
