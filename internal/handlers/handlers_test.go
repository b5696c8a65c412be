package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"slices"
	"strings"
	"testing"
	"time"

	"github.com/akolanti/MLServe/internal/api"
	"github.com/akolanti/MLServe/internal/classifier"
	"github.com/akolanti/MLServe/internal/config"
	"github.com/akolanti/MLServe/internal/data/store"
	"github.com/akolanti/MLServe/internal/domain/commonModels"
	"github.com/akolanti/MLServe/internal/domain/jobModel"
	"github.com/akolanti/MLServe/internal/job"
	"github.com/akolanti/MLServe/internal/vision"
	"github.com/akolanti/MLServe/internal/words"
	"github.com/akolanti/MLServe/internal/words/embedding"
	"github.com/go-chi/chi/v5"
)

type MockPredictor struct {
	OnPredictLabels func(ctx context.Context, instances [][]float64) ([]string, error)
}

func (m *MockPredictor) PredictLabels(ctx context.Context, instances [][]float64) ([]string, error) {
	return m.OnPredictLabels(ctx, instances)
}

type MockSentiment struct {
	OnClassify func(ctx context.Context, review string) (string, error)
}

func (m *MockSentiment) Classify(ctx context.Context, review string) (string, error) {
	return m.OnClassify(ctx, review)
}

type MockWords struct {
	OnMostSimilar func(ctx context.Context, word string, topn int) ([]commonModels.Neighbour, error)
}

func (m *MockWords) MostSimilar(ctx context.Context, word string, topn int) ([]commonModels.Neighbour, error) {
	return m.OnMostSimilar(ctx, word, topn)
}

type MockVision struct {
	OnDetectFaces        func(ctx context.Context, upload []byte) (vision.DetectionResult, error)
	OnRecognizeFineTuned func(ctx context.Context, upload []byte) (string, bool, error)
}

func (m *MockVision) DetectFaces(ctx context.Context, upload []byte) (vision.DetectionResult, error) {
	return m.OnDetectFaces(ctx, upload)
}

func (m *MockVision) RecognizeFineTuned(ctx context.Context, upload []byte) (string, bool, error) {
	return m.OnRecognizeFineTuned(ctx, upload)
}

type MockAudit struct {
	kinds     []commonModels.AuditKind
	OnHistory func(ctx context.Context, kind commonModels.AuditKind, limit int) ([]commonModels.AuditRecord, error)
}

func (m *MockAudit) Record(ctx context.Context, kind commonModels.AuditKind, input any, output any, latency time.Duration) {
	m.kinds = append(m.kinds, kind)
}

func (m *MockAudit) History(ctx context.Context, kind commonModels.AuditKind, limit int) ([]commonModels.AuditRecord, error) {
	return m.OnHistory(ctx, kind, limit)
}

func newJobService() *job.Service {
	return job.InitJobService(job.ServiceConfig{
		JobChannel:        make(chan jobModel.Job, 10),
		DispatcherChannel: make(chan bool, 1),
		JobStore:          store.InitInMemoryJobStore(),
		BoardStore:        store.InitInMemoryBoardStore(),
	})
}

func newRouter() *chi.Mux {
	r := chi.NewRouter()
	r.Post("/v1/predict", PredictInstancesHandler)
	r.Post("/predict", PredictHandler)
	r.Post("/api/review", PostReviewHandler)
	r.Post("/detect_faces", DetectFacesHandler)
	r.Post("/recognize_celebrity", RecognizeCelebrityHandler)
	r.Get("/api/words/similar", GetSimilarWordsHandler)
	r.Post("/api/words/ingest", PostIngestHandler)
	r.Post("/boards", PostBoardHandler)
	r.Get("/boards/{id}", GetBoardHandler)
	r.Post("/boards/{id}/words", PostBoardWordHandler)
	r.Delete("/boards/{id}/words", DeleteBoardWordsHandler)
	r.Post("/boards/{id}/figure", PostBoardFigureHandler)
	r.Get("/status/{id}", GetStatusHandler)
	r.Get("/api/history", GetHistoryHandler)
	return r
}

func do(t *testing.T, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req = req.WithContext(context.WithValue(req.Context(), config.TRACE_ID_KEY, "trace-test"))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	newRouter().ServeHTTP(rec, req)
	return rec
}

func upload(t *testing.T, path, field, filename string, content []byte, extra map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range extra {
		_ = mw.WriteField(k, v)
	}
	if field != "" {
		part, err := mw.CreateFormFile(field, filename)
		if err != nil {
			t.Fatal(err)
		}
		_, _ = part.Write(content)
	}
	_ = mw.Close()

	req := httptest.NewRequest(http.MethodPost, path, &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec := httptest.NewRecorder()
	newRouter().ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("could not decode %q: %v", rec.Body.String(), err)
	}
	return out
}

func TestPredictInstancesHandler(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		labels     []string
		err        error
		wantStatus int
	}{
		{"two rows", `{"instances":[[5.1,3.5,1.4,0.2],[6.7,3.0,5.2,2.3]]}`, []string{"setosa", "virginica"}, nil, http.StatusOK},
		{"empty instances", `{"instances":[]}`, []string{}, nil, http.StatusOK},
		{"wrong feature count", `{"instances":[[1,2,3]]}`, nil, fmt.Errorf("instance 0: %w", classifier.ErrFeatureCount), http.StatusUnprocessableEntity},
		{"missing instances", `{}`, nil, nil, http.StatusUnprocessableEntity},
		{"malformed json", `{"instances":`, nil, nil, http.StatusUnprocessableEntity},
		{"model failure", `{"instances":[[1,2,3,4]]}`, nil, errors.New("corrupt"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			audit := &MockAudit{}
			Init(Config{Audit: audit, Predictor: &MockPredictor{
				OnPredictLabels: func(ctx context.Context, instances [][]float64) ([]string, error) {
					return tt.labels, tt.err
				},
			}})

			rec := do(t, http.MethodPost, "/v1/predict", tt.body)
			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d (%s)", rec.Code, tt.wantStatus, rec.Body.String())
			}
			if tt.wantStatus != http.StatusOK {
				return
			}
			got := decode[api.PredictResponse](t, rec)
			if !slices.Equal(got.Predictions, tt.labels) {
				t.Errorf("predictions = %v, want %v", got.Predictions, tt.labels)
			}
			if len(audit.kinds) != 1 || audit.kinds[0] != commonModels.AuditPrediction {
				t.Errorf("prediction was not audited: %v", audit.kinds)
			}
		})
	}
}

func TestPredictHandler_DefaultsForOmittedFields(t *testing.T) {
	var got []float64
	Init(Config{Predictor: &MockPredictor{
		OnPredictLabels: func(ctx context.Context, instances [][]float64) ([]string, error) {
			got = instances[0]
			return []string{"virginica"}, nil
		},
	}})

	rec := do(t, http.MethodPost, "/predict", `{"petal_length": 6.0}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if want := []float64{5.1, 3.5, 6.0, 0.2}; !slices.Equal(got, want) {
		t.Errorf("features = %v, want %v", got, want)
	}
	if res := decode[api.SinglePredictionResponse](t, rec); res.Prediction != "virginica" {
		t.Errorf("prediction = %q", res.Prediction)
	}

	rec = do(t, http.MethodPost, "/predict", "")
	if rec.Code != http.StatusOK {
		t.Errorf("empty body should use every default, got %d", rec.Code)
	}
}

func TestPostReviewHandler(t *testing.T) {
	tests := []struct {
		name        string
		body        string
		label       string
		err         error
		wantStatus  int
		wantMessage string
	}{
		{"positive", `{"review":"I loved it"}`, "positive", nil, http.StatusOK, "Review submitted successfully"},
		{"missing review", `{}`, "", nil, http.StatusUnprocessableEntity, ""},
		{"empty review", `{"review":""}`, "", nil, http.StatusUnprocessableEntity, ""},
		{"blank review", `{"review":"  "}`, "", nil, http.StatusUnprocessableEntity, ""},
		{"backend failure", `{"review":"meh"}`, "", errors.New("quota"), http.StatusInternalServerError, sentimentFailure},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			Init(Config{Sentiment: &MockSentiment{
				OnClassify: func(ctx context.Context, review string) (string, error) {
					return tt.label, tt.err
				},
			}})

			rec := do(t, http.MethodPost, "/api/review", tt.body)
			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			switch tt.wantStatus {
			case http.StatusOK:
				res := decode[api.ReviewResponse](t, rec)
				if !res.Success || res.Result != tt.label || res.Message != tt.wantMessage {
					t.Errorf("unexpected response %+v", res)
				}
			case http.StatusInternalServerError:
				res := decode[api.JobResponse](t, rec)
				if res.Error == nil || res.Error.Message != tt.wantMessage {
					t.Errorf("unexpected error %+v", res.Error)
				}
			}
		})
	}
}

func TestGetSimilarWordsHandler(t *testing.T) {
	Init(Config{Words: &MockWords{
		OnMostSimilar: func(ctx context.Context, word string, topn int) ([]commonModels.Neighbour, error) {
			switch {
			case word == "zzz":
				return nil, fmt.Errorf("%q: %w", word, embedding.ErrUnknownWord)
			case !words.IsWord(word):
				return nil, words.ErrInvalidWord
			}
			if topn != config.DefaultSimilarTopN {
				t.Errorf("topn = %d, want default", topn)
			}
			return []commonModels.Neighbour{{Word: "queen", Similarity: 0.65}}, nil
		},
	}})

	tests := []struct {
		path       string
		wantStatus int
	}{
		{"/api/words/similar?word=king", http.StatusOK},
		{"/api/words/similar?word=zzz", http.StatusNotFound},
		{"/api/words/similar?word=k1ng", http.StatusUnprocessableEntity},
		{"/api/words/similar?word=king&topn=abc", http.StatusUnprocessableEntity},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			rec := do(t, http.MethodGet, tt.path, "")
			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
		})
	}

	res := decode[api.SimilarWordsResponse](t, do(t, http.MethodGet, "/api/words/similar?word=king", ""))
	if len(res.Neighbours) != 1 || res.Neighbours[0].Word != "queen" {
		t.Errorf("unexpected neighbours %+v", res.Neighbours)
	}
}

func TestBoardLifecycle(t *testing.T) {
	service := newJobService()
	Init(Config{JobService: service, Words: &MockWords{}})

	rec := do(t, http.MethodPost, "/boards", "")
	if rec.Code != http.StatusCreated {
		t.Fatalf("create status = %d", rec.Code)
	}
	board := decode[api.BoardResponse](t, rec)
	if !slices.Equal(board.Words, config.StarterWords) || len(board.Options) != len(config.StarterWords) {
		t.Fatalf("unexpected starter board %+v", board)
	}
	if board.Options[0].Label != "Paris" || board.Options[0].Value != "Paris" {
		t.Errorf("unexpected option %+v", board.Options[0])
	}
	base := "/boards/" + board.Id

	t.Run("add new word", func(t *testing.T) {
		res := decode[api.BoardResponse](t, do(t, http.MethodPost, base+"/words", `{"word":"king"}`))
		if res.Words[len(res.Words)-1] != "king" || len(res.Words) != 17 {
			t.Errorf("word not appended: %v", res.Words)
		}
	})
	t.Run("add existing word", func(t *testing.T) {
		res := decode[api.BoardResponse](t, do(t, http.MethodPost, base+"/words", `{"word":"Paris"}`))
		if len(res.Words) != 17 {
			t.Errorf("duplicate added: %v", res.Words)
		}
	})
	t.Run("empty word leaves board unchanged", func(t *testing.T) {
		res := decode[api.BoardResponse](t, do(t, http.MethodPost, base+"/words", `{"word":""}`))
		if len(res.Words) != 17 {
			t.Errorf("board changed: %v", res.Words)
		}
	})
	t.Run("invalid word", func(t *testing.T) {
		if rec := do(t, http.MethodPost, base+"/words", `{"word":"two words"}`); rec.Code != http.StatusUnprocessableEntity {
			t.Errorf("status = %d", rec.Code)
		}
	})
	t.Run("delete words", func(t *testing.T) {
		res := decode[api.BoardResponse](t, do(t, http.MethodDelete, base+"/words", `{"words":["Paris","war"]}`))
		if slices.Contains(res.Words, "Paris") || slices.Contains(res.Words, "war") || len(res.Words) != 15 {
			t.Errorf("words not deleted: %v", res.Words)
		}
	})
	t.Run("queue figure", func(t *testing.T) {
		rec := do(t, http.MethodPost, base+"/figure", `{"topn":5}`)
		if rec.Code != http.StatusAccepted {
			t.Fatalf("status = %d", rec.Code)
		}
		initJob := decode[api.InitJobResponse](t, rec)

		queued := <-service.JobChannel
		if queued.Id != initJob.Id || queued.BoardId != board.Id || queued.JobType != jobModel.JobTypeFigure {
			t.Errorf("unexpected job %+v", queued)
		}
		if queued.JobPayload.TopN != 5 || len(queued.JobPayload.Words) != 15 || queued.TraceId != "trace-test" {
			t.Errorf("unexpected payload %+v", queued.JobPayload)
		}

		status := do(t, http.MethodGet, "/status/"+initJob.Id, "")
		if status.Code != http.StatusOK {
			t.Fatalf("status lookup = %d", status.Code)
		}
		if res := decode[api.JobResponse](t, status); res.Result.Status != string(jobModel.JobStatusQueued) {
			t.Errorf("unexpected job status %+v", res.Result)
		}
	})
	t.Run("figure topn out of range", func(t *testing.T) {
		if rec := do(t, http.MethodPost, base+"/figure", `{"topn":1000}`); rec.Code != http.StatusUnprocessableEntity {
			t.Errorf("status = %d", rec.Code)
		}
	})
	t.Run("unknown board", func(t *testing.T) {
		if rec := do(t, http.MethodGet, "/boards/nope", ""); rec.Code != http.StatusNotFound {
			t.Errorf("status = %d", rec.Code)
		}
	})
}

func TestGetStatusHandler_NotFound(t *testing.T) {
	Init(Config{JobService: newJobService()})
	rec := do(t, http.MethodGet, "/status/missing", "")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d", rec.Code)
	}
	res := decode[api.JobResponse](t, rec)
	if res.Result.Status != string(api.JobStatusError) || res.Error == nil || res.Error.Code != http.StatusNotFound {
		t.Errorf("unexpected body %+v", res)
	}
}

func TestPostIngestHandler(t *testing.T) {
	service := newJobService()
	Init(Config{JobService: service, Words: &MockWords{}, UploadDir: t.TempDir()})

	rec := upload(t, "/api/words/ingest", "document", "notes.txt", []byte("king queen"), map[string]string{"document_name": "notes.txt"})
	if rec.Code != http.StatusAccepted {
		t.Fatalf("status = %d (%s)", rec.Code, rec.Body.String())
	}
	queued := <-service.JobChannel
	if queued.JobType != jobModel.JobTypeIngest || queued.JobPayload.IngestFileName != "notes.txt" {
		t.Errorf("unexpected job %+v", queued)
	}
	select {
	case <-service.DispatcherChannel:
	default:
		t.Error("ingestion should signal the dispatcher")
	}

	rec = upload(t, "/api/words/ingest", "document", "notes.txt", []byte("x"), nil)
	if rec.Code != http.StatusUnprocessableEntity {
		t.Errorf("missing document_name: status = %d", rec.Code)
	}
}

func TestDetectFacesHandler(t *testing.T) {
	audit := &MockAudit{}
	Init(Config{Audit: audit, Vision: &MockVision{
		OnDetectFaces: func(ctx context.Context, upload []byte) (vision.DetectionResult, error) {
			if string(upload) == "garbage" {
				return vision.DetectionResult{}, fmt.Errorf("%w: bad header", vision.ErrDecodeImage)
			}
			return vision.DetectionResult{
				Image: []byte("png"),
				Faces: []vision.Face{{Vertices: []vision.Vertex{{X: 1, Y: 2}, {X: 3, Y: 4}}, Joy: vision.VeryLikely}},
			}, nil
		},
	}})

	t.Run("missing file", func(t *testing.T) {
		if rec := upload(t, "/detect_faces", "", "", nil, nil); rec.Code != http.StatusUnprocessableEntity {
			t.Errorf("status = %d", rec.Code)
		}
	})
	t.Run("undecodable image", func(t *testing.T) {
		if rec := upload(t, "/detect_faces", "file", "x.png", []byte("garbage"), nil); rec.Code != http.StatusUnprocessableEntity {
			t.Errorf("status = %d", rec.Code)
		}
	})
	t.Run("faces found", func(t *testing.T) {
		rec := upload(t, "/detect_faces", "file", "x.png", []byte("image"), nil)
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d", rec.Code)
		}
		res := decode[api.DetectFacesResponse](t, rec)
		if res.Image != "cG5n" || res.Celebrity != nil {
			t.Errorf("unexpected response %+v", res)
		}
		if len(res.Faces) != 1 || res.Faces[0].Joy != "VERY_LIKELY" || len(res.Vertices) != 2 {
			t.Errorf("unexpected faces %+v", res.Faces)
		}
		if !slices.Contains(audit.kinds, commonModels.AuditDetectFaces) {
			t.Error("detection was not audited")
		}
	})
}

func TestRecognizeCelebrityHandler(t *testing.T) {
	Init(Config{Vision: &MockVision{
		OnRecognizeFineTuned: func(ctx context.Context, upload []byte) (string, bool, error) {
			return "Ada Lovelace", true, nil
		},
	}})

	rec := upload(t, "/recognize_celebrity", "file", "face.jpg", []byte("image"), nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	res := decode[api.CelebrityResponse](t, rec)
	if res.Celebrity == nil || *res.Celebrity != "Ada Lovelace" {
		t.Errorf("unexpected celebrity %v", res.Celebrity)
	}
}

func TestGetHistoryHandler(t *testing.T) {
	var gotKind commonModels.AuditKind
	var gotLimit int
	Init(Config{Audit: &MockAudit{
		OnHistory: func(ctx context.Context, kind commonModels.AuditKind, limit int) ([]commonModels.AuditRecord, error) {
			gotKind, gotLimit = kind, limit
			return nil, nil
		},
	}})

	rec := do(t, http.MethodGet, "/api/history?kind=review&limit=9999", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if gotKind != commonModels.AuditReview || gotLimit != config.MaxHistoryLimit {
		t.Errorf("kind=%q limit=%d", gotKind, gotLimit)
	}
	if !strings.Contains(rec.Body.String(), `"records":[]`) {
		t.Errorf("expected empty records array, got %s", rec.Body.String())
	}

	if rec := do(t, http.MethodGet, "/api/history?limit=-1", ""); rec.Code != http.StatusUnprocessableEntity {
		t.Errorf("negative limit: status = %d", rec.Code)
	}
}

func TestUnconfiguredServicesAnswer503(t *testing.T) {
	Init(Config{})
	for _, path := range []string{"/v1/predict", "/api/review"} {
		if rec := do(t, http.MethodPost, path, `{}`); rec.Code != http.StatusServiceUnavailable {
			t.Errorf("%s: status = %d", path, rec.Code)
		}
	}
}
