package handlers

import (
	"context"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/akolanti/MLServe/internal/config"
	"github.com/akolanti/MLServe/internal/domain/commonModels"
	"github.com/akolanti/MLServe/internal/domain/jobModel"
	"github.com/akolanti/MLServe/internal/job"
	"github.com/akolanti/MLServe/internal/metrics"
	"github.com/akolanti/MLServe/internal/vision"
	"github.com/akolanti/MLServe/pkg/logger_i"
)

var (
	handlerInstance *Handler
	logJH           *logger_i.Logger
)

type Predictor interface {
	PredictLabels(ctx context.Context, instances [][]float64) ([]string, error)
}

type SentimentClassifier interface {
	Classify(ctx context.Context, review string) (string, error)
}

type WordSearcher interface {
	MostSimilar(ctx context.Context, word string, topn int) ([]commonModels.Neighbour, error)
}

type FaceService interface {
	DetectFaces(ctx context.Context, upload []byte) (vision.DetectionResult, error)
	RecognizeFineTuned(ctx context.Context, upload []byte) (string, bool, error)
}

type Auditor interface {
	Record(ctx context.Context, kind commonModels.AuditKind, input any, output any, latency time.Duration)
	History(ctx context.Context, kind commonModels.AuditKind, limit int) ([]commonModels.AuditRecord, error)
}

// BoardSubscriber upgrades a request into a live figure feed for one board
type BoardSubscriber interface {
	ServeBoard(w http.ResponseWriter, r *http.Request, boardId string)
}

// Config carries the services behind the routes. A nil service makes its routes answer 503.
type Config struct {
	JobService   *job.Service
	Predictor    Predictor
	Sentiment    SentimentClassifier
	Words        WordSearcher
	Vision       FaceService
	Audit        Auditor
	Subscriber   BoardSubscriber
	UploadDir    string
	StarterWords []string
}

type Handler struct {
	cfg Config
}

// Init installs the services used by every handler in this package
func Init(cfg Config) {
	if cfg.StarterWords == nil {
		cfg.StarterWords = config.StarterWords
	}
	handlerInstance = &Handler{cfg: cfg}

	logJH = logger_i.NewLogger("JobHandler")
	logRH = logger_i.NewLogger("RequestHandler")
	logJH.Info("Starting handlers")
}

func CreateNewJob(newJob jobModel.Job) {
	log := logJH.With("traceId", newJob.TraceId, "job id", newJob.Id)
	log.Info("To create new job", "type", newJob.JobType)
	handlerInstance.pushToJobChannel(newJob, log)
}

func GetJobStatus(id string, traceId string) (result jobModel.Job, isFound bool) {
	ctxC := context.WithValue(context.Background(), config.TRACE_ID_KEY, traceId)
	if handlerInstance != nil && handlerInstance.cfg.JobService != nil {
		return handlerInstance.cfg.JobService.JobStore.GetJob(ctxC, id)
	}
	return result, false
}

func newFigureJob(traceId string, boardId string, words []string, topn int) jobModel.Job {
	return jobModel.Job{
		Id:          newId(),
		BoardId:     boardId,
		TraceId:     traceId,
		JobType:     jobModel.JobTypeFigure,
		CreatedTime: time.Now(),
		Status:      jobModel.JobStatusQueued,
		CurrentStep: jobModel.FigureInit,
		JobPayload:  jobModel.JobPayload{Words: words, TopN: topn},
	}
}

func newIngestJob(traceId string, documentName string, documentPath string) jobModel.Job {
	return jobModel.Job{
		Id:          newId(),
		TraceId:     traceId,
		JobType:     jobModel.JobTypeIngest,
		CreatedTime: time.Now(),
		Status:      jobModel.JobStatusQueued,
		CurrentStep: jobModel.IngestInit,
		JobPayload: jobModel.JobPayload{
			IngestFileName: documentName,
			IngestURL:      documentPath,
		},
	}
}

// private methods
func (h *Handler) pushToJobChannel(newJob jobModel.Job, log *logger_i.Logger) {
	service := h.cfg.JobService

	ctx := context.WithValue(context.Background(), config.TRACE_ID_KEY, newJob.TraceId)
	if err := service.JobStore.SaveJob(ctx, newJob); err != nil {
		log.Warn("Could not persist queued job", "error", err)
	}

	//metrics
	metrics.IncrementJobsInQueue()

	service.JobChannel <- newJob //blocking send so a full queue pushes back on clients
	log.Info("Created new job")

	//a new worker every RequestsPerNewWorkerCount requests, and for every ingestion
	//since those embed whole documents. idle workers retire on their own
	accurateCount := atomic.AddInt64(&service.RequestCount, 1)
	if accurateCount%config.RequestsPerNewWorkerCount == 0 || newJob.JobType == jobModel.JobTypeIngest {
		select {
		case service.DispatcherChannel <- true:
			metrics.StartDispatcherSignalCount() //metrics
			log.Debug("Signalled dispatcher", "requestCount", accurateCount)
		default:
			log.Debug("Dispatcher already signalled", "requestCount", accurateCount)
		}
	}
}
