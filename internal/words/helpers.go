package words

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/akolanti/MLServe/internal/domain/jobModel"
	"github.com/akolanti/MLServe/internal/metrics"
	"github.com/akolanti/MLServe/internal/words/plot"
	"github.com/akolanti/MLServe/pkg/logger_i"
)

func logOutput(job jobModel.Job, status jobModel.InternalStatus, log *logger_i.Logger) jobModel.Job {
	job.CurrentStep = status
	log.Debug("ProcessFigure", "Current Status", job.CurrentStep)
	return job
}

func (s *Service) jobError(job jobModel.Job, err error, message string, canRetry bool) jobModel.Job {
	s.logger.Error(message, "jobId", job.Id, "error", err)

	job.Error = jobModel.JobError{
		Code:    http.StatusInternalServerError,
		Message: "Internal Server Error",
		Retry:   canRetry,
	}
	job.Status = jobModel.JobStatusError
	return job
}

func (s *Service) executeEmbeddingStep(ctx context.Context, log *logger_i.Logger, job *jobModel.Job) ([][]float32, error) {
	*job = logOutput(*job, jobModel.EmbeddingAPICall, log)

	start := time.Now()
	defer func() { metrics.CaptureExecutionMetrics("embedding", time.Since(start)) }()

	return s.embedder.BatchEmbedding(ctx, job.JobPayload.Words, false)
}

func (s *Service) executeVectorSearchStep(ctx context.Context, log *logger_i.Logger, job *jobModel.Job, vectors [][]float32, topn int) (WordClusters, error) {
	*job = logOutput(*job, jobModel.VectorDBCall, log)

	start := time.Now()
	defer func() { metrics.CaptureExecutionMetrics("vector_search", time.Since(start)) }()

	return s.searchClusters(ctx, job.JobPayload.Words, vectors, topn)
}

func (s *Service) executeTSNEStep(ctx context.Context, log *logger_i.Logger, job *jobModel.Job, clusters WordClusters) ([][][2]float64, error) {
	*job = logOutput(*job, jobModel.TSNECall, log)

	start := time.Now()
	defer func() { metrics.CaptureExecutionMetrics("tsne", time.Since(start)) }()

	return ReshapedTSNE(ctx, clusters.Embeddings, s.tsneParams)
}

func (s *Service) executePlotStep(log *logger_i.Logger, job *jobModel.Job, clusters WordClusters, points [][][2]float64) error {
	*job = logOutput(*job, jobModel.PlotCall, log)

	fig := plot.NewFigure(clusters.Words, clusters.Clusters, points)
	raw, err := json.Marshal(fig)
	if err != nil {
		return err
	}
	job.JobPayload.Figure = raw
	return nil
}
