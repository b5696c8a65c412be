package worker

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/akolanti/MLServe/internal/config"
	"github.com/akolanti/MLServe/internal/domain/jobModel"
	"github.com/akolanti/MLServe/internal/metrics"
)

func executeJob(job jobModel.Job) {
	start := time.Now()
	defer func() {
		metrics.CaptureJobMetrics(string(job.Status), time.Since(start))
	}()
	ctxTrace := context.WithValue(context.Background(), config.TRACE_ID_KEY, job.TraceId)
	ctx, cancel := context.WithTimeout(ctxTrace, config.JobTimeout)
	defer cancel()
	log := logger.WithTrace(ctx).With("jobId", job.Id, "jobType", job.JobType)
	log.Debug("Processing job")

	job = saveJobState(ctx, job, jobModel.JobStatusRunning)

	switch job.JobType {
	case jobModel.JobTypeIngest:
		job.CurrentStep = jobModel.IngestProcessing
		job = _runner.IngestDocument(ctx, job)
	case jobModel.JobTypeFigure:
		job = _runner.ProcessFigure(ctx, job)
	default:
		log.Error("Unknown job type")
		job.Status = jobModel.JobStatusError
		job.Error = jobModel.JobError{Code: 400, Message: "unknown job type"}
	}

	job.EndTime = time.Now()
	if job.Status == jobModel.JobStatusError {
		job = saveJobState(ctx, job, jobModel.JobStatusError)
	} else {
		job.CurrentStep = jobModel.Complete
		job = saveJobState(ctx, job, jobModel.JobStatusComplete)
	}
	_jobService.Notify(job)
	log.Debug("Job finished", "status", job.Status, "elapsed", time.Since(start))
}

func removeWorker(reason string) {
	releaseWorker(reason, atomic.AddInt64(&currentWorkerCount, -1))
}

// retireIdleWorker decrements the worker count only while it stays above the
// minimum, so workers timing out together cannot undershoot it.
func retireIdleWorker() bool {
	for {
		count := atomic.LoadInt64(&currentWorkerCount)
		if count <= atomic.LoadInt64(&minWorkerCount) {
			return false
		}
		if atomic.CompareAndSwapInt64(&currentWorkerCount, count, count-1) {
			releaseWorker("Idle worker timeout", count-1)
			return true
		}
	}
}

func releaseWorker(reason string, count int64) {
	metrics.DecrementActiveWorkerCount()
	logger.Info("Removed worker", "reason", reason, "workerCount", count)
	workerWaitGroup.Done()
}

func saveJobState(ctx context.Context, job jobModel.Job, jobStatus jobModel.JobStatus) jobModel.Job {
	job.Status = jobStatus
	if err := _jobService.JobStore.SaveJob(ctx, job); err != nil {
		logger.WithTrace(ctx).Error("Failed to update job status", "jobId", job.Id, "error", err)
	}
	return job
}
