package store

import (
	"context"
	"sync"
	"time"

	"github.com/akolanti/MLServe/internal/config"
	"github.com/akolanti/MLServe/internal/domain/jobModel"
	"github.com/akolanti/MLServe/pkg/logger_i"
)

var inMemLogger = logger_i.NewLogger("InMem Store")

type storedJob struct {
	job     jobModel.Job
	expires time.Time
}

// InMemoryJobStore is the fallback used when redis is offline. Entries expire
// after config.RedisJobStoreTTL like their redis counterparts.
type InMemoryJobStore struct {
	mu   sync.RWMutex
	jobs map[string]storedJob
	ttl  time.Duration
	now  func() time.Time
}

func InitInMemoryJobStore() *InMemoryJobStore {
	return &InMemoryJobStore{
		jobs: make(map[string]storedJob),
		ttl:  config.RedisJobStoreTTL,
		now:  time.Now,
	}
}

func (s *InMemoryJobStore) SaveJob(ctx context.Context, job jobModel.Job) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	s.jobs[job.Id] = storedJob{job: job, expires: now.Add(s.ttl)}
	s.evictExpired(now)
	inMemLogger.WithTrace(ctx).Debug("Saved job to store", "jobId", job.Id, "status", job.Status)
	return nil
}

func (s *InMemoryJobStore) GetJob(ctx context.Context, jobId string) (jobModel.Job, bool) {
	s.mu.RLock()
	entry, found := s.jobs[jobId]
	s.mu.RUnlock()
	if found && !s.now().Before(entry.expires) {
		found = false
	}
	inMemLogger.WithTrace(ctx).Debug("Job lookup", "jobId", jobId, "found", found)
	return entry.job, found
}

func (s *InMemoryJobStore) DeleteJob(ctx context.Context, jobId string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.jobs, jobId)
}

// evictExpired must be called with mu held
func (s *InMemoryJobStore) evictExpired(now time.Time) {
	for id, entry := range s.jobs {
		if !now.Before(entry.expires) {
			delete(s.jobs, id)
		}
	}
}
