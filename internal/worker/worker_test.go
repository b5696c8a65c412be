package worker

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/akolanti/MLServe/internal/domain/jobModel"
	"github.com/akolanti/MLServe/internal/job"
)

// MockRunner tracks which jobs were executed
type MockRunner struct {
	ProcessedCount int32
	OnFigure       func(ctx context.Context, j jobModel.Job) jobModel.Job
}

func (m *MockRunner) ProcessFigure(ctx context.Context, j jobModel.Job) jobModel.Job {
	atomic.AddInt32(&m.ProcessedCount, 1)
	if m.OnFigure != nil {
		return m.OnFigure(ctx, j)
	}
	return j
}

func (m *MockRunner) IngestDocument(ctx context.Context, j jobModel.Job) jobModel.Job {
	atomic.AddInt32(&m.ProcessedCount, 1)
	return j
}

type MockJobStore struct {
	mu    sync.Mutex
	saved []jobModel.Job
}

func (m *MockJobStore) GetJob(ctx context.Context, jobId string) (jobModel.Job, bool) {
	return jobModel.Job{}, false
}

func (m *MockJobStore) DeleteJob(ctx context.Context, jobID string) {}

func (m *MockJobStore) SaveJob(ctx context.Context, j jobModel.Job) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.saved = append(m.saved, j)
	return nil
}

func (m *MockJobStore) last() jobModel.Job {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.saved) == 0 {
		return jobModel.Job{}
	}
	return m.saved[len(m.saved)-1]
}

type MockNotifier struct {
	published chan jobModel.Job
}

func (m *MockNotifier) PublishFigure(boardId string, j jobModel.Job) {
	m.published <- j
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("condition not met before deadline")
}

func TestWorkerPool_Flow(t *testing.T) {
	atomic.StoreInt64(&currentWorkerCount, 0)

	jobStore := &MockJobStore{}
	notifier := &MockNotifier{published: make(chan jobModel.Job, 1)}
	jobSvc := job.InitJobService(job.ServiceConfig{
		JobChannel:        make(chan jobModel.Job, 10),
		DispatcherChannel: make(chan bool, 10),
		JobStore:          jobStore,
		Notifier:          notifier,
	})
	runner := &MockRunner{
		OnFigure: func(ctx context.Context, j jobModel.Job) jobModel.Job {
			j.JobPayload.Figure = []byte(`{"data":[]}`)
			return j
		},
	}
	stopChan := make(chan bool)
	wg := &sync.WaitGroup{}

	InitServices(jobSvc, runner)
	InitWorkerPool(stopChan, wg)

	t.Run("Dispatcher creates worker on signal", func(t *testing.T) {
		jobSvc.DispatcherChannel <- true
		waitFor(t, func() bool { return atomic.LoadInt64(&currentWorkerCount) >= 2 })
	})

	t.Run("Worker processes a figure job and notifies the board", func(t *testing.T) {
		jobSvc.JobChannel <- jobModel.Job{Id: "test-1", BoardId: "b1", JobType: jobModel.JobTypeFigure}

		select {
		case published := <-notifier.published:
			if published.Status != jobModel.JobStatusComplete {
				t.Errorf("expected COMPLETE, got %s", published.Status)
			}
			if string(published.JobPayload.Figure) != `{"data":[]}` {
				t.Errorf("figure not carried through: %s", published.JobPayload.Figure)
			}
		case <-time.After(2 * time.Second):
			t.Fatal("figure job was not published")
		}
		if jobStore.last().CurrentStep != jobModel.Complete {
			t.Errorf("expected final step Complete, got %s", jobStore.last().CurrentStep)
		}
	})

	t.Run("Unknown job type ends in error", func(t *testing.T) {
		jobSvc.JobChannel <- jobModel.Job{Id: "test-2", JobType: "Bogus"}
		waitFor(t, func() bool {
			last := jobStore.last()
			return last.Id == "test-2" && last.Status == jobModel.JobStatusError
		})
	})

	t.Run("Stop signal retires workers", func(t *testing.T) {
		close(stopChan)

		done := make(chan struct{})
		go func() {
			wg.Wait()
			close(done)
		}()

		select {
		case <-done:
		case <-time.After(2 * time.Second):
			t.Error("Workers did not stop within timeout")
		}
	})
}

func TestWorker_IdleTimeout(t *testing.T) {
	atomic.StoreInt64(&currentWorkerCount, 0)
	atomic.StoreInt64(&minWorkerCount, 1)
	previous := idleTimeout
	idleTimeout = 50 * time.Millisecond
	defer func() { idleTimeout = previous }()

	jobSvc := &job.Service{JobChannel: make(chan jobModel.Job)}
	InitServices(jobSvc, &MockRunner{})

	wg := &sync.WaitGroup{}
	stopChan := make(chan bool)
	workerWaitGroup = wg
	stopWorkerChannel = stopChan

	createWorker()
	createWorker()

	waitFor(t, func() bool { return atomic.LoadInt64(&currentWorkerCount) == 1 })

	// the last worker stays alive at the minimum
	time.Sleep(150 * time.Millisecond)
	if count := atomic.LoadInt64(&currentWorkerCount); count != 1 {
		t.Errorf("expected the minimum worker to remain, got %d", count)
	}
	close(stopChan)
	wg.Wait()
}

func TestRetireIdleWorker_ConcurrentTimeoutsKeepMinimum(t *testing.T) {
	const alive, minimum = 10, 3
	atomic.StoreInt64(&currentWorkerCount, alive)
	atomic.StoreInt64(&minWorkerCount, minimum)
	wg := &sync.WaitGroup{}
	wg.Add(alive)
	workerWaitGroup = wg

	var retired int64
	start := make(chan struct{})
	var timeouts sync.WaitGroup
	for i := 0; i < alive; i++ {
		timeouts.Add(1)
		go func() {
			defer timeouts.Done()
			<-start
			if retireIdleWorker() {
				atomic.AddInt64(&retired, 1)
			}
		}()
	}
	close(start)
	timeouts.Wait()

	if got := atomic.LoadInt64(&currentWorkerCount); got != minimum {
		t.Errorf("worker count = %d, want %d", got, minimum)
	}
	if retired != alive-minimum {
		t.Errorf("retired %d workers, want %d", retired, alive-minimum)
	}
	wg.Add(-minimum)
	wg.Wait()
}
