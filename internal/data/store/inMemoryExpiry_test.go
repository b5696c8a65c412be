package store

import (
	"context"
	"testing"
	"time"

	"github.com/akolanti/MLServe/internal/domain/jobModel"
)

func TestInMemoryJobStore_Expiry(t *testing.T) {
	clock := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	s := InitInMemoryJobStore()
	s.now = func() time.Time { return clock }
	ctx := context.Background()

	_ = s.SaveJob(ctx, jobModel.Job{Id: "old"})
	clock = clock.Add(s.ttl - time.Second)
	if _, ok := s.GetJob(ctx, "old"); !ok {
		t.Fatal("job expired before its ttl")
	}

	clock = clock.Add(time.Second)
	if _, ok := s.GetJob(ctx, "old"); ok {
		t.Fatal("job should expire after its ttl")
	}

	_ = s.SaveJob(ctx, jobModel.Job{Id: "new"})
	if _, present := s.jobs["old"]; present {
		t.Error("expired job should be evicted on the next save")
	}
}
