package worker

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/spec-kit/backoffice/internal/service"
)

func TestSchedulerRunsJobsUntilCancelled(t *testing.T) {
	var runs atomic.Int32
	done := make(chan struct{})
	job := Job{
		Name:     "tick",
		Interval: 5 * time.Millisecond,
		Run: func(context.Context) (service.JobResult, error) {
			if runs.Add(1) == 3 {
				close(done)
			}
			return service.JobResult{Job: "tick"}, nil
		},
	}
	manual := Job{
		Name: "manual",
		Run: func(context.Context) (service.JobResult, error) {
			t.Error("job without interval must not be scheduled")
			return service.JobResult{}, nil
		},
	}

	ctx, cancel := context.WithCancel(context.Background())
	s := NewScheduler([]Job{job, manual}, zap.NewNop())
	s.Start(ctx)

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("job did not run three times")
	}
	cancel()
	s.Wait()
}

func TestSchedulerLogsFailuresAndPanics(t *testing.T) {
	core, logs := observer.New(zap.ErrorLevel)
	s := NewScheduler(nil, zap.New(core))

	s.runOnce(context.Background(), Job{Name: "failing", Run: func(context.Context) (service.JobResult, error) {
		return service.JobResult{}, errors.New("boom")
	}})
	s.runOnce(context.Background(), Job{Name: "panicking", Run: func(context.Context) (service.JobResult, error) {
		panic("bad")
	}})

	if n := logs.FilterMessage("scheduled job failed").Len(); n != 1 {
		t.Fatalf("failure logs = %d", n)
	}
	if n := logs.FilterMessage("scheduled job panicked").Len(); n != 1 {
		t.Fatalf("panic logs = %d", n)
	}
}
