package scheduler

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"
)

type countingJob struct {
	name string
	runs atomic.Int64
	err  error
}

func (j *countingJob) Name() string { return j.name }

func (j *countingJob) Run(ctx context.Context) error {
	j.runs.Add(1)
	return j.err
}

func TestScheduler_RunsImmediatelyAndOnTicks(t *testing.T) {
	job := &countingJob{name: "test_job"}

	s := New()
	s.Register(job, 20*time.Millisecond)
	s.Start(context.Background())
	defer s.Stop()

	deadline := time.After(500 * time.Millisecond)
	for job.runs.Load() < 2 {
		select {
		case <-deadline:
			t.Fatalf("job ran %d times, want at least 2 (immediate + tick)", job.runs.Load())
		case <-time.After(5 * time.Millisecond):
		}
	}
}

func TestScheduler_FailingJobKeepsRunning(t *testing.T) {
	job := &countingJob{name: "flaky_job", err: errors.New("boom")}

	s := New()
	s.Register(job, 10*time.Millisecond)
	s.Start(context.Background())
	defer s.Stop()

	deadline := time.After(500 * time.Millisecond)
	for job.runs.Load() < 3 {
		select {
		case <-deadline:
			t.Fatalf("job ran %d times, want at least 3 despite failures", job.runs.Load())
		case <-time.After(5 * time.Millisecond):
		}
	}
}

func TestScheduler_StopBlocksUntilJobsExit(t *testing.T) {
	job := &countingJob{name: "quick_job"}

	s := New()
	s.Register(job, time.Hour)
	s.Start(context.Background())

	done := make(chan struct{})
	go func() {
		s.Stop()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Stop did not return")
	}

	runsAfterStop := job.runs.Load()
	time.Sleep(30 * time.Millisecond)
	if job.runs.Load() != runsAfterStop {
		t.Error("job ran again after Stop returned")
	}
}
