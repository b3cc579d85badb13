package scheduler

import (
	"context"
	"log"
	"sync"
	"time"
)

// Job is a periodic maintenance task. Jobs must be safe to run repeatedly;
// the scheduler does not deduplicate overlapping schedules across processes.
type Job interface {
	Name() string
	Run(ctx context.Context) error
}

type entry struct {
	job      Job
	interval time.Duration
}

// Scheduler runs registered jobs on fixed intervals. Each job gets its own
// goroutine and ticker; a failing run is logged and retried on the next tick.
type Scheduler struct {
	entries []entry

	wg     sync.WaitGroup
	ctx    context.Context
	cancel context.CancelFunc
}

// New creates an empty scheduler.
func New() *Scheduler {
	return &Scheduler{}
}

// Register adds a job to run every interval. Must be called before Start.
func (s *Scheduler) Register(job Job, interval time.Duration) {
	s.entries = append(s.entries, entry{job: job, interval: interval})
}

// Start launches one goroutine per registered job. Each job runs once
// immediately, then on every tick. Call Stop to shut down.
func (s *Scheduler) Start(ctx context.Context) {
	s.ctx, s.cancel = context.WithCancel(ctx)

	for _, e := range s.entries {
		s.wg.Add(1)
		go s.runJob(e)
	}

	log.Printf("[Scheduler] Started %d jobs", len(s.entries))
}

// Stop cancels all jobs and blocks until their goroutines exit.
func (s *Scheduler) Stop() {
	log.Printf("[Scheduler] Stopping jobs...")
	s.cancel()
	s.wg.Wait()
	log.Printf("[Scheduler] All jobs stopped")
}

func (s *Scheduler) runJob(e entry) {
	defer s.wg.Done()

	log.Printf("[Scheduler] Job %s scheduled every %v", e.job.Name(), e.interval)

	s.runOnce(e.job)

	ticker := time.NewTicker(e.interval)
	defer ticker.Stop()

	for {
		select {
		case <-s.ctx.Done():
			log.Printf("[Scheduler] Job %s shutting down", e.job.Name())
			return
		case <-ticker.C:
			s.runOnce(e.job)
		}
	}
}

func (s *Scheduler) runOnce(job Job) {
	startTime := time.Now()
	if err := job.Run(s.ctx); err != nil {
		log.Printf("[Scheduler] Job %s FAILED: duration=%v err=%v", job.Name(), time.Since(startTime), err)
		return
	}
	log.Printf("[Scheduler] Job %s OK: duration=%v", job.Name(), time.Since(startTime))
}
