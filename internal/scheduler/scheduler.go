// Package scheduler runs a job on a fixed interval with gocron.
package scheduler

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/go-co-op/gocron"
)

// Job is one scheduled run. ctx is cancelled by Stop.
type Job func(ctx context.Context)

// Scheduler runs a single job immediately and then every interval. Runs
// never overlap; a tick that fires during a run waits for it to finish.
type Scheduler struct {
	scheduler *gocron.Scheduler
	interval  time.Duration
	job       Job

	mu      sync.Mutex
	ctx     context.Context
	cancel  context.CancelFunc
	started bool
}

// New creates a new Scheduler.
func New(interval time.Duration, job Job) *Scheduler {
	s := gocron.NewScheduler(time.UTC)
	s.SingletonModeAll()

	ctx, cancel := context.WithCancel(context.Background())
	return &Scheduler{
		scheduler: s,
		interval:  interval,
		job:       job,
		ctx:       ctx,
		cancel:    cancel,
	}
}

// Start schedules the periodic job and starts the underlying scheduler.
func (s *Scheduler) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return errors.New("scheduler already started")
	}
	if s.interval <= 0 {
		return errors.New("scheduler interval must be positive")
	}

	_, err := s.scheduler.Every(s.interval).Do(func() {
		if s.ctx.Err() != nil {
			return
		}
		slog.Debug("scheduler: running job")
		s.job(s.ctx)
	})
	if err != nil {
		return err
	}

	s.scheduler.StartAsync()
	s.started = true
	return nil
}

// RunNow triggers an extra run outside the schedule, still respecting the
// no-overlap rule.
func (s *Scheduler) RunNow() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.started {
		s.scheduler.RunAll()
	}
}

// Stop cancels the running job's context and stops future runs.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.cancel()
	if s.started {
		s.scheduler.Stop()
		s.started = false
	}
}
