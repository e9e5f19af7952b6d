// Package sweeper runs the periodic reclamation jobs: expiring unpaid holds
// and auto-cancelling bookings that were never confirmed before start.
package sweeper

import (
	"context"
	"sync"
	"time"

	"courtbook/pkg/logger"
)

// Job is one reclamation pass. It reports how many bookings it touched.
type Job struct {
	Name string
	Run  func(ctx context.Context, now time.Time) (int, error)
}

// Sweeper drives its jobs on a fixed interval. Jobs run in registration
// order within a tick: hold-expiry is registered before auto-cancel so a
// lapsed hold is expired, not cancelled, when both rules match.
type Sweeper struct {
	interval time.Duration
	jobs     []Job
	log      *logger.Logger

	now func() time.Time

	stopOnce sync.Once
	stop     chan struct{}
	done     chan struct{}
}

func New(interval time.Duration, log *logger.Logger, jobs ...Job) *Sweeper {
	return &Sweeper{
		interval: interval,
		jobs:     jobs,
		log:      log,
		now:      time.Now,
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}
}

// Start runs one pass immediately, then one per interval until Stop or
// context cancellation. Non-blocking.
func (s *Sweeper) Start(ctx context.Context) {
	go s.loop(ctx)
}

func (s *Sweeper) loop(ctx context.Context) {
	defer close(s.done)

	s.RunOnce(ctx)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.RunOnce(ctx)
		case <-s.stop:
			return
		case <-ctx.Done():
			return
		}
	}
}

// RunOnce executes every job for a single tick. A failing job is logged and
// skipped; it gets another chance next tick, and never blocks the other jobs.
func (s *Sweeper) RunOnce(ctx context.Context) {
	now := s.now()
	for _, job := range s.jobs {
		count, err := job.Run(ctx, now)
		if err != nil {
			s.log.Error("Sweep job failed", "job", job.Name, "error", err)
			continue
		}
		if count > 0 {
			s.log.Info("Sweep job finished", "job", job.Name, "reclaimed", count)
		}
	}
}

// Stop halts the loop and waits for the in-flight pass to finish.
func (s *Sweeper) Stop() {
	s.stopOnce.Do(func() { close(s.stop) })
	<-s.done
}
