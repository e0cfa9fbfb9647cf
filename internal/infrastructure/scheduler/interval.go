package scheduler

import (
	"context"
	"sync/atomic"
	"time"

	"newsharvest/internal/ports"
)

// IntervalScheduler runs a job on a fixed cadence using time.Ticker. The
// first run fires immediately on Start; overlapping runs are skipped rather
// than queued.
type IntervalScheduler struct {
	interval time.Duration
	stop     chan struct{}
	busy     atomic.Bool
}

var _ ports.Scheduler = (*IntervalScheduler)(nil)

// NewIntervalScheduler builds a scheduler with the given cadence.
func NewIntervalScheduler(interval time.Duration) *IntervalScheduler {
	return &IntervalScheduler{interval: interval}
}

// Start begins ticking. Calling Start twice without Stop is a no-op.
func (s *IntervalScheduler) Start(ctx context.Context, job func(time.Time)) error {
	if job == nil {
		return nil
	}

	if s.stop != nil {
		return nil
	}

	s.stop = make(chan struct{})
	go func() {
		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()
		s.runGuarded(job, time.Now())
		for {
			select {
			case t := <-ticker.C:
				s.runGuarded(job, t)
			case <-ctx.Done():
				return
			case <-s.stop:
				return
			}
		}
	}()

	return nil
}

// Stop halts the ticker goroutine. An in-flight job finishes on its own.
func (s *IntervalScheduler) Stop(ctx context.Context) error {
	if s.stop == nil {
		return nil
	}
	close(s.stop)
	s.stop = nil
	return nil
}

// runGuarded skips the tick when the previous run is still going; a slow
// ingestion pass must not stack a second one on top.
func (s *IntervalScheduler) runGuarded(job func(time.Time), t time.Time) {
	if !s.busy.CompareAndSwap(false, true) {
		return
	}
	defer s.busy.Store(false)
	job(t)
}
