package scrape

import (
	"context"
	"log/slog"
	"math/rand/v2"
	"time"
)

// Scheduler fires a job on a randomized cadence: base interval plus a uniform
// random minute offset, so the fetch pattern never repeats on a fixed clock.
type Scheduler struct {
	base time.Duration
	job  func(context.Context)
	log  *slog.Logger

	// jitter returns the random offset; swappable in tests.
	jitter func() time.Duration
}

func NewScheduler(base time.Duration, job func(context.Context), log *slog.Logger) *Scheduler {
	if base <= 0 {
		base = time.Hour
	}
	if log == nil {
		log = slog.Default()
	}
	return &Scheduler{
		base: base,
		job:  job,
		log:  log,
		jitter: func() time.Duration {
			return time.Duration(rand.IntN(60)) * time.Minute
		},
	}
}

// Run blocks until ctx is done, invoking the job once per randomized cycle.
func (s *Scheduler) Run(ctx context.Context) {
	for {
		wait := s.base + s.jitter()
		s.log.Info("scrape.schedule.next", "in", wait)

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			s.log.Info("scrape.schedule.stopped")
			return
		case <-timer.C:
		}

		s.job(ctx)
	}
}
