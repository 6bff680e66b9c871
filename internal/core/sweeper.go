package core

import (
	"context"
	"log/slog"
	"time"

	"github.com/kronos-automations/lead-engine/internal/repository"
)

// Sweeper is the out-of-band safety net for leases abandoned by a crashed
// run: the normal compensation path never runs if the process dies mid-item,
// so anything IN_PROGRESS past the staleness threshold goes back to
// READY_RETRY.
type Sweeper struct {
	leads      repository.LeadRepository
	staleAfter time.Duration
	log        *slog.Logger
}

func NewSweeper(leads repository.LeadRepository, staleAfter time.Duration, log *slog.Logger) *Sweeper {
	if staleAfter <= 0 {
		staleAfter = 15 * time.Minute
	}
	if log == nil {
		log = slog.Default()
	}
	return &Sweeper{leads: leads, staleAfter: staleAfter, log: log}
}

// Sweep reclaims stale leases once. Returns the number of leases released.
func (s *Sweeper) Sweep(ctx context.Context) (int64, error) {
	n, err := s.leads.ReclaimStale(ctx, s.staleAfter)
	if err != nil {
		s.log.Error("stale lease sweep failed", "error", err)
		return 0, err
	}
	return n, nil
}

// RunPeriodic sweeps on a fixed interval until ctx is done.
func (s *Sweeper) RunPeriodic(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			s.log.Info("sweeper stopped")
			return
		case <-ticker.C:
			if _, err := s.Sweep(ctx); err != nil {
				// Keep sweeping; the store may be back next tick.
				continue
			}
		}
	}
}
