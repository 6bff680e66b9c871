// Package gate implements the anti-rate-limit pause between successive
// external calls: a randomized per-item delay, not a token bucket. Fixed
// intervals are what anti-automation defenses fingerprint.
package gate

import (
	"context"
	"log/slog"
	"math/rand/v2"
	"time"
)

type Gate struct {
	min time.Duration
	max time.Duration
	log *slog.Logger
}

// New returns a gate with the given inclusive delay bounds. Swapped or
// non-positive bounds fall back to the production 2-5s window.
func New(min, max time.Duration, log *slog.Logger) *Gate {
	if log == nil {
		log = slog.Default()
	}
	if min <= 0 || max < min {
		min, max = 2*time.Second, 5*time.Second
	}
	return &Gate{min: min, max: max, log: log}
}

// Wait blocks for a duration drawn uniformly from [min, max], or returns
// early with ctx.Err() on cancellation.
func (g *Gate) Wait(ctx context.Context) error {
	d := g.min
	if span := g.max - g.min; span > 0 {
		d += time.Duration(rand.Int64N(int64(span) + 1))
	}
	g.log.Debug("gate wait", "delay", d)

	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// Bounds reports the configured window. Handy for logging run parameters.
func (g *Gate) Bounds() (time.Duration, time.Duration) {
	return g.min, g.max
}
