// Package core drives the lead lifecycle: the bounded claim loop, the
// compensation path for failed attempts, and the stale-lease sweep.
package core

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/kronos-automations/lead-engine/constants"
	"github.com/kronos-automations/lead-engine/internal/entity"
	"github.com/kronos-automations/lead-engine/internal/gate"
	"github.com/kronos-automations/lead-engine/internal/repository"
)

// runState names the positions of the per-run state machine. Transitions are
// strictly forward; the item sub-cycle repeats once per fetched lead.
type runState string

const (
	stateInit         runState = "Init"
	stateConfigLoaded runState = "ConfigLoaded"
	stateFetching     runState = "Fetching"
	stateClaimAttempt runState = "ClaimAttempt"
	stateGated        runState = "Gated"
	stateProcessing   runState = "Processing"
	stateResolved     runState = "Resolved"
	stateComplete     runState = "Complete"
)

// Gate is the randomized inter-item pause (see the gate package).
type Gate interface {
	Wait(ctx context.Context) error
}

// GateFactory builds the gate for one run from the delay bounds of that
// run's config. The bounds are dynamic, so the gate cannot be wired up front.
type GateFactory func(min, max time.Duration) Gate

// RunResult summarizes one bounded execution of the claim loop.
type RunResult struct {
	RunID     uuid.UUID
	Fetched   int
	Claimed   int
	Skipped   int
	Processed int
	Failed    int
}

// Runner executes batch runs. One Runner instance is safe for concurrent
// runs: mutual exclusion per lead lives in the store's conditional claim, not
// in this process.
type Runner struct {
	leads          repository.LeadRepository
	runs           repository.RunRepository
	config         repository.ConfigRepository
	gates          GateFactory
	processor      Processor
	comp           *CompensationHandler
	configKey      string
	processTimeout time.Duration
	log            *slog.Logger
}

func NewRunner(
	leads repository.LeadRepository,
	runs repository.RunRepository,
	config repository.ConfigRepository,
	gates GateFactory,
	processor Processor,
	comp *CompensationHandler,
	configKey string,
	processTimeout time.Duration,
	log *slog.Logger,
) *Runner {
	if log == nil {
		log = slog.Default()
	}
	if configKey == "" {
		configKey = "current_prod"
	}
	if processTimeout <= 0 {
		processTimeout = 3 * time.Minute
	}
	if gates == nil {
		gates = func(min, max time.Duration) Gate {
			return gate.New(min, max, log)
		}
	}
	return &Runner{
		leads:          leads,
		runs:           runs,
		config:         config,
		gates:          gates,
		processor:      processor,
		comp:           comp,
		configKey:      configKey,
		processTimeout: processTimeout,
		log:            log,
	}
}

// Run executes one bounded batch. The first action is always the config
// fetch; if that fails the run aborts before any claim is taken, so there is
// nothing to compensate. A run that exhausts its fetched batch completes
// regardless of remaining eligible leads; the next scheduled run picks them
// up.
func (r *Runner) Run(ctx context.Context) (*RunResult, error) {
	state := stateInit
	r.log.Info("batch run starting", "state", state)

	cfg, err := r.config.Fetch(ctx, r.configKey)
	if err != nil {
		r.log.Error("batch run aborted: config fetch failed", "error", err)
		return nil, fmt.Errorf("fetch run config: %w", err)
	}
	state = stateConfigLoaded
	r.log.Info("batch run configured", "state", state,
		"batch_size", cfg.BatchSize, "delay_min", cfg.DelayMin, "delay_max", cfg.DelayMax)

	run, err := r.runs.Start(ctx)
	if err != nil {
		// No claims taken yet; abort cleanly.
		return nil, fmt.Errorf("open run audit: %w", err)
	}

	state = stateFetching
	leads, err := r.leads.FetchBatch(ctx, cfg.BatchSize)
	if err != nil {
		r.comp.HandleRunFailure(ctx, run.ID, err)
		return nil, fmt.Errorf("fetch batch: %w", err)
	}

	g := r.gates(cfg.DelayMin, cfg.DelayMax)
	result := &RunResult{RunID: run.ID, Fetched: len(leads)}
	for _, lead := range leads {
		if ctx.Err() != nil {
			break
		}
		r.runItem(ctx, run.ID, g, lead, &state, result)
	}

	state = stateComplete
	if err := r.runs.Finish(ctx, run.ID, result.Processed, result.Failed); err != nil {
		// Leases are all settled at this point; a failed audit finish is not
		// worth failing the run over.
		r.log.Warn("run audit finish failed", "run_id", run.ID, "error", err)
	}
	r.log.Info("batch run complete", "state", state,
		"run_id", run.ID, "fetched", result.Fetched, "claimed", result.Claimed,
		"skipped", result.Skipped, "processed", result.Processed, "failed", result.Failed)
	return result, nil
}

// runItem drives one lead through claim -> gate -> process -> resolve. Any
// error after a successful claim escalates to the compensation handler; the
// loop itself never retries inline — retry is a store-state outcome.
func (r *Runner) runItem(ctx context.Context, runID uuid.UUID, g Gate, lead *entity.Lead, state *runState, result *RunResult) {
	*state = stateClaimAttempt
	claimed, err := r.leads.TryClaim(ctx, lead.ID)
	if err != nil {
		// Claim itself failed at the store; no lease is held, count and move on.
		r.log.Error("claim errored", "lead_id", lead.ID, "error", err)
		result.Failed++
		return
	}
	if !claimed {
		// Benign race: another run got there first.
		result.Skipped++
		return
	}
	result.Claimed++

	*state = stateGated
	if err := g.Wait(ctx); err != nil {
		r.comp.Handle(ctx, runID, lead.ID, fmt.Errorf("gate wait: %w", err))
		result.Failed++
		return
	}

	*state = stateProcessing
	if err := r.process(ctx, lead); err != nil {
		r.comp.Handle(ctx, runID, lead.ID, err)
		result.Failed++
		return
	}

	*state = stateResolved
	if err := r.leads.MarkResult(ctx, lead.ID, constants.StatusDone, nil); err != nil {
		r.comp.Handle(ctx, runID, lead.ID, fmt.Errorf("mark done: %w", err))
		result.Failed++
		return
	}
	result.Processed++
	r.log.Info("lead processed", "lead_id", lead.ID, "company", lead.CompanyName)
}

func (r *Runner) process(ctx context.Context, lead *entity.Lead) error {
	ctx, cancel := context.WithTimeout(ctx, r.processTimeout)
	defer cancel()
	return r.processor.Process(ctx, lead)
}
