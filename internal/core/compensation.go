package core

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"github.com/kronos-automations/lead-engine/constants"
	"github.com/kronos-automations/lead-engine/internal/repository"
)

// CompensationHandler is the single sink for unhandled failures after a claim
// is taken. It records the failure against the run audit row (best-effort)
// and releases the lease so a later run can reclaim the lead. Invoking it
// twice for the same lead converges to the same store state.
type CompensationHandler struct {
	leads repository.LeadRepository
	runs  repository.RunRepository
	log   *slog.Logger
}

func NewCompensationHandler(leads repository.LeadRepository, runs repository.RunRepository, log *slog.Logger) *CompensationHandler {
	if log == nil {
		log = slog.Default()
	}
	return &CompensationHandler{leads: leads, runs: runs, log: log}
}

// Handle performs the compensation cycle for a claimed lead. The audit write
// comes first but its failure is only logged; the lease release runs
// unconditionally and its error is the one surfaced.
func (h *CompensationHandler) Handle(ctx context.Context, runID, leadID uuid.UUID, cause error) {
	msg := cause.Error()
	h.log.Error("compensating failed lead attempt",
		"run_id", runID, "lead_id", leadID, "error", msg)

	if err := h.runs.MarkFailed(ctx, runID, msg); err != nil {
		// Best-effort only. A broken audit sink must never keep a lease held.
		h.log.Warn("audit write failed during compensation",
			"run_id", runID, "lead_id", leadID, "error", err)
	}

	if err := h.leads.MarkResult(ctx, leadID, constants.StatusReadyRetry, &msg); err != nil {
		h.log.Error("lease release failed during compensation",
			"run_id", runID, "lead_id", leadID, "error", err)
	}
}

// HandleRunFailure records a run-level failure that occurred while no lead
// was in flight (e.g. the batch fetch itself). There is no lease to release.
func (h *CompensationHandler) HandleRunFailure(ctx context.Context, runID uuid.UUID, cause error) {
	h.log.Error("batch run failed", "run_id", runID, "error", cause)
	if err := h.runs.MarkFailed(ctx, runID, cause.Error()); err != nil {
		h.log.Warn("audit write failed for run failure", "run_id", runID, "error", err)
	}
}
