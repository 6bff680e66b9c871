package repository

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/kronos-automations/lead-engine/constants"
	"github.com/kronos-automations/lead-engine/internal/common"
	"github.com/kronos-automations/lead-engine/internal/entity"
)

// RunRepository tracks batch executions in the external audit table. The
// compensation path writes here best-effort: a failed audit write is logged
// by the caller, never escalated.
type RunRepository interface {
	Start(ctx context.Context) (*entity.BatchRun, error)
	Finish(ctx context.Context, runID uuid.UUID, processed, failed int) error
	MarkFailed(ctx context.Context, runID uuid.UUID, message string) error
}

type runRepo struct {
	db  *sql.DB
	log *slog.Logger
}

func NewRunRepository(db *sql.DB, log *slog.Logger) RunRepository {
	return &runRepo{db: db, log: log}
}

func (r *runRepo) Start(ctx context.Context) (*entity.BatchRun, error) {
	run := &entity.BatchRun{
		ID:        uuid.New(),
		Status:    constants.RunStatusRunning,
		StartedAt: time.Now().UTC(),
	}
	_, err := r.db.ExecContext(ctx, `
INSERT INTO batch_runs (id, status, started_at) VALUES ($1, $2, $3)`,
		run.ID.String(), string(run.Status), run.StartedAt)
	if err != nil {
		r.log.Error("batch_run start failed", "error", err)
		return nil, fmt.Errorf("start batch run: %w", common.ErrStoreUnavailable)
	}
	r.log.Info("batch_run started", "run_id", run.ID)
	return run, nil
}

func (r *runRepo) Finish(ctx context.Context, runID uuid.UUID, processed, failed int) error {
	now := time.Now().UTC()
	_, err := r.db.ExecContext(ctx, `
UPDATE batch_runs
SET status = $2, leads_processed = $3, leads_failed = $4, finished_at = $5
WHERE id = $1`,
		runID.String(), string(constants.RunStatusComplete), processed, failed, now)
	if err != nil {
		r.log.Error("batch_run finish failed", "run_id", runID, "error", err)
		return fmt.Errorf("finish batch run %s: %w", runID, common.ErrStoreUnavailable)
	}
	r.log.Info("batch_run finished", "run_id", runID, "processed", processed, "failed", failed)
	return nil
}

// MarkFailed records STATUS=FAILED plus the error log against the run. Safe
// to call more than once; the latest message wins.
func (r *runRepo) MarkFailed(ctx context.Context, runID uuid.UUID, message string) error {
	now := time.Now().UTC()
	_, err := r.db.ExecContext(ctx, `
UPDATE batch_runs
SET status = $2, error_log = $3, finished_at = $4
WHERE id = $1`,
		runID.String(), string(constants.RunStatusFailed), message, now)
	if err != nil {
		r.log.Error("batch_run mark failed errored", "run_id", runID, "error", err)
		return fmt.Errorf("mark batch run %s failed: %w", runID, common.ErrStoreUnavailable)
	}
	r.log.Warn("batch_run marked failed", "run_id", runID, "error_log", message)
	return nil
}
