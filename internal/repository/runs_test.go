package repository

import (
	"context"
	"database/sql"
	"log/slog"
	"testing"

	"github.com/kronos-automations/lead-engine/constants"
)

func TestRunLifecycle(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	repo := NewRunRepository(db, slog.Default())

	run, err := repo.Start(ctx)
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	if run.Status != constants.RunStatusRunning {
		t.Errorf("got status %s, want RUNNING", run.Status)
	}

	if err := repo.Finish(ctx, run.ID, 42, 3); err != nil {
		t.Fatalf("finish: %v", err)
	}

	var (
		status    string
		processed int
		failed    int
		finished  sql.NullTime
	)
	err = db.QueryRowContext(ctx,
		`SELECT status, leads_processed, leads_failed, finished_at FROM batch_runs WHERE id = $1`,
		run.ID.String()).Scan(&status, &processed, &failed, &finished)
	if err != nil {
		t.Fatalf("read back: %v", err)
	}
	if status != string(constants.RunStatusComplete) || processed != 42 || failed != 3 {
		t.Errorf("got %s/%d/%d, want COMPLETE/42/3", status, processed, failed)
	}
	if !finished.Valid {
		t.Error("finished_at not stamped")
	}
}

func TestRunMarkFailed(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	repo := NewRunRepository(db, slog.Default())

	run, err := repo.Start(ctx)
	if err != nil {
		t.Fatalf("start: %v", err)
	}

	// Latest message wins on repeat.
	if err := repo.MarkFailed(ctx, run.ID, "first failure"); err != nil {
		t.Fatalf("mark failed: %v", err)
	}
	if err := repo.MarkFailed(ctx, run.ID, "second failure"); err != nil {
		t.Fatalf("mark failed again: %v", err)
	}

	var status, errorLog string
	err = db.QueryRowContext(ctx,
		`SELECT status, error_log FROM batch_runs WHERE id = $1`, run.ID.String()).
		Scan(&status, &errorLog)
	if err != nil {
		t.Fatalf("read back: %v", err)
	}
	if status != string(constants.RunStatusFailed) {
		t.Errorf("got status %s, want FAILED", status)
	}
	if errorLog != "second failure" {
		t.Errorf("got error_log %q, want latest message", errorLog)
	}
}
