package repository

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/kronos-automations/lead-engine/internal/common"
	"github.com/kronos-automations/lead-engine/internal/entity"
)

func TestConfigFetchMissing(t *testing.T) {
	db := newTestDB(t)
	repo := NewConfigRepository(db, slog.Default())

	_, err := repo.Fetch(context.Background(), "current_prod")
	if !errors.Is(err, common.ErrNotFound) {
		t.Fatalf("got %v, want ErrNotFound", err)
	}
}

func TestConfigPutFetchRoundTrip(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	repo := NewConfigRepository(db, slog.Default())

	want := &entity.RunConfig{
		ConfigKey: "current_prod",
		BatchSize: 25,
		DelayMin:  3 * time.Second,
		DelayMax:  8 * time.Second,
		TargetURL: "https://example.ch/listings",
	}
	if err := repo.Put(ctx, want); err != nil {
		t.Fatalf("put: %v", err)
	}

	got, err := repo.Fetch(ctx, "current_prod")
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if got.BatchSize != 25 || got.DelayMin != 3*time.Second || got.DelayMax != 8*time.Second {
		t.Errorf("got %+v, want %+v", got, want)
	}
	if got.TargetURL != want.TargetURL {
		t.Errorf("target url: got %q, want %q", got.TargetURL, want.TargetURL)
	}

	// Put replaces in place.
	want.BatchSize = 10
	if err := repo.Put(ctx, want); err != nil {
		t.Fatalf("replace: %v", err)
	}
	got, err = repo.Fetch(ctx, "current_prod")
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if got.BatchSize != 10 {
		t.Errorf("replace not applied: batch_size=%d", got.BatchSize)
	}
}

func TestConfigFetchAppliesDefaults(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	repo := NewConfigRepository(db, slog.Default())

	if _, err := db.ExecContext(ctx,
		`INSERT INTO campaign_config (config_key) VALUES ('current_prod')`); err != nil {
		t.Fatalf("seed: %v", err)
	}

	got, err := repo.Fetch(ctx, "current_prod")
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if got.BatchSize != entity.DefaultBatchSize {
		t.Errorf("batch size: got %d, want default %d", got.BatchSize, entity.DefaultBatchSize)
	}
	if got.DelayMin != entity.DefaultDelayMin || got.DelayMax != entity.DefaultDelayMax {
		t.Errorf("delays: got %v-%v, want defaults %v-%v",
			got.DelayMin, got.DelayMax, entity.DefaultDelayMin, entity.DefaultDelayMax)
	}
}
