package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/kronos-automations/lead-engine/internal/common"
	"github.com/kronos-automations/lead-engine/internal/entity"
)

// ConfigRepository fetches the dynamic campaign configuration. One row read
// per run, always before any batch work starts.
type ConfigRepository interface {
	Fetch(ctx context.Context, key string) (*entity.RunConfig, error)
	Put(ctx context.Context, cfg *entity.RunConfig) error
}

type configRepo struct {
	db  *sql.DB
	log *slog.Logger
}

func NewConfigRepository(db *sql.DB, log *slog.Logger) ConfigRepository {
	return &configRepo{db: db, log: log}
}

// Fetch reads the campaign row for key. Null columns fall back to the
// production defaults (batch 50, delay 2-5s).
func (r *configRepo) Fetch(ctx context.Context, key string) (*entity.RunConfig, error) {
	var (
		batchSize sql.NullInt64
		delayMin  sql.NullInt64
		delayMax  sql.NullInt64
		targetURL sql.NullString
	)
	err := r.db.QueryRowContext(ctx, `
SELECT batch_size, delay_min_seconds, delay_max_seconds, target_url
FROM campaign_config
WHERE config_key = $1`, key).Scan(&batchSize, &delayMin, &delayMax, &targetURL)
	if errors.Is(err, sql.ErrNoRows) {
		r.log.Error("campaign config missing", "config_key", key)
		return nil, fmt.Errorf("campaign config %q: %w", key, common.ErrNotFound)
	}
	if err != nil {
		r.log.Error("campaign config fetch failed", "config_key", key, "error", err)
		return nil, fmt.Errorf("fetch campaign config %q: %w", key, common.ErrStoreUnavailable)
	}

	cfg := &entity.RunConfig{
		ConfigKey: key,
		BatchSize: entity.DefaultBatchSize,
		DelayMin:  entity.DefaultDelayMin,
		DelayMax:  entity.DefaultDelayMax,
	}
	if batchSize.Valid && batchSize.Int64 > 0 {
		cfg.BatchSize = int(batchSize.Int64)
	}
	if delayMin.Valid && delayMin.Int64 > 0 {
		cfg.DelayMin = time.Duration(delayMin.Int64) * time.Second
	}
	if delayMax.Valid && delayMax.Int64 >= delayMin.Int64 {
		cfg.DelayMax = time.Duration(delayMax.Int64) * time.Second
	}
	if targetURL.Valid {
		cfg.TargetURL = targetURL.String
	}

	r.log.Info("campaign config loaded", "config_key", key,
		"batch_size", cfg.BatchSize, "delay_min", cfg.DelayMin, "delay_max", cfg.DelayMax)
	return cfg, nil
}

// Put writes or replaces a campaign row. Used by seeding and operations
// tooling, never by the claim loop.
func (r *configRepo) Put(ctx context.Context, cfg *entity.RunConfig) error {
	_, err := r.db.ExecContext(ctx, `
INSERT INTO campaign_config (config_key, batch_size, delay_min_seconds, delay_max_seconds, target_url)
VALUES ($1, $2, $3, $4, $5)
ON CONFLICT (config_key) DO UPDATE SET
	batch_size        = excluded.batch_size,
	delay_min_seconds = excluded.delay_min_seconds,
	delay_max_seconds = excluded.delay_max_seconds,
	target_url        = excluded.target_url`,
		cfg.ConfigKey, cfg.BatchSize,
		int(cfg.DelayMin/time.Second), int(cfg.DelayMax/time.Second), cfg.TargetURL)
	if err != nil {
		r.log.Error("campaign config write failed", "config_key", cfg.ConfigKey, "error", err)
		return fmt.Errorf("put campaign config %q: %w", cfg.ConfigKey, common.ErrStoreUnavailable)
	}
	return nil
}
