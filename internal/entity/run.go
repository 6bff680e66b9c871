package entity

import (
	"time"

	"github.com/google/uuid"

	"github.com/kronos-automations/lead-engine/constants"
)

// BatchRun is the audit record for one bounded execution of the claim loop.
type BatchRun struct {
	ID             uuid.UUID           `json:"id"`
	Status         constants.RunStatus `json:"status"`
	ErrorLog       *string             `json:"error_log,omitempty"`
	LeadsProcessed int                 `json:"leads_processed"`
	LeadsFailed    int                 `json:"leads_failed"`
	StartedAt      time.Time           `json:"started_at"`
	FinishedAt     *time.Time          `json:"finished_at,omitempty"`
}

// RunConfig is the dynamic per-run configuration, fetched once from the
// campaign_config table before any batch work begins. Immutable for the
// duration of the run.
type RunConfig struct {
	ConfigKey string        `json:"config_key"`
	BatchSize int           `json:"batch_size"`
	DelayMin  time.Duration `json:"delay_min"`
	DelayMax  time.Duration `json:"delay_max"`
	TargetURL string        `json:"target_url"`
}

// Defaults mirrored from the production campaign row.
const (
	DefaultBatchSize = 50
	DefaultDelayMin  = 2 * time.Second
	DefaultDelayMax  = 5 * time.Second
)
