package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/kronos-automations/lead-engine/constants"
	"github.com/kronos-automations/lead-engine/internal/common"
	"github.com/kronos-automations/lead-engine/internal/entity"
)

// LeadRepository is the shared-store abstraction the claim loop, the ingestion
// pipeline and the compensation handler all mutate leads through. TryClaim is
// the only concurrency primitive: it is a conditional update, never a blind
// write, so concurrent runs contending over the same row produce exactly one
// winner.
type LeadRepository interface {
	UpsertByURL(ctx context.Context, sourceURL string, fields entity.LeadFields) (*entity.Lead, error)
	FetchBatch(ctx context.Context, limit int) ([]*entity.Lead, error)
	TryClaim(ctx context.Context, id uuid.UUID) (bool, error)
	MarkResult(ctx context.Context, id uuid.UUID, status constants.LeadStatus, lastError *string) error
	SaveDraft(ctx context.Context, id uuid.UUID, channel, draft string) error
	ReclaimStale(ctx context.Context, olderThan time.Duration) (int64, error)
	GetByID(ctx context.Context, id uuid.UUID) (*entity.Lead, error)
	List(ctx context.Context, limit int) ([]*entity.Lead, error)
	CountByStatus(ctx context.Context) (map[constants.LeadStatus]int, error)
}

type leadRepo struct {
	db  *sql.DB
	log *slog.Logger
}

func NewLeadRepository(db *sql.DB, log *slog.Logger) LeadRepository {
	return &leadRepo{db: db, log: log}
}

const leadColumns = `id, source_url, company_name, sector, score, city, phone,
	status, last_error, contact_channel, outreach_draft, claimed_at, created_at, updated_at`

// eligibleIn renders the claim-eligible status set as a SQL IN list. The
// values come from constants so the SQL can never drift from the state model.
func eligibleIn() string {
	quoted := make([]string, len(constants.EligibleStatuses))
	for i, s := range constants.EligibleStatuses {
		quoted[i] = "'" + string(s) + "'"
	}
	return "(" + strings.Join(quoted, ",") + ")"
}

// UpsertByURL inserts or updates a lead matched on source_url. The status
// classification (score > 7 => PRIORITY) is applied here and only here; an
// update never disturbs a row that has already left the ingestion states.
func (r *leadRepo) UpsertByURL(ctx context.Context, sourceURL string, fields entity.LeadFields) (*entity.Lead, error) {
	status := constants.StatusReadyToProcess
	if fields.Score > constants.PriorityScoreThreshold {
		status = constants.StatusPriority
	}

	now := time.Now().UTC()
	query := fmt.Sprintf(`
INSERT INTO leads (id, source_url, company_name, sector, score, city, phone, status, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
ON CONFLICT (source_url) DO UPDATE SET
	company_name = excluded.company_name,
	sector       = excluded.sector,
	score        = excluded.score,
	city         = excluded.city,
	phone        = excluded.phone,
	status       = CASE WHEN leads.status IN ('%s','%s') THEN excluded.status ELSE leads.status END,
	updated_at   = excluded.updated_at
RETURNING `+leadColumns,
		constants.StatusReadyToProcess, constants.StatusPriority)

	row := r.db.QueryRowContext(ctx, query,
		uuid.New().String(), sourceURL, fields.CompanyName, string(fields.Sector),
		fields.Score, fields.City, fields.Phone, string(status), now, now)

	lead, err := scanLead(row)
	if err != nil {
		r.log.Error("lead upsert failed", "source_url", sourceURL, "error", err)
		return nil, fmt.Errorf("upsert lead %q: %w", sourceURL, common.ErrStoreUnavailable)
	}
	r.log.Info("lead upserted", "lead_id", lead.ID, "source_url", sourceURL,
		"score", fields.Score, "status", lead.Status)
	return lead, nil
}

// FetchBatch returns up to limit claim-eligible leads, PRIORITY first, then
// insertion order. Each call is a fresh snapshot, not a live cursor.
func (r *leadRepo) FetchBatch(ctx context.Context, limit int) ([]*entity.Lead, error) {
	query := fmt.Sprintf(`
SELECT `+leadColumns+`
FROM leads
WHERE status IN %s
ORDER BY CASE WHEN status = '%s' THEN 0 ELSE 1 END, created_at, id
LIMIT $1`, eligibleIn(), constants.StatusPriority)

	rows, err := r.db.QueryContext(ctx, query, limit)
	if err != nil {
		r.log.Error("lead batch fetch failed", "limit", limit, "error", err)
		return nil, fmt.Errorf("fetch batch: %w", common.ErrStoreUnavailable)
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			r.log.Warn("closing batch rows", "error", cerr)
		}
	}()

	var leads []*entity.Lead
	for rows.Next() {
		lead, err := scanLead(rows)
		if err != nil {
			return nil, fmt.Errorf("scan lead: %w", common.ErrStoreUnavailable)
		}
		leads = append(leads, lead)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate batch: %w", common.ErrStoreUnavailable)
	}
	return leads, nil
}

// TryClaim attempts the eligible -> IN_PROGRESS transition. It returns false
// with no error when another claimant got there first; callers must treat
// that as "skip, do not process".
func (r *leadRepo) TryClaim(ctx context.Context, id uuid.UUID) (bool, error) {
	now := time.Now().UTC()
	query := fmt.Sprintf(`
UPDATE leads
SET status = '%s', claimed_at = $2, updated_at = $2
WHERE id = $1 AND status IN %s`, constants.StatusInProgress, eligibleIn())

	res, err := r.db.ExecContext(ctx, query, id.String(), now)
	if err != nil {
		r.log.Error("lead claim failed", "lead_id", id, "error", err)
		return false, fmt.Errorf("claim lead %s: %w", id, common.ErrStoreUnavailable)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("claim lead %s: %w", id, common.ErrStoreUnavailable)
	}
	if n == 0 {
		r.log.Info("lead claim lost", "lead_id", id)
		return false, nil
	}
	r.log.Info("lead claimed", "lead_id", id)
	return true, nil
}

// MarkResult settles a claimed lead into a terminal or retry status and
// releases the lease. Only the run that claimed the lead may call it.
func (r *leadRepo) MarkResult(ctx context.Context, id uuid.UUID, status constants.LeadStatus, lastError *string) error {
	now := time.Now().UTC()
	res, err := r.db.ExecContext(ctx, `
UPDATE leads
SET status = $2, last_error = $3, claimed_at = NULL, updated_at = $4
WHERE id = $1`, id.String(), string(status), lastError, now)
	if err != nil {
		r.log.Error("lead result write failed", "lead_id", id, "status", status, "error", err)
		return fmt.Errorf("mark lead %s %s: %w", id, status, common.ErrStoreUnavailable)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("mark lead %s: %w", id, common.ErrNotFound)
	}
	r.log.Info("lead resolved", "lead_id", id, "status", status)
	return nil
}

// SaveDraft stores the outreach draft produced for a claimed lead.
func (r *leadRepo) SaveDraft(ctx context.Context, id uuid.UUID, channel, draft string) error {
	now := time.Now().UTC()
	_, err := r.db.ExecContext(ctx, `
UPDATE leads
SET contact_channel = $2, outreach_draft = $3, updated_at = $4
WHERE id = $1`, id.String(), channel, draft, now)
	if err != nil {
		r.log.Error("draft write failed", "lead_id", id, "channel", channel, "error", err)
		return fmt.Errorf("save draft for %s: %w", id, common.ErrStoreUnavailable)
	}
	return nil
}

// ReclaimStale releases leases held past olderThan. A row still IN_PROGRESS
// that long means a run died without reaching its compensation path.
func (r *leadRepo) ReclaimStale(ctx context.Context, olderThan time.Duration) (int64, error) {
	now := time.Now().UTC()
	cutoff := now.Add(-olderThan)
	query := fmt.Sprintf(`
UPDATE leads
SET status = '%s', last_error = $1, claimed_at = NULL, updated_at = $2
WHERE status = '%s' AND claimed_at IS NOT NULL AND claimed_at < $3`,
		constants.StatusReadyRetry, constants.StatusInProgress)

	res, err := r.db.ExecContext(ctx, query, "lease reclaimed: stale IN_PROGRESS", now, cutoff)
	if err != nil {
		r.log.Error("stale reclaim failed", "error", err)
		return 0, fmt.Errorf("reclaim stale leases: %w", common.ErrStoreUnavailable)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("reclaim stale leases: %w", common.ErrStoreUnavailable)
	}
	if n > 0 {
		r.log.Warn("reclaimed stale leases", "count", n, "older_than", olderThan)
	}
	return n, nil
}

func (r *leadRepo) GetByID(ctx context.Context, id uuid.UUID) (*entity.Lead, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+leadColumns+` FROM leads WHERE id = $1`, id.String())
	lead, err := scanLead(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("lead %s: %w", id, common.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get lead %s: %w", id, common.ErrStoreUnavailable)
	}
	return lead, nil
}

// List returns leads in insertion order regardless of status. Reporting use
// only; the claim loop goes through FetchBatch.
func (r *leadRepo) List(ctx context.Context, limit int) ([]*entity.Lead, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+leadColumns+` FROM leads ORDER BY created_at, id LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("list leads: %w", common.ErrStoreUnavailable)
	}
	defer rows.Close()

	var leads []*entity.Lead
	for rows.Next() {
		lead, err := scanLead(rows)
		if err != nil {
			return nil, fmt.Errorf("scan lead: %w", common.ErrStoreUnavailable)
		}
		leads = append(leads, lead)
	}
	return leads, rows.Err()
}

func (r *leadRepo) CountByStatus(ctx context.Context) (map[constants.LeadStatus]int, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT status, COUNT(*) FROM leads GROUP BY status`)
	if err != nil {
		return nil, fmt.Errorf("count leads: %w", common.ErrStoreUnavailable)
	}
	defer rows.Close()

	counts := make(map[constants.LeadStatus]int)
	for rows.Next() {
		var status string
		var n int
		if err := rows.Scan(&status, &n); err != nil {
			return nil, fmt.Errorf("count leads: %w", common.ErrStoreUnavailable)
		}
		counts[constants.LeadStatus(status)] = n
	}
	return counts, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanLead(row rowScanner) (*entity.Lead, error) {
	var (
		lead      entity.Lead
		idStr     string
		sector    string
		status    string
		lastErr   sql.NullString
		draft     sql.NullString
		claimedAt sql.NullTime
	)
	err := row.Scan(&idStr, &lead.SourceURL, &lead.CompanyName, &sector, &lead.Score,
		&lead.City, &lead.Phone, &status, &lastErr, &lead.ContactChan, &draft,
		&claimedAt, &lead.CreatedAt, &lead.UpdatedAt)
	if err != nil {
		return nil, err
	}
	id, err := uuid.Parse(idStr)
	if err != nil {
		return nil, fmt.Errorf("parse lead id %q: %w", idStr, err)
	}
	lead.ID = id
	lead.Sector = constants.Sector(sector)
	lead.Status = constants.LeadStatus(status)
	if lastErr.Valid {
		lead.LastError = &lastErr.String
	}
	if draft.Valid {
		lead.OutreachText = &draft.String
	}
	if claimedAt.Valid {
		t := claimedAt.Time
		lead.ClaimedAt = &t
	}
	return &lead, nil
}
