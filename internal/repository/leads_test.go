package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/kronos-automations/lead-engine/constants"
	"github.com/kronos-automations/lead-engine/internal/common"
	"github.com/kronos-automations/lead-engine/internal/entity"
)

// newTestDB opens a per-test in-memory SQLite database with the schema
// applied. The DSN is keyed on the test name so parallel tests never share a
// database.
func newTestDB(t *testing.T) *sql.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	db.SetMaxOpenConns(1)
	if err := EnsureSchema(context.Background(), db); err != nil {
		t.Fatalf("ensure schema: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func testLeadRepo(t *testing.T) (LeadRepository, *sql.DB) {
	t.Helper()
	db := newTestDB(t)
	return NewLeadRepository(db, slog.Default()), db
}

func mustUpsert(t *testing.T, repo LeadRepository, url string, score int) *entity.Lead {
	t.Helper()
	lead, err := repo.UpsertByURL(context.Background(), url, entity.LeadFields{
		CompanyName: "Agency " + url,
		Score:       score,
		Sector:      constants.SectorStandard,
		City:        "Lugano",
	})
	if err != nil {
		t.Fatalf("upsert %s: %v", url, err)
	}
	return lead
}

func TestUpsertClassification(t *testing.T) {
	repo, _ := testLeadRepo(t)

	high := mustUpsert(t, repo, "a.ch/1", 8)
	if high.Status != constants.StatusPriority {
		t.Errorf("score 8: got status %s, want %s", high.Status, constants.StatusPriority)
	}

	boundary := mustUpsert(t, repo, "a.ch/2", 7)
	if boundary.Status != constants.StatusReadyToProcess {
		t.Errorf("score 7: got status %s, want %s", boundary.Status, constants.StatusReadyToProcess)
	}
}

func TestUpsertIdempotentAndPreservesClaims(t *testing.T) {
	ctx := context.Background()
	repo, _ := testLeadRepo(t)

	first := mustUpsert(t, repo, "a.ch/1", 9)
	second := mustUpsert(t, repo, "a.ch/1", 9)
	if first.ID != second.ID {
		t.Fatalf("repeated upsert created a new row: %s vs %s", first.ID, second.ID)
	}
	if second.Status != constants.StatusPriority {
		t.Errorf("repeated upsert changed status to %s", second.Status)
	}

	// Once a lead is claimed, re-scraping it must not disturb the lease.
	ok, err := repo.TryClaim(ctx, first.ID)
	if err != nil || !ok {
		t.Fatalf("claim: ok=%v err=%v", ok, err)
	}
	reingested := mustUpsert(t, repo, "a.ch/1", 3)
	if reingested.Status != constants.StatusInProgress {
		t.Errorf("upsert clobbered claimed status: got %s", reingested.Status)
	}
}

func TestFetchBatchBoundAndPriorityOrder(t *testing.T) {
	ctx := context.Background()
	repo, _ := testLeadRepo(t)

	for i := 0; i < 4; i++ {
		mustUpsert(t, repo, fmt.Sprintf("std.ch/%d", i), 5)
	}
	for i := 0; i < 3; i++ {
		mustUpsert(t, repo, fmt.Sprintf("lux.ch/%d", i), 9)
	}

	batch, err := repo.FetchBatch(ctx, 5)
	if err != nil {
		t.Fatalf("fetch batch: %v", err)
	}
	if len(batch) != 5 {
		t.Fatalf("got %d leads, want 5", len(batch))
	}
	for i, lead := range batch[:3] {
		if lead.Status != constants.StatusPriority {
			t.Errorf("position %d: got %s, want PRIORITY first", i, lead.Status)
		}
	}

	// A terminal lead never shows up in a batch.
	done := batch[0]
	if ok, _ := repo.TryClaim(ctx, done.ID); !ok {
		t.Fatalf("claim for setup failed")
	}
	if err := repo.MarkResult(ctx, done.ID, constants.StatusDone, nil); err != nil {
		t.Fatalf("mark done: %v", err)
	}
	batch, err = repo.FetchBatch(ctx, 10)
	if err != nil {
		t.Fatalf("fetch batch: %v", err)
	}
	for _, lead := range batch {
		if lead.ID == done.ID {
			t.Errorf("DONE lead %s returned by FetchBatch", done.ID)
		}
	}
}

func TestTryClaimMutualExclusion(t *testing.T) {
	ctx := context.Background()
	repo, _ := testLeadRepo(t)
	lead := mustUpsert(t, repo, "a.ch/1", 9)

	const claimants = 8
	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		wins int
	)
	for i := 0; i < claimants; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ok, err := repo.TryClaim(ctx, lead.ID)
			if err != nil {
				t.Errorf("claim errored: %v", err)
				return
			}
			if ok {
				mu.Lock()
				wins++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	if wins != 1 {
		t.Fatalf("got %d successful claims, want exactly 1", wins)
	}

	// Releasing the lease makes the lead claimable again.
	msg := "processing failed"
	if err := repo.MarkResult(ctx, lead.ID, constants.StatusReadyRetry, &msg); err != nil {
		t.Fatalf("release: %v", err)
	}
	ok, err := repo.TryClaim(ctx, lead.ID)
	if err != nil || !ok {
		t.Fatalf("reclaim after release: ok=%v err=%v", ok, err)
	}
}

func TestTryClaimIneligible(t *testing.T) {
	ctx := context.Background()
	repo, _ := testLeadRepo(t)
	lead := mustUpsert(t, repo, "a.ch/1", 5)

	if ok, _ := repo.TryClaim(ctx, lead.ID); !ok {
		t.Fatalf("initial claim failed")
	}
	if err := repo.MarkResult(ctx, lead.ID, constants.StatusDone, nil); err != nil {
		t.Fatalf("mark done: %v", err)
	}
	ok, err := repo.TryClaim(ctx, lead.ID)
	if err != nil {
		t.Fatalf("claim on DONE lead errored: %v", err)
	}
	if ok {
		t.Fatal("claimed a DONE lead")
	}
}

func TestMarkResultClearsLease(t *testing.T) {
	ctx := context.Background()
	repo, _ := testLeadRepo(t)
	lead := mustUpsert(t, repo, "a.ch/1", 5)

	if ok, _ := repo.TryClaim(ctx, lead.ID); !ok {
		t.Fatalf("claim failed")
	}
	claimed, err := repo.GetByID(ctx, lead.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if claimed.ClaimedAt == nil {
		t.Fatal("claimed_at not stamped by TryClaim")
	}

	if err := repo.MarkResult(ctx, lead.ID, constants.StatusDone, nil); err != nil {
		t.Fatalf("mark done: %v", err)
	}
	final, err := repo.GetByID(ctx, lead.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if final.Status != constants.StatusDone {
		t.Errorf("got status %s, want DONE", final.Status)
	}
	if final.ClaimedAt != nil {
		t.Error("claimed_at not cleared on resolve")
	}
	if final.LastError != nil {
		t.Errorf("last_error set on success: %q", *final.LastError)
	}

	if err := repo.MarkResult(ctx, uuid.New(), constants.StatusDone, nil); !errors.Is(err, common.ErrNotFound) {
		t.Errorf("marking unknown lead: got %v, want ErrNotFound", err)
	}
}

func TestReclaimStale(t *testing.T) {
	ctx := context.Background()
	repo, db := testLeadRepo(t)

	stale := mustUpsert(t, repo, "a.ch/stale", 5)
	fresh := mustUpsert(t, repo, "a.ch/fresh", 5)
	for _, l := range []*entity.Lead{stale, fresh} {
		if ok, _ := repo.TryClaim(ctx, l.ID); !ok {
			t.Fatalf("claim %s failed", l.SourceURL)
		}
	}

	// Backdate the stale lease past the threshold.
	old := time.Now().UTC().Add(-30 * time.Minute)
	if _, err := db.ExecContext(ctx,
		`UPDATE leads SET claimed_at = $1 WHERE id = $2`, old, stale.ID.String()); err != nil {
		t.Fatalf("backdate: %v", err)
	}

	n, err := repo.ReclaimStale(ctx, 15*time.Minute)
	if err != nil {
		t.Fatalf("reclaim: %v", err)
	}
	if n != 1 {
		t.Fatalf("reclaimed %d leases, want 1", n)
	}

	got, _ := repo.GetByID(ctx, stale.ID)
	if got.Status != constants.StatusReadyRetry {
		t.Errorf("stale lead: got %s, want READY_RETRY", got.Status)
	}
	if got.LastError == nil {
		t.Error("stale lead: last_error not recorded")
	}
	kept, _ := repo.GetByID(ctx, fresh.ID)
	if kept.Status != constants.StatusInProgress {
		t.Errorf("fresh lease disturbed: got %s", kept.Status)
	}
}

func TestSaveDraft(t *testing.T) {
	ctx := context.Background()
	repo, _ := testLeadRepo(t)
	lead := mustUpsert(t, repo, "a.ch/1", 5)

	if err := repo.SaveDraft(ctx, lead.ID, "sms", "Grüezi!"); err != nil {
		t.Fatalf("save draft: %v", err)
	}
	got, err := repo.GetByID(ctx, lead.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.ContactChan != "sms" || got.OutreachText == nil || *got.OutreachText != "Grüezi!" {
		t.Errorf("draft not persisted: channel=%q draft=%v", got.ContactChan, got.OutreachText)
	}
}
