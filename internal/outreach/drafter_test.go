package outreach

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"testing"

	"github.com/kronos-automations/lead-engine/constants"
	"github.com/kronos-automations/lead-engine/internal/common"
	"github.com/kronos-automations/lead-engine/internal/entity"
	"github.com/kronos-automations/lead-engine/internal/llm"
	"github.com/kronos-automations/lead-engine/internal/repository"
)

type stubDrafter struct {
	draft llm.OutreachDraft
	err   error
	last  llm.OutreachRequest
}

func (s *stubDrafter) DraftOutreach(ctx context.Context, req llm.OutreachRequest) (llm.OutreachDraft, []byte, error) {
	s.last = req
	return s.draft, nil, s.err
}

func newTestLeadRepo(t *testing.T) repository.LeadRepository {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	db.SetMaxOpenConns(1)
	if err := repository.EnsureSchema(context.Background(), db); err != nil {
		t.Fatalf("ensure schema: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return repository.NewLeadRepository(db, slog.Default())
}

func seedLead(t *testing.T, leads repository.LeadRepository, phone string) *entity.Lead {
	t.Helper()
	lead, err := leads.UpsertByURL(context.Background(), "https://x.test/list#agency", entity.LeadFields{
		CompanyName: "Lago Immobilien AG",
		Score:       6,
		Sector:      constants.SectorStandard,
		City:        "Lugano",
		Phone:       phone,
	})
	if err != nil {
		t.Fatalf("seed lead: %v", err)
	}
	return lead
}

func TestPickChannel(t *testing.T) {
	cases := []struct {
		phone string
		want  string
	}{
		{"+41 79 123 45 67", ChannelSMS},
		{"41791234567", ChannelSMS},
		{"0041791234567", ChannelSMS},
		{"079 123 45 67", ChannelSMS},
		{"091 922 11 22", ChannelEmail}, // landline
		{"+41 91 922 11 22", ChannelEmail},
		{"+49 170 1234567", ChannelEmail},
		{"", ChannelEmail},
		{"not a number", ChannelEmail},
	}
	for _, c := range cases {
		if got := PickChannel(c.phone); got != c.want {
			t.Errorf("PickChannel(%q) = %q, want %q", c.phone, got, c.want)
		}
	}
}

func TestProcessPersistsSMSDraft(t *testing.T) {
	leads := newTestLeadRepo(t)
	lead := seedLead(t, leads, "+41 79 123 45 67")

	stub := &stubDrafter{draft: llm.OutreachDraft{Body: "Hi from KRONOS"}}
	d := NewDrafter(stub, leads, slog.Default())

	if err := d.Process(context.Background(), lead); err != nil {
		t.Fatalf("process: %v", err)
	}
	if stub.last.Channel != ChannelSMS {
		t.Errorf("drafter asked for channel %q, want sms", stub.last.Channel)
	}

	got, err := leads.GetByID(context.Background(), lead.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.ContactChan != ChannelSMS {
		t.Errorf("stored channel = %q, want sms", got.ContactChan)
	}
	if got.OutreachText == nil || *got.OutreachText != "Hi from KRONOS" {
		t.Errorf("stored draft = %v", got.OutreachText)
	}
}

func TestProcessPersistsEmailDraftWithSubject(t *testing.T) {
	leads := newTestLeadRepo(t)
	lead := seedLead(t, leads, "091 922 11 22")

	stub := &stubDrafter{draft: llm.OutreachDraft{Subject: "Partnership", Body: "Dear team"}}
	d := NewDrafter(stub, leads, slog.Default())

	if err := d.Process(context.Background(), lead); err != nil {
		t.Fatalf("process: %v", err)
	}

	got, err := leads.GetByID(context.Background(), lead.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.ContactChan != ChannelEmail {
		t.Errorf("stored channel = %q, want email", got.ContactChan)
	}
	if got.OutreachText == nil || *got.OutreachText != "Partnership\n\nDear team" {
		t.Errorf("stored draft = %v", got.OutreachText)
	}
}

func TestProcessDrafterFailure(t *testing.T) {
	leads := newTestLeadRepo(t)
	lead := seedLead(t, leads, "")

	stub := &stubDrafter{err: errors.New("model unavailable")}
	d := NewDrafter(stub, leads, slog.Default())

	err := d.Process(context.Background(), lead)
	if !errors.Is(err, common.ErrProcessingFailure) {
		t.Fatalf("got %v, want ErrProcessingFailure", err)
	}

	got, getErr := leads.GetByID(context.Background(), lead.ID)
	if getErr != nil {
		t.Fatalf("get: %v", getErr)
	}
	if got.OutreachText != nil {
		t.Errorf("draft persisted despite failure: %q", *got.OutreachText)
	}
}
