// Package outreach is the downstream contact step the claim loop drives each
// claimed lead through: pick a channel from the stored phone number, draft a
// message with the LLM, persist the draft. Actual delivery happens outside
// this system.
package outreach

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/kronos-automations/lead-engine/internal/common"
	"github.com/kronos-automations/lead-engine/internal/entity"
	"github.com/kronos-automations/lead-engine/internal/llm"
	"github.com/kronos-automations/lead-engine/internal/repository"
)

const (
	ChannelSMS   = "sms"
	ChannelEmail = "email"
)

type Drafter struct {
	llm   llm.OutreachDrafter
	leads repository.LeadRepository
	log   *slog.Logger
}

func NewDrafter(drafter llm.OutreachDrafter, leads repository.LeadRepository, log *slog.Logger) *Drafter {
	if log == nil {
		log = slog.Default()
	}
	return &Drafter{llm: drafter, leads: leads, log: log}
}

// Process implements the claim loop's processor contract.
func (d *Drafter) Process(ctx context.Context, lead *entity.Lead) error {
	channel := PickChannel(lead.Phone)
	d.log.Info("outreach.draft.start",
		"lead_id", lead.ID, "company", lead.CompanyName, "channel", channel)

	draft, _, err := d.llm.DraftOutreach(ctx, llm.OutreachRequest{
		CompanyName: lead.CompanyName,
		Sector:      string(lead.Sector),
		City:        lead.City,
		Channel:     channel,
	})
	if err != nil {
		return fmt.Errorf("%w: draft %s for %s: %v", common.ErrProcessingFailure, channel, lead.ID, err)
	}

	text := draft.Body
	if channel == ChannelEmail && draft.Subject != "" {
		text = draft.Subject + "\n\n" + draft.Body
	}
	if err := d.leads.SaveDraft(ctx, lead.ID, channel, text); err != nil {
		return fmt.Errorf("persist %s draft for %s: %w", channel, lead.ID, err)
	}

	d.log.Info("outreach.draft.done", "lead_id", lead.ID, "channel", channel, "chars", len(text))
	return nil
}

// PickChannel chooses SMS for Swiss mobile numbers (07x / +41 7x / 0041 7x),
// email for everything else, including leads with no phone at all.
func PickChannel(phone string) string {
	digits := strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, phone)

	switch {
	case strings.HasPrefix(digits, "417") && len(digits) == 11:
		return ChannelSMS
	case strings.HasPrefix(digits, "00417") && len(digits) == 13:
		return ChannelSMS
	case strings.HasPrefix(digits, "07") && len(digits) == 10:
		return ChannelSMS
	}
	return ChannelEmail
}
