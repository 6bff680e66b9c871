package entity

import (
	"time"

	"github.com/google/uuid"

	"github.com/kronos-automations/lead-engine/constants"
)

// Lead represents a lead row for data transfer between layers.
type Lead struct {
	ID           uuid.UUID            `json:"id"`
	SourceURL    string               `json:"source_url"`
	CompanyName  string               `json:"company_name"`
	Sector       constants.Sector     `json:"sector"`
	Score        int                  `json:"score"`
	City         string               `json:"city,omitempty"`
	Phone        string               `json:"phone,omitempty"`
	Status       constants.LeadStatus `json:"status"`
	LastError    *string              `json:"last_error,omitempty"`
	ContactChan  string               `json:"contact_channel,omitempty"`
	OutreachText *string              `json:"outreach_draft,omitempty"`
	ClaimedAt    *time.Time           `json:"claimed_at,omitempty"`
	CreatedAt    time.Time            `json:"created_at"`
	UpdatedAt    time.Time            `json:"updated_at"`
}

// LeadFields wraps the ingestion-time fields for an upsert. Status is never
// part of this struct: classification happens inside the repository, once.
type LeadFields struct {
	CompanyName string
	Score       int
	Sector      constants.Sector
	City        string
	Phone       string
}
