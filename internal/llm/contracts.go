package llm

import "context"

// LeadCandidate is the normalized shape we want from the extraction agent,
// one entry per agency found on the scraped page.
type LeadCandidate struct {
	AgencyName string `json:"AgencyName"`
	LeadScore  int    `json:"LeadScore"` // 1..10
	Sector     string `json:"Sector"`    // Luxury | Standard | Commercial
	City       string `json:"City"`
	Phone      string `json:"Phone,omitempty"`
}

// ExtractRequest carries the raw page content plus context hints.
type ExtractRequest struct {
	RawContent string
	SourceURL  string
}

// LeadExtractor is the interface the ingestion pipeline depends on. The
// returned raw bytes are the model output before decoding, kept for audit.
// Output that fails schema validation is a hard error for the whole attempt;
// candidates are never partially accepted.
type LeadExtractor interface {
	ExtractLeads(ctx context.Context, req ExtractRequest) ([]LeadCandidate, []byte, error)
}

// OutreachRequest asks for a contact draft for one claimed lead.
type OutreachRequest struct {
	CompanyName string
	Sector      string
	City        string
	Channel     string // "sms" or "email"
}

// OutreachDraft is the drafted message. SMS drafts fill Body only; email
// drafts fill Subject and Body.
type OutreachDraft struct {
	Subject string `json:"subject,omitempty"`
	Body    string `json:"body"`
}

// OutreachDrafter produces channel-appropriate contact drafts.
type OutreachDrafter interface {
	DraftOutreach(ctx context.Context, req OutreachRequest) (OutreachDraft, []byte, error)
}
