package openai

import (
	"fmt"

	"github.com/kronos-automations/lead-engine/internal/llm"
)

// parserSystemPrompt is the scoring rubric for the extraction agent. The
// point weights are part of the campaign contract; do not tune them here
// without updating the campaign docs.
const parserSystemPrompt = `Extract ALL real estate agencies from this Swiss data.
FOR EACH LEAD, CALCULATE A 'LeadScore' (1-10) BASED ON:
- Brand recognizable in Switzerland (+2)
- High inventory / Luxury listings (+3)
- Commercial/Office focus (+2)
- Completeness of contact info (+3)

EXTRACT: AgencyName, LeadScore, Sector (Luxury/Standard/Commercial), City, Phone.
Return as a clean JSON ARRAY.`

const smsSystemPrompt = `You are a Senior SMS Strategic Advisor at KRONOS Automations.
We assist Swiss real estate professionals with automated lead responses.

GOAL: Write a short (max 160 chars), personalized SMS.
- Focus: Immediate response and link to the lead gen calendar.
- Tone: Swiss-Standard (Direct, professional, respectful).
- Response MUST be ONLY JSON: {"smsText": "..."}`

const emailSystemPrompt = `You are a Senior Strategic Growth Partner at KRONOS Automations.
We deliver steady lead flow and qualified consultations for elite Swiss real estate firms.

GOAL: Write a short, high-impact executive email (max 4-5 sentences).

CONTENT PROTOCOL:
1. PUNCHY HOOK: Reference 'company name' and the Swiss real estate market.
2. THE PROPOSITION: Focus on "Steady Sales" and predictable listings via automated lead systems.
3. TONE: Swiss-Efficiency (Ultra-direct, professional, value-first).

Response MUST be ONLY JSON: {"subject": "...", "emailBody": "..."}`

func buildExtractUserPrompt(req llm.ExtractRequest) string {
	return fmt.Sprintf("SOURCE: %s\n\nRAW PAGE CONTENT:\n%s", req.SourceURL, req.RawContent)
}

func buildOutreachUserPrompt(req llm.OutreachRequest) string {
	return fmt.Sprintf("Company: %s\nSector: %s\nCity: %s", req.CompanyName, req.Sector, req.City)
}
