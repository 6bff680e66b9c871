package llm

import "github.com/kronos-automations/lead-engine/constants"

// BuildLeadListSchema returns a JSON-Schema (draft 2020-12 subset) as a
// generic map. We pass it to the model as a structured output constraint and
// also use it locally to validate what comes back.
func BuildLeadListSchema() map[string]any {
	item := map[string]any{
		"type":                 "object",
		"additionalProperties": false,
		"properties": map[string]any{
			"AgencyName": map[string]any{"type": "string", "minLength": 1},
			"LeadScore":  map[string]any{"type": "integer", "minimum": 1, "maximum": 10},
			"Sector":     map[string]any{"type": "string", "enum": constants.SectorStrings()},
			"City":       map[string]any{"type": "string"},
			"Phone":      map[string]any{"type": "string"},
		},
		"required": []string{"AgencyName", "LeadScore", "Sector", "City"},
	}
	return map[string]any{
		"type":  "array",
		"items": item,
	}
}

// BuildSMSDraftSchema constrains the SMS agent output: a single smsText field,
// capped at the 160-character SMS budget.
func BuildSMSDraftSchema() map[string]any {
	return map[string]any{
		"type":                 "object",
		"additionalProperties": false,
		"properties": map[string]any{
			"smsText": map[string]any{"type": "string", "minLength": 1, "maxLength": 160},
		},
		"required": []string{"smsText"},
	}
}

// BuildEmailDraftSchema constrains the email agent output.
func BuildEmailDraftSchema() map[string]any {
	return map[string]any{
		"type":                 "object",
		"additionalProperties": false,
		"properties": map[string]any{
			"subject":   map[string]any{"type": "string", "minLength": 1},
			"emailBody": map[string]any{"type": "string", "minLength": 1},
		},
		"required": []string{"subject", "emailBody"},
	}
}
