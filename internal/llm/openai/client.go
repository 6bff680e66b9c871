package openai

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/kronos-automations/lead-engine/internal/common"
	"github.com/kronos-automations/lead-engine/internal/llm"
)

// ExtractLeads implements llm.LeadExtractor over text-only chat/completions.
// The model output must match the lead-list schema exactly; anything else is
// an extraction failure for the whole attempt.
func (c *Client) ExtractLeads(ctx context.Context, req llm.ExtractRequest) ([]llm.LeadCandidate, []byte, error) {
	rid := uuid.New().String()
	start := time.Now()

	c.log.Info("llm.extract.start",
		"req_id", rid,
		"model", c.cfg.Model,
		"temp", c.cfg.Temperature,
		"content_len", len(req.RawContent),
		"source_url", req.SourceURL,
	)

	schema := llm.BuildLeadListSchema()
	body := map[string]any{
		"model":       c.cfg.Model,
		"temperature": c.cfg.Temperature,
		"messages": []map[string]any{
			{"role": "system", "content": parserSystemPrompt},
			{"role": "user", "content": buildExtractUserPrompt(req) + "\n\nReturn ONLY a JSON array that matches the provided schema."},
			{"role": "system", "content": "JSON Schema:\n" + mustJSON(schema)},
		},
	}

	rawContent, err := c.chat(ctx, rid, body)
	if err != nil {
		c.log.Error("llm.extract.http_error",
			"req_id", rid, "error", err,
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return nil, nil, err
	}

	if err := llm.ValidateJSONAgainstSchema(schema, rawContent); err != nil {
		c.log.Error("llm.extract.schema_validation_failed",
			"req_id", rid, "error", err, "content", string(rawContent),
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return nil, rawContent, fmt.Errorf("%w: %v", common.ErrExtractionFailure, err)
	}

	var candidates []llm.LeadCandidate
	if err := json.Unmarshal(rawContent, &candidates); err != nil {
		return nil, rawContent, fmt.Errorf("%w: decode candidates: %v", common.ErrExtractionFailure, err)
	}

	c.log.Info("llm.extract.done",
		"req_id", rid,
		"candidates", len(candidates),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return candidates, rawContent, nil
}

// DraftOutreach implements llm.OutreachDrafter. Channel selects the system
// prompt and output schema.
func (c *Client) DraftOutreach(ctx context.Context, req llm.OutreachRequest) (llm.OutreachDraft, []byte, error) {
	rid := uuid.New().String()
	start := time.Now()

	var (
		sys    string
		schema map[string]any
	)
	switch req.Channel {
	case "sms":
		sys = smsSystemPrompt
		schema = llm.BuildSMSDraftSchema()
	case "email":
		sys = emailSystemPrompt
		schema = llm.BuildEmailDraftSchema()
	default:
		return llm.OutreachDraft{}, nil, fmt.Errorf("%w: unknown channel %q", common.ErrInvalidInput, req.Channel)
	}

	c.log.Info("llm.outreach.start",
		"req_id", rid, "model", c.cfg.Model, "channel", req.Channel, "company", req.CompanyName)

	body := map[string]any{
		"model":           c.cfg.Model,
		"temperature":     c.cfg.Temperature,
		"response_format": map[string]any{"type": "json_object"},
		"messages": []map[string]any{
			{"role": "system", "content": sys},
			{"role": "user", "content": buildOutreachUserPrompt(req)},
		},
	}

	rawContent, err := c.chat(ctx, rid, body)
	if err != nil {
		c.log.Error("llm.outreach.http_error",
			"req_id", rid, "error", err, "elapsed_ms", time.Since(start).Milliseconds())
		return llm.OutreachDraft{}, nil, err
	}

	if err := llm.ValidateJSONAgainstSchema(schema, rawContent); err != nil {
		c.log.Error("llm.outreach.schema_validation_failed",
			"req_id", rid, "error", err, "content", string(rawContent),
			"elapsed_ms", time.Since(start).Milliseconds())
		return llm.OutreachDraft{}, rawContent, fmt.Errorf("%w: %v", common.ErrProcessingFailure, err)
	}

	draft, err := decodeDraft(req.Channel, rawContent)
	if err != nil {
		return llm.OutreachDraft{}, rawContent, err
	}

	c.log.Info("llm.outreach.done",
		"req_id", rid, "channel", req.Channel, "elapsed_ms", time.Since(start).Milliseconds())
	return draft, rawContent, nil
}

// chat posts one chat/completions request and returns the first choice's
// message content, trimmed.
func (c *Client) chat(ctx context.Context, rid string, body map[string]any) ([]byte, error) {
	endpoint := strings.TrimRight(c.cfg.BaseURL, "/") + "/chat/completions"
	headers := map[string]string{"Authorization": "Bearer " + c.cfg.APIKey}

	raw, _, err := llm.SendJSON(ctx, c.http, endpoint, body, headers, c.log)
	if err != nil {
		return nil, err
	}

	var cc struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.Unmarshal(raw, &cc); err != nil {
		c.log.Error("llm.chat.decode_error", "req_id", rid, "error", err, "raw_bytes", len(raw))
		return nil, fmt.Errorf("decode chat response: %w", err)
	}
	if len(cc.Choices) == 0 {
		c.log.Error("llm.chat.no_choices", "req_id", rid, "raw", string(raw))
		return nil, fmt.Errorf("no choices in chat response")
	}
	return []byte(strings.TrimSpace(cc.Choices[0].Message.Content)), nil
}

func decodeDraft(channel string, raw []byte) (llm.OutreachDraft, error) {
	switch channel {
	case "sms":
		var out struct {
			SMSText string `json:"smsText"`
		}
		if err := json.Unmarshal(raw, &out); err != nil {
			return llm.OutreachDraft{}, fmt.Errorf("%w: decode sms draft: %v", common.ErrProcessingFailure, err)
		}
		return llm.OutreachDraft{Body: out.SMSText}, nil
	case "email":
		var out struct {
			Subject   string `json:"subject"`
			EmailBody string `json:"emailBody"`
		}
		if err := json.Unmarshal(raw, &out); err != nil {
			return llm.OutreachDraft{}, fmt.Errorf("%w: decode email draft: %v", common.ErrProcessingFailure, err)
		}
		return llm.OutreachDraft{Subject: out.Subject, Body: out.EmailBody}, nil
	}
	return llm.OutreachDraft{}, fmt.Errorf("%w: unknown channel %q", common.ErrInvalidInput, channel)
}

func mustJSON(v any) string {
	b, err := json.Marshal(v)
	if err != nil {
		return "{}"
	}
	return string(b)
}
