package openai

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/quote-optimizer/internal/llm"
)

// ExtractFields implements llm.FieldExtractor using text-only chat/completions.
func (c *Client) ExtractFields(ctx context.Context, req llm.ExtractRequest) (llm.QuoteFields, []byte, error) {
	rid := uuid.New().String()
	start := time.Now()

	c.logger.Info("llm.extract.start",
		"req_id", rid,
		"document_id", req.DocumentID,
		"model", c.cfg.Model,
		"temp", c.cfg.Temperature,
		"text_len", len(req.Text),
		"prep_confidence", req.PrepConfidence,
		"default_currency", req.DefaultCurrency,
	)

	if err := c.limiter.Wait(ctx); err != nil {
		return llm.QuoteFields{}, nil, fmt.Errorf("rate limiter: %w", err)
	}

	body := map[string]any{
		"model":           c.cfg.Model,
		"temperature":     c.cfg.Temperature,
		"response_format": map[string]any{"type": "json_object"},
		"messages": []map[string]any{
			{"role": "system", "content": llm.BuildSystemPrompt(req)},
			{"role": "user", "content": llm.BuildUserPrompt(req) + "\n\nReturn ONLY JSON that matches the provided schema."},
			{"role": "system", "content": "JSON Schema:\n" + mustJSON(c.schema)},
		},
	}

	endpoint := strings.TrimRight(c.cfg.BaseURL, "/") + "/chat/completions"
	headers := map[string]string{"Authorization": "Bearer " + c.cfg.APIKey}
	raw, _, httpErr := llm.SendJSON(ctx, c.http, endpoint, body, headers, c.logger)
	if httpErr != nil {
		c.logger.Error("llm.extract.http_error",
			"req_id", rid, "error", httpErr,
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return llm.QuoteFields{}, nil, fmt.Errorf("openai: %w", httpErr)
	}

	var cc struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.Unmarshal(raw, &cc); err != nil {
		c.logger.Error("llm.extract.decode_error",
			"req_id", rid, "error", err, "raw_bytes", len(raw),
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return llm.QuoteFields{}, raw, fmt.Errorf("decode openai response: %w", err)
	}
	if len(cc.Choices) == 0 {
		c.logger.Error("llm.extract.no_choices",
			"req_id", rid,
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return llm.QuoteFields{}, raw, fmt.Errorf("no choices in openai response")
	}

	content, _, err := llm.NormalizeAndSanitizeJSON([]byte(strings.TrimSpace(cc.Choices[0].Message.Content)), c.logger)
	if err != nil {
		c.logger.Error("llm.extract.sanitize_failed", "req_id", rid, "error", err)
		return llm.QuoteFields{}, []byte(cc.Choices[0].Message.Content), err
	}

	if err := c.validator.Validate(content); err != nil {
		if c.cfg.StrictSchema {
			c.logger.Error("llm.extract.schema_validation_failed",
				"req_id", rid, "error", err,
				"elapsed_ms", time.Since(start).Milliseconds(),
			)
			return llm.QuoteFields{}, content, fmt.Errorf("schema validation failed: %w", err)
		}
		// Lenient pass: drop optional offenders and re-validate.
		cleaned, dropped, sErr := llm.SanitizeOptionalFields(content)
		if sErr != nil {
			c.logger.Error("llm.extract.sanitize_failed", "req_id", rid, "error", sErr)
			return llm.QuoteFields{}, content, fmt.Errorf("sanitize failed: %w", sErr)
		}
		if vErr := c.validator.Validate(cleaned); vErr != nil {
			c.logger.Error("llm.extract.schema_validation_failed",
				"req_id", rid, "error", vErr,
				"elapsed_ms", time.Since(start).Milliseconds(),
			)
			return llm.QuoteFields{}, cleaned, fmt.Errorf("schema validation failed: %w", vErr)
		}
		c.logger.Warn("llm.extract.lenient_sanitize_applied", "req_id", rid, "dropped", dropped)
		content = cleaned
	}

	var out llm.QuoteFields
	if err := json.Unmarshal(content, &out); err != nil {
		c.logger.Error("llm.extract.unmarshal_failed", "req_id", rid, "error", err)
		return llm.QuoteFields{}, content, fmt.Errorf("unmarshal fields: %w", err)
	}

	c.logger.Info("llm.extract.ok",
		"req_id", rid,
		"document_id", req.DocumentID,
		"vendor", out.Vendor,
		"items", len(out.Items),
		"currency", out.CurrencyCode,
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return out, content, nil
}

func mustJSON(v any) string {
	b, _ := json.MarshalIndent(v, "", "  ")
	return string(b)
}
