package llm

import "context"

// ItemFields is one line item as returned by the model. Numbers are pointers
// so an omitted value stays distinguishable from zero.
type ItemFields struct {
	SKU         string   `json:"sku,omitempty"`
	Description string   `json:"description"`
	Quantity    *float64 `json:"quantity,omitempty"`
	Unit        string   `json:"unit,omitempty"`
	UnitPrice   *float64 `json:"unit_price,omitempty"`
	LineTotal   *float64 `json:"line_total,omitempty"`
	Delivery    string   `json:"delivery,omitempty"`
	Confidence  *float64 `json:"confidence,omitempty"` // optional (0..1)
}

// QuoteFields is the normalized shape we want from the LLM.
type QuoteFields struct {
	Vendor       string       `json:"vendor"`
	CurrencyCode string       `json:"currency_code,omitempty"` // ISO 4217
	Items        []ItemFields `json:"items"`
	QuoteTotal   *float64     `json:"quote_total,omitempty"`
	Terms        []string     `json:"terms,omitempty"`
	Confidence   float64      `json:"confidence,omitempty"` // optional (0..1)
}

type ExtractRequest struct {
	DocumentID      string
	Text            string
	VendorHint      string
	FilenameHint    string
	DefaultCurrency string

	// PrepConfidence is the loader's confidence in Text (OCR quality).
	PrepConfidence float64
}

// FieldExtractor is the model-backed extraction contract.
type FieldExtractor interface {
	ExtractFields(ctx context.Context, req ExtractRequest) (QuoteFields, []byte /*rawJSON*/, error)
}
