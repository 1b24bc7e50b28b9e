package entity

import "slices"

// LineItem is one quoted row. Stages never mutate a LineItem they received;
// they return revised copies.
type LineItem struct {
	ID                   string             `json:"id"`
	SourceDocumentID     string             `json:"source_document_id"`
	RawVendorName        string             `json:"raw_vendor_name"`
	VendorKey            string             `json:"vendor_key,omitempty"`
	Description          string             `json:"description"`
	SKU                  Extracted[string]  `json:"sku"`
	Quantity             Extracted[float64] `json:"quantity"`
	Unit                 Extracted[string]  `json:"unit"`
	UnitPrice            Extracted[float64] `json:"unit_price"`
	LineTotal            Extracted[float64] `json:"line_total"`
	Terms                Extracted[string]  `json:"terms"`
	Currency             string             `json:"currency,omitempty"`
	ExtractionConfidence float64            `json:"extraction_confidence"`
	Corrected            bool               `json:"corrected"`
	CorrectionDelta      float64            `json:"correction_delta,omitempty"`
	Flags                []string           `json:"flags,omitempty"`
	Page                 int                `json:"page"`
	Row                  int                `json:"row"`
}

// Total returns the amount this line costs: the line total when present,
// otherwise quantity × unit price when both are present.
func (li LineItem) Total() (float64, bool) {
	if t, ok := li.LineTotal.Get(); ok {
		return t, true
	}
	q, qok := li.Quantity.Get()
	p, pok := li.UnitPrice.Get()
	if qok && pok {
		return q * p, true
	}
	return 0, false
}

// Priced reports whether the line carries enough numbers to be bought.
func (li LineItem) Priced() bool {
	_, ok := li.Total()
	return ok
}

// Clone returns a deep copy.
func (li LineItem) Clone() LineItem {
	li.Flags = slices.Clone(li.Flags)
	return li
}

// WithFlag returns a copy carrying an additional flag.
func (li LineItem) WithFlag(flag string) LineItem {
	out := li.Clone()
	if !slices.Contains(out.Flags, flag) {
		out.Flags = append(out.Flags, flag)
	}
	return out
}

// ExtractedQuote is a Field Extractor's output for one document.
type ExtractedQuote struct {
	DocumentID   string             `json:"document_id"`
	VendorName   string             `json:"vendor_name"`
	VendorSource FieldSource        `json:"vendor_source,omitempty"`
	Items        []LineItem         `json:"items"`
	QuoteTotal   Extracted[float64] `json:"quote_total"`
	Currency     string             `json:"currency,omitempty"`
	Terms        []string           `json:"terms,omitempty"`
	Confidence   float64            `json:"confidence"`
	Extractor    string             `json:"extractor"`
	Warnings     []Warning          `json:"warnings,omitempty"`
}
