package entity

// WarningKind classifies a non-fatal finding attached to a run result.
type WarningKind string

const (
	WarnUnsupportedFormat WarningKind = "unsupported_format"
	WarnCorruptDocument   WarningKind = "corrupt_document"
	WarnLowConfidence     WarningKind = "low_confidence"
	WarnExtractorFailed   WarningKind = "extractor_failed"
	WarnUnknownVendor     WarningKind = "unknown_vendor"
	WarnArithmetic        WarningKind = "arithmetic_flag"
	WarnTotalMismatch     WarningKind = "total_mismatch"
	WarnAmbiguousIdentity WarningKind = "ambiguous_identity"
	WarnGap               WarningKind = "gap"
	WarnCurrency          WarningKind = "currency_converted"
	WarnPricingRisk       WarningKind = "pricing_risk"
	WarnProcurementDelay  WarningKind = "procurement_delay"
	WarnSanity            WarningKind = "sanity_flag"
	WarnIncompleteRow     WarningKind = "incomplete_row"
)

// Warning is attached to the run result; DocumentID is empty for run-level findings.
type Warning struct {
	DocumentID string      `json:"document_id,omitempty"`
	ItemKey    string      `json:"item_key,omitempty"`
	Kind       WarningKind `json:"kind"`
	Message    string      `json:"message"`
}
