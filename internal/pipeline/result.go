package pipeline

import (
	"time"

	"github.com/joseph-ayodele/quote-optimizer/internal/compliance"
	"github.com/joseph-ayodele/quote-optimizer/internal/entity"
	"github.com/joseph-ayodele/quote-optimizer/internal/validate"
)

// DocumentInput is one raw quote handed to a run.
type DocumentInput struct {
	ID           string `json:"id"`
	Format       string `json:"format"`
	Bytes        []byte `json:"bytes"`
	VendorHint   string `json:"vendor_hint,omitempty"`
	FilenameHint string `json:"filename_hint,omitempty"`
}

// Input is everything a run needs.
type Input struct {
	Documents []DocumentInput `json:"documents"`
	// Rules nil means compliance.DefaultRules; an empty slice means no rules.
	Rules []entity.ComplianceRule `json:"rules,omitempty"`
	Mode  entity.Mode             `json:"mode,omitempty"`
	// Extractor overrides the analyzer's default extraction capability by name.
	Extractor string `json:"extractor,omitempty"`
}

type DocumentStatus string

const (
	DocumentOK       DocumentStatus = "ok"
	DocumentDegraded DocumentStatus = "degraded"
	DocumentFailed   DocumentStatus = "failed"
)

// DocumentReport summarizes what happened to one input document.
type DocumentReport struct {
	DocumentID           string           `json:"document_id"`
	Format               string           `json:"format"`
	Status               DocumentStatus   `json:"status"`
	Method               string           `json:"method,omitempty"`
	LoadConfidence       float64          `json:"load_confidence"`
	Extractor            string           `json:"extractor,omitempty"`
	ExtractionConfidence float64          `json:"extraction_confidence"`
	Vendor               string           `json:"vendor,omitempty"`
	VendorKey            string           `json:"vendor_key,omitempty"`
	Currency             string           `json:"currency,omitempty"`
	LineItems            int              `json:"line_items"`
	Validation           *validate.Report `json:"validation,omitempty"`
	Error                string           `json:"error,omitempty"`
	Elapsed              time.Duration    `json:"elapsed_ns"`
}

// Result is the sole output contract of a run.
type Result struct {
	RunID             string                    `json:"run_id"`
	StartedAt         time.Time                 `json:"started_at"`
	FinishedAt        time.Time                 `json:"finished_at"`
	Vendors           []entity.Vendor           `json:"vendors"`
	Items             []entity.NormalizedItem   `json:"items"`
	Matrix            entity.ComparisonMatrix   `json:"matrix"`
	Recommendation    entity.Recommendation     `json:"recommendation"`
	Alternative       *entity.Recommendation    `json:"alternative,omitempty"`
	Compliance        []entity.ComplianceResult `json:"compliance"`
	ComplianceSummary compliance.Summary        `json:"compliance_summary"`
	Warnings          []entity.Warning          `json:"warnings"`
	Documents         []DocumentReport          `json:"documents"`
}
