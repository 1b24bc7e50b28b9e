package entity

// RuleKind names a compliance predicate.
type RuleKind string

const (
	RuleMinVendors            RuleKind = "min_vendors"
	RuleCertificationRequired RuleKind = "certification_required"
	RulePriceCeiling          RuleKind = "price_ceiling"
	RuleCustomPredicate       RuleKind = "custom_predicate"
)

// ComplianceRule is a configurable constraint checked against a comparison and its recommendation.
type ComplianceRule struct {
	ID         string         `json:"rule_id"`
	Kind       RuleKind       `json:"kind"`
	Parameters map[string]any `json:"parameters,omitempty"`
}

// ComplianceResult is the outcome of one rule.
type ComplianceResult struct {
	RuleID string `json:"rule_id"`
	Passed bool   `json:"passed"`
	Detail string `json:"detail"`
}
