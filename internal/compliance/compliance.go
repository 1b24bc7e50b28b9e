// Package compliance annotates a recommendation with rule outcomes. Rules
// never change the recommendation.
package compliance

import (
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"github.com/joseph-ayodele/quote-optimizer/internal/entity"
)

// Predicate evaluates a custom_predicate rule.
type Predicate func(rule entity.ComplianceRule, m entity.ComparisonMatrix, rec entity.Recommendation) (passed bool, detail string, err error)

// Built-in custom predicate names.
const (
	PredicateMaxSingleVendorShare = "max_single_vendor_share"
	PredicateNoGaps               = "no_gaps"
	PredicateMinConfidence        = "min_confidence"
	PredicateNoCorrections        = "no_corrections"
)

func adapt(c check) Predicate {
	return func(rule entity.ComplianceRule, m entity.ComparisonMatrix, rec entity.Recommendation) (bool, string, error) {
		return c(params{rule: rule}, m, rec)
	}
}

// Registry holds named custom predicates. It is safe for concurrent use.
type Registry struct {
	mu    sync.RWMutex
	preds map[string]Predicate
}

// NewRegistry returns a registry holding the built-in predicates.
func NewRegistry() *Registry {
	r := &Registry{preds: map[string]Predicate{}}
	r.Register(PredicateMaxSingleVendorShare, adapt(maxSingleVendorShare))
	r.Register(PredicateNoGaps, adapt(noGaps))
	r.Register(PredicateMinConfidence, adapt(minConfidence))
	r.Register(PredicateNoCorrections, adapt(noCorrections))
	return r
}

// Register adds or replaces a predicate.
func (r *Registry) Register(name string, p Predicate) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.preds[name] = p
}

func (r *Registry) lookup(name string) (Predicate, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.preds[name]
	return p, ok
}

// Names returns the registered predicate names in order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.preds))
	for n := range r.preds {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}

// DefaultRules asks for at least two priced quotes.
func DefaultRules() []entity.ComplianceRule {
	return []entity.ComplianceRule{{
		ID:         "min-two-quotes",
		Kind:       entity.RuleMinVendors,
		Parameters: map[string]any{"min": 2},
	}}
}

type Engine struct {
	registry *Registry
	logger   *slog.Logger
}

// New returns an Engine. A nil registry uses NewRegistry.
func New(registry *Registry, logger *slog.Logger) *Engine {
	if registry == nil {
		registry = NewRegistry()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{registry: registry, logger: logger}
}

// Validate checks rule kinds and custom predicate names without evaluating anything.
func (e *Engine) Validate(rules []entity.ComplianceRule) error {
	for i, r := range withIDs(rules) {
		if _, err := e.resolve(r); err != nil {
			return fmt.Errorf("rule %d: %w", i, err)
		}
	}
	return nil
}

func (e *Engine) resolve(rule entity.ComplianceRule) (Predicate, error) {
	switch rule.Kind {
	case entity.RuleMinVendors:
		return adapt(minVendors), nil
	case entity.RuleCertificationRequired:
		return adapt(certificationRequired), nil
	case entity.RulePriceCeiling:
		return adapt(priceCeiling), nil
	case entity.RuleCustomPredicate:
		name, err := params{rule: rule}.str("name")
		if err != nil {
			return nil, err
		}
		p, ok := e.registry.lookup(name)
		if !ok {
			return nil, &InvalidRuleParameterError{RuleID: rule.ID, Param: "name", Reason: fmt.Sprintf("names unregistered predicate %q", name)}
		}
		return p, nil
	}
	return nil, &entity.UnsupportedRuleError{RuleID: rule.ID, Kind: string(rule.Kind)}
}

// Evaluate runs every rule against the matrix and recommendation. Rule kinds
// are checked before anything is evaluated, so an unsupported kind fails the
// whole call. Results keep the rule order.
func (e *Engine) Evaluate(rules []entity.ComplianceRule, m entity.ComparisonMatrix, rec entity.Recommendation) ([]entity.ComplianceResult, error) {
	rules = withIDs(rules)
	preds := make([]Predicate, len(rules))
	for i, r := range rules {
		p, err := e.resolve(r)
		if err != nil {
			return nil, err
		}
		preds[i] = p
	}

	results := make([]entity.ComplianceResult, 0, len(rules))
	for i, r := range rules {
		passed, detail, err := preds[i](r, m, rec)
		if err != nil {
			return nil, err
		}
		results = append(results, entity.ComplianceResult{RuleID: r.ID, Passed: passed, Detail: detail})
		e.logger.Debug("compliance.rule",
			"rule_id", r.ID,
			"kind", r.Kind,
			"passed", passed,
		)
	}
	return results, nil
}

func withIDs(rules []entity.ComplianceRule) []entity.ComplianceRule {
	out := make([]entity.ComplianceRule, len(rules))
	for i, r := range rules {
		if r.ID == "" {
			r.ID = fmt.Sprintf("%s-%d", r.Kind, i+1)
		}
		out[i] = r
	}
	return out
}

// Summary aggregates rule outcomes.
type Summary struct {
	Total  int     `json:"total"`
	Passed int     `json:"passed"`
	Failed int     `json:"failed"`
	Score  float64 `json:"score"`
}

// Summarize scores results as passed / total × 100. No rules scores 100.
func Summarize(results []entity.ComplianceResult) Summary {
	s := Summary{Total: len(results), Score: 100}
	for _, r := range results {
		if r.Passed {
			s.Passed++
		} else {
			s.Failed++
		}
	}
	if s.Total > 0 {
		s.Score = float64(s.Passed) / float64(s.Total) * 100
	}
	return s
}
