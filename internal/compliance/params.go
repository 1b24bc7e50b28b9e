package compliance

import (
	"encoding/json"
	"strconv"
	"strings"

	"github.com/joseph-ayodele/quote-optimizer/internal/entity"
)

// params reads typed values from a rule's parameter map. Values decoded from
// JSON arrive as float64, []any and string; Go callers may pass native types.
type params struct {
	rule entity.ComplianceRule
}

func (p params) invalid(name, reason string) error {
	return &InvalidRuleParameterError{RuleID: p.rule.ID, Param: name, Reason: reason}
}

func (p params) has(name string) bool {
	_, ok := p.rule.Parameters[name]
	return ok
}

func (p params) number(name string) (float64, error) {
	raw, ok := p.rule.Parameters[name]
	if !ok {
		return 0, p.invalid(name, "is required")
	}
	switch v := raw.(type) {
	case float64:
		return v, nil
	case float32:
		return float64(v), nil
	case int:
		return float64(v), nil
	case int64:
		return float64(v), nil
	case json.Number:
		f, err := v.Float64()
		if err != nil {
			return 0, p.invalid(name, "must be a number")
		}
		return f, nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return 0, p.invalid(name, "must be a number")
		}
		return f, nil
	}
	return 0, p.invalid(name, "must be a number")
}

func (p params) fraction(name string) (float64, error) {
	v, err := p.number(name)
	if err != nil {
		return 0, err
	}
	if v < 0 || v > 1 {
		return 0, p.invalid(name, "must be between 0 and 1")
	}
	return v, nil
}

func (p params) positive(name string) (float64, error) {
	v, err := p.number(name)
	if err != nil {
		return 0, err
	}
	if v <= 0 {
		return 0, p.invalid(name, "must be positive")
	}
	return v, nil
}

func (p params) str(name string) (string, error) {
	raw, ok := p.rule.Parameters[name]
	if !ok {
		return "", p.invalid(name, "is required")
	}
	s, ok := raw.(string)
	if !ok || strings.TrimSpace(s) == "" {
		return "", p.invalid(name, "must be a non-empty string")
	}
	return strings.TrimSpace(s), nil
}

func (p params) list(name string) ([]string, error) {
	raw, ok := p.rule.Parameters[name]
	if !ok {
		return nil, p.invalid(name, "is required")
	}
	switch v := raw.(type) {
	case []string:
		return v, nil
	case []any:
		out := make([]string, 0, len(v))
		for _, e := range v {
			s, ok := e.(string)
			if !ok {
				return nil, p.invalid(name, "must be a list of strings")
			}
			out = append(out, s)
		}
		return out, nil
	case string:
		return strings.Split(v, ","), nil
	}
	return nil, p.invalid(name, "must be a list of strings")
}
