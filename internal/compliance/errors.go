package compliance

import (
	"fmt"

	"github.com/joseph-ayodele/quote-optimizer/internal/common"
)

// InvalidRuleParameterError reports a missing or malformed rule parameter.
type InvalidRuleParameterError struct {
	RuleID string
	Param  string
	Reason string
}

func (e *InvalidRuleParameterError) Error() string {
	return fmt.Sprintf("rule %q: parameter %q %s", e.RuleID, e.Param, e.Reason)
}

func (e *InvalidRuleParameterError) Unwrap() error { return common.ErrInvalidInput }
