package entity

import (
	"errors"
	"fmt"
)

var (
	ErrUnsupportedFormat  = errors.New("unsupported format")
	ErrCorruptDocument    = errors.New("corrupt document")
	ErrInconsistentMatrix = errors.New("inconsistent comparison matrix")
	ErrUnsupportedRule    = errors.New("unsupported compliance rule")
)

// UnsupportedFormatError is returned by the loader for formats it cannot read.
type UnsupportedFormatError struct {
	Format string
}

func (e *UnsupportedFormatError) Error() string {
	return fmt.Sprintf("unsupported format: %q", e.Format)
}

func (e *UnsupportedFormatError) Is(target error) bool { return target == ErrUnsupportedFormat }

// CorruptDocumentError means the bytes could not be parsed at all.
type CorruptDocumentError struct {
	DocumentID string
	Format     string
	Cause      error
}

func (e *CorruptDocumentError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("corrupt %s document %q: %v", e.Format, e.DocumentID, e.Cause)
	}
	return fmt.Sprintf("corrupt %s document %q", e.Format, e.DocumentID)
}

func (e *CorruptDocumentError) Unwrap() error { return e.Cause }

func (e *CorruptDocumentError) Is(target error) bool { return target == ErrCorruptDocument }

// InconsistentMatrixError reports a violated matrix invariant. It indicates a defect upstream.
type InconsistentMatrixError struct {
	Reason string
}

func (e *InconsistentMatrixError) Error() string {
	return "inconsistent comparison matrix: " + e.Reason
}

func (e *InconsistentMatrixError) Is(target error) bool { return target == ErrInconsistentMatrix }

// UnsupportedRuleError is returned for an unknown rule kind.
type UnsupportedRuleError struct {
	RuleID string
	Kind   string
}

func (e *UnsupportedRuleError) Error() string {
	return fmt.Sprintf("rule %q: unsupported kind %q", e.RuleID, e.Kind)
}

func (e *UnsupportedRuleError) Is(target error) bool { return target == ErrUnsupportedRule }
