package entity

// FieldSource records how an extracted value was obtained.
type FieldSource string

const (
	SourceExactHeader   FieldSource = "exact_header"
	SourceSynonymHeader FieldSource = "synonym_header"
	SourcePositional    FieldSource = "positional"
	SourcePattern       FieldSource = "pattern"
	SourceModel         FieldSource = "model"
	SourceDerived       FieldSource = "derived"
	SourceHint          FieldSource = "hint"
)

// Field confidences assigned by header matching.
const (
	ConfidenceExactHeader = 1.0
	ConfidenceSynonym     = 0.8
	ConfidencePositional  = 0.5
	ConfidenceDerived     = 0.5
	// MaxIncompleteConfidence caps the extraction confidence of a row that
	// is missing its quantity or its price.
	MaxIncompleteConfidence = 0.3
	// MinimalConfidence is what a document degrades to when its extractor fails.
	MinimalConfidence = 0.05
)

// Extracted is a value that was either found with a confidence or is missing.
// A missing value never reads as a zero value by accident: callers go through Get.
type Extracted[T any] struct {
	Value      T           `json:"value"`
	Confidence float64     `json:"confidence"`
	Source     FieldSource `json:"source,omitempty"`
	Present    bool        `json:"present"`
}

// Found returns a present value.
func Found[T any](v T, confidence float64, source FieldSource) Extracted[T] {
	return Extracted[T]{Value: v, Confidence: clamp01(confidence), Source: source, Present: true}
}

// Missing returns an absent value.
func Missing[T any]() Extracted[T] {
	return Extracted[T]{}
}

// Get returns the value and whether it is present.
func (e Extracted[T]) Get() (T, bool) {
	return e.Value, e.Present
}

// OrElse returns the value when present and def otherwise.
func (e Extracted[T]) OrElse(def T) T {
	if e.Present {
		return e.Value
	}
	return def
}

func clamp01(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 1:
		return 1
	}
	return v
}
