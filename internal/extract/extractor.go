// Package extract turns loaded quote documents into candidate line items.
//
// Extraction is a capability behind FieldExtractor. Heuristic reads header
// and positional layouts; Model asks a language model. Guarded puts a timeout
// around any extractor and degrades failures to a minimal-confidence result,
// and Fallback tries a second extractor when the first finds nothing usable.
package extract

import (
	"context"

	"github.com/joseph-ayodele/quote-optimizer/internal/entity"
)

const (
	NameHeuristic = "heuristic"
	NameModel     = "llm"
	NameAuto      = "auto"
)

// FieldExtractor converts one document into line items. Implementations keep
// no state across documents and must be safe for concurrent use.
type FieldExtractor interface {
	Name() string
	ExtractFields(ctx context.Context, doc entity.QuoteDocument) (entity.ExtractedQuote, error)
}

// meanConfidence is the average item confidence, or 0 without items.
func meanConfidence(items []entity.LineItem) float64 {
	if len(items) == 0 {
		return 0
	}
	var sum float64
	for _, it := range items {
		sum += it.ExtractionConfidence
	}
	return sum / float64(len(items))
}
