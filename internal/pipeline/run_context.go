package pipeline

import (
	"log/slog"
	"time"

	"github.com/joseph-ayodele/quote-optimizer/internal/entity"
	"github.com/joseph-ayodele/quote-optimizer/internal/extract"
	"github.com/joseph-ayodele/quote-optimizer/internal/normalize"
)

// RunContext is the state of one analysis run. It is created by Run, passed
// to each stage and dropped when Run returns. The per-document stage only
// writes its own slot in outcomes; everything else is filled single-threaded
// after extraction completes.
type RunContext struct {
	ID        string
	StartedAt time.Time
	Mode      entity.Mode
	Rules     []entity.ComplianceRule
	Extractor extract.FieldExtractor
	Logger    *slog.Logger

	documents  []DocumentInput
	outcomes   []documentOutcome
	identities normalize.Result
	matrix     entity.ComparisonMatrix
	warnings   []entity.Warning
}

// documentOutcome is what the per-document stage produced.
type documentOutcome struct {
	quote   entity.ExtractedQuote
	report  DocumentReport
	ok      bool
	started bool
}

func (rc *RunContext) warn(w ...entity.Warning) {
	rc.warnings = append(rc.warnings, w...)
}

// quotes returns the extractions that reached validation, in input order.
func (rc *RunContext) quotes() []entity.ExtractedQuote {
	out := make([]entity.ExtractedQuote, 0, len(rc.outcomes))
	for _, o := range rc.outcomes {
		if o.ok {
			out = append(out, o.quote)
		}
	}
	return out
}
