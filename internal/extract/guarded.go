package extract

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/joseph-ayodele/quote-optimizer/internal/entity"
)

// Guarded runs an extractor under a timeout. A timeout or failure of the
// inner extractor yields a degraded result at minimal confidence instead of
// an error, so one bad document does not fail a batch. Cancellation of the
// parent context is still returned as an error.
type Guarded struct {
	inner   FieldExtractor
	timeout time.Duration
	logger  *slog.Logger
}

func NewGuarded(inner FieldExtractor, timeout time.Duration, logger *slog.Logger) *Guarded {
	if logger == nil {
		logger = slog.Default()
	}
	return &Guarded{inner: inner, timeout: timeout, logger: logger}
}

func (g *Guarded) Name() string { return g.inner.Name() }

type extractOutcome struct {
	q   entity.ExtractedQuote
	err error
}

func (g *Guarded) ExtractFields(ctx context.Context, doc entity.QuoteDocument) (entity.ExtractedQuote, error) {
	if err := ctx.Err(); err != nil {
		return entity.ExtractedQuote{}, err
	}
	var (
		cctx   context.Context
		cancel context.CancelFunc
	)
	if g.timeout > 0 {
		cctx, cancel = context.WithTimeout(ctx, g.timeout)
	} else {
		cctx, cancel = context.WithCancel(ctx)
	}
	defer cancel()

	// buffered so an abandoned extractor can still finish and exit
	done := make(chan extractOutcome, 1)
	go func() {
		q, err := g.inner.ExtractFields(cctx, doc)
		done <- extractOutcome{q: q, err: err}
	}()

	var out extractOutcome
	select {
	case out = <-done:
	case <-cctx.Done():
		out.err = cctx.Err()
	}
	if out.err == nil {
		return out.q, nil
	}
	if ctx.Err() != nil {
		return entity.ExtractedQuote{}, ctx.Err()
	}
	g.logger.Warn("extract.guarded.degraded",
		"document_id", doc.ID,
		"extractor", g.inner.Name(),
		"timeout", g.timeout,
		"error", out.err,
	)
	return Degraded(doc, g.inner.Name(), out.err), nil
}

// Degraded is the result recorded for a document whose extractor failed.
func Degraded(doc entity.QuoteDocument, extractor string, cause error) entity.ExtractedQuote {
	vendor := detectVendor(nil, doc.VendorHint, doc.FilenameHint)
	return entity.ExtractedQuote{
		DocumentID:   doc.ID,
		VendorName:   vendor.name,
		VendorSource: vendor.source,
		Confidence:   entity.MinimalConfidence,
		Extractor:    extractor,
		Warnings: []entity.Warning{{
			DocumentID: doc.ID,
			Kind:       entity.WarnExtractorFailed,
			Message:    fmt.Sprintf("%s extractor failed: %v", extractor, cause),
		}},
	}
}

// Fallback runs Primary and, when it finds no priced items or its confidence
// is below MinConfidence, runs Secondary and keeps the better of the two.
type Fallback struct {
	Primary       FieldExtractor
	Secondary     FieldExtractor
	MinConfidence float64
	logger        *slog.Logger
}

func NewFallback(primary, secondary FieldExtractor, minConfidence float64, logger *slog.Logger) *Fallback {
	if logger == nil {
		logger = slog.Default()
	}
	return &Fallback{Primary: primary, Secondary: secondary, MinConfidence: minConfidence, logger: logger}
}

func (f *Fallback) Name() string { return NameAuto }

func (f *Fallback) ExtractFields(ctx context.Context, doc entity.QuoteDocument) (entity.ExtractedQuote, error) {
	first, err := f.Primary.ExtractFields(ctx, doc)
	if err != nil {
		if ctx.Err() != nil {
			return entity.ExtractedQuote{}, err
		}
		first = Degraded(doc, f.Primary.Name(), err)
	}
	if pricedCount(first.Items) > 0 && first.Confidence >= f.MinConfidence {
		return first, nil
	}
	second, err := f.Secondary.ExtractFields(ctx, doc)
	if err != nil {
		if ctx.Err() != nil {
			return entity.ExtractedQuote{}, err
		}
		f.logger.Warn("extract.fallback.secondary_failed", "document_id", doc.ID, "error", err)
		return first, nil
	}
	f.logger.Info("extract.fallback.compare",
		"document_id", doc.ID,
		"primary_items", len(first.Items),
		"primary_confidence", first.Confidence,
		"secondary_items", len(second.Items),
		"secondary_confidence", second.Confidence,
	)
	if better(second, first) {
		second.Warnings = append(second.Warnings, first.Warnings...)
		return second, nil
	}
	return first, nil
}

func better(a, b entity.ExtractedQuote) bool {
	pa, pb := pricedCount(a.Items), pricedCount(b.Items)
	if pa != pb {
		return pa > pb
	}
	return a.Confidence > b.Confidence
}

func pricedCount(items []entity.LineItem) int {
	n := 0
	for _, it := range items {
		if it.Priced() {
			n++
		}
	}
	return n
}
