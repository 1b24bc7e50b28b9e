// Package validate checks quote arithmetic. Line totals that disagree with
// quantity × unit price by more than MajorDiscrepancy are replaced; smaller
// disagreements above MinorDiscrepancy are only flagged.
package validate

import (
	"fmt"
	"log/slog"
	"math"

	"github.com/dustin/go-humanize"

	"github.com/joseph-ayodele/quote-optimizer/internal/entity"
)

const (
	// MajorDiscrepancy is the relative line-total error above which the total is recomputed.
	MajorDiscrepancy = 0.20
	// MinorDiscrepancy is the relative error above which a mismatch is flagged.
	MinorDiscrepancy = 0.02
	// epsilon guards the relative error against zero totals.
	epsilon = 0.01
)

// Item flags set by the validator.
const (
	FlagCorrected       = "corrected"
	FlagArithmetic      = "arithmetic_mismatch"
	FlagNonPositive     = "non_positive"
	FlagHighUnitPrice   = "high_unit_price"
	FlagHighQuantity    = "high_quantity"
	FlagPriceSpread     = "price_spread"
	FlagConverted       = "currency_converted"
	FlagUnknownCurrency = "unknown_currency"
)

// Status summarizes how many issues a document has.
type Status string

const (
	StatusValid    Status = "valid"
	StatusMinor    Status = "minor_issues"
	StatusModerate Status = "moderate_issues"
	StatusMajor    Status = "major_issues"
)

// Report is the validator's per-document summary.
type Report struct {
	DocumentID  string `json:"document_id"`
	Issues      int    `json:"issues"`
	Corrections int    `json:"corrections"`
	Score       int    `json:"score"`
	Status      Status `json:"status"`
}

type Options struct {
	// BaseCurrency is the ISO code every price is converted to. Default USD.
	BaseCurrency string
	// Rates are units of the reference currency per unit of each currency.
	// Nil uses DefaultRates.
	Rates map[string]float64
}

type Validator struct {
	opts   Options
	logger *slog.Logger
}

func New(opts Options, logger *slog.Logger) *Validator {
	if logger == nil {
		logger = slog.Default()
	}
	if opts.BaseCurrency == "" {
		opts.BaseCurrency = "USD"
	}
	if opts.Rates == nil {
		opts.Rates = DefaultRates
	}
	return &Validator{opts: opts, logger: logger}
}

// Items checks each line independently and returns revised copies; the input is not modified.
func Items(items []entity.LineItem) ([]entity.LineItem, []entity.Warning) {
	out := make([]entity.LineItem, 0, len(items))
	var warns []entity.Warning
	for _, it := range items {
		rev, w := checkLine(it)
		out = append(out, rev)
		if w != nil {
			warns = append(warns, *w)
		}
	}
	return out, warns
}

func checkLine(it entity.LineItem) (entity.LineItem, *entity.Warning) {
	q, qok := it.Quantity.Get()
	p, pok := it.UnitPrice.Get()
	t, tok := it.LineTotal.Get()
	if !qok || !pok || !tok || it.LineTotal.Source == entity.SourceDerived || it.UnitPrice.Source == entity.SourceDerived {
		return it.Clone(), nil
	}
	computed := q * p
	disc := math.Abs(computed-t) / math.Max(math.Abs(t), epsilon)
	switch {
	case disc > MajorDiscrepancy:
		rev := it.WithFlag(FlagCorrected)
		rev.LineTotal = entity.Found(computed, math.Min(it.Quantity.Confidence, it.UnitPrice.Confidence), entity.SourceDerived)
		rev.Corrected = true
		rev.CorrectionDelta = t - computed
		return rev, &entity.Warning{
			DocumentID: it.SourceDocumentID,
			Kind:       entity.WarnArithmetic,
			Message: fmt.Sprintf("%q: line total %s corrected to %s (%s × %s)",
				it.Description, money(t), money(computed), humanize.Ftoa(q), money(p)),
		}
	case disc > MinorDiscrepancy:
		rev := it.WithFlag(FlagArithmetic)
		return rev, &entity.Warning{
			DocumentID: it.SourceDocumentID,
			Kind:       entity.WarnArithmetic,
			Message: fmt.Sprintf("%q: line total %s differs from %s by %.1f%%, not corrected",
				it.Description, money(t), money(computed), disc*100),
		}
	}
	return it.Clone(), nil
}

// QuoteTotal cross-checks the stated document total against the sum of
// priced lines. It only flags; nothing is corrected.
func QuoteTotal(q entity.ExtractedQuote) *entity.Warning {
	stated, ok := q.QuoteTotal.Get()
	if !ok {
		return nil
	}
	var sum float64
	priced := 0
	for _, it := range q.Items {
		if t, ok := it.Total(); ok {
			sum += t
			priced++
		}
	}
	if priced == 0 {
		return nil
	}
	disc := math.Abs(sum-stated) / math.Max(math.Abs(stated), epsilon)
	if disc <= MinorDiscrepancy {
		return nil
	}
	return &entity.Warning{
		DocumentID: q.DocumentID,
		Kind:       entity.WarnTotalMismatch,
		Message:    fmt.Sprintf("stated total %s differs from line sum %s by %.1f%%", money(stated), money(sum), disc*100),
	}
}

// Validate runs currency conversion, line arithmetic, the quote-total check and
// sanity checks over one document's extraction.
func (v *Validator) Validate(q entity.ExtractedQuote) (entity.ExtractedQuote, Report) {
	out := q
	out.Warnings = append([]entity.Warning(nil), q.Warnings...)

	var cw []entity.Warning
	out, cw = v.convert(out)
	out.Warnings = append(out.Warnings, cw...)

	items, aw := Items(out.Items)
	out.Items = items
	out.Warnings = append(out.Warnings, aw...)

	issues := len(aw)
	if w := QuoteTotal(out); w != nil {
		out.Warnings = append(out.Warnings, *w)
		issues++
	}

	items, sw := sanity(out.Items)
	out.Items = items
	out.Warnings = append(out.Warnings, sw...)
	issues += len(sw)

	rep := Report{DocumentID: q.DocumentID, Issues: issues, Score: score(issues), Status: status(issues)}
	for _, it := range out.Items {
		if it.Corrected {
			rep.Corrections++
		}
	}
	v.logger.Debug("validate.document",
		"document_id", q.DocumentID,
		"issues", rep.Issues,
		"corrections", rep.Corrections,
		"score", rep.Score,
		"status", rep.Status,
	)
	return out, rep
}

func score(issues int) int {
	return 100 - min(10*issues, 80)
}

func status(issues int) Status {
	switch {
	case issues == 0:
		return StatusValid
	case issues <= 2:
		return StatusMinor
	case issues <= 5:
		return StatusModerate
	}
	return StatusMajor
}

func money(v float64) string {
	return humanize.FormatFloat("#,###.##", v)
}
