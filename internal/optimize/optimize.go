// Package optimize turns a comparison matrix into an award recommendation:
// one vendor for everything it can supply, or the cheapest vendor per item.
package optimize

import (
	"fmt"
	"log/slog"
	"math"
	"sort"

	"github.com/joseph-ayodele/quote-optimizer/internal/common"
	"github.com/joseph-ayodele/quote-optimizer/internal/entity"
)

const (
	// DefaultMissingPenalty is the premium, as a fraction of the highest
	// offer, charged to a single vendor for each priced item it did not quote.
	DefaultMissingPenalty = 0.25
	// cent is the tolerance below which two costs are equal.
	cent = 0.005
)

type Options struct {
	MissingPenalty float64
	// Currency is the ISO code of the matrix prices, used in rationale text.
	Currency string
}

type Optimizer struct {
	opts   Options
	logger *slog.Logger
}

func New(opts Options, logger *slog.Logger) *Optimizer {
	if logger == nil {
		logger = slog.Default()
	}
	if opts.MissingPenalty <= 0 {
		opts.MissingPenalty = DefaultMissingPenalty
	}
	if opts.Currency == "" {
		opts.Currency = "USD"
	}
	return &Optimizer{opts: opts, logger: logger}
}

// Recommend computes the recommendation for mode. ModeAuto returns the
// better of the two modes; use Auto to get both.
func (o *Optimizer) Recommend(m entity.ComparisonMatrix, mode entity.Mode) (entity.Recommendation, error) {
	switch mode {
	case entity.ModeSingleVendor:
		return o.single(m), nil
	case entity.ModeSplit:
		return o.split(m), nil
	case entity.ModeAuto, "":
		rec, _ := o.Auto(m)
		return rec, nil
	}
	return entity.Recommendation{}, fmt.Errorf("%w: unknown mode %q", common.ErrInvalidInput, mode)
}

// Auto computes both modes. Split is preferred when it saves money over the
// best single source or leaves fewer gaps; otherwise single sourcing wins.
func (o *Optimizer) Auto(m entity.ComparisonMatrix) (rec, alt entity.Recommendation) {
	single, split := o.single(m), o.split(m)
	if len(split.Gaps) < len(single.Gaps) || split.SavingsVsBestSingle > cent {
		split.Rationale = append(split.Rationale, fmt.Sprintf("Split purchasing preferred over single-source award to %s.", m.VendorName(single.SelectedVendor)))
		rec, alt = split, single
	} else {
		single.Rationale = append(single.Rationale, "Single-source award preferred: splitting would not lower the cost.")
		rec, alt = single, split
	}
	o.logger.Debug("optimize.auto",
		"chosen", rec.Mode,
		"total_cost", rec.TotalCost,
		"alternative_cost", alt.TotalCost,
	)
	return rec, alt
}

// offer is one eligible cell.
type offer struct {
	vendor     string
	cost       float64
	confidence float64
}

// offers returns the eligible offers for item ordered cheapest first, then
// by higher confidence, then by vendor key.
func offers(m entity.ComparisonMatrix, item string) []offer {
	var out []offer
	for v, c := range m.Cells[item] {
		if cost, ok := c.Cost(); ok {
			out = append(out, offer{vendor: v, cost: cost, confidence: c.Confidence})
		}
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if !same(a.cost, b.cost) {
			return a.cost < b.cost
		}
		if a.confidence != b.confidence {
			return a.confidence > b.confidence
		}
		return a.vendor < b.vendor
	})
	return out
}

// vendorTotals scores every vendor as a single source. A priced item the
// vendor lacks costs the highest offer for it plus the missing penalty.
func (o *Optimizer) vendorTotals(m entity.ComparisonMatrix) []entity.VendorTotal {
	worst := map[string]float64{}
	for _, item := range m.ItemKeys {
		if offs := offers(m, item); len(offs) > 0 {
			worst[item] = offs[len(offs)-1].cost
		}
	}
	totals := make([]entity.VendorTotal, 0, len(m.VendorKeys))
	for _, v := range m.VendorKeys {
		vt := entity.VendorTotal{VendorKey: v}
		var conf float64
		for _, item := range m.ItemKeys {
			high, priced := worst[item]
			if !priced {
				continue
			}
			c, ok := m.Cell(item, v)
			cost, eligible := c.Cost()
			if ok && eligible {
				vt.Covered++
				vt.Cost += cost
				conf += c.Confidence
				continue
			}
			vt.Missing++
			vt.PenalizedCost += high * (1 + o.opts.MissingPenalty)
		}
		vt.PenalizedCost += vt.Cost
		if vt.Covered > 0 {
			vt.Confidence = conf / float64(vt.Covered)
		}
		totals = append(totals, vt)
	}
	sort.SliceStable(totals, func(i, j int) bool { return rankBefore(totals[i], totals[j]) })
	return totals
}

// rankBefore orders single sources: lowest penalized cost, then highest
// confidence, then vendor key.
func rankBefore(a, b entity.VendorTotal) bool {
	if (a.Covered > 0) != (b.Covered > 0) {
		return a.Covered > 0
	}
	if !same(a.PenalizedCost, b.PenalizedCost) {
		return a.PenalizedCost < b.PenalizedCost
	}
	if a.Confidence != b.Confidence {
		return a.Confidence > b.Confidence
	}
	return a.VendorKey < b.VendorKey
}

func same(a, b float64) bool {
	return math.Abs(a-b) < cent
}

func noOffersGap(m entity.ComparisonMatrix, item string) entity.Gap {
	reason := "no vendor priced this item"
	if n := len(m.Cells[item]); n > 0 {
		reason = fmt.Sprintf("quoted by %d vendor(s) without a usable price", n)
	}
	return entity.Gap{ItemKey: item, Description: m.Description(item), Reason: reason}
}
