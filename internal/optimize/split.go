package optimize

import (
	"fmt"

	"github.com/joseph-ayodele/quote-optimizer/internal/entity"
)

// maxSplitVendors is the vendor count above which a split award gets a coordination note.
const maxSplitVendors = 2

// split awards each item to its cheapest vendor. Items share no capacity, so
// the per-item minimum is the global minimum.
func (o *Optimizer) split(m entity.ComparisonMatrix) entity.Recommendation {
	rec := entity.Recommendation{Mode: entity.ModeSplit, Assignments: []entity.Assignment{}, Gaps: []entity.Gap{}}
	totals := o.vendorTotals(m)
	rec.VendorTotals = totals

	var itemLines []string
	for _, item := range m.ItemKeys {
		offs := offers(m, item)
		if len(offs) == 0 {
			rec.Gaps = append(rec.Gaps, noOffersGap(m, item))
			continue
		}
		win := offs[0]
		rec.Assignments = append(rec.Assignments, entity.Assignment{ItemKey: item, VendorKey: win.vendor, QuantityFraction: 1, Cost: win.cost})
		rec.TotalCost += win.cost
		itemLines = append(itemLines, o.itemRationale(m, item, win.vendor, win.cost, offs))
		itemLines = append(itemLines, o.itemNotes(m, item, win.vendor, offs)...)
	}
	if len(rec.Assignments) == 0 {
		rec.Rationale = append(rec.Rationale, "No vendor has a priced offer; nothing can be awarded.")
		rec.Rationale = append(rec.Rationale, o.gapRationale(rec.Gaps)...)
		return rec
	}

	best, worst := totals[0], totals[len(totals)-1]
	rec.SavingsVsWorst = max(worst.PenalizedCost-rec.TotalCost, 0)
	rec.SavingsVsBestSingle = max(best.PenalizedCost-rec.TotalCost, 0)
	used := rec.VendorsUsed()
	if rec.SavingsVsBestSingle > cent {
		rec.Rationale = append(rec.Rationale, fmt.Sprintf("Split purchasing saves %s over best single-source option (%s).",
			o.money(rec.SavingsVsBestSingle), m.VendorName(best.VendorKey)))
	} else {
		rec.Rationale = append(rec.Rationale, fmt.Sprintf("Split purchasing costs the same as the best single-source option (%s).",
			m.VendorName(best.VendorKey)))
	}
	if len(used) > maxSplitVendors {
		rec.Rationale = append(rec.Rationale, fmt.Sprintf("Award spans %d vendors; expect coordination overhead for separate orders and deliveries.", len(used)))
	}
	rec.Rationale = append(rec.Rationale, itemLines...)
	rec.Rationale = append(rec.Rationale, o.gapRationale(rec.Gaps)...)
	return rec
}
