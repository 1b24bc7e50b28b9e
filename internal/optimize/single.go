package optimize

import (
	"fmt"

	"github.com/joseph-ayodele/quote-optimizer/internal/entity"
)

func (o *Optimizer) single(m entity.ComparisonMatrix) entity.Recommendation {
	rec := entity.Recommendation{Mode: entity.ModeSingleVendor, Assignments: []entity.Assignment{}, Gaps: []entity.Gap{}}
	totals := o.vendorTotals(m)
	rec.VendorTotals = totals
	if len(totals) == 0 || totals[0].Covered == 0 {
		for _, item := range m.ItemKeys {
			rec.Gaps = append(rec.Gaps, noOffersGap(m, item))
		}
		rec.Rationale = append(rec.Rationale, "No vendor has a priced offer; nothing can be awarded.")
		return rec
	}

	best := totals[0]
	rec.SelectedVendor = best.VendorKey
	name := m.VendorName(best.VendorKey)
	var itemLines []string
	for _, item := range m.ItemKeys {
		offs := offers(m, item)
		if len(offs) == 0 {
			rec.Gaps = append(rec.Gaps, noOffersGap(m, item))
			continue
		}
		c, quoted := m.Cell(item, best.VendorKey)
		cost, eligible := c.Cost()
		if !quoted || !eligible {
			reason := fmt.Sprintf("%s did not quote this item", name)
			if quoted {
				reason = fmt.Sprintf("%s quoted this item without a usable price", name)
			}
			others := make([]string, 0, len(offs))
			for _, off := range offs {
				others = append(others, m.VendorName(off.vendor))
			}
			rec.Gaps = append(rec.Gaps, entity.Gap{
				ItemKey:     item,
				Description: m.Description(item),
				Reason:      fmt.Sprintf("%s; available from %s", reason, joinNames(others)),
			})
			continue
		}
		rec.Assignments = append(rec.Assignments, entity.Assignment{ItemKey: item, VendorKey: best.VendorKey, QuantityFraction: 1, Cost: cost})
		rec.TotalCost += cost
		itemLines = append(itemLines, o.itemRationale(m, item, best.VendorKey, cost, offs))
		itemLines = append(itemLines, o.itemNotes(m, item, best.VendorKey, offs)...)
	}

	worst := totals[len(totals)-1]
	rec.SavingsVsWorst = worst.PenalizedCost - best.PenalizedCost
	if len(totals) > 1 {
		next := totals[1]
		rec.Rationale = append(rec.Rationale, fmt.Sprintf("%s selected as single-source, saving %s over the next-best single vendor (%s).",
			name, o.money(next.PenalizedCost-best.PenalizedCost), m.VendorName(next.VendorKey)))
	} else {
		rec.Rationale = append(rec.Rationale, fmt.Sprintf("%s selected as single-source: the only vendor with priced offers.", name))
	}
	if best.Missing > 0 {
		rec.Rationale = append(rec.Rationale, fmt.Sprintf("%s does not supply %d priced item(s); they are listed as gaps.", name, best.Missing))
	}
	rec.Rationale = append(rec.Rationale, itemLines...)
	rec.Rationale = append(rec.Rationale, o.gapRationale(rec.Gaps)...)
	return rec
}
