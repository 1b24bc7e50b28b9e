package optimize

import (
	"fmt"
	"strings"

	"github.com/dustin/go-humanize"

	"github.com/joseph-ayodele/quote-optimizer/internal/entity"
)

var currencySymbols = map[string]string{
	"USD": "$",
	"EUR": "€",
	"GBP": "£",
	"JPY": "¥",
}

func (o *Optimizer) money(v float64) string {
	sign := ""
	if v < 0 {
		sign, v = "-", -v
	}
	amount := humanize.FormatFloat("#,###.##", v)
	if sym, ok := currencySymbols[o.opts.Currency]; ok {
		return sign + sym + amount
	}
	return sign + o.opts.Currency + " " + amount
}

// itemRationale explains one award against the other offers for the item.
func (o *Optimizer) itemRationale(m entity.ComparisonMatrix, item, vendor string, cost float64, offs []offer) string {
	head := fmt.Sprintf("%s awarded to %s at %s", m.Description(item), m.VendorName(vendor), o.money(cost))
	var next, lowest *offer
	for i := range offs {
		if offs[i].vendor == vendor {
			continue
		}
		if lowest == nil {
			lowest = &offs[i]
		}
		if next == nil && offs[i].cost >= cost {
			next = &offs[i]
		}
	}
	switch {
	case lowest == nil:
		return head + ", the only offer."
	case lowest.cost < cost-cent:
		return fmt.Sprintf("%s, %s above the lowest offer (%s).", head, percent(cost-lowest.cost, lowest.cost), m.VendorName(lowest.vendor))
	case next != nil && !same(next.cost, cost):
		return fmt.Sprintf("%s, %s below the next offer.", head, percent(next.cost-cost, next.cost))
	}
	return fmt.Sprintf("%s, tied with %s.", head, m.VendorName(lowest.vendor))
}

// itemNotes adds what the price comparison alone does not show: how the
// awarded vendor's lead time compares and whether the item's identity was
// ambiguous.
func (o *Optimizer) itemNotes(m entity.ComparisonMatrix, item, vendor string, offs []offer) []string {
	var out []string
	if c, ok := m.Cell(item, vendor); ok {
		if own, ok := c.LeadTimeDays.Get(); ok {
			fastest, fastVendor := -1, ""
			for _, off := range offs {
				if off.vendor == vendor {
					continue
				}
				oc, _ := m.Cell(item, off.vendor)
				if d, ok := oc.LeadTimeDays.Get(); ok && (fastest < 0 || d < fastest) {
					fastest, fastVendor = d, off.vendor
				}
			}
			switch {
			case fastest < 0:
			case own < fastest:
				out = append(out, fmt.Sprintf("%s: delivery advantage, %s %s against %s from %s.",
					m.Description(item), m.VendorName(vendor), delivers(own), days(fastest), m.VendorName(fastVendor)))
			case own > fastest:
				out = append(out, fmt.Sprintf("%s: %s quotes %s; %s %s.",
					m.Description(item), m.VendorName(vendor), days(own), m.VendorName(fastVendor), delivers(fastest)))
			}
		}
	}
	if rivals := m.Ambiguous[item]; len(rivals) > 0 {
		quoted := make([]string, len(rivals))
		for i, r := range rivals {
			quoted[i] = fmt.Sprintf("%q", r)
		}
		out = append(out, fmt.Sprintf("%s: identity ambiguous (also plausible: %s), higher-confidence match kept; review before award.",
			m.Description(item), strings.Join(quoted, ", ")))
	}
	return out
}

func delivers(n int) string {
	if n == 0 {
		return "delivers same day"
	}
	return "delivers in " + days(n)
}

func days(n int) string {
	switch n {
	case 0:
		return "same day"
	case 1:
		return "1 day"
	}
	return fmt.Sprintf("%d days", n)
}

func (o *Optimizer) gapRationale(gaps []entity.Gap) []string {
	out := make([]string, 0, len(gaps))
	for _, g := range gaps {
		out = append(out, fmt.Sprintf("%s is unresolved (%s) and excluded from the total.", g.Description, g.Reason))
	}
	return out
}

func percent(part, whole float64) string {
	if whole <= 0 {
		return "n/a"
	}
	return fmt.Sprintf("%.1f%%", part/whole*100)
}

func joinNames(names []string) string {
	switch len(names) {
	case 0:
		return "no one"
	case 1:
		return names[0]
	}
	return strings.Join(names[:len(names)-1], ", ") + " and " + names[len(names)-1]
}
