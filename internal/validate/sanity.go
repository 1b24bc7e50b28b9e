package validate

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/joseph-ayodele/quote-optimizer/internal/entity"
)

const (
	maxUnitPrice = 10000
	maxQuantity  = 10000
	// maxSpread is the highest unit-price ratio tolerated between similar items of one document.
	maxSpread = 100
)

var descriptionPrefixes = []string{"item ", "product ", "part ", "sku ", "model "}

// sanity flags implausible values. It never changes amounts.
func sanity(items []entity.LineItem) ([]entity.LineItem, []entity.Warning) {
	out := make([]entity.LineItem, len(items))
	copy(out, items)
	var warns []entity.Warning
	flag := func(i int, f, msg string) {
		out[i] = out[i].WithFlag(f)
		warns = append(warns, entity.Warning{
			DocumentID: out[i].SourceDocumentID,
			Kind:       entity.WarnSanity,
			Message:    fmt.Sprintf("%q: %s", out[i].Description, msg),
		})
	}

	for i, it := range items {
		if q, ok := it.Quantity.Get(); ok {
			switch {
			case q <= 0:
				flag(i, FlagNonPositive, fmt.Sprintf("quantity %g is not positive", q))
			case q > maxQuantity:
				flag(i, FlagHighQuantity, fmt.Sprintf("quantity %g is unusually large", q))
			}
		}
		if p, ok := it.UnitPrice.Get(); ok {
			switch {
			case p <= 0:
				flag(i, FlagNonPositive, fmt.Sprintf("unit price %s is not positive", money(p)))
			case p > maxUnitPrice:
				flag(i, FlagHighUnitPrice, fmt.Sprintf("unit price %s is unusually high", money(p)))
			}
		}
	}

	groups := map[string][]int{}
	for i, it := range items {
		if p, ok := it.UnitPrice.Get(); ok && p > 0 {
			key := groupKey(it.Description)
			if key != "" {
				groups[key] = append(groups[key], i)
			}
		}
	}
	for key, idx := range groups {
		if len(idx) < 2 {
			continue
		}
		lo, hi := items[idx[0]].UnitPrice.Value, items[idx[0]].UnitPrice.Value
		for _, i := range idx[1:] {
			p := items[i].UnitPrice.Value
			lo, hi = min(lo, p), max(hi, p)
		}
		if hi/lo <= maxSpread {
			continue
		}
		for _, i := range idx {
			flag(i, FlagPriceSpread, fmt.Sprintf("unit prices for %q items range %s to %s (%.0fx)", key, money(lo), money(hi), hi/lo))
		}
	}
	return out, warns
}

// groupKey reduces a description to its letters so size and model numbers group together.
func groupKey(desc string) string {
	s := strings.ToLower(strings.TrimSpace(desc))
	for _, p := range descriptionPrefixes {
		s = strings.TrimPrefix(s, p)
	}
	s = strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsSpace(r) {
			return r
		}
		return -1
	}, s)
	return strings.Join(strings.Fields(s), " ")
}
