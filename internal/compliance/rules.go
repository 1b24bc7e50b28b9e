package compliance

import (
	"fmt"
	"math"
	"strings"

	"github.com/dustin/go-humanize"

	"github.com/joseph-ayodele/quote-optimizer/internal/entity"
)

// check evaluates one rule. It returns a parameter error when the rule is malformed.
type check func(p params, m entity.ComparisonMatrix, rec entity.Recommendation) (bool, string, error)

// quotedVendors returns the vendors holding at least one priced offer.
func quotedVendors(m entity.ComparisonMatrix) []string {
	var out []string
	for _, v := range m.VendorKeys {
		for _, item := range m.ItemKeys {
			if c, ok := m.Cell(item, v); ok && c.Eligible() {
				out = append(out, v)
				break
			}
		}
	}
	return out
}

func minVendors(p params, m entity.ComparisonMatrix, _ entity.Recommendation) (bool, string, error) {
	n, err := p.number("min")
	if err != nil {
		return false, "", err
	}
	if n < 1 || n != math.Trunc(n) {
		return false, "", p.invalid("min", "must be a positive integer")
	}
	got := len(quotedVendors(m))
	if got >= int(n) {
		return true, fmt.Sprintf("%d vendors submitted priced quotes (minimum %d)", got, int(n)), nil
	}
	return false, fmt.Sprintf("only %d vendor(s) submitted priced quotes; %d required", got, int(n)), nil
}

func certificationRequired(p params, m entity.ComparisonMatrix, rec entity.Recommendation) (bool, string, error) {
	cert, err := p.str("certification")
	if err != nil {
		return false, "", err
	}
	listed, err := p.list("certified_vendors")
	if err != nil {
		return false, "", err
	}
	certified := map[string]bool{}
	for _, v := range listed {
		certified[strings.ToLower(strings.TrimSpace(v))] = true
	}
	var missing []string
	for _, v := range rec.VendorsUsed() {
		if !certified[strings.ToLower(v)] && !certified[strings.ToLower(m.VendorName(v))] {
			missing = append(missing, m.VendorName(v))
		}
	}
	if len(missing) > 0 {
		return false, fmt.Sprintf("awarded vendors without %s: %s", cert, strings.Join(missing, ", ")), nil
	}
	return true, fmt.Sprintf("all awarded vendors hold %s", cert), nil
}

func priceCeiling(p params, m entity.ComparisonMatrix, rec entity.Recommendation) (bool, string, error) {
	if !p.has("max_total") && !p.has("max_unit_price") {
		return false, "", p.invalid("max_total", "or max_unit_price is required")
	}
	var item string
	if p.has("item") {
		s, err := p.str("item")
		if err != nil {
			return false, "", err
		}
		item = s
	}
	var failures []string
	if p.has("max_total") {
		limit, err := p.positive("max_total")
		if err != nil {
			return false, "", err
		}
		total := rec.TotalCost
		if item != "" {
			total = 0
			for _, a := range rec.Assignments {
				if a.ItemKey == item {
					total += a.Cost
				}
			}
		}
		if total > limit {
			failures = append(failures, fmt.Sprintf("total %s exceeds ceiling %s", money(total), money(limit)))
		}
	}
	if p.has("max_unit_price") {
		limit, err := p.positive("max_unit_price")
		if err != nil {
			return false, "", err
		}
		for _, a := range rec.Assignments {
			if item != "" && a.ItemKey != item {
				continue
			}
			c, _ := m.Cell(a.ItemKey, a.VendorKey)
			price, ok := c.UnitPrice.Get()
			if !ok {
				if q, qok := c.Quantity.Get(); qok && q > 0 {
					price, ok = a.Cost/q, true
				}
			}
			if ok && price > limit {
				failures = append(failures, fmt.Sprintf("%s unit price %s exceeds %s", m.Description(a.ItemKey), money(price), money(limit)))
			}
		}
	}
	if len(failures) > 0 {
		return false, strings.Join(failures, "; "), nil
	}
	return true, "all awarded prices within ceiling", nil
}

func maxSingleVendorShare(p params, _ entity.ComparisonMatrix, rec entity.Recommendation) (bool, string, error) {
	limit, err := p.fraction("max_share")
	if err != nil {
		return false, "", err
	}
	if rec.TotalCost <= 0 {
		return true, "nothing awarded", nil
	}
	byVendor := map[string]float64{}
	for _, a := range rec.Assignments {
		byVendor[a.VendorKey] += a.Cost
	}
	top, topVendor := 0.0, ""
	for _, v := range rec.VendorsUsed() {
		if byVendor[v] > top {
			top, topVendor = byVendor[v], v
		}
	}
	share := top / rec.TotalCost
	detail := fmt.Sprintf("%s holds %.0f%% of awarded spend (limit %.0f%%)", topVendor, share*100, limit*100)
	return share <= limit+1e-9, detail, nil
}

func noGaps(_ params, _ entity.ComparisonMatrix, rec entity.Recommendation) (bool, string, error) {
	if n := len(rec.Gaps); n > 0 {
		return false, fmt.Sprintf("%d item(s) left unresolved", n), nil
	}
	return true, "every item is awarded", nil
}

func minConfidence(p params, m entity.ComparisonMatrix, rec entity.Recommendation) (bool, string, error) {
	limit, err := p.fraction("min")
	if err != nil {
		return false, "", err
	}
	var low []string
	for _, a := range rec.Assignments {
		if c, ok := m.Cell(a.ItemKey, a.VendorKey); ok && c.Confidence < limit {
			low = append(low, fmt.Sprintf("%s (%.2f)", m.Description(a.ItemKey), c.Confidence))
		}
	}
	if len(low) > 0 {
		return false, "low-confidence awards: " + strings.Join(low, ", "), nil
	}
	return true, fmt.Sprintf("all awards extracted with confidence >= %.2f", limit), nil
}

func noCorrections(_ params, m entity.ComparisonMatrix, rec entity.Recommendation) (bool, string, error) {
	var corrected []string
	for _, a := range rec.Assignments {
		if c, ok := m.Cell(a.ItemKey, a.VendorKey); ok && c.Corrected {
			corrected = append(corrected, m.Description(a.ItemKey))
		}
	}
	if len(corrected) > 0 {
		return false, "awards rely on corrected totals: " + strings.Join(corrected, ", "), nil
	}
	return true, "no awarded price was auto-corrected", nil
}

func money(v float64) string {
	return humanize.FormatFloat("#,###.##", v)
}
