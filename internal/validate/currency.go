package validate

import (
	"fmt"
	"strings"

	"golang.org/x/text/currency"

	"github.com/joseph-ayodele/quote-optimizer/internal/entity"
)

// DefaultRates are approximate US-dollar values of one unit of each currency.
var DefaultRates = map[string]float64{
	"USD": 1.0,
	"EUR": 1.08,
	"GBP": 1.26,
	"CAD": 0.74,
	"AUD": 0.66,
	"JPY": 0.0067,
}

// ParseCurrency canonicalizes an ISO 4217 code.
func ParseCurrency(code string) (string, error) {
	u, err := currency.ParseISO(strings.TrimSpace(code))
	if err != nil {
		return "", fmt.Errorf("currency %q: %w", code, err)
	}
	return u.String(), nil
}

// convert moves every price of the document into the base currency. A
// document with no currency is taken to be in base currency; one with a
// currency missing from the rate table is left unconverted and flagged.
func (v *Validator) convert(q entity.ExtractedQuote) (entity.ExtractedQuote, []entity.Warning) {
	base, err := ParseCurrency(v.opts.BaseCurrency)
	if err != nil {
		base = strings.ToUpper(v.opts.BaseCurrency)
	}
	var warns []entity.Warning
	converted := map[string]bool{}

	items := make([]entity.LineItem, len(q.Items))
	for i, it := range q.Items {
		code := it.Currency
		if code == "" {
			code = q.Currency
		}
		rate, ok, known := v.rate(code, base)
		switch {
		case !known:
			it = it.WithFlag(FlagUnknownCurrency)
			if !converted["!"+code] {
				converted["!"+code] = true
				warns = append(warns, entity.Warning{
					DocumentID: q.DocumentID,
					Kind:       entity.WarnCurrency,
					Message:    fmt.Sprintf("no exchange rate for %s; prices left unconverted", code),
				})
			}
		case ok:
			it = it.WithFlag(FlagConverted)
			it.UnitPrice = scale(it.UnitPrice, rate)
			it.LineTotal = scale(it.LineTotal, rate)
			if !converted[code] {
				converted[code] = true
				warns = append(warns, entity.Warning{
					DocumentID: q.DocumentID,
					Kind:       entity.WarnCurrency,
					Message:    fmt.Sprintf("converted %s to %s at %.4f", code, base, rate),
				})
			}
			it.Currency = base
		default:
			it = it.Clone()
			it.Currency = base
		}
		items[i] = it
	}
	q.Items = items

	if rate, ok, _ := v.rate(q.Currency, base); ok {
		q.QuoteTotal = scale(q.QuoteTotal, rate)
	}
	if q.Currency == "" || converted[q.Currency] {
		q.Currency = base
	}
	return q, warns
}

// rate returns the multiplier from code to base. ok is false when no
// conversion is needed; known is false when code cannot be converted.
func (v *Validator) rate(code, base string) (rate float64, ok, known bool) {
	if code == "" || strings.EqualFold(code, base) {
		return 1, false, true
	}
	c, err := ParseCurrency(code)
	if err != nil {
		return 0, false, false
	}
	from, fok := v.opts.Rates[c]
	to, tok := v.opts.Rates[base]
	if !fok || !tok || to == 0 {
		return 0, false, false
	}
	return from / to, true, true
}

func scale(e entity.Extracted[float64], rate float64) entity.Extracted[float64] {
	if !e.Present {
		return e
	}
	e.Value *= rate
	return e
}
