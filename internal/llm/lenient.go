package llm

import (
	"encoding/json"
	"regexp"
	"strconv"
	"strings"
)

var reCurrencyCode = regexp.MustCompile(`^[A-Z]{3}$`)

// SanitizeOptionalFields removes optional fields that don't meet our stricter schema,
// so the overall document can still validate. Required fields are left alone.
func SanitizeOptionalFields(doc []byte) ([]byte, []string, error) {
	var m map[string]any
	if err := json.Unmarshal(doc, &m); err != nil {
		return nil, nil, err
	}

	var dropped []string
	if v, ok := m["currency_code"].(string); !ok || !reCurrencyCode.MatchString(v) {
		if _, present := m["currency_code"]; present {
			delete(m, "currency_code")
			dropped = append(dropped, "currency_code")
		}
	}
	if !unitInterval(m["confidence"]) {
		delete(m, "confidence")
		dropped = append(dropped, "confidence")
	}
	if _, ok := m["quote_total"].(float64); !ok {
		if _, present := m["quote_total"]; present {
			delete(m, "quote_total")
			dropped = append(dropped, "quote_total")
		}
	}
	if arr, ok := m["terms"].([]any); ok {
		kept := arr[:0]
		for _, t := range arr {
			if s, ok := t.(string); ok {
				kept = append(kept, s)
			}
		}
		m["terms"] = kept
	} else if _, present := m["terms"]; present {
		delete(m, "terms")
		dropped = append(dropped, "terms")
	}

	if arr, ok := m["items"].([]any); ok {
		for _, x := range arr {
			it, ok := x.(map[string]any)
			if !ok {
				continue
			}
			if !unitInterval(it["confidence"]) {
				delete(it, "confidence")
				dropped = append(dropped, "items.confidence")
			}
			for _, k := range []string{"quantity", "unit_price", "line_total"} {
				if v, present := it[k]; present {
					if _, ok := v.(float64); !ok {
						delete(it, k)
						dropped = append(dropped, "items."+k)
					}
				}
			}
		}
	}

	b, err := json.Marshal(m)
	if err != nil {
		return nil, nil, err
	}
	return b, dropped, nil
}

// unitInterval reports whether v is absent or a number in [0,1].
func unitInterval(v any) bool {
	if v == nil {
		return true
	}
	f, ok := v.(float64)
	return ok && f >= 0 && f <= 1
}

// parseNumberString reads "1,234.50", "$ 12", "12 USD".
func parseNumberString(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	s = strings.TrimFunc(s, func(r rune) bool {
		return !(r >= '0' && r <= '9') && r != '-' && r != '.'
	})
	s = strings.ReplaceAll(s, ",", "")
	if s == "" {
		return 0, false
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return f, true
}
