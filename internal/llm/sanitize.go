package llm

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"maps"
	"strings"
)

var (
	topAliases = map[string]string{
		"vendor_name":   "vendor",
		"supplier":      "vendor",
		"supplier_name": "vendor",
		"company":       "vendor",
		"currency":      "currency_code",
		"total":         "quote_total",
		"grand_total":   "quote_total",
		"line_items":    "items",
		"lines":         "items",
		"payment_terms": "terms",
	}
	itemAliases = map[string]string{
		"qty":         "quantity",
		"price":       "unit_price",
		"unit_cost":   "unit_price",
		"rate":        "unit_price",
		"total":       "line_total",
		"amount":      "line_total",
		"total_price": "line_total",
		"name":        "description",
		"item":        "description",
		"part_number": "sku",
		"item_code":   "sku",
		"uom":         "unit",
		"lead_time":   "delivery",
	}
	topAllowed = map[string]struct{}{
		"vendor": {}, "currency_code": {}, "items": {}, "quote_total": {}, "terms": {}, "confidence": {},
	}
	itemAllowed = map[string]struct{}{
		"sku": {}, "description": {}, "quantity": {}, "unit": {}, "unit_price": {},
		"line_total": {}, "delivery": {}, "confidence": {},
	}
	itemNumbers = []string{"quantity", "unit_price", "line_total", "confidence"}
	itemStrings = []string{"sku", "description", "unit", "delivery"}
)

// NormalizeAndSanitizeJSON
// - Renames known synonyms (qty -> quantity, total -> line_total, ...)
// - Drops null/empty optionals
// - Coerces numeric strings ("$1,234.50") to numbers
// - Removes unknown keys (strict additionalProperties = false friendliness)
func NormalizeAndSanitizeJSON(raw []byte, logger *slog.Logger) ([]byte, []string, error) {
	if logger == nil {
		logger = slog.Default()
	}

	var m map[string]any
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, nil, fmt.Errorf("sanitize: decode: %w", err)
	}

	dropped := make([]string, 0, 8)
	renameKeys(m, topAliases, "", &dropped)

	if v, ok := m["vendor"].(string); ok {
		m["vendor"] = strings.TrimSpace(v)
	} else if _, present := m["vendor"]; present {
		delete(m, "vendor")
		dropped = append(dropped, "vendor(type)")
	}
	if v, ok := m["currency_code"].(string); ok {
		m["currency_code"] = strings.ToUpper(strings.TrimSpace(v))
	}
	coerceNumber(m, "quote_total", "", &dropped)
	coerceNumber(m, "confidence", "", &dropped)

	switch t := m["terms"].(type) {
	case string:
		if s := strings.TrimSpace(t); s != "" {
			m["terms"] = []any{s}
		} else {
			delete(m, "terms")
		}
	case nil:
		delete(m, "terms")
	}

	if arr, ok := m["items"].([]any); ok {
		items := make([]any, 0, len(arr))
		for i, x := range arr {
			it, ok := x.(map[string]any)
			if !ok {
				dropped = append(dropped, fmt.Sprintf("items[%d](type)", i))
				continue
			}
			prefix := fmt.Sprintf("items[%d].", i)
			renameKeys(it, itemAliases, prefix, &dropped)
			for _, k := range itemNumbers {
				coerceNumber(it, k, prefix, &dropped)
			}
			for _, k := range itemStrings {
				trimString(it, k, prefix, &dropped)
			}
			dropUnknown(it, itemAllowed, prefix, &dropped)
			if d, _ := it["description"].(string); d == "" {
				dropped = append(dropped, prefix+"(no description)")
				continue
			}
			items = append(items, it)
		}
		m["items"] = items
	} else if _, present := m["items"]; !present || m["items"] == nil {
		m["items"] = []any{}
	}

	dropUnknown(m, topAllowed, "", &dropped)

	out, err := json.Marshal(m)
	if err != nil {
		return nil, dropped, fmt.Errorf("sanitize: encode: %w", err)
	}
	if len(dropped) > 0 {
		logger.Warn("llm.extract.normalize_sanitize", "dropped", dropped)
	}
	return out, dropped, nil
}

func renameKeys(m map[string]any, aliases map[string]string, prefix string, dropped *[]string) {
	for from, to := range aliases {
		v, ok := m[from]
		if !ok {
			continue
		}
		// don't overwrite existing value if already present
		if _, exists := m[to]; !exists {
			m[to] = v
		}
		delete(m, from)
		*dropped = append(*dropped, prefix+from+"->"+to)
	}
}

func coerceNumber(m map[string]any, k, prefix string, dropped *[]string) {
	v, ok := m[k]
	if !ok {
		return
	}
	switch t := v.(type) {
	case float64:
	case string:
		if f, ok := parseNumberString(t); ok {
			m[k] = f
		} else {
			delete(m, k)
			*dropped = append(*dropped, prefix+k+"(unparsable)")
		}
	case nil:
		delete(m, k)
		*dropped = append(*dropped, prefix+k+"(null)")
	default:
		delete(m, k)
		*dropped = append(*dropped, prefix+k+"(type)")
	}
}

func trimString(m map[string]any, k, prefix string, dropped *[]string) {
	v, ok := m[k]
	if !ok {
		return
	}
	s, isString := v.(string)
	if !isString {
		if f, isNum := v.(float64); isNum && k == "sku" {
			m[k] = fmt.Sprintf("%.0f", f)
			return
		}
		delete(m, k)
		*dropped = append(*dropped, prefix+k+"(type)")
		return
	}
	if s = strings.TrimSpace(s); s == "" {
		delete(m, k)
		*dropped = append(*dropped, prefix+k+"(empty)")
		return
	}
	m[k] = s
}

func dropUnknown(m map[string]any, allowed map[string]struct{}, prefix string, dropped *[]string) {
	for k := range maps.Clone(m) {
		if _, ok := allowed[k]; !ok {
			delete(m, k)
			*dropped = append(*dropped, prefix+k+"(unknown)")
		}
	}
}
