package constants

import (
	"strings"
	"unicode"
)

// FieldKind is the canonical meaning of a quote table column.
type FieldKind string

const (
	FieldSKU         FieldKind = "sku"
	FieldDescription FieldKind = "description"
	FieldQuantity    FieldKind = "quantity"
	FieldUnit        FieldKind = "unit"
	FieldUnitPrice   FieldKind = "unit_price"
	FieldLineTotal   FieldKind = "line_total"
	FieldDelivery    FieldKind = "delivery"
)

// HeaderMatch describes how a raw header was recognized.
type HeaderMatch int

const (
	HeaderNone HeaderMatch = iota
	HeaderSynonym
	HeaderExact
)

var exactHeaders = map[string]FieldKind{
	"sku":         FieldSKU,
	"description": FieldDescription,
	"qty":         FieldQuantity,
	"quantity":    FieldQuantity,
	"unit":        FieldUnit,
	"unit price":  FieldUnitPrice,
	"total":       FieldLineTotal,
	"delivery":    FieldDelivery,
}

var headerSynonyms = map[string]FieldKind{
	"item code":           FieldSKU,
	"item id":             FieldSKU,
	"item no":             FieldSKU,
	"item number":         FieldSKU,
	"product code":        FieldSKU,
	"part":                FieldSKU,
	"part no":             FieldSKU,
	"part number":         FieldSKU,
	"code":                FieldSKU,
	"catalog no":          FieldSKU,
	"catalog number":      FieldSKU,
	"mpn":                 FieldSKU,
	"model no":            FieldSKU,
	"item":                FieldDescription,
	"product":             FieldDescription,
	"material":            FieldDescription,
	"item description":    FieldDescription,
	"product description": FieldDescription,
	"details":             FieldDescription,
	"desc":                FieldDescription,
	"name":                FieldDescription,
	"item name":           FieldDescription,
	"product name":        FieldDescription,
	"service":             FieldDescription,
	"qnty":                FieldQuantity,
	"units":               FieldQuantity,
	"pieces":              FieldQuantity,
	"pcs":                 FieldQuantity,
	"count":               FieldQuantity,
	"order qty":           FieldQuantity,
	"qty ordered":         FieldQuantity,
	"uom":                 FieldUnit,
	"unit of measure":     FieldUnit,
	"um":                  FieldUnit,
	"price":               FieldUnitPrice,
	"rate":                FieldUnitPrice,
	"unit cost":           FieldUnitPrice,
	"cost":                FieldUnitPrice,
	"price unit":          FieldUnitPrice,
	"price per unit":      FieldUnitPrice,
	"price each":          FieldUnitPrice,
	"each":                FieldUnitPrice,
	"unit rate":           FieldUnitPrice,
	"amount":              FieldLineTotal,
	"line total":          FieldLineTotal,
	"total price":         FieldLineTotal,
	"extended price":      FieldLineTotal,
	"extended":            FieldLineTotal,
	"ext price":           FieldLineTotal,
	"ext amount":          FieldLineTotal,
	"line amount":         FieldLineTotal,
	"value":               FieldLineTotal,
	"lead time":           FieldDelivery,
	"delivery time":       FieldDelivery,
	"delivery date":       FieldDelivery,
	"eta":                 FieldDelivery,
	"ship time":           FieldDelivery,
	"availability":        FieldDelivery,
}

var currencySuffixes = []string{" usd", " eur", " gbp", " cad", " aud", " jpy"}

// NormalizeHeader lowercases a header cell, turns punctuation into spaces,
// collapses whitespace and drops a trailing currency code ("Unit Price (USD)").
func NormalizeHeader(raw string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(raw) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		} else {
			b.WriteRune(' ')
		}
	}
	s := strings.Join(strings.Fields(b.String()), " ")
	for _, suf := range currencySuffixes {
		s = strings.TrimSuffix(s, suf)
	}
	return s
}

// CanonicalizeHeader maps a raw column header to a field kind.
func CanonicalizeHeader(raw string) (FieldKind, HeaderMatch) {
	n := NormalizeHeader(raw)
	if n == "" {
		return "", HeaderNone
	}
	if k, ok := exactHeaders[n]; ok {
		return k, HeaderExact
	}
	if k, ok := headerSynonyms[n]; ok {
		return k, HeaderSynonym
	}
	return "", HeaderNone
}
