package extract

import (
	"regexp"
	"strconv"
	"strings"
	"unicode"
)

// currencyMarks maps symbols and codes to ISO codes. Longer marks come first
// so "US$" is not read as "$".
var currencyMarks = []struct {
	mark string
	code string
}{
	{"US$", "USD"}, {"C$", "CAD"}, {"CA$", "CAD"}, {"A$", "AUD"}, {"AU$", "AUD"},
	{"$", "USD"}, {"€", "EUR"}, {"£", "GBP"}, {"¥", "JPY"}, {"₹", "INR"},
}

var reISOCode = regexp.MustCompile(`\b(USD|EUR|GBP|CAD|AUD|JPY|CHF|INR|CNY|MXN|NZD|SEK)\b`)

// amount is a parsed numeric cell.
type amount struct {
	value    float64
	currency string // ISO code when the cell carried a mark
	integer  bool   // written without a decimal part
}

// parseAmount reads "1,234.50", "$ 12", "1.234,50 EUR", "(12.00)" and "12.5%"-free
// numerics. It rejects cells that contain anything but a number and currency marks.
func parseAmount(s string) (amount, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return amount{}, false
	}
	var a amount
	for _, cm := range currencyMarks {
		if strings.Contains(s, cm.mark) {
			a.currency = cm.code
			s = strings.Replace(s, cm.mark, "", 1)
			break
		}
	}
	if m := reISOCode.FindString(s); m != "" {
		if a.currency == "" {
			a.currency = m
		}
		s = strings.Replace(s, m, "", 1)
	}
	s = strings.TrimSpace(s)
	neg := false
	if strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")") {
		neg = true
		s = strings.TrimSpace(s[1 : len(s)-1])
	}
	if strings.HasPrefix(s, "-") {
		neg = true
		s = strings.TrimSpace(s[1:])
	}
	s = strings.ReplaceAll(s, " ", "")
	s = strings.ReplaceAll(s, "'", "")
	if s == "" {
		return amount{}, false
	}
	for _, r := range s {
		if !unicode.IsDigit(r) && r != '.' && r != ',' {
			return amount{}, false
		}
	}
	if !unicode.IsDigit(rune(s[0])) && !(s[0] == '.' && len(s) > 1) {
		return amount{}, false
	}

	lastDot := strings.LastIndexByte(s, '.')
	lastComma := strings.LastIndexByte(s, ',')
	switch {
	case lastDot >= 0 && lastComma >= 0:
		if lastComma > lastDot {
			// 1.234,50
			s = strings.ReplaceAll(s, ".", "")
			s = strings.Replace(s, ",", ".", 1)
		} else {
			s = strings.ReplaceAll(s, ",", "")
		}
	case lastComma >= 0:
		if strings.Count(s, ",") == 1 && len(s)-lastComma-1 != 3 {
			s = strings.Replace(s, ",", ".", 1)
		} else {
			s = strings.ReplaceAll(s, ",", "")
		}
	case strings.Count(s, ".") > 1:
		// 1.234.567
		s = strings.ReplaceAll(s, ".", "")
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return amount{}, false
	}
	if neg {
		v = -v
	}
	a.value = v
	a.integer = !strings.Contains(s, ".")
	return a, true
}

var reLeadingNumber = regexp.MustCompile(`^\s*([0-9][0-9.,']*)\s*([A-Za-z][A-Za-z.]*)?\s*$`)

// parseQuantity accepts a bare number or a number followed by a unit word ("10 pcs").
func parseQuantity(s string) (float64, string, bool) {
	if a, ok := parseAmount(s); ok && a.currency == "" {
		return a.value, "", true
	}
	m := reLeadingNumber.FindStringSubmatch(s)
	if m == nil {
		return 0, "", false
	}
	a, ok := parseAmount(m[1])
	if !ok {
		return 0, "", false
	}
	return a.value, strings.TrimSuffix(strings.ToLower(m[2]), "."), true
}

// detectCurrency returns the most frequent currency mark in text, or "".
func detectCurrency(text string) string {
	counts := map[string]int{}
	rest := text
	for _, cm := range currencyMarks {
		n := strings.Count(rest, cm.mark)
		if n > 0 {
			counts[cm.code] += n
			rest = strings.ReplaceAll(rest, cm.mark, " ")
		}
	}
	for _, m := range reISOCode.FindAllString(rest, -1) {
		counts[m]++
	}
	best, bestN := "", 0
	for code, n := range counts {
		if n > bestN || (n == bestN && code < best) {
			best, bestN = code, n
		}
	}
	return best
}
