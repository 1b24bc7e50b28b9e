package extract

import (
	"regexp"
	"slices"
	"strings"
	"unicode"

	"github.com/joseph-ayodele/quote-optimizer/constants"
	"github.com/joseph-ayodele/quote-optimizer/internal/entity"
)

// row is a table row or a text line split into columns.
type row struct {
	page       int
	index      int
	cells      []string
	fromText   bool
	confidence float64
}

func (r row) empty() bool {
	for _, c := range r.cells {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

// line joins the distinct non-empty cells, which undoes merged-cell fill.
func (r row) line() string {
	var parts []string
	for _, c := range r.cells {
		c = strings.TrimSpace(c)
		if c == "" || (len(parts) > 0 && parts[len(parts)-1] == c) {
			continue
		}
		parts = append(parts, c)
	}
	return strings.Join(parts, " ")
}

type page struct {
	number int
	rows   []row
}

var reColumnGap = regexp.MustCompile(`\s{2,}`)

// splitColumns splits a text line on pipes, tabs, or runs of two or more spaces.
func splitColumns(text string) []string {
	var parts []string
	switch {
	case strings.Contains(text, "|"):
		parts = strings.Split(text, "|")
	case strings.Contains(text, "\t"):
		parts = strings.Split(text, "\t")
	default:
		parts = reColumnGap.Split(strings.TrimSpace(text), -1)
	}
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	for len(parts) > 0 && parts[0] == "" {
		parts = parts[1:]
	}
	for len(parts) > 0 && parts[len(parts)-1] == "" {
		parts = parts[:len(parts)-1]
	}
	return parts
}

// groupPages converts blocks into rows grouped by page, in page order.
func groupPages(doc entity.QuoteDocument) []page {
	byPage := map[int][]row{}
	for i, b := range doc.Blocks {
		r := row{page: b.Page, index: b.Row, confidence: b.Confidence}
		if r.index == 0 {
			r.index = i + 1
		}
		if b.Kind == entity.BlockText {
			r.cells = splitColumns(b.Text)
			r.fromText = true
		} else {
			r.cells = b.Values()
		}
		byPage[b.Page] = append(byPage[b.Page], r)
	}
	nums := make([]int, 0, len(byPage))
	for p := range byPage {
		nums = append(nums, p)
	}
	slices.Sort(nums)
	out := make([]page, 0, len(nums))
	for _, n := range nums {
		out = append(out, page{number: n, rows: byPage[n]})
	}
	return out
}

// header maps column positions to field kinds.
type header struct {
	width  int
	byKind map[constants.FieldKind]int
	match  map[constants.FieldKind]constants.HeaderMatch
}

func (h header) confidence(k constants.FieldKind) float64 {
	if h.match[k] == constants.HeaderExact {
		return entity.ConfidenceExactHeader
	}
	return entity.ConfidenceSynonym
}

// detectHeader recognizes a row naming a description column plus a quantity or price column.
func detectHeader(r row) (header, bool) {
	h := header{
		width:  len(r.cells),
		byKind: map[constants.FieldKind]int{},
		match:  map[constants.FieldKind]constants.HeaderMatch{},
	}
	for i, c := range r.cells {
		kind, m := constants.CanonicalizeHeader(c)
		if m == constants.HeaderNone {
			continue
		}
		if _, dup := h.byKind[kind]; dup {
			continue
		}
		h.byKind[kind] = i
		h.match[kind] = m
	}
	_, desc := h.byKind[constants.FieldDescription]
	_, qty := h.byKind[constants.FieldQuantity]
	_, price := h.byKind[constants.FieldUnitPrice]
	_, total := h.byKind[constants.FieldLineTotal]
	return h, desc && (qty || price || total)
}

// alignRight maps a text row with a different column count onto the header
// width. Trailing cells line up with trailing columns; extra leading cells are
// merged into the first column.
func alignRight(cells []string, width int) []string {
	if len(cells) == width || width == 0 {
		return cells
	}
	out := make([]string, width)
	if len(cells) > width {
		extra := len(cells) - width
		out[0] = strings.Join(cells[:extra+1], " ")
		copy(out[1:], cells[extra+1:])
		return out
	}
	copy(out[width-len(cells):], cells)
	return out
}

var (
	reSummaryLabel = regexp.MustCompile(`(?i)^\s*(?:sub\s*-?\s*total|total|grand\s+total|quote\s+total|order\s+total|net\s+total|tax|vat|gst|sales\s+tax|shipping|freight|discount|balance\s+due|amount\s+due)\b`)
	reSkipLine     = regexp.MustCompile(`(?i)^\s*(?:vendor|supplier|seller|company|date|dated|phone|tel|telephone|fax|mobile|e-?mail|web|website|address|attn|attention|to|from|ship\s+to|bill\s+to|quot(?:e|ation)\s*(?:no|number|#|id|date|from|by)?|rfq|ref|reference|invoice|po|page|valid|validity|terms|payment|warranty|lead\s+time|account|iban|swift|prepared\s+for|customer)\b`)
	reTotalLine    = regexp.MustCompile(`(?i)^\s*(?:grand\s+total|total(?:\s+(?:amount|due|price|cost|quote))?|quote\s+total|order\s+total|net\s+total)\s*[:\-]?\s*(.*)$`)
	reTotalLabel   = regexp.MustCompile(`(?i)^\s*(?:grand\s+total|total(?:\s+(?:amount|due|price|cost|quote))?|quote\s+total|order\s+total|net\s+total)\s*:?\s*$`)
	reTermsLine    = regexp.MustCompile(`(?i)^\s*(?:payment\s+terms|terms(?:\s+(?:and|&)\s+conditions)?|warranty|delivery(?:\s+terms)?|lead\s+time|shipping(?:\s+terms)?|validity|valid\s+(?:for|until)|incoterms?)\s*[:\-]\s*\S`)
	reSKU          = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9\-_/.#]{2,}$`)
)

// label returns the first non-numeric cell of a row.
func (r row) label() string {
	for _, c := range r.cells {
		c = strings.TrimSpace(c)
		if c == "" {
			continue
		}
		if _, ok := parseAmount(c); ok {
			continue
		}
		return c
	}
	return ""
}

func isSummaryRow(r row) bool {
	return reSummaryLabel.MatchString(r.label())
}

// looksLikeSKU accepts compact codes that mix letters and digits ("WID-100", "A1234").
func looksLikeSKU(s string) bool {
	if !reSKU.MatchString(s) {
		return false
	}
	hasDigit := strings.ContainsAny(s, "0123456789")
	hasUpperOrSep := strings.ContainsAny(s, "-_/#") || strings.ToUpper(s) == s
	return hasDigit && hasUpperOrSep
}

func hasLetters(s string, n int) bool {
	c := 0
	for _, r := range s {
		if unicode.IsLetter(r) {
			c++
			if c >= n {
				return true
			}
		}
	}
	return false
}
