package extract

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"strings"
	"time"

	"github.com/joseph-ayodele/quote-optimizer/constants"
	"github.com/joseph-ayodele/quote-optimizer/internal/entity"
)

const (
	// headerScanRows bounds how far down a page the header row is searched for.
	headerScanRows = 30
	// maxEmptyRun consecutive empty rows end a table.
	maxEmptyRun = 3

	totalPatternConfidence = 0.9
)

var connectors = map[string]bool{
	"x": true, "×": true, "@": true, "=": true, "at": true, "each": true, "ea": true, "per": true,
	"$": true, "€": true, "£": true, "¥": true, "-": true,
}

var unitWords = map[string]bool{
	"pc": true, "pcs": true, "piece": true, "pieces": true, "unit": true, "units": true,
	"box": true, "boxes": true, "pack": true, "packs": true, "set": true, "sets": true,
	"kg": true, "lb": true, "lbs": true, "m": true, "ft": true, "hr": true, "hrs": true, "hours": true,
	"roll": true, "rolls": true, "case": true, "cases": true, "ream": true, "reams": true, "license": true, "licenses": true,
}

// Heuristic reads line items from table headers ("Qty", "Unit Price", ...)
// and falls back to positional guesses when a page has no header.
type Heuristic struct {
	logger *slog.Logger
}

func NewHeuristic(logger *slog.Logger) *Heuristic {
	if logger == nil {
		logger = slog.Default()
	}
	return &Heuristic{logger: logger}
}

func (h *Heuristic) Name() string { return NameHeuristic }

// fields is a row's extracted values before they become a LineItem.
type fields struct {
	page, row   int
	description string
	sku         entity.Extracted[string]
	unit        entity.Extracted[string]
	terms       entity.Extracted[string]
	qty         entity.Extracted[float64]
	price       entity.Extracted[float64]
	total       entity.Extracted[float64]
	currency    string
	flags       []string
	blockConf   float64
}

func (h *Heuristic) ExtractFields(ctx context.Context, doc entity.QuoteDocument) (entity.ExtractedQuote, error) {
	if err := ctx.Err(); err != nil {
		return entity.ExtractedQuote{}, err
	}
	start := time.Now()
	pages := groupPages(doc)

	var lines []string
	for _, p := range pages {
		for _, r := range p.rows {
			if l := r.line(); l != "" {
				lines = append(lines, l)
			}
		}
	}

	q := entity.ExtractedQuote{
		DocumentID: doc.ID,
		Currency:   detectCurrency(strings.Join(lines, "\n")),
		Extractor:  NameHeuristic,
	}
	v := detectVendor(lines, doc.VendorHint, doc.FilenameHint)
	q.VendorName, q.VendorSource = v.name, v.source
	if v.name == UnknownVendor {
		q.Warnings = append(q.Warnings, entity.Warning{
			DocumentID: doc.ID,
			Kind:       entity.WarnUnknownVendor,
			Message:    "no vendor name found in document, hint or filename",
		})
	}

	// Workbooks: each sheet is its own candidate and the richest one wins.
	// Everything else: pages continue one another and a header carries over.
	type pageResult struct {
		items []entity.LineItem
		warns []entity.Warning
		rows  []row
	}
	var results []pageResult
	var carry *header
	for _, p := range pages {
		if doc.Format == constants.XLSX {
			carry = nil
		}
		items, warns, hdr := h.extractPage(doc, p, carry)
		if hdr != nil {
			carry = hdr
		}
		results = append(results, pageResult{items: items, warns: warns, rows: p.rows})
	}

	var totalRows []row
	if doc.Format == constants.XLSX && len(results) > 1 {
		best := 0
		for i, r := range results {
			if len(r.items) > len(results[best].items) {
				best = i
			}
		}
		q.Items = results[best].items
		q.Warnings = append(q.Warnings, results[best].warns...)
		totalRows = results[best].rows
	} else {
		for _, r := range results {
			q.Items = append(q.Items, r.items...)
			q.Warnings = append(q.Warnings, r.warns...)
			totalRows = append(totalRows, r.rows...)
		}
	}

	for i := range q.Items {
		q.Items[i].RawVendorName = q.VendorName
		if q.Items[i].Currency == "" {
			q.Items[i].Currency = q.Currency
		}
	}
	q.QuoteTotal = findQuoteTotal(totalRows)
	q.Terms = findTerms(lines)
	q.Warnings = append(q.Warnings, pricingRisks(doc.ID, lines)...)
	q.Confidence = meanConfidence(q.Items)
	if len(q.Items) == 0 {
		q.Warnings = append(q.Warnings, entity.Warning{
			DocumentID: doc.ID,
			Kind:       entity.WarnLowConfidence,
			Message:    "no line items recognized",
		})
	}

	h.logger.Debug("extract.heuristic.ok",
		"document_id", doc.ID,
		"vendor", q.VendorName,
		"items", len(q.Items),
		"currency", q.Currency,
		"confidence", q.Confidence,
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return q, nil
}

// extractPage returns the page's items and the header it used, if any.
func (h *Heuristic) extractPage(doc entity.QuoteDocument, p page, carry *header) ([]entity.LineItem, []entity.Warning, *header) {
	var hdr *header
	start := 0
	for i, r := range p.rows[:min(len(p.rows), headerScanRows)] {
		if hh, ok := detectHeader(r); ok {
			hdr, start = &hh, i+1
			break
		}
	}
	if hdr == nil && carry != nil {
		hdr = carry
	}

	var (
		items []entity.LineItem
		warns []entity.Warning
		empty int
	)
	for _, r := range p.rows[start:] {
		if r.empty() {
			empty++
			if empty >= maxEmptyRun {
				break
			}
			continue
		}
		empty = 0
		if _, again := detectHeader(r); again || isSummaryRow(r) {
			continue
		}
		var (
			f  fields
			ok bool
		)
		if hdr != nil {
			f, ok = parseWithHeader(*hdr, r)
		} else {
			f, ok = parsePositional(r)
		}
		if !ok {
			continue
		}
		it, w := finalize(doc.ID, f)
		items = append(items, it)
		if w != nil {
			warns = append(warns, *w)
		}
	}
	return items, warns, hdr
}

func parseWithHeader(h header, r row) (fields, bool) {
	cells := r.cells
	if r.fromText {
		cells = alignRight(cells, h.width)
	}
	get := func(k constants.FieldKind) (string, float64) {
		idx, ok := h.byKind[k]
		if !ok || idx >= len(cells) {
			return "", 0
		}
		return strings.TrimSpace(cells[idx]), h.confidence(k) * r.confidence
	}

	f := fields{page: r.page, row: r.index, blockConf: r.confidence}
	desc, _ := get(constants.FieldDescription)
	if s, c := get(constants.FieldSKU); s != "" {
		f.sku = entity.Found(s, c, sourceFor(h, constants.FieldSKU))
	}
	if desc == "" {
		desc = f.sku.Value
	}
	if !hasLetters(desc, 2) && !f.sku.Present {
		return fields{}, false
	}
	f.description = desc

	anyValue := false
	if s, c := get(constants.FieldQuantity); s != "" {
		anyValue = true
		if v, unit, ok := parseQuantity(s); ok {
			f.qty = entity.Found(v, c, sourceFor(h, constants.FieldQuantity))
			if unit != "" {
				f.unit = entity.Found(unit, c, entity.SourcePattern)
			}
		}
	}
	if s, c := get(constants.FieldUnit); s != "" {
		f.unit = entity.Found(s, c, sourceFor(h, constants.FieldUnit))
	}
	if s, c := get(constants.FieldUnitPrice); s != "" {
		anyValue = true
		if a, ok := parseAmount(s); ok {
			f.price = entity.Found(a.value, c, sourceFor(h, constants.FieldUnitPrice))
			f.currency = a.currency
		} else if isUnpriced(s) {
			f.flags = append(f.flags, "unpriced")
		}
	}
	if s, c := get(constants.FieldLineTotal); s != "" {
		anyValue = true
		if a, ok := parseAmount(s); ok {
			f.total = entity.Found(a.value, c, sourceFor(h, constants.FieldLineTotal))
			if f.currency == "" {
				f.currency = a.currency
			}
		} else if isUnpriced(s) {
			f.flags = append(f.flags, "unpriced")
		}
	}
	if s, c := get(constants.FieldDelivery); s != "" {
		f.terms = entity.Found(s, c, sourceFor(h, constants.FieldDelivery))
	}
	return f, anyValue
}

func sourceFor(h header, k constants.FieldKind) entity.FieldSource {
	if h.match[k] == constants.HeaderExact {
		return entity.SourceExactHeader
	}
	return entity.SourceSynonymHeader
}

type numCell struct {
	a    amount
	unit string
}

// parsePositional reads a headerless row: leading text is the description,
// trailing numbers are quantity, unit price and line total in that order.
func parsePositional(r row) (fields, bool) {
	cells := r.cells
	if len(cells) == 1 {
		cells = strings.Fields(cells[0])
	}
	end := len(cells)
	var nums []numCell
	for end > 0 && len(nums) < 3 {
		c := strings.TrimSpace(cells[end-1])
		lc := strings.ToLower(c)
		switch {
		case c == "" || connectors[lc]:
			end--
			continue
		case unitWords[lc] && end >= 2:
			if a, ok := parseAmount(cells[end-2]); ok && a.currency == "" {
				nums = append([]numCell{{a: a, unit: lc}}, nums...)
				end -= 2
				continue
			}
		}
		if a, ok := parseAmount(c); ok {
			nums = append([]numCell{{a: a}}, nums...)
			end--
			continue
		}
		if v, unit, ok := parseQuantity(c); ok && unitWords[unit] {
			nums = append([]numCell{{a: amount{value: v, integer: v == math.Trunc(v)}, unit: unit}}, nums...)
			end--
			continue
		}
		break
	}
	text := cells[:end]
	joined := strings.Join(text, " ")
	if reSkipLine.MatchString(joined) || strings.Contains(joined, "@") && !strings.Contains(joined, " ") {
		return fields{}, false
	}

	f := fields{page: r.page, row: r.index, blockConf: r.confidence}
	unpriced := isUnpriced(joined)
	if len(text) > 1 && isUnpriced(text[len(text)-1]) {
		text = text[:len(text)-1]
	}
	if len(text) >= 2 && looksLikeSKU(strings.TrimSpace(text[0])) {
		f.sku = entity.Found(strings.TrimSpace(text[0]), entity.ConfidencePositional*r.confidence, entity.SourcePositional)
		text = text[1:]
	}
	f.description = strings.Join(strings.Fields(strings.Join(text, " ")), " ")
	if !hasLetters(f.description, 2) {
		return fields{}, false
	}

	conf := entity.ConfidencePositional * r.confidence
	found := func(v float64) entity.Extracted[float64] {
		return entity.Found(v, conf, entity.SourcePositional)
	}
	for _, n := range nums {
		if f.currency == "" {
			f.currency = n.a.currency
		}
	}
	switch len(nums) {
	case 0:
		if unpriced {
			f.flags = append(f.flags, "unpriced")
			return f, true
		}
		return fields{}, false
	case 1:
		a := nums[0].a
		if a.currency == "" && (r.fromText || a.integer) {
			return fields{}, false
		}
		f.price = found(a.value)
	case 2:
		if nums[0].a.integer && nums[0].a.currency == "" {
			f.qty = found(nums[0].a.value)
			f.price = found(nums[1].a.value)
		} else {
			f.price = found(nums[0].a.value)
			f.total = found(nums[1].a.value)
		}
	default:
		f.qty = found(nums[0].a.value)
		f.price = found(nums[1].a.value)
		f.total = found(nums[2].a.value)
	}
	if f.qty.Present && nums[0].unit != "" {
		f.unit = entity.Found(nums[0].unit, conf, entity.SourcePositional)
	}
	return f, true
}

// finalize derives missing amounts, scores the row and builds the LineItem.
// Rows lacking quantity or any price are kept with a capped confidence.
func finalize(docID string, f fields) (entity.LineItem, *entity.Warning) {
	conf := 1.0
	numeric := false
	for _, x := range []entity.Extracted[float64]{f.qty, f.price, f.total} {
		if x.Present {
			numeric = true
			conf = math.Min(conf, x.Confidence)
		}
	}
	if !numeric {
		conf = entity.MaxIncompleteConfidence * f.blockConf
	}

	if q, ok := f.qty.Get(); ok && q != 0 {
		derivedConf := entity.ConfidenceDerived * f.blockConf
		switch {
		case f.price.Present && !f.total.Present:
			f.total = entity.Found(round2(q*f.price.Value), derivedConf, entity.SourceDerived)
			f.flags = append(f.flags, "derived")
		case f.total.Present && !f.price.Present:
			f.price = entity.Found(f.total.Value/q, derivedConf, entity.SourceDerived)
			f.flags = append(f.flags, "derived")
		}
	}

	var warn *entity.Warning
	var missing []string
	if !f.qty.Present {
		missing = append(missing, "quantity")
	}
	if !f.price.Present && !f.total.Present {
		missing = append(missing, "price")
	}
	if len(missing) > 0 {
		conf = math.Min(conf, entity.MaxIncompleteConfidence)
		f.flags = append(f.flags, "incomplete")
		warn = &entity.Warning{
			DocumentID: docID,
			Kind:       entity.WarnIncompleteRow,
			Message:    fmt.Sprintf("page %d row %d %q: missing %s", f.page, f.row, f.description, strings.Join(missing, " and ")),
		}
	}

	return entity.LineItem{
		ID:                   fmt.Sprintf("%s:p%d:r%d", docID, f.page, f.row),
		SourceDocumentID:     docID,
		Description:          f.description,
		SKU:                  f.sku,
		Quantity:             f.qty,
		Unit:                 f.unit,
		UnitPrice:            f.price,
		LineTotal:            f.total,
		Terms:                f.terms,
		Currency:             f.currency,
		ExtractionConfidence: conf,
		Flags:                f.flags,
		Page:                 f.page,
		Row:                  f.row,
	}, warn
}

// findQuoteTotal returns the last "total" / "grand total" amount in the rows.
func findQuoteTotal(rows []row) entity.Extracted[float64] {
	out := entity.Missing[float64]()
	for _, r := range rows {
		if len(r.cells) == 1 {
			m := reTotalLine.FindStringSubmatch(r.cells[0])
			if m == nil {
				continue
			}
			if a, ok := parseAmount(m[1]); ok {
				out = entity.Found(a.value, totalPatternConfidence*r.confidence, entity.SourcePattern)
			}
			continue
		}
		if !reTotalLabel.MatchString(r.label()) {
			continue
		}
		for i := len(r.cells) - 1; i >= 0; i-- {
			if a, ok := parseAmount(r.cells[i]); ok {
				out = entity.Found(a.value, totalPatternConfidence*r.confidence, entity.SourcePattern)
				break
			}
		}
	}
	return out
}

func findTerms(lines []string) []string {
	var out []string
	seen := map[string]bool{}
	for _, ln := range lines {
		if !reTermsLine.MatchString(ln) {
			continue
		}
		ln = strings.TrimSpace(ln)
		if !seen[ln] {
			seen[ln] = true
			out = append(out, ln)
		}
	}
	return out
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
