package extract

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/quote-optimizer/constants"
	"github.com/joseph-ayodele/quote-optimizer/internal/entity"
)

func tableDoc(id string, rows ...[]string) entity.QuoteDocument {
	doc := entity.QuoteDocument{ID: id, Format: constants.CSV, Confidence: 1}
	for i, r := range rows {
		doc.Blocks = append(doc.Blocks, entity.TableRow(1, i+1, r, 1))
	}
	return doc
}

func textDoc(id string, lines ...string) entity.QuoteDocument {
	doc := entity.QuoteDocument{ID: id, Format: constants.TEXT, Confidence: 1}
	for i, l := range lines {
		doc.Blocks = append(doc.Blocks, entity.TextBlock(1, i+1, l, 1))
	}
	return doc
}

func warningKinds(ws []entity.Warning) []entity.WarningKind {
	out := make([]entity.WarningKind, 0, len(ws))
	for _, w := range ws {
		out = append(out, w.Kind)
	}
	return out
}

func TestHeuristic_ExactHeaders(t *testing.T) {
	t.Parallel()
	doc := entity.QuoteDocument{ID: "d1", Format: constants.CSV, Confidence: 1, Blocks: []entity.Block{
		entity.TextBlock(1, 1, "Vendor: Acme Corp", 1),
		entity.TableRow(1, 2, []string{"Description", "Qty", "Unit Price", "Total"}, 1),
		entity.TableRow(1, 3, []string{"Widget", "10", "$5.00", "$50.00"}, 1),
		entity.TableRow(1, 4, []string{"Gadget", "2", "12.50", "25.00"}, 1),
		entity.TableRow(1, 5, []string{"", "Grand Total", "", "75.00"}, 1),
		entity.TextBlock(1, 6, "Payment terms: Net 30", 1),
	}}

	q, err := NewHeuristic(nil).ExtractFields(context.Background(), doc)
	require.NoError(t, err)

	assert.Equal(t, "Acme Corp", q.VendorName)
	assert.Equal(t, entity.SourcePattern, q.VendorSource)
	assert.Equal(t, "USD", q.Currency)
	require.Len(t, q.Items, 2)

	w := q.Items[0]
	assert.Equal(t, "d1:p1:r3", w.ID)
	assert.Equal(t, "Widget", w.Description)
	assert.Equal(t, "Acme Corp", w.RawVendorName)
	assert.Equal(t, entity.Found(10.0, 1, entity.SourceExactHeader), w.Quantity)
	assert.Equal(t, entity.Found(5.0, 1, entity.SourceExactHeader), w.UnitPrice)
	assert.Equal(t, entity.Found(50.0, 1, entity.SourceExactHeader), w.LineTotal)
	assert.Equal(t, 1.0, w.ExtractionConfidence)

	total, ok := q.QuoteTotal.Get()
	require.True(t, ok)
	assert.Equal(t, 75.0, total)
	assert.Equal(t, []string{"Payment terms: Net 30"}, q.Terms)
	assert.Empty(t, q.Warnings)
	assert.Equal(t, 1.0, q.Confidence)
}

func TestHeuristic_SynonymHeaders(t *testing.T) {
	t.Parallel()
	doc := tableDoc("d2",
		[]string{"Item", "Pcs", "Rate", "Amount", "Lead Time"},
		[]string{"Stapler", "4", "12.50", "50.00", "2 weeks"},
	)
	doc.VendorHint = "Northwind"
	q, err := NewHeuristic(nil).ExtractFields(context.Background(), doc)
	require.NoError(t, err)
	require.Len(t, q.Items, 1)
	it := q.Items[0]
	assert.InDelta(t, entity.ConfidenceSynonym, it.ExtractionConfidence, 1e-9)
	assert.Equal(t, entity.SourceSynonymHeader, it.UnitPrice.Source)
	assert.Equal(t, "2 weeks", it.Terms.Value)
	assert.Equal(t, "Northwind", q.VendorName)
	assert.Equal(t, entity.SourceHint, q.VendorSource)
}

func TestHeuristic_PositionalText(t *testing.T) {
	t.Parallel()
	doc := textDoc("d3",
		"Office supplies quotation",
		"Widget  10  5.00  50.00",
		"Stapler 4 x $3.00",
	)
	doc.VendorHint = "Northwind"
	q, err := NewHeuristic(nil).ExtractFields(context.Background(), doc)
	require.NoError(t, err)
	require.Len(t, q.Items, 2)

	assert.Equal(t, "Widget", q.Items[0].Description)
	assert.Equal(t, entity.Found(10.0, entity.ConfidencePositional, entity.SourcePositional), q.Items[0].Quantity)
	assert.Equal(t, 50.0, q.Items[0].LineTotal.Value)
	assert.InDelta(t, entity.ConfidencePositional, q.Items[0].ExtractionConfidence, 1e-9)

	st := q.Items[1]
	assert.Equal(t, "Stapler", st.Description)
	assert.Equal(t, 4.0, st.Quantity.Value)
	assert.Equal(t, 3.0, st.UnitPrice.Value)
	assert.Equal(t, entity.Found(12.0, entity.ConfidenceDerived, entity.SourceDerived), st.LineTotal)
	assert.Contains(t, st.Flags, "derived")
}

func TestHeuristic_IncompleteRowKept(t *testing.T) {
	t.Parallel()
	doc := tableDoc("d4",
		[]string{"Description", "Qty", "Unit Price"},
		[]string{"Cable", "", "3.00"},
	)
	q, err := NewHeuristic(nil).ExtractFields(context.Background(), doc)
	require.NoError(t, err)
	require.Len(t, q.Items, 1)
	it := q.Items[0]
	assert.LessOrEqual(t, it.ExtractionConfidence, entity.MaxIncompleteConfidence)
	assert.False(t, it.Quantity.Present)
	assert.Contains(t, it.Flags, "incomplete")
	assert.Contains(t, warningKinds(q.Warnings), entity.WarnIncompleteRow)
}

func TestHeuristic_DerivesUnitPrice(t *testing.T) {
	t.Parallel()
	doc := tableDoc("d5",
		[]string{"Description", "Quantity", "Total"},
		[]string{"Chair", "4", "400"},
	)
	q, err := NewHeuristic(nil).ExtractFields(context.Background(), doc)
	require.NoError(t, err)
	require.Len(t, q.Items, 1)
	assert.Equal(t, entity.Found(100.0, entity.ConfidenceDerived, entity.SourceDerived), q.Items[0].UnitPrice)
	assert.Equal(t, 1.0, q.Items[0].ExtractionConfidence)
}

func TestHeuristic_StopsAfterEmptyRows(t *testing.T) {
	t.Parallel()
	doc := tableDoc("d6",
		[]string{"Description", "Qty", "Unit Price"},
		[]string{"Pen", "10", "1.00"},
		[]string{"", "", ""},
		[]string{"", "", ""},
		[]string{"", "", ""},
		[]string{"Notes", "1", "99"},
	)
	q, err := NewHeuristic(nil).ExtractFields(context.Background(), doc)
	require.NoError(t, err)
	require.Len(t, q.Items, 1)
	assert.Equal(t, "Pen", q.Items[0].Description)
}

func TestHeuristic_WorkbookPicksRichestSheet(t *testing.T) {
	t.Parallel()
	doc := entity.QuoteDocument{ID: "wb", Format: constants.XLSX, Confidence: 1, Blocks: []entity.Block{
		entity.TableRow(1, 1, []string{"Description", "Qty", "Unit Price"}, 1),
		entity.TableRow(1, 2, []string{"Summary line", "1", "10"}, 1),
		entity.TableRow(2, 1, []string{"Description", "Qty", "Unit Price"}, 1),
		entity.TableRow(2, 2, []string{"Pen", "10", "1.00"}, 1),
		entity.TableRow(2, 3, []string{"Pencil", "20", "0.50"}, 1),
		entity.TableRow(2, 4, []string{"Eraser", "5", "0.75"}, 1),
	}}
	q, err := NewHeuristic(nil).ExtractFields(context.Background(), doc)
	require.NoError(t, err)
	require.Len(t, q.Items, 3)
	for _, it := range q.Items {
		assert.Equal(t, 2, it.Page)
	}
}

func TestHeuristic_HeaderCarriesAcrossPages(t *testing.T) {
	t.Parallel()
	doc := entity.QuoteDocument{ID: "pdf", Format: constants.PDF, Confidence: 0.8, Blocks: []entity.Block{
		entity.TextBlock(1, 1, "Description  Qty  Unit Price  Total", 0.8),
		entity.TextBlock(1, 2, "Widget  10  5.00  50.00", 0.8),
		entity.TextBlock(2, 1, "Gadget  2  7.50  15.00", 0.8),
	}}
	q, err := NewHeuristic(nil).ExtractFields(context.Background(), doc)
	require.NoError(t, err)
	require.Len(t, q.Items, 2)
	assert.Equal(t, "Gadget", q.Items[1].Description)
	assert.InDelta(t, 0.8, q.Items[1].ExtractionConfidence, 1e-9)
	assert.Equal(t, entity.SourceExactHeader, q.Items[1].LineTotal.Source)
}

func TestHeuristic_Vendor(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name     string
		lines    []string
		hint     string
		filename string
		want     string
		source   entity.FieldSource
	}{
		{"quote from", []string{"Quotation from Tech Supply Solutions"}, "hint", "", "Tech Supply Solutions", entity.SourcePattern},
		{"company suffix", []string{"Globex Ltd", "Widget  1  2.00"}, "hint", "", "Globex Ltd", entity.SourcePattern},
		{"hint", []string{"Widget  1  2.00"}, "Initech", "x.pdf", "Initech", entity.SourceHint},
		{"filename", []string{"Widget  1  2.00"}, "", "acme_supplies-quote-2024.pdf", "Acme Supplies", entity.SourceHint},
		{"unknown", []string{"Widget  1  2.00"}, "", "", UnknownVendor, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			doc := textDoc("v", tt.lines...)
			doc.VendorHint, doc.FilenameHint = tt.hint, tt.filename
			q, err := NewHeuristic(nil).ExtractFields(context.Background(), doc)
			require.NoError(t, err)
			assert.Equal(t, tt.want, q.VendorName)
			assert.Equal(t, tt.source, q.VendorSource)
			if tt.want == UnknownVendor {
				assert.Contains(t, warningKinds(q.Warnings), entity.WarnUnknownVendor)
			}
		})
	}
}

func TestHeuristic_PricingRisk(t *testing.T) {
	t.Parallel()
	doc := textDoc("r",
		"Vendor: Acme",
		"Widget  10  5.00  50.00",
		"A handling fee applies. Prices subject to change.",
		"Installation  TBD",
	)
	q, err := NewHeuristic(nil).ExtractFields(context.Background(), doc)
	require.NoError(t, err)
	var msgs []string
	for _, w := range q.Warnings {
		if w.Kind == entity.WarnPricingRisk {
			msgs = append(msgs, w.Message)
		}
	}
	assert.Contains(t, msgs, `hidden fee: "handling fee"`)
	assert.Contains(t, msgs, `conditional pricing: "subject to"`)
	assert.Contains(t, msgs, `unpriced line: "TBD"`)

	var install *entity.LineItem
	for i := range q.Items {
		if q.Items[i].Description == "Installation" {
			install = &q.Items[i]
		}
	}
	require.NotNil(t, install)
	assert.False(t, install.Priced())
	assert.Contains(t, install.Flags, "unpriced")
}

func TestPricingRisks_ProcurementDelay(t *testing.T) {
	t.Parallel()
	tests := []struct {
		line string
		want string
	}{
		{"Order awaiting approval from finance", `approval pending: "awaiting approval"`},
		{"Pending terms from your legal team", `terms pending: "Pending terms"`},
		{"Item currently on backorder", `supply delay: "backorder"`},
		{"Delivery date TBC", `supply delay: "Delivery date TBC"`},
		{"Certificates required before dispatch", `documentation pending: "Certificates required"`},
		{"Supplier qualification in progress", `supplier qualification: "Supplier qualification"`},
	}
	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			t.Parallel()
			ws := pricingRisks("d", []string{tt.line})
			require.NotEmpty(t, ws)
			var msgs []string
			for _, w := range ws {
				if w.Kind == entity.WarnProcurementDelay {
					msgs = append(msgs, w.Message)
				}
				assert.Equal(t, "d", w.DocumentID)
			}
			assert.Contains(t, msgs, tt.want)
		})
	}

	assert.Empty(t, pricingRisks("d", []string{"Delivery: 5 business days", "Payment terms: Net 30"}))
}

func TestHeuristic_NoItems(t *testing.T) {
	t.Parallel()
	q, err := NewHeuristic(nil).ExtractFields(context.Background(), textDoc("e", "Thank you for your business"))
	require.NoError(t, err)
	assert.Empty(t, q.Items)
	assert.Contains(t, warningKinds(q.Warnings), entity.WarnLowConfidence)
	assert.Zero(t, q.Confidence)
}

func TestHeuristic_Cancelled(t *testing.T) {
	t.Parallel()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewHeuristic(nil).ExtractFields(ctx, textDoc("c", "x"))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestParseAmount(t *testing.T) {
	t.Parallel()
	tests := []struct {
		in       string
		want     float64
		currency string
		ok       bool
	}{
		{"1,234.50", 1234.5, "", true},
		{"1.234,50", 1234.5, "", true},
		{"$ 12", 12, "USD", true},
		{"US$3", 3, "USD", true},
		{"EUR 7.5", 7.5, "EUR", true},
		{"£9.99", 9.99, "GBP", true},
		{"5,00", 5, "", true},
		{"1,000", 1000, "", true},
		{"(12.00)", -12, "", true},
		{"12 pcs", 0, "", false},
		{"2024-05-01", 0, "", false},
		{"", 0, "", false},
		{"TBD", 0, "", false},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			t.Parallel()
			a, ok := parseAmount(tt.in)
			require.Equal(t, tt.ok, ok)
			if ok {
				assert.InDelta(t, tt.want, a.value, 1e-9)
				assert.Equal(t, tt.currency, a.currency)
			}
		})
	}
}

func TestParseQuantity(t *testing.T) {
	t.Parallel()
	v, unit, ok := parseQuantity("10 pcs")
	require.True(t, ok)
	assert.Equal(t, 10.0, v)
	assert.Equal(t, "pcs", unit)

	_, _, ok = parseQuantity("ten")
	assert.False(t, ok)
}

func TestDetectCurrency(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "EUR", detectCurrency("€ 5.00 and € 3.00, shipping $2"))
	assert.Equal(t, "CAD", detectCurrency("C$ 10 C$ 4"))
	assert.Equal(t, "GBP", detectCurrency("Prices in GBP"))
	assert.Equal(t, "", detectCurrency("no marks"))
}
