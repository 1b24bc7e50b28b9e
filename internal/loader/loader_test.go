package loader

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/joseph-ayodele/quote-optimizer/internal/entity"
	"github.com/joseph-ayodele/quote-optimizer/internal/ocr"
)

type stubOCR struct {
	res   ocr.ExtractionResult
	err   error
	exts  []string
	calls int
}

func (s *stubOCR) ExtractBytes(_ context.Context, _ []byte, ext string) (ocr.ExtractionResult, error) {
	s.calls++
	s.exts = append(s.exts, ext)
	return s.res, s.err
}

func TestLoad_UnsupportedFormat(t *testing.T) {
	t.Parallel()
	l := New(Options{}, nil)
	_, err := l.Load(context.Background(), Source{ID: "d1", Format: "docx", Bytes: []byte("x")})
	require.Error(t, err)
	assert.ErrorIs(t, err, entity.ErrUnsupportedFormat)
	var ufe *entity.UnsupportedFormatError
	require.ErrorAs(t, err, &ufe)
	assert.Equal(t, "docx", ufe.Format)
}

func TestLoad_EmptyIsCorrupt(t *testing.T) {
	t.Parallel()
	_, err := New(Options{}, nil).Load(context.Background(), Source{ID: "d1", Format: "csv"})
	assert.ErrorIs(t, err, entity.ErrCorruptDocument)
}

func TestLoad_CSV(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name  string
		data  []byte
		cells []string
	}{
		{"comma", []byte("Description,Qty,Unit Price\nWidget,10,5.00\n"), []string{"Widget", "10", "5.00"}},
		{"semicolon sniffed", []byte("Description;Qty;Unit Price\nWidget;10;5,00\n"), []string{"Widget", "10", "5,00"}},
		{"windows-1252", []byte("Description,Qty\nCaf\xe9 chair,2\n"), []string{"Café chair", "2"}},
		{"bom stripped", append([]byte{0xEF, 0xBB, 0xBF}, []byte("Description,Qty\nWidget,1\n")...), []string{"Widget", "1"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			doc, err := New(Options{}, nil).Load(context.Background(), Source{ID: "d", Format: "csv", Bytes: tt.data})
			require.NoError(t, err)
			require.Len(t, doc.Blocks, 2)
			assert.Equal(t, entity.BlockTable, doc.Blocks[1].Kind)
			assert.Equal(t, tt.cells, doc.Blocks[1].Values())
			assert.Equal(t, 2, doc.Blocks[1].Row)
			assert.Equal(t, 1.0, doc.Confidence)
		})
	}
	doc, err := New(Options{}, nil).Load(context.Background(), Source{ID: "d", Format: "csv", Bytes: []byte("Description,Qty\nWidget,1\n")})
	require.NoError(t, err)
	assert.Equal(t, "Description", doc.Blocks[0].Values()[0])
}

func TestLoad_TSV(t *testing.T) {
	t.Parallel()
	doc, err := New(Options{}, nil).Load(context.Background(), Source{ID: "d", Format: ".TSV", Bytes: []byte("a\tb\n1\t2\n")})
	require.NoError(t, err)
	assert.Equal(t, []string{"1", "2"}, doc.Blocks[1].Values())
}

func TestLoad_XLSX(t *testing.T) {
	t.Parallel()
	f := excelize.NewFile()
	sheet := f.GetSheetName(0)
	rows := [][]any{
		{"Quote from Tech Supply Solutions"},
		{"Description", "Qty", "Unit Price", "Total"},
		{"Widget", 10, 5.0, 50.0},
	}
	for r, vals := range rows {
		for c, v := range vals {
			cell, _ := excelize.CoordinatesToCellName(c+1, r+1)
			require.NoError(t, f.SetCellValue(sheet, cell, v))
		}
	}
	require.NoError(t, f.MergeCell(sheet, "A1", "D1"))
	_, err := f.NewSheet("Notes")
	require.NoError(t, err)
	require.NoError(t, f.SetCellValue("Notes", "A1", "Payment terms: Net 30"))
	buf, err := f.WriteToBuffer()
	require.NoError(t, err)

	doc, err := New(Options{}, nil).Load(context.Background(), Source{ID: "x", Format: "xlsx", Bytes: buf.Bytes()})
	require.NoError(t, err)
	require.Len(t, doc.Blocks, 4)
	assert.Equal(t, []string{"Quote from Tech Supply Solutions", "Quote from Tech Supply Solutions", "Quote from Tech Supply Solutions", "Quote from Tech Supply Solutions"}, doc.Blocks[0].Values())
	assert.Equal(t, []string{"Widget", "10", "5", "50"}, doc.Blocks[2].Values())
	assert.Equal(t, 1, doc.Blocks[2].Page)
	assert.Equal(t, 2, doc.Blocks[3].Page)
}

func TestLoad_XLSXCorrupt(t *testing.T) {
	t.Parallel()
	_, err := New(Options{}, nil).Load(context.Background(), Source{ID: "x", Format: "xlsx", Bytes: []byte("not a zip")})
	assert.ErrorIs(t, err, entity.ErrCorruptDocument)
}

func TestLoad_Text(t *testing.T) {
	t.Parallel()
	doc, err := New(Options{}, nil).Load(context.Background(), Source{ID: "t", Format: "txt", Bytes: []byte("Vendor: Acme\r\n\r\nWidget  10  5.00  50.00\fPage two")})
	require.NoError(t, err)
	require.Len(t, doc.Blocks, 3)
	assert.Equal(t, "Vendor: Acme", doc.Blocks[0].Text)
	assert.Equal(t, 3, doc.Blocks[1].Row)
	assert.Equal(t, 2, doc.Blocks[2].Page)
}

func TestLoad_PDFThatIsText(t *testing.T) {
	t.Parallel()
	o := &stubOCR{}
	doc, err := New(Options{OCR: o}, nil).Load(context.Background(), Source{ID: "p", Format: "pdf", Bytes: []byte("Widget  10  5.00  50.00\n")})
	require.NoError(t, err)
	assert.Equal(t, "text-as-pdf", doc.Method)
	assert.Equal(t, 0, o.calls)
	require.Len(t, doc.Blocks, 1)
}

func TestLoad_PDFThroughCapability(t *testing.T) {
	t.Parallel()
	o := &stubOCR{res: ocr.ExtractionResult{Text: "Widget  10  5.00\fPage 2 line", Method: "pdf-ocr", Confidence: 0.42}}
	data := append([]byte("%PDF-1.4\n"), 0x00, 0x01, 0x02, 0xff, 0xfe, 0x00, 0x00, 0x00, 0x00)
	doc, err := New(Options{OCR: o}, nil).Load(context.Background(), Source{ID: "p", Format: "pdf", Bytes: data})
	require.NoError(t, err)
	assert.Equal(t, []string{"pdf"}, o.exts)
	assert.Equal(t, "pdf-ocr", doc.Method)
	assert.InDelta(t, 0.42, doc.Confidence, 1e-9)
	require.Len(t, doc.Blocks, 2)
	for _, b := range doc.Blocks {
		assert.InDelta(t, 0.42, b.Confidence, 1e-9)
	}
	assert.NotEmpty(t, doc.Warnings)
}

func TestLoad_PDFWithoutCapability(t *testing.T) {
	t.Parallel()
	data := append([]byte("%PDF-1.4\n"), 0x00, 0x01, 0x02, 0xff, 0xfe, 0x00, 0x00, 0x00, 0x00)
	_, err := New(Options{}, nil).Load(context.Background(), Source{ID: "p", Format: "pdf", Bytes: data})
	assert.ErrorIs(t, err, ErrNoCapability)
}

// blockingOCR never returns on its own; it ignores its context until release closes.
type blockingOCR struct{ release chan struct{} }

func (b blockingOCR) ExtractBytes(context.Context, []byte, string) (ocr.ExtractionResult, error) {
	<-b.release
	return ocr.ExtractionResult{}, nil
}

func TestLoad_PDFCapabilityFailure(t *testing.T) {
	t.Parallel()
	data := append([]byte("%PDF-1.4\n"), 0x00, 0x01, 0x02, 0xff, 0xfe, 0x00, 0x00, 0x00, 0x00)
	release := make(chan struct{})
	t.Cleanup(func() { close(release) })

	tests := []struct {
		name    string
		eng     OCR
		timeout time.Duration
		msg     string
	}{
		{"engine error", &stubOCR{err: errors.New("pdftotext: exit status 1")}, time.Second, "exit status 1"},
		{"engine hangs", blockingOCR{release: release}, 50 * time.Millisecond, "timed out after 50ms"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			start := time.Now()
			_, err := New(Options{OCR: tt.eng, OCRTimeout: tt.timeout}, nil).
				Load(context.Background(), Source{ID: "p", Format: "pdf", Bytes: data})
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrOCRFailed)
			assert.NotErrorIs(t, err, entity.ErrCorruptDocument, "a failing engine does not prove the bytes bad")
			assert.NotErrorIs(t, err, context.DeadlineExceeded)
			assert.Contains(t, err.Error(), tt.msg)
			assert.Less(t, time.Since(start), 5*time.Second)
		})
	}
}

func TestLoad_OCRParentCancelled(t *testing.T) {
	t.Parallel()
	release := make(chan struct{})
	t.Cleanup(func() { close(release) })
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	png := []byte("\x89PNG\r\n\x1a\n....")
	_, err := New(Options{OCR: blockingOCR{release: release}, OCRTimeout: time.Minute}, nil).
		Load(ctx, Source{ID: "i", Format: "png", Bytes: png})
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.NotErrorIs(t, err, ErrOCRFailed)
}

func TestLoad_Image(t *testing.T) {
	t.Parallel()
	o := &stubOCR{res: ocr.ExtractionResult{Text: "Widget 10 5.00", Method: "image-ocr", Confidence: 0.8}}
	img := &stubOCR{res: ocr.ExtractionResult{Text: "Gadget 1 2.00", Method: "image-ocr", Confidence: 0.9}}
	png := []byte("\x89PNG\r\n\x1a\n....")

	doc, err := New(Options{OCR: o, ImageOCR: img}, nil).Load(context.Background(), Source{ID: "i", Format: "png", Bytes: png})
	require.NoError(t, err)
	assert.Equal(t, 0, o.calls)
	assert.Equal(t, []string{"png"}, img.exts)
	assert.Equal(t, "Gadget 1 2.00", doc.Blocks[0].Text)
	assert.Empty(t, doc.Warnings)

	_, err = New(Options{OCR: o}, nil).Load(context.Background(), Source{ID: "i", Format: "image", Bytes: []byte("garbage")})
	assert.ErrorIs(t, err, entity.ErrCorruptDocument)
}

func TestLoad_HTML(t *testing.T) {
	t.Parallel()
	page := `<html><head><title>Quotation</title></head><body>
<h1>Northwind Traders LLC</h1>
<p>Quote for office supplies</p>
<table>
<tr><th>Description</th><th>Qty</th><th>Unit Price</th></tr>
<tr><td>Stapler</td><td>4</td><td>$12.50</td></tr>
</table>
</body></html>`
	doc, err := New(Options{}, nil).Load(context.Background(), Source{ID: "h", Format: "htm", Bytes: []byte(page)})
	require.NoError(t, err)
	var texts []string
	var rows [][]string
	for _, b := range doc.Blocks {
		if b.Kind == entity.BlockText {
			texts = append(texts, b.Text)
		} else {
			rows = append(rows, b.Values())
		}
	}
	assert.Equal(t, []string{"Quotation", "Northwind Traders LLC", "Quote for office supplies"}, texts)
	assert.Equal(t, [][]string{{"Description", "Qty", "Unit Price"}, {"Stapler", "4", "$12.50"}}, rows)
}

func TestLoad_Form(t *testing.T) {
	t.Parallel()
	form := `{"vendor":"Acme Corp","currency":"usd","items":[{"sku":"W-1","description":"Widget","quantity":10,"unit_price":5,"line_total":50}],"total":50}`
	doc, err := New(Options{}, nil).Load(context.Background(), Source{ID: "f", Format: "form", Bytes: []byte(form)})
	require.NoError(t, err)
	assert.Equal(t, "Vendor: Acme Corp", doc.Blocks[0].Text)
	assert.Equal(t, "Currency: USD", doc.Blocks[1].Text)
	assert.Equal(t, formHeader, doc.Blocks[2].Values())
	assert.Equal(t, []string{"W-1", "Widget", "10", "", "5", "50", ""}, doc.Blocks[3].Values())
	assert.Equal(t, "Grand Total", doc.Blocks[4].Values()[1])

	_, err = New(Options{}, nil).Load(context.Background(), Source{ID: "f", Format: "form", Bytes: []byte(`{"items":[]}`)})
	assert.ErrorIs(t, err, entity.ErrCorruptDocument)
	_, err = New(Options{}, nil).Load(context.Background(), Source{ID: "f", Format: "json", Bytes: []byte(`{"items":`)})
	assert.ErrorIs(t, err, entity.ErrCorruptDocument)
}
