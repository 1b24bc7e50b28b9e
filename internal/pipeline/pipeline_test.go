package pipeline

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/quote-optimizer/internal/common"
	"github.com/joseph-ayodele/quote-optimizer/internal/entity"
	"github.com/joseph-ayodele/quote-optimizer/internal/loader"
	"github.com/joseph-ayodele/quote-optimizer/internal/ocr"
)

func csvDoc(id, vendor, body string) DocumentInput {
	return DocumentInput{ID: id, Format: "csv", VendorHint: vendor, Bytes: []byte("Description,Qty,Unit Price,Total\n" + body)}
}

func threeVendors() []DocumentInput {
	return []DocumentInput{
		csvDoc("acme", "Acme Corp", "Widget,10,$5.00,$50.00\nGadget,2,$12.50,$25.00\n"),
		csvDoc("bright", "Brightline Supply", "Widget,10,$4.50,$45.00\nGadget,2,$14.00,$28.00\n"),
		csvDoc("copper", "Copperfield Tools", "Widget,10,$6.00,$60.00\nLaminator,1,$100.00,$100.00\n"),
	}
}

func warningsOf(ws []entity.Warning, kind entity.WarningKind) []entity.Warning {
	var out []entity.Warning
	for _, w := range ws {
		if w.Kind == kind {
			out = append(out, w)
		}
	}
	return out
}

func fixedClock() func() time.Time {
	t0 := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	return func() time.Time { return t0 }
}

func TestAnalyzer_Run(t *testing.T) {
	t.Parallel()
	a := NewAnalyzer(Options{}, nil, WithClock(fixedClock()))

	res, err := a.Run(context.Background(), Input{Documents: threeVendors()})
	require.NoError(t, err)

	assert.NotEmpty(t, res.RunID)
	assert.Equal(t, []string{"acme-corp", "brightline-supply", "copperfield-tools"}, res.Matrix.VendorKeys)
	assert.Equal(t, []string{"gadget", "laminator", "widget"}, res.Matrix.ItemKeys)

	rec := res.Recommendation
	assert.Equal(t, entity.ModeSplit, rec.Mode)
	assert.InDelta(t, 170, rec.TotalCost, 1e-9)
	assert.InDelta(t, 25, rec.SavingsVsBestSingle, 1e-9)
	assert.Empty(t, rec.Gaps)
	byItem := map[string]string{}
	for _, as := range rec.Assignments {
		byItem[as.ItemKey] = as.VendorKey
	}
	assert.Equal(t, map[string]string{
		"gadget":    "acme-corp",
		"laminator": "copperfield-tools",
		"widget":    "brightline-supply",
	}, byItem)

	require.NotNil(t, res.Alternative)
	assert.Equal(t, entity.ModeSingleVendor, res.Alternative.Mode)
	assert.Equal(t, "copperfield-tools", res.Alternative.SelectedVendor)

	require.Len(t, res.Compliance, 1)
	assert.True(t, res.Compliance[0].Passed)
	assert.Equal(t, 100.0, res.ComplianceSummary.Score)

	require.Len(t, res.Documents, 3)
	for i, id := range []string{"acme", "bright", "copper"} {
		d := res.Documents[i]
		assert.Equal(t, id, d.DocumentID)
		assert.Equal(t, DocumentOK, d.Status)
		assert.Equal(t, 2, d.LineItems)
		require.NotNil(t, d.Validation)
	}
	assert.Equal(t, "brightline-supply", res.Documents[1].VendorKey)
	assert.Empty(t, warningsOf(res.Warnings, entity.WarnGap))
}

func TestAnalyzer_Run_SingleVendorReportsGaps(t *testing.T) {
	t.Parallel()
	res, err := NewAnalyzer(Options{}, nil).Run(context.Background(), Input{
		Documents: threeVendors(),
		Mode:      entity.ModeSingleVendor,
		Rules:     []entity.ComplianceRule{},
	})
	require.NoError(t, err)

	assert.Nil(t, res.Alternative)
	assert.Empty(t, res.Compliance)
	rec := res.Recommendation
	assert.Equal(t, "copperfield-tools", rec.SelectedVendor)
	require.Len(t, rec.Gaps, 1)
	assert.Equal(t, "gadget", rec.Gaps[0].ItemKey)
	gaps := warningsOf(res.Warnings, entity.WarnGap)
	require.Len(t, gaps, 1)
	assert.Equal(t, "gadget", gaps[0].ItemKey)
}

func TestAnalyzer_Run_DocumentFailuresAreWarnings(t *testing.T) {
	t.Parallel()
	docs := append(threeVendors(),
		DocumentInput{ID: "word", Format: "docx", Bytes: []byte("PK")},
		DocumentInput{ID: "empty", Format: "csv"},
	)
	res, err := NewAnalyzer(Options{}, nil).Run(context.Background(), Input{Documents: docs})
	require.NoError(t, err)

	require.Len(t, res.Documents, 5)
	assert.Equal(t, DocumentFailed, res.Documents[3].Status)
	assert.Equal(t, DocumentFailed, res.Documents[4].Status)
	assert.NotEmpty(t, res.Documents[3].Error)

	unsupported := warningsOf(res.Warnings, entity.WarnUnsupportedFormat)
	require.Len(t, unsupported, 1)
	assert.Equal(t, "word", unsupported[0].DocumentID)
	corrupt := warningsOf(res.Warnings, entity.WarnCorruptDocument)
	require.Len(t, corrupt, 1)
	assert.Equal(t, "empty", corrupt[0].DocumentID)

	assert.Len(t, res.Matrix.VendorKeys, 3)
	assert.InDelta(t, 170, res.Recommendation.TotalCost, 1e-9)
}

func TestAnalyzer_Run_InvalidInput(t *testing.T) {
	t.Parallel()
	dup := threeVendors()
	dup[1].ID = dup[0].ID

	tests := []struct {
		name   string
		in     Input
		target error
	}{
		{"no documents", Input{}, common.ErrInvalidInput},
		{"duplicate ids", Input{Documents: dup}, common.ErrInvalidInput},
		{"unknown mode", Input{Documents: threeVendors(), Mode: "cheapest"}, common.ErrInvalidInput},
		{"unknown extractor", Input{Documents: threeVendors(), Extractor: "llm"}, common.ErrInvalidInput},
		{"unsupported rule", Input{Documents: threeVendors(), Rules: []entity.ComplianceRule{
			{ID: "r1", Kind: entity.RuleMinVendors, Parameters: map[string]any{"min": 2}},
			{ID: "r2", Kind: "sustainability_score"},
		}}, entity.ErrUnsupportedRule},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := NewAnalyzer(Options{}, nil).Run(context.Background(), tt.in)
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.target)
		})
	}
}

func TestAnalyzer_Run_AssignsMissingIDs(t *testing.T) {
	t.Parallel()
	docs := threeVendors()
	docs[0].ID, docs[1].ID = "", ""
	res, err := NewAnalyzer(Options{}, nil).Run(context.Background(), Input{Documents: docs})
	require.NoError(t, err)
	assert.NotEmpty(t, res.Documents[0].DocumentID)
	assert.NotEqual(t, res.Documents[0].DocumentID, res.Documents[1].DocumentID)
	assert.Empty(t, docs[0].ID, "caller's documents are not modified")
	assert.Empty(t, docs[1].ID)
	assert.Equal(t, "copper", docs[2].ID)
}

func TestAnalyzer_Run_Cancelled(t *testing.T) {
	t.Parallel()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewAnalyzer(Options{}, nil).Run(ctx, Input{Documents: threeVendors()})
	assert.True(t, errors.Is(err, context.Canceled))
}

type blockingExtractor struct{}

func (blockingExtractor) Name() string { return "blocking" }

func (blockingExtractor) ExtractFields(ctx context.Context, _ entity.QuoteDocument) (entity.ExtractedQuote, error) {
	<-ctx.Done()
	return entity.ExtractedQuote{}, ctx.Err()
}

func TestAnalyzer_Run_ExtractorTimeoutDegrades(t *testing.T) {
	t.Parallel()
	a := NewAnalyzer(Options{ExtractTimeout: 20 * time.Millisecond}, nil, WithExtractor(blockingExtractor{}))
	res, err := a.Run(context.Background(), Input{Documents: threeVendors(), Extractor: "blocking"})
	require.NoError(t, err)

	for _, d := range res.Documents {
		assert.Equal(t, DocumentDegraded, d.Status)
		assert.Equal(t, entity.MinimalConfidence, d.ExtractionConfidence)
	}
	assert.Len(t, warningsOf(res.Warnings, entity.WarnExtractorFailed), 3)
	assert.Empty(t, res.Matrix.ItemKeys)
	assert.Empty(t, res.Recommendation.Assignments)
	require.Len(t, res.Compliance, 1)
	assert.False(t, res.Compliance[0].Passed)
}

// stuckOCR ignores its context and only returns once release is closed.
type stuckOCR struct{ release chan struct{} }

func (s stuckOCR) ExtractBytes(context.Context, []byte, string) (ocr.ExtractionResult, error) {
	<-s.release
	return ocr.ExtractionResult{}, nil
}

type brokenOCR struct{}

func (brokenOCR) ExtractBytes(context.Context, []byte, string) (ocr.ExtractionResult, error) {
	return ocr.ExtractionResult{}, errors.New("tesseract: exit status 1")
}

func TestAnalyzer_Run_OCRFailureDegradesOneDocument(t *testing.T) {
	t.Parallel()
	release := make(chan struct{})
	t.Cleanup(func() { close(release) })

	tests := []struct {
		name string
		eng  loader.OCR
		msg  string
	}{
		{"engine hangs", stuckOCR{release: release}, "timed out"},
		{"engine fails", brokenOCR{}, "exit status 1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			docs := append(threeVendors(), DocumentInput{
				ID:         "scan",
				Format:     "png",
				VendorHint: "Delta Prints",
				Bytes:      []byte("\x89PNG\r\n\x1a\n...."),
			})
			a := NewAnalyzer(Options{OCRTimeout: 100 * time.Millisecond, ExtractTimeout: 100 * time.Millisecond}, nil, WithOCR(tt.eng))

			type runResult struct {
				res Result
				err error
			}
			done := make(chan runResult, 1)
			go func() {
				res, err := a.Run(context.Background(), Input{Documents: docs})
				done <- runResult{res, err}
			}()
			var out runResult
			select {
			case out = <-done:
			case <-time.After(5 * time.Second):
				t.Fatal("run blocked on OCR")
			}
			require.NoError(t, out.err)
			res := out.res

			require.Len(t, res.Documents, 4)
			for _, d := range res.Documents[:3] {
				assert.Equal(t, DocumentOK, d.Status)
			}
			scan := res.Documents[3]
			assert.Equal(t, DocumentDegraded, scan.Status)
			assert.Equal(t, entity.MinimalConfidence, scan.ExtractionConfidence)

			failed := warningsOf(res.Warnings, entity.WarnExtractorFailed)
			require.Len(t, failed, 1)
			assert.Equal(t, "scan", failed[0].DocumentID)
			assert.Contains(t, failed[0].Message, tt.msg)
			assert.Empty(t, warningsOf(res.Warnings, entity.WarnCorruptDocument))

			assert.Len(t, res.Matrix.VendorKeys, 3)
			assert.InDelta(t, 170, res.Recommendation.TotalCost, 1e-9)
		})
	}
}

func TestLoadWarning(t *testing.T) {
	t.Parallel()
	in := DocumentInput{ID: "d", Format: "pdf"}
	tests := []struct {
		name string
		err  error
		want entity.WarningKind
	}{
		{"unsupported", &entity.UnsupportedFormatError{Format: "docx"}, entity.WarnUnsupportedFormat},
		{"no capability", fmt.Errorf("%w: pdf", loader.ErrNoCapability), entity.WarnUnsupportedFormat},
		{"corrupt", &entity.CorruptDocumentError{DocumentID: "d", Format: "pdf"}, entity.WarnCorruptDocument},
		{"ocr failed", fmt.Errorf("%w: ocr timed out after 1s", loader.ErrOCRFailed), entity.WarnExtractorFailed},
		{"anything else", errors.New("pdftoppm: broken pipe"), entity.WarnExtractorFailed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			w := loadWarning(in, tt.err)
			assert.Equal(t, tt.want, w.Kind)
			assert.Equal(t, "d", w.DocumentID)
		})
	}
}

func TestOptionsFromConfig(t *testing.T) {
	t.Parallel()
	opts := OptionsFromConfig(common.EngineConfig{
		MaxParallel:      8,
		ExtractTimeout:   time.Second,
		OCRTimeout:       2 * time.Second,
		ItemSimilarity:   0.7,
		VendorSimilarity: 0.9,
		BaseCurrency:     "EUR",
		Extractor:        "auto",
	}).withDefaults()
	assert.Equal(t, 8, opts.MaxParallel)
	assert.Equal(t, time.Second, opts.ExtractTimeout)
	assert.Equal(t, 2*time.Second, opts.OCRTimeout)
	assert.Equal(t, 0.7, opts.Normalize.ItemThreshold)
	assert.Equal(t, 0.9, opts.Normalize.VendorThreshold)
	assert.Equal(t, "EUR", opts.BaseCurrency)
	assert.Equal(t, entity.ModeAuto, opts.Mode)
	assert.Equal(t, 0.5, opts.LowConfidence)
}
