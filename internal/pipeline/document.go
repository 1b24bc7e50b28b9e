package pipeline

import (
	"context"
	"errors"
	"fmt"

	"github.com/joseph-ayodele/quote-optimizer/constants"
	"github.com/joseph-ayodele/quote-optimizer/internal/common"
	"github.com/joseph-ayodele/quote-optimizer/internal/entity"
	"github.com/joseph-ayodele/quote-optimizer/internal/extract"
	"github.com/joseph-ayodele/quote-optimizer/internal/loader"
)

// processDocument loads, extracts and validates one document. Document-local
// failures become warnings on the outcome; only cancellation is returned.
func (a *Analyzer) processDocument(ctx context.Context, rc *RunContext, in DocumentInput) (out documentOutcome, err error) {
	start := a.now()
	out = documentOutcome{started: true, report: DocumentReport{DocumentID: in.ID, Format: in.Format}}
	defer func() {
		out.report.Elapsed = a.now().Sub(start)
	}()
	ctx = common.WithDocumentID(ctx, in.ID)
	log := common.LoggerFrom(ctx, a.logger)

	doc, err := a.loader.Load(ctx, loader.Source{
		ID:           in.ID,
		Format:       in.Format,
		Bytes:        in.Bytes,
		VendorHint:   in.VendorHint,
		FilenameHint: in.FilenameHint,
	})
	var q entity.ExtractedQuote
	switch {
	case err == nil:
		q, err = rc.Extractor.ExtractFields(ctx, doc)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return out, ctxErr
			}
			// Guarded extractors degrade instead of failing; anything else is treated the same way.
			q = extract.Degraded(doc, rc.Extractor.Name(), err)
		}
	case ctx.Err() != nil:
		return out, ctx.Err()
	case errors.Is(err, loader.ErrOCRFailed):
		// the text layer could not be read in time; the document degrades like a failed extractor
		log.Warn("pipeline.document.degraded", "stage", "load", "format", in.Format, "error", err)
		doc.Confidence = entity.MinimalConfidence
		q = extract.Degraded(doc, "ocr", err)
	default:
		out.report.Status = DocumentFailed
		out.report.Error = err.Error()
		out.quote.Warnings = []entity.Warning{loadWarning(in, err)}
		log.Warn("pipeline.document.failed", "stage", "load", "format", in.Format, "error", err)
		a.metrics.RecordDocument(ctx, formatLabel(in.Format), DocumentFailed, a.now().Sub(start))
		return out, nil
	}
	out.report.Format = string(doc.Format)
	out.report.Method = doc.Method
	out.report.LoadConfidence = doc.Confidence
	for _, msg := range doc.Warnings {
		q.Warnings = append(q.Warnings, entity.Warning{DocumentID: doc.ID, Kind: entity.WarnLowConfidence, Message: msg})
	}

	q, rep := a.validator.Validate(q)
	if q.Confidence < a.opts.LowConfidence && len(q.Items) > 0 {
		q.Warnings = append(q.Warnings, entity.Warning{
			DocumentID: doc.ID,
			Kind:       entity.WarnLowConfidence,
			Message:    fmt.Sprintf("extraction confidence %.2f is below %.2f", q.Confidence, a.opts.LowConfidence),
		})
	}

	out.quote = q
	out.ok = true
	out.report.Status = DocumentOK
	if hasKind(q.Warnings, entity.WarnExtractorFailed) {
		out.report.Status = DocumentDegraded
	}
	out.report.Extractor = q.Extractor
	out.report.ExtractionConfidence = q.Confidence
	out.report.Vendor = q.VendorName
	out.report.Currency = q.Currency
	out.report.LineItems = len(q.Items)
	out.report.Validation = &rep

	log.Info("pipeline.document.ok",
		"format", doc.Format,
		"status", out.report.Status,
		"extractor", q.Extractor,
		"items", len(q.Items),
		"confidence", q.Confidence,
		"validation_status", rep.Status,
	)
	a.metrics.RecordDocument(ctx, string(doc.Format), out.report.Status, a.now().Sub(start))
	return out, nil
}

// loadWarning maps a loader error onto the warning taxonomy. Only bytes the
// loader proved unparseable are corrupt; any other failure is reported as a
// failed extraction.
func loadWarning(in DocumentInput, err error) entity.Warning {
	w := entity.Warning{DocumentID: in.ID, Kind: entity.WarnExtractorFailed, Message: err.Error()}
	switch {
	case errors.Is(err, entity.ErrUnsupportedFormat):
		w.Kind = entity.WarnUnsupportedFormat
	case errors.Is(err, loader.ErrNoCapability):
		w.Kind = entity.WarnUnsupportedFormat
		w.Message = fmt.Sprintf("%s documents need an OCR capability: %v", in.Format, err)
	case errors.Is(err, entity.ErrCorruptDocument):
		w.Kind = entity.WarnCorruptDocument
	}
	return w
}

func hasKind(ws []entity.Warning, kind entity.WarningKind) bool {
	for _, w := range ws {
		if w.Kind == kind {
			return true
		}
	}
	return false
}

func formatLabel(f string) string {
	if format, ok := constants.ParseFormat(f); ok {
		return string(format)
	}
	return "unknown"
}
