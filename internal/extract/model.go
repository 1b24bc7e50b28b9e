package extract

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"strings"

	"github.com/joseph-ayodele/quote-optimizer/internal/entity"
	"github.com/joseph-ayodele/quote-optimizer/internal/llm"
)

// defaultModelConfidence is used when the model does not score its own output.
const defaultModelConfidence = 0.7

// Model adapts a language-model field extractor to FieldExtractor.
// Values the model returns are never recomputed here; arithmetic checks
// happen downstream exactly as for heuristic output.
type Model struct {
	client          llm.FieldExtractor
	defaultCurrency string
	logger          *slog.Logger
}

func NewModel(client llm.FieldExtractor, defaultCurrency string, logger *slog.Logger) *Model {
	if logger == nil {
		logger = slog.Default()
	}
	return &Model{client: client, defaultCurrency: defaultCurrency, logger: logger}
}

func (m *Model) Name() string { return NameModel }

func (m *Model) ExtractFields(ctx context.Context, doc entity.QuoteDocument) (entity.ExtractedQuote, error) {
	text := doc.Text()
	lines := strings.Split(text, "\n")
	resp, _, err := m.client.ExtractFields(ctx, llm.ExtractRequest{
		DocumentID:      doc.ID,
		Text:            text,
		VendorHint:      doc.VendorHint,
		FilenameHint:    doc.FilenameHint,
		DefaultCurrency: m.defaultCurrency,
		PrepConfidence:  doc.Confidence,
	})
	if err != nil {
		return entity.ExtractedQuote{}, fmt.Errorf("model extraction: %w", err)
	}

	docConf := resp.Confidence
	if docConf <= 0 {
		docConf = defaultModelConfidence
	}
	docConf *= doc.Confidence

	q := entity.ExtractedQuote{
		DocumentID: doc.ID,
		Currency:   strings.ToUpper(strings.TrimSpace(resp.CurrencyCode)),
		Terms:      resp.Terms,
		Extractor:  NameModel,
	}
	if q.Currency == "" {
		q.Currency = detectCurrency(text)
	}
	if v := strings.TrimSpace(resp.Vendor); v != "" && !strings.EqualFold(v, UnknownVendor) {
		q.VendorName, q.VendorSource = v, entity.SourceModel
	} else {
		vr := detectVendor(lines, doc.VendorHint, doc.FilenameHint)
		q.VendorName, q.VendorSource = vr.name, vr.source
	}
	if q.VendorName == UnknownVendor {
		q.Warnings = append(q.Warnings, entity.Warning{
			DocumentID: doc.ID,
			Kind:       entity.WarnUnknownVendor,
			Message:    "no vendor name found in document, hint or filename",
		})
	}
	if resp.QuoteTotal != nil {
		q.QuoteTotal = entity.Found(*resp.QuoteTotal, docConf, entity.SourceModel)
	}

	for i, it := range resp.Items {
		conf := docConf
		if it.Confidence != nil {
			conf = math.Min(*it.Confidence, 1) * doc.Confidence
		}
		f := fields{
			page:        1,
			row:         i + 1,
			description: strings.TrimSpace(it.Description),
			blockConf:   doc.Confidence,
		}
		if it.SKU != "" {
			f.sku = entity.Found(it.SKU, conf, entity.SourceModel)
		}
		if it.Unit != "" {
			f.unit = entity.Found(it.Unit, conf, entity.SourceModel)
		}
		if it.Delivery != "" {
			f.terms = entity.Found(it.Delivery, conf, entity.SourceModel)
		}
		if it.Quantity != nil {
			f.qty = entity.Found(*it.Quantity, conf, entity.SourceModel)
		}
		if it.UnitPrice != nil {
			f.price = entity.Found(*it.UnitPrice, conf, entity.SourceModel)
		}
		if it.LineTotal != nil {
			f.total = entity.Found(*it.LineTotal, conf, entity.SourceModel)
		}
		li, w := finalize(doc.ID, f)
		li.RawVendorName = q.VendorName
		li.Currency = q.Currency
		q.Items = append(q.Items, li)
		if w != nil {
			q.Warnings = append(q.Warnings, *w)
		}
	}
	q.Warnings = append(q.Warnings, pricingRisks(doc.ID, lines)...)
	q.Confidence = meanConfidence(q.Items)

	m.logger.Debug("extract.model.ok",
		"document_id", doc.ID,
		"vendor", q.VendorName,
		"items", len(q.Items),
		"confidence", q.Confidence,
	)
	return q, nil
}
