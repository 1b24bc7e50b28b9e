package pipeline

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Metrics holds OTel metric instruments for analysis runs. A nil *Metrics records nothing.
type Metrics struct {
	Documents         metric.Int64Counter
	ExtractionLatency metric.Float64Histogram
	RunLatency        metric.Float64Histogram
	Gaps              metric.Int64Counter
	Savings           metric.Float64Counter
}

// NewMetrics creates the instruments on the global meter provider.
func NewMetrics() (*Metrics, error) {
	meter := otel.Meter("quote-optimizer")

	documents, err := meter.Int64Counter("quote.documents.processed",
		metric.WithDescription("Documents processed, by format and outcome"),
	)
	if err != nil {
		return nil, err
	}

	extraction, err := meter.Float64Histogram("quote.extraction.latency_seconds",
		metric.WithDescription("Per-document load and extraction time"),
	)
	if err != nil {
		return nil, err
	}

	run, err := meter.Float64Histogram("quote.run.latency_seconds",
		metric.WithDescription("End-to-end analysis run time"),
	)
	if err != nil {
		return nil, err
	}

	gaps, err := meter.Int64Counter("quote.recommendation.gaps",
		metric.WithDescription("Items left unresolved by a recommendation"),
	)
	if err != nil {
		return nil, err
	}

	savings, err := meter.Float64Counter("quote.recommendation.savings",
		metric.WithDescription("Savings of the recommendation over the worst single vendor, in base currency"),
	)
	if err != nil {
		return nil, err
	}

	return &Metrics{
		Documents:         documents,
		ExtractionLatency: extraction,
		RunLatency:        run,
		Gaps:              gaps,
		Savings:           savings,
	}, nil
}

// RecordDocument records one processed document.
func (m *Metrics) RecordDocument(ctx context.Context, format string, status DocumentStatus, d time.Duration) {
	if m == nil {
		return
	}
	attrs := metric.WithAttributes(
		attribute.String("format", format),
		attribute.String("outcome", string(status)),
	)
	m.Documents.Add(ctx, 1, attrs)
	m.ExtractionLatency.Record(ctx, d.Seconds(), attrs)
}

// RecordRun records a finished run.
func (m *Metrics) RecordRun(ctx context.Context, mode string, d time.Duration, gaps int, savings float64) {
	if m == nil {
		return
	}
	attrs := metric.WithAttributes(attribute.String("mode", mode))
	m.RunLatency.Record(ctx, d.Seconds(), attrs)
	m.Gaps.Add(ctx, int64(gaps), attrs)
	if savings > 0 {
		m.Savings.Add(ctx, savings, attrs)
	}
}
