package pipeline

import (
	"time"

	"github.com/joseph-ayodele/quote-optimizer/internal/common"
	"github.com/joseph-ayodele/quote-optimizer/internal/compliance"
	"github.com/joseph-ayodele/quote-optimizer/internal/entity"
	"github.com/joseph-ayodele/quote-optimizer/internal/extract"
	"github.com/joseph-ayodele/quote-optimizer/internal/loader"
	"github.com/joseph-ayodele/quote-optimizer/internal/normalize"
)

// Options are the engine knobs of an Analyzer.
type Options struct {
	// MaxParallel bounds concurrent per-document work. Default 4.
	MaxParallel int
	// ExtractTimeout bounds one document's field extraction. Default 45s.
	ExtractTimeout time.Duration
	// OCRTimeout bounds one document's OCR call. Default 60s.
	OCRTimeout time.Duration
	// Extractor names the default extraction capability: heuristic, llm or auto.
	Extractor string
	// Mode is used when an Input leaves it empty. Default auto.
	Mode           entity.Mode
	BaseCurrency   string
	Rates          map[string]float64
	Normalize      normalize.Options
	MissingPenalty float64
	// LowConfidence is the extraction confidence under which a document gets
	// a low_confidence warning. Default 0.5.
	LowConfidence float64
}

func (o Options) withDefaults() Options {
	if o.MaxParallel <= 0 {
		o.MaxParallel = 4
	}
	if o.ExtractTimeout <= 0 {
		o.ExtractTimeout = 45 * time.Second
	}
	if o.OCRTimeout <= 0 {
		o.OCRTimeout = loader.DefaultOCRTimeout
	}
	if o.Extractor == "" {
		o.Extractor = extract.NameHeuristic
	}
	if o.Mode == "" {
		o.Mode = entity.ModeAuto
	}
	if o.BaseCurrency == "" {
		o.BaseCurrency = "USD"
	}
	if o.LowConfidence <= 0 {
		o.LowConfidence = 0.5
	}
	return o
}

// OptionsFromConfig converts the environment configuration.
func OptionsFromConfig(cfg common.EngineConfig) Options {
	return Options{
		MaxParallel:    cfg.MaxParallel,
		ExtractTimeout: cfg.ExtractTimeout,
		OCRTimeout:     cfg.OCRTimeout,
		Extractor:      cfg.Extractor,
		BaseCurrency:   cfg.BaseCurrency,
		Normalize: normalize.Options{
			VendorThreshold:  cfg.VendorSimilarity,
			ItemThreshold:    cfg.ItemSimilarity,
			AmbiguityEpsilon: cfg.AmbiguityEpsilon,
		},
		MissingPenalty: cfg.MissingPenalty,
	}
}

// Option configures an Analyzer beyond its Options.
type Option func(*Analyzer)

// WithExtractor registers a field extraction capability under its Name.
// The heuristic extractor is always registered.
func WithExtractor(fe extract.FieldExtractor) Option {
	return func(a *Analyzer) {
		if fe != nil {
			a.extractors[fe.Name()] = fe
		}
	}
}

// WithOCR sets the capability used for PDFs and images.
func WithOCR(ocr loader.OCR) Option {
	return func(a *Analyzer) { a.loaderOpts.OCR = ocr }
}

// WithImageOCR sets a separate capability for images.
func WithImageOCR(ocr loader.OCR) Option {
	return func(a *Analyzer) { a.loaderOpts.ImageOCR = ocr }
}

// WithSimilarity replaces the vendor and item similarity functions. Nil keeps the default.
func WithSimilarity(vendor, item normalize.Similarity) Option {
	return func(a *Analyzer) {
		if vendor != nil {
			a.opts.Normalize.VendorSimilarity = vendor
		}
		if item != nil {
			a.opts.Normalize.ItemSimilarity = item
		}
	}
}

// WithMetrics records run metrics to m. Without it the global meter provider is used.
func WithMetrics(m *Metrics) Option {
	return func(a *Analyzer) { a.metrics = m }
}

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(a *Analyzer) {
		if now != nil {
			a.now = now
		}
	}
}

// WithRegistry sets the custom compliance predicate registry.
func WithRegistry(r *compliance.Registry) Option {
	return func(a *Analyzer) { a.registry = r }
}
