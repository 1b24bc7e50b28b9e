// Package pipeline runs an analysis: documents are loaded, extracted and
// validated in parallel, then identities are normalized, the comparison
// matrix is built and the recommendation and compliance results computed.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/joseph-ayodele/quote-optimizer/internal/common"
	"github.com/joseph-ayodele/quote-optimizer/internal/compare"
	"github.com/joseph-ayodele/quote-optimizer/internal/compliance"
	"github.com/joseph-ayodele/quote-optimizer/internal/entity"
	"github.com/joseph-ayodele/quote-optimizer/internal/extract"
	"github.com/joseph-ayodele/quote-optimizer/internal/loader"
	"github.com/joseph-ayodele/quote-optimizer/internal/normalize"
	"github.com/joseph-ayodele/quote-optimizer/internal/optimize"
	"github.com/joseph-ayodele/quote-optimizer/internal/validate"
)

// Analyzer coordinates the stages of a run. It holds no per-run state and
// is safe for concurrent Runs.
type Analyzer struct {
	opts   Options
	logger *slog.Logger

	loaderOpts loader.Options
	extractors map[string]extract.FieldExtractor
	registry   *compliance.Registry
	metrics    *Metrics
	now        func() time.Time

	loader     *loader.Loader
	validator  *validate.Validator
	normalizer *normalize.Normalizer
	optimizer  *optimize.Optimizer
	compliance *compliance.Engine
}

func NewAnalyzer(opts Options, logger *slog.Logger, options ...Option) *Analyzer {
	if logger == nil {
		logger = slog.Default()
	}
	a := &Analyzer{
		opts:       opts.withDefaults(),
		logger:     logger,
		extractors: map[string]extract.FieldExtractor{},
		now:        time.Now,
	}
	a.extractors[extract.NameHeuristic] = extract.NewHeuristic(logger)
	for _, o := range options {
		o(a)
	}
	if a.metrics == nil {
		m, err := NewMetrics()
		if err != nil {
			logger.Warn("pipeline.metrics.disabled", "error", err)
		}
		a.metrics = m
	}

	a.loaderOpts.OCRTimeout = a.opts.OCRTimeout
	a.loader = loader.New(a.loaderOpts, logger)
	a.validator = validate.New(validate.Options{BaseCurrency: a.opts.BaseCurrency, Rates: a.opts.Rates}, logger)
	a.normalizer = normalize.New(a.opts.Normalize, logger)
	a.optimizer = optimize.New(optimize.Options{MissingPenalty: a.opts.MissingPenalty, Currency: a.opts.BaseCurrency}, logger)
	a.compliance = compliance.New(a.registry, logger)
	return a
}

// extractor resolves an extraction capability by name and wraps it with the
// per-document timeout. auto falls back from the heuristic to the model.
func (a *Analyzer) extractor(name string) (extract.FieldExtractor, error) {
	if name == "" {
		name = a.opts.Extractor
	}
	var fe extract.FieldExtractor
	switch name {
	case extract.NameAuto:
		h := a.extractors[extract.NameHeuristic]
		if m, ok := a.extractors[extract.NameModel]; ok {
			fe = extract.NewFallback(h, m, a.opts.LowConfidence, a.logger)
		} else {
			fe = h
		}
	default:
		got, ok := a.extractors[name]
		if !ok {
			return nil, fmt.Errorf("%w: extractor %q is not configured", common.ErrInvalidInput, name)
		}
		fe = got
	}
	return extract.NewGuarded(fe, a.opts.ExtractTimeout, a.logger), nil
}

// Run analyzes one batch. Document-local problems are reported as warnings
// in the Result. Errors are returned for invalid input, unsupported rules,
// matrix invariant violations and cancellation.
func (a *Analyzer) Run(ctx context.Context, in Input) (Result, error) {
	rc, err := a.newRun(in)
	if err != nil {
		return Result{}, err
	}
	ctx = common.WithRunID(ctx, rc.ID)
	rc.Logger = common.LoggerFrom(ctx, a.logger)
	log := rc.Logger
	log.Info("pipeline.run.start", "documents", len(rc.documents), "mode", rc.Mode, "extractor", rc.Extractor.Name())

	if err := a.extractAll(ctx, rc, rc.documents); err != nil {
		log.Warn("pipeline.run.cancelled", "error", err)
		return Result{}, err
	}

	for _, o := range rc.outcomes {
		rc.warn(o.quote.Warnings...)
	}
	rc.identities = a.normalizer.Normalize(rc.quotes())
	rc.warn(rc.identities.Warnings...)

	rc.matrix, err = compare.Build(rc.identities.Vendors, rc.identities.Items)
	if err != nil {
		log.Error("pipeline.matrix.inconsistent", "error", err)
		return Result{}, err
	}

	res := Result{
		RunID:     rc.ID,
		StartedAt: rc.StartedAt,
		Vendors:   rc.identities.Vendors,
		Items:     rc.identities.Items,
		Matrix:    rc.matrix,
	}
	if rc.Mode == entity.ModeAuto {
		rec, alt := a.optimizer.Auto(rc.matrix)
		res.Recommendation, res.Alternative = rec, &alt
	} else {
		res.Recommendation, err = a.optimizer.Recommend(rc.matrix, rc.Mode)
		if err != nil {
			return Result{}, err
		}
	}
	for _, g := range res.Recommendation.Gaps {
		rc.warn(entity.Warning{
			ItemKey: g.ItemKey,
			Kind:    entity.WarnGap,
			Message: fmt.Sprintf("%s: %s", g.Description, g.Reason),
		})
	}

	res.Compliance, err = a.compliance.Evaluate(rc.Rules, rc.matrix, res.Recommendation)
	if err != nil {
		return Result{}, err
	}
	res.ComplianceSummary = compliance.Summarize(res.Compliance)

	res.Warnings = rc.warnings
	if res.Warnings == nil {
		res.Warnings = []entity.Warning{}
	}
	res.Documents = make([]DocumentReport, len(rc.outcomes))
	for i, o := range rc.outcomes {
		o.report.VendorKey = rc.identities.DocumentVendors[o.report.DocumentID]
		res.Documents[i] = o.report
	}
	res.FinishedAt = a.now()

	elapsed := res.FinishedAt.Sub(rc.StartedAt)
	a.metrics.RecordRun(ctx, string(res.Recommendation.Mode), elapsed, len(res.Recommendation.Gaps), res.Recommendation.SavingsVsWorst)
	log.Info("pipeline.run.ok",
		"vendors", len(res.Vendors),
		"items", len(res.Items),
		"mode", res.Recommendation.Mode,
		"total_cost", res.Recommendation.TotalCost,
		"gaps", len(res.Recommendation.Gaps),
		"warnings", len(res.Warnings),
		"compliance_score", res.ComplianceSummary.Score,
		"elapsed_ms", elapsed.Milliseconds(),
	)
	return res, nil
}

// newRun validates the input and builds the run's context.
func (a *Analyzer) newRun(in Input) (*RunContext, error) {
	if len(in.Documents) == 0 {
		return nil, fmt.Errorf("%w: no documents", common.ErrInvalidInput)
	}
	// generated ids go on a copy; the caller's slice is left alone
	docs := slices.Clone(in.Documents)
	seen := make(map[string]bool, len(docs))
	for i := range docs {
		d := &docs[i]
		if d.ID == "" {
			d.ID = uuid.NewString()
		}
		if seen[d.ID] {
			return nil, fmt.Errorf("%w: duplicate document id %q", common.ErrInvalidInput, d.ID)
		}
		seen[d.ID] = true
	}

	mode := in.Mode
	if mode == "" {
		mode = a.opts.Mode
	}
	switch mode {
	case entity.ModeAuto, entity.ModeSingleVendor, entity.ModeSplit:
	default:
		return nil, fmt.Errorf("%w: unknown mode %q", common.ErrInvalidInput, mode)
	}

	rules := in.Rules
	if rules == nil {
		rules = compliance.DefaultRules()
	}
	if err := a.compliance.Validate(rules); err != nil {
		return nil, err
	}

	fe, err := a.extractor(in.Extractor)
	if err != nil {
		return nil, err
	}

	id := uuid.NewString()
	return &RunContext{
		ID:        id,
		StartedAt: a.now(),
		Mode:      mode,
		Rules:     rules,
		Extractor: fe,
		Logger:    a.logger,
		documents: docs,
		outcomes:  make([]documentOutcome, len(docs)),
	}, nil
}

// extractAll runs the per-document stage with bounded parallelism. Once ctx
// is cancelled no further documents are started.
func (a *Analyzer) extractAll(ctx context.Context, rc *RunContext, docs []DocumentInput) error {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(a.opts.MaxParallel)
	for i, d := range docs {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			out, err := a.processDocument(gctx, rc, d)
			if err != nil {
				return err
			}
			rc.outcomes[i] = out
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	return ctx.Err()
}
