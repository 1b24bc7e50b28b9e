package main

import (
	"context"
	"encoding/json"
	"flag"
	"os"
	"time"

	"github.com/joseph-ayodele/quote-optimizer/internal/bootstrap"
	"github.com/joseph-ayodele/quote-optimizer/internal/common"
	"github.com/joseph-ayodele/quote-optimizer/internal/extract"
	"github.com/joseph-ayodele/quote-optimizer/internal/ingest"
	"github.com/joseph-ayodele/quote-optimizer/internal/loader"
	"github.com/joseph-ayodele/quote-optimizer/internal/validate"
)

// extractquote loads one file, runs one extractor over it and prints the
// validated extraction. It is a debugging aid for extractor output.
func main() {
	var (
		name   = flag.String("extractor", extract.NameHeuristic, "heuristic | llm | auto")
		vendor = flag.String("vendor", "", "vendor hint")
	)
	flag.Parse()

	cfg := common.LoadConfig()
	logger := common.NewLogger(cfg.Log, os.Stderr)
	if flag.NArg() != 1 {
		logger.Error("usage", "cmd", "extractquote [-extractor heuristic|llm|auto] [-vendor name] <file>")
		os.Exit(2)
	}
	path := flag.Arg(0)

	in, err := ingest.ReadFile(path)
	if err != nil {
		logger.Error("read file", "path", path, "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	ld := loader.New(loader.Options{OCR: bootstrap.OCRExtractor(cfg.OCR, logger)}, logger)
	doc, err := ld.Load(ctx, loader.Source{ID: in.ID, Format: in.Format, Bytes: in.Bytes, VendorHint: *vendor, FilenameHint: in.FilenameHint})
	if err != nil {
		logger.Error("load failed", "path", path, "error", err)
		os.Exit(1)
	}

	heuristic := extract.NewHeuristic(logger)
	model, err := bootstrap.ModelExtractor(cfg, logger)
	if err != nil {
		logger.Error("model extractor", "error", err)
		os.Exit(1)
	}
	var fe extract.FieldExtractor
	switch *name {
	case extract.NameHeuristic:
		fe = heuristic
	case extract.NameModel, extract.NameAuto:
		if model == nil {
			logger.Error("OPENAI_API_KEY env var is required", "extractor", *name)
			os.Exit(2)
		}
		fe = model
		if *name == extract.NameAuto {
			fe = extract.NewFallback(heuristic, model, 0.5, logger)
		}
	default:
		logger.Error("unknown extractor", "extractor", *name)
		os.Exit(2)
	}

	start := time.Now()
	q, err := extract.NewGuarded(fe, cfg.Engine.ExtractTimeout, logger).ExtractFields(ctx, doc)
	if err != nil {
		logger.Error("extraction failed", "error", err)
		os.Exit(1)
	}
	q, report := validate.New(validate.Options{BaseCurrency: cfg.Engine.BaseCurrency}, logger).Validate(q)

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(struct {
		Method     string          `json:"method"`
		Confidence float64         `json:"load_confidence"`
		Quote      any             `json:"quote"`
		Validation validate.Report `json:"validation"`
	}{doc.Method, doc.Confidence, q, report}); err != nil {
		logger.Error("encode", "error", err)
		os.Exit(1)
	}
	logger.Info("extraction OK",
		"extractor", q.Extractor,
		"vendor", q.VendorName,
		"items", len(q.Items),
		"confidence", q.Confidence,
		"duration_ms", time.Since(start).Milliseconds(),
	)
}
