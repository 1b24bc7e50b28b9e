package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joseph-ayodele/quote-optimizer/internal/bootstrap"
	"github.com/joseph-ayodele/quote-optimizer/internal/common"
	"github.com/joseph-ayodele/quote-optimizer/internal/entity"
	"github.com/joseph-ayodele/quote-optimizer/internal/ingest"
	"github.com/joseph-ayodele/quote-optimizer/internal/pipeline"
	repo "github.com/joseph-ayodele/quote-optimizer/internal/repository"
)

// printError prints an error message to stderr, falling back to stdout if stderr fails
func printError(format string, args ...interface{}) {
	if _, err := fmt.Fprintf(os.Stderr, format, args...); err != nil {
		fmt.Printf(format, args...)
	}
}

func main() {
	var (
		dir        = flag.String("dir", "", "directory of quote documents (required)")
		mode       = flag.String("mode", "", "auto | single_vendor | split (default from QUOTE_MODE or auto)")
		rulesPath  = flag.String("rules", "", "JSON file with compliance rules (default: at least two quotes)")
		extractor  = flag.String("extractor", "", "heuristic | llm | auto (default from QUOTE_EXTRACTOR)")
		out        = flag.String("out", "", "write the JSON result here instead of stdout")
		skipHidden = flag.Bool("skip-hidden", true, "skip dot files and directories")
		storeDSN   = flag.String("store", "", "record the run in this result store (default STORE_DSN; empty skips)")
		timeout    = flag.Duration("timeout", 10*time.Minute, "overall run timeout")
	)
	flag.Parse()

	if *dir == "" {
		printError("Error: --dir is required\n")
		os.Exit(1)
	}

	cfg := common.LoadConfig()
	logger := common.NewLogger(cfg.Log, os.Stderr)
	if err := cfg.Validate(); err != nil {
		logger.Error("invalid configuration", "error", err)
		os.Exit(2)
	}

	var rules []entity.ComplianceRule
	if *rulesPath != "" {
		b, err := os.ReadFile(*rulesPath)
		if err != nil {
			logger.Error("failed to read rules", "path", *rulesPath, "error", err)
			os.Exit(1)
		}
		if err := json.Unmarshal(b, &rules); err != nil {
			logger.Error("failed to parse rules", "path", *rulesPath, "error", err)
			os.Exit(1)
		}
		if rules == nil {
			rules = []entity.ComplianceRule{}
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithTimeout(ctx, *timeout)
	defer cancel()

	docs, stats, err := ingest.ReadDirectory(ctx, *dir, *skipHidden)
	if err != nil {
		logger.Error("failed to read directory", "dir", *dir, "error", err)
		os.Exit(1)
	}
	if len(docs) == 0 {
		logger.Error("no supported quote documents found", "dir", *dir, "scanned", stats.Scanned)
		os.Exit(1)
	}

	analyzer, err := bootstrap.NewAnalyzer(cfg, logger)
	if err != nil {
		logger.Error("failed to build analyzer", "error", err)
		os.Exit(1)
	}
	res, err := analyzer.Run(ctx, pipeline.Input{
		Documents: docs,
		Rules:     rules,
		Mode:      entity.Mode(*mode),
		Extractor: *extractor,
	})
	if err != nil {
		logger.Error("analysis failed", "error", err)
		os.Exit(1)
	}

	if *storeDSN == "" {
		*storeDSN = cfg.Store.DSN
	}
	if *storeDSN != "" {
		storeCfg := cfg.Store
		storeCfg.DSN = *storeDSN
		store, err := repo.Open(ctx, storeCfg, logger)
		if err != nil {
			logger.Error("failed to open store", "error", err)
			os.Exit(1)
		}
		defer store.Close()
		if err := store.SaveRun(ctx, res.RunID, res); err != nil {
			logger.Error("failed to save run", "error", err)
			os.Exit(1)
		}
	}

	w := os.Stdout
	if *out != "" {
		f, err := os.Create(*out)
		if err != nil {
			logger.Error("failed to create output", "path", *out, "error", err)
			os.Exit(1)
		}
		defer func() {
			if err := f.Close(); err != nil {
				logger.Error("failed to close output", "path", *out, "error", err)
			}
		}()
		w = f
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(res); err != nil {
		logger.Error("failed to write result", "error", err)
		os.Exit(1)
	}

	for _, line := range res.Recommendation.Rationale {
		logger.Info("rationale", "line", line)
	}
	logger.Info("analysis complete",
		"run_id", res.RunID,
		"documents", len(res.Documents),
		"mode", res.Recommendation.Mode,
		"total_cost", res.Recommendation.TotalCost,
		"gaps", len(res.Recommendation.Gaps),
		"warnings", len(res.Warnings),
	)
}
