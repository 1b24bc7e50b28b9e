package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/joseph-ayodele/quote-optimizer/internal/bootstrap"
	"github.com/joseph-ayodele/quote-optimizer/internal/common"
)

func main() {
	cfg := common.LoadConfig()
	logger := common.NewLogger(common.LogConfig{Level: cfg.Log.Level, Format: "json"}, os.Stderr)

	if len(os.Args) != 2 {
		logger.Error("usage", "cmd", "runocr <pdf-or-image-path>")
		os.Exit(2)
	}
	path := os.Args[1]
	if _, err := os.Stat(path); err != nil {
		logger.Error("cannot read file", "path", path, "error", err)
		os.Exit(2)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	start := time.Now()
	res, err := bootstrap.OCRExtractor(cfg.OCR, logger).Extract(ctx, path)
	dur := time.Since(start)
	if err != nil {
		logger.Error("text extraction failed", "path", path, "error", err, "duration_ms", dur.Milliseconds())
		os.Exit(1)
	}

	fmt.Println(res.Text)
	logger.Info("text extraction OK",
		"file", filepath.Base(path),
		"method", res.Method,
		"pages", res.Pages,
		"confidence", res.Confidence,
		"warnings", len(res.Warnings),
		"bytes", len(res.Text),
		"duration_ms", dur.Milliseconds(),
	)
}
