// Package bootstrap builds an Analyzer from configuration, wiring the OCR
// and language-model capabilities the binaries share.
package bootstrap

import (
	"fmt"
	"log/slog"

	"github.com/joseph-ayodele/quote-optimizer/internal/common"
	"github.com/joseph-ayodele/quote-optimizer/internal/extract"
	"github.com/joseph-ayodele/quote-optimizer/internal/llm/openai"
	"github.com/joseph-ayodele/quote-optimizer/internal/ocr"
	"github.com/joseph-ayodele/quote-optimizer/internal/pipeline"
)

// OCRExtractor builds the tool-based OCR capability from cfg.
func OCRExtractor(cfg common.OCRConfig, logger *slog.Logger) *ocr.Extractor {
	return ocr.NewExtractor(ocr.Config{
		TesseractLang:       cfg.Lang,
		TessdataDir:         cfg.TessdataDir,
		HeicConverter:       cfg.HeicConverter,
		EnableTSVConfidence: cfg.TSVConfidence,
		ArtifactCacheDir:    cfg.ArtifactCacheDir,
	}, logger)
}

// ModelExtractor builds the language-model extractor, or nil when no API key
// is configured.
func ModelExtractor(cfg *common.Config, logger *slog.Logger) (extract.FieldExtractor, error) {
	if cfg.LLM.APIKey == "" {
		return nil, nil
	}
	if logger == nil {
		logger = slog.Default()
	}
	client, err := openai.NewClient(openai.Config{
		APIKey:            cfg.LLM.APIKey,
		BaseURL:           cfg.LLM.BaseURL,
		Model:             cfg.LLM.Model,
		Temperature:       cfg.LLM.Temperature,
		Timeout:           cfg.LLM.Timeout,
		RequestsPerSecond: cfg.LLM.RequestsPerSecond,
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("openai client: %w", err)
	}
	logger.Info("model extractor enabled", "model", client.Model())
	return extract.NewModel(client, cfg.Engine.BaseCurrency, logger), nil
}

// NewAnalyzer returns an Analyzer configured from cfg plus any extra options.
func NewAnalyzer(cfg *common.Config, logger *slog.Logger, extra ...pipeline.Option) (*pipeline.Analyzer, error) {
	opts := []pipeline.Option{pipeline.WithOCR(OCRExtractor(cfg.OCR, logger))}
	if img := imageOCR(cfg.OCR, logger); img != nil {
		opts = append(opts, pipeline.WithImageOCR(img))
	}
	model, err := ModelExtractor(cfg, logger)
	if err != nil {
		return nil, err
	}
	if model != nil {
		opts = append(opts, pipeline.WithExtractor(model))
	}
	opts = append(opts, extra...)
	return pipeline.NewAnalyzer(pipeline.OptionsFromConfig(cfg.Engine), logger, opts...), nil
}
