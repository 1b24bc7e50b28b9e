//go:build gosseract

package bootstrap

import (
	"log/slog"

	"github.com/joseph-ayodele/quote-optimizer/internal/common"
	"github.com/joseph-ayodele/quote-optimizer/internal/loader"
	"github.com/joseph-ayodele/quote-optimizer/internal/ocr/gosseract"
)

func imageOCR(cfg common.OCRConfig, logger *slog.Logger) loader.OCR {
	return gosseract.NewEngine(logger, cfg.Lang)
}
