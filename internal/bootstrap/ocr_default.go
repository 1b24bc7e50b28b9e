//go:build !gosseract

package bootstrap

import (
	"log/slog"

	"github.com/joseph-ayodele/quote-optimizer/internal/common"
	"github.com/joseph-ayodele/quote-optimizer/internal/loader"
)

// imageOCR is nil without the gosseract tag; images go through the tesseract binary.
func imageOCR(common.OCRConfig, *slog.Logger) loader.OCR { return nil }
