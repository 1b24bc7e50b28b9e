//go:build gosseract

// Package gosseract is an in-process OCR engine for images, for hosts where
// libtesseract is linked in and spawning the tesseract binary is not wanted.
// Build with -tags gosseract.
package gosseract

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/otiai10/gosseract/v2"

	"github.com/joseph-ayodele/quote-optimizer/constants"
	"github.com/joseph-ayodele/quote-optimizer/internal/ocr"
)

// Engine recognizes image bytes with a fresh gosseract client per call.
type Engine struct {
	languages []string
	logger    *slog.Logger
}

func NewEngine(logger *slog.Logger, languages ...string) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	if len(languages) == 0 {
		languages = []string{"eng"}
	}
	return &Engine{languages: languages, logger: logger}
}

// ExtractBytes runs OCR over an image. PDFs are not handled here.
func (e *Engine) ExtractBytes(ctx context.Context, data []byte, ext string) (ocr.ExtractionResult, error) {
	if constants.MapExtToFormat(ext) != constants.IMAGE || constants.IsHEICExt(ext) {
		return ocr.ExtractionResult{}, fmt.Errorf("gosseract: unsupported extension %q", ext)
	}
	if err := ctx.Err(); err != nil {
		return ocr.ExtractionResult{}, err
	}
	start := time.Now()

	c := gosseract.NewClient()
	defer func() {
		if err := c.Close(); err != nil {
			e.logger.Warn("ocr.gosseract.close_failed", "error", err)
		}
	}()
	if err := c.SetLanguage(e.languages...); err != nil {
		return ocr.ExtractionResult{}, fmt.Errorf("set languages: %w", err)
	}
	if err := c.SetImageFromBytes(data); err != nil {
		return ocr.ExtractionResult{}, fmt.Errorf("set image: %w", err)
	}
	text, err := c.Text()
	if err != nil {
		return ocr.ExtractionResult{}, fmt.Errorf("recognize text: %w", err)
	}

	var conf float64
	if boxes, err := c.GetBoundingBoxes(gosseract.RIL_WORD); err == nil && len(boxes) > 0 {
		var sum float64
		for _, b := range boxes {
			sum += b.Confidence / 100.0
		}
		conf = sum / float64(len(boxes))
	}

	e.logger.Debug("ocr.gosseract.ok", "bytes", len(data), "confidence", conf, "duration_ms", time.Since(start).Milliseconds())
	return ocr.ExtractionResult{
		Text:       ocr.NormalizeLayout(text),
		Pages:      1,
		SourceType: constants.IMAGE,
		Method:     "image-ocr",
		Language:   e.languages[0],
		Duration:   time.Since(start),
		Confidence: conf,
	}, nil
}
