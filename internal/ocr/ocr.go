package ocr

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/joseph-ayodele/quote-optimizer/constants"
)

type Config struct {
	Pdftotext string // binary name or absolute path; if empty -> "pdftotext"
	Pdftoppm  string // binary name or absolute path; if empty -> "pdftoppm"
	Tesseract string // binary name or absolute path; if empty -> "tesseract"

	TesseractLang string // default "eng"
	DPI           int    // rasterization DPI for scanned PDFs, default 300
	MaxPages      int    // 0 = no limit

	TessdataDir         string
	HeicConverter       string
	EnableTSVConfidence bool

	PSM int // e.g., 6 is good for uniform block of text
	OEM int // 1 = LSTM; leave 0 to use default

	// MinTextChars is the amount of non-space text pdftotext must return
	// before the scanned-PDF fallback is skipped. Default 20.
	MinTextChars int

	ArtifactCacheDir string
}

// Text-layer PDFs are trusted more than anything that went through OCR.
const pdfTextConfidence = 0.95

type ExtractionResult struct {
	Text       string           `json:"text"`
	Pages      int              `json:"pages"`
	SourceType constants.Format `json:"source_type"`
	Method     string           `json:"method"` // "pdf-text" | "pdf-ocr" | "image-ocr"
	Language   string           `json:"language"`
	Duration   time.Duration    `json:"duration"`
	Warnings   []string         `json:"warnings,omitempty"`
	Confidence float64          `json:"confidence"`
}

type Extractor struct {
	cfg    Config
	runner Runner
	logger *slog.Logger
}

func NewExtractor(cfg Config, logger *slog.Logger) *Extractor {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Pdftotext == "" {
		cfg.Pdftotext = "pdftotext"
	}
	if cfg.Pdftoppm == "" {
		cfg.Pdftoppm = "pdftoppm"
	}
	if cfg.Tesseract == "" {
		cfg.Tesseract = "tesseract"
	}
	if cfg.TesseractLang == "" {
		cfg.TesseractLang = "eng"
	}
	if cfg.DPI <= 0 {
		cfg.DPI = 300
	}
	if cfg.MinTextChars <= 0 {
		cfg.MinTextChars = 20
	}
	if cfg.ArtifactCacheDir == "" {
		cfg.ArtifactCacheDir = "./tmp"
	}
	return &Extractor{cfg: cfg, runner: execRunner{logger: logger}, logger: logger}
}

// WithRunner returns a copy of the extractor that runs commands through r.
func (e *Extractor) WithRunner(r Runner) *Extractor {
	cp := *e
	cp.runner = r
	return &cp
}

// Extract picks a strategy based on file extension.
func (e *Extractor) Extract(ctx context.Context, path string) (ExtractionResult, error) {
	start := time.Now()
	ext := constants.NormalizeExt(filepath.Ext(path))
	e.logger.Debug("ocr.extract.start", "path", path, "ext", ext)
	switch constants.MapExtToFormat(ext) {
	case constants.PDF:
		res, err := e.extractPDF(ctx, path)
		res.Duration = time.Since(start)
		return res, err
	case constants.IMAGE:
		var cleanup func()
		var warns []string
		if constants.IsHEICExt(ext) {
			out, w, c, err := convertHEICtoPNG(ctx, e.runner, e.cfg.HeicConverter, path)
			warns = append(warns, w...)
			if c != nil {
				cleanup = c
			}
			if err != nil {
				if cleanup != nil {
					cleanup()
				}
				e.logger.Error("ocr.heic.failed", "path", path, "error", err)
				return ExtractionResult{SourceType: constants.IMAGE, Warnings: warns}, err
			}
			path = out
		}
		if cleanup != nil {
			defer cleanup()
		}
		res, err := e.extractImage(ctx, path)
		res.Duration = time.Since(start)
		res.Warnings = append(res.Warnings, warns...)
		return res, err
	default:
		e.logger.Error("ocr.extract.unsupported", "extension", ext)
		return ExtractionResult{}, fmt.Errorf("unsupported extension: %q", ext)
	}
}

// ExtractBytes spills data to a temp file named with ext and runs Extract on it.
func (e *Extractor) ExtractBytes(ctx context.Context, data []byte, ext string) (ExtractionResult, error) {
	ext = constants.NormalizeExt(ext)
	f, err := os.CreateTemp("", "qo-src-*."+ext)
	if err != nil {
		return ExtractionResult{}, fmt.Errorf("create temp file: %w", err)
	}
	path := f.Name()
	defer func() {
		if rmErr := os.Remove(path); rmErr != nil {
			e.logger.Warn("ocr.tempfile.remove_failed", "path", path, "error", rmErr)
		}
	}()
	if _, err := f.Write(data); err != nil {
		_ = f.Close()
		return ExtractionResult{}, fmt.Errorf("write temp file: %w", err)
	}
	if err := f.Close(); err != nil {
		return ExtractionResult{}, fmt.Errorf("close temp file: %w", err)
	}
	return e.Extract(ctx, path)
}
