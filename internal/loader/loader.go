// Package loader turns raw quote bytes into positioned text blocks and table rows.
// It does no semantic interpretation.
package loader

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/joseph-ayodele/quote-optimizer/constants"
	"github.com/joseph-ayodele/quote-optimizer/internal/entity"
	"github.com/joseph-ayodele/quote-optimizer/internal/ocr"
)

var (
	// ErrNoCapability is returned when a document needs OCR/PDF text extraction
	// and the loader was built without it.
	ErrNoCapability = errors.New("no text extraction capability configured")
	// ErrOCRFailed is returned when the OCR capability failed or ran past
	// OCRTimeout. The bytes are not known to be bad.
	ErrOCRFailed = errors.New("text extraction failed")
)

// DefaultOCRTimeout bounds one OCR call when Options leaves it unset.
const DefaultOCRTimeout = 60 * time.Second

// OCR is the injected capability that turns PDF and image bytes into text.
// *ocr.Extractor satisfies it.
type OCR interface {
	ExtractBytes(ctx context.Context, data []byte, ext string) (ocr.ExtractionResult, error)
}

// Source is one raw input document.
type Source struct {
	ID           string
	Format       string
	Bytes        []byte
	VendorHint   string
	FilenameHint string
}

type Options struct {
	// OCR handles PDFs without a usable text layer and images.
	OCR OCR
	// ImageOCR overrides OCR for images when set.
	ImageOCR OCR
	// TextRatio is the printable share above which a declared PDF is read as plain text. Default 0.9.
	TextRatio float64
	// OCRTimeout bounds one OCR call. Default 60s.
	OCRTimeout time.Duration
}

type Loader struct {
	opts   Options
	logger *slog.Logger
}

func New(opts Options, logger *slog.Logger) *Loader {
	if logger == nil {
		logger = slog.Default()
	}
	if opts.TextRatio <= 0 || opts.TextRatio > 1 {
		opts.TextRatio = 0.9
	}
	if opts.OCRTimeout <= 0 {
		opts.OCRTimeout = DefaultOCRTimeout
	}
	return &Loader{opts: opts, logger: logger}
}

// Load parses src into a QuoteDocument. It fails with *entity.UnsupportedFormatError
// for unknown formats and *entity.CorruptDocumentError when the bytes cannot be parsed.
func (l *Loader) Load(ctx context.Context, src Source) (entity.QuoteDocument, error) {
	start := time.Now()
	format, ok := constants.ParseFormat(src.Format)
	if !ok {
		return entity.QuoteDocument{}, &entity.UnsupportedFormatError{Format: src.Format}
	}
	doc := entity.QuoteDocument{
		ID:           src.ID,
		Format:       format,
		VendorHint:   src.VendorHint,
		FilenameHint: src.FilenameHint,
		Method:       "native",
		Confidence:   1,
	}
	if len(src.Bytes) == 0 {
		return doc, l.corrupt(src, format, errors.New("empty input"))
	}

	var (
		blocks []entity.Block
		err    error
	)
	switch format {
	case constants.CSV:
		blocks, err = loadDelimited(src.Bytes, 0)
	case constants.TSV:
		blocks, err = loadDelimited(src.Bytes, '\t')
	case constants.XLSX:
		blocks, err = loadXLSX(src.Bytes)
	case constants.TEXT:
		blocks = loadText(decodeText(src.Bytes), 1)
	case constants.HTML:
		blocks, err = loadHTML(src.Bytes)
	case constants.FORM:
		blocks, err = loadForm(src.Bytes)
	case constants.PDF:
		if !hasPDFMagic(src.Bytes) && printableRatio(src.Bytes) >= l.opts.TextRatio {
			l.logger.Debug("loader.pdf.plain_text", "document_id", src.ID)
			doc.Method = "text-as-pdf"
			blocks = loadText(decodeText(src.Bytes), 1)
			break
		}
		if !hasPDFMagic(src.Bytes) {
			return doc, l.corrupt(src, format, errors.New("missing PDF header"))
		}
		blocks, err = l.recognize(ctx, &doc, l.opts.OCR, src.Bytes, "pdf")
	case constants.IMAGE:
		ext := sniffImageExt(src.Bytes)
		if ext == "" {
			return doc, l.corrupt(src, format, errors.New("unrecognized image encoding"))
		}
		eng := l.opts.ImageOCR
		if eng == nil || constants.IsHEICExt(ext) {
			eng = l.opts.OCR
		}
		blocks, err = l.recognize(ctx, &doc, eng, src.Bytes, ext)
	default:
		return doc, &entity.UnsupportedFormatError{Format: src.Format}
	}
	if err != nil {
		if errors.Is(err, ErrNoCapability) || errors.Is(err, ErrOCRFailed) ||
			errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return doc, err
		}
		return doc, l.corrupt(src, format, err)
	}

	doc.Blocks = blocks
	l.logger.Debug("loader.load.ok",
		"document_id", src.ID,
		"format", format,
		"method", doc.Method,
		"blocks", len(blocks),
		"confidence", doc.Confidence,
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return doc, nil
}

type ocrOutcome struct {
	res ocr.ExtractionResult
	err error
}

// recognize runs eng under OCRTimeout. An engine that ignores its context is
// abandoned when the deadline passes.
func (l *Loader) recognize(ctx context.Context, doc *entity.QuoteDocument, eng OCR, data []byte, ext string) ([]entity.Block, error) {
	if eng == nil {
		return nil, fmt.Errorf("%w: %s", ErrNoCapability, doc.Format)
	}
	octx, cancel := context.WithTimeout(ctx, l.opts.OCRTimeout)
	defer cancel()

	// buffered so an abandoned engine can still finish and exit
	done := make(chan ocrOutcome, 1)
	go func() {
		res, err := eng.ExtractBytes(octx, data, ext)
		done <- ocrOutcome{res: res, err: err}
	}()

	var out ocrOutcome
	select {
	case out = <-done:
	case <-octx.Done():
		out.err = octx.Err()
	}
	if out.err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, fmt.Errorf("ocr: %w", ctxErr)
		}
		if octx.Err() != nil {
			l.logger.Warn("loader.ocr.timeout", "document_id", doc.ID, "timeout", l.opts.OCRTimeout)
			return nil, fmt.Errorf("%w: ocr timed out after %s", ErrOCRFailed, l.opts.OCRTimeout)
		}
		l.logger.Warn("loader.ocr.failed", "document_id", doc.ID, "error", out.err)
		return nil, fmt.Errorf("%w: ocr: %v", ErrOCRFailed, out.err)
	}
	res := out.res
	doc.Method = res.Method
	doc.Confidence = res.Confidence
	doc.Warnings = append(doc.Warnings, res.Warnings...)
	if res.Confidence < ocr.ImageConfidenceThreshold && res.Method != "pdf-text" {
		doc.Warnings = append(doc.Warnings, fmt.Sprintf("low OCR confidence %.2f", res.Confidence))
	}
	return splitPages(res.Text, res.Confidence), nil
}

func (l *Loader) corrupt(src Source, format constants.Format, cause error) error {
	l.logger.Warn("loader.load.corrupt", "document_id", src.ID, "format", format, "error", cause)
	return &entity.CorruptDocumentError{DocumentID: src.ID, Format: string(format), Cause: cause}
}

// FormatFromFilename guesses the format from a filename's extension.
func FormatFromFilename(name string) constants.Format {
	return constants.MapExtToFormat(filepath.Ext(name))
}

func hasPDFMagic(b []byte) bool {
	n := min(len(b), 1024)
	for i := 0; i+5 <= n; i++ {
		if string(b[i:i+5]) == "%PDF-" {
			return true
		}
	}
	return false
}

// printableRatio is the share of runes that are printable or whitespace.
// Invalid UTF-8 bytes count as non-printable.
func printableRatio(b []byte) float64 {
	var total, good int
	for len(b) > 0 {
		r, size := utf8.DecodeRune(b)
		b = b[size:]
		total++
		if r == utf8.RuneError && size <= 1 {
			continue
		}
		if unicode.IsPrint(r) || unicode.IsSpace(r) {
			good++
		}
	}
	if total == 0 {
		return 0
	}
	return float64(good) / float64(total)
}

func sniffImageExt(b []byte) string {
	switch {
	case len(b) >= 8 && string(b[:8]) == "\x89PNG\r\n\x1a\n":
		return "png"
	case len(b) >= 3 && b[0] == 0xFF && b[1] == 0xD8 && b[2] == 0xFF:
		return "jpg"
	case len(b) >= 4 && (string(b[:4]) == "II*\x00" || string(b[:4]) == "MM\x00*"):
		return "tiff"
	case len(b) >= 2 && string(b[:2]) == "BM":
		return "bmp"
	case len(b) >= 12 && string(b[4:8]) == "ftyp" && (string(b[8:12]) == "heic" || string(b[8:12]) == "heix" || string(b[8:12]) == "mif1"):
		return "heic"
	}
	return ""
}
