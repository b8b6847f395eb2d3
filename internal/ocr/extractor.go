package ocr

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"unicode"

	"github.com/youngcitybandit/nj-health-monitor/constants"
)

type Config struct {
	Pdftotext string // binary name or absolute path; if empty -> "pdftotext"
	Pdftoppm  string // binary name or absolute path; if empty -> "pdftoppm"
	Tesseract string // binary name or absolute path; if empty -> "tesseract"

	TesseractLang string // default "eng"
	DPI           int    // rasterization DPI for scanned PDFs, default 144
	PSM           int    // page segmentation mode, default 6 (uniform text block)
	MaxPages      int    // 0 = no limit

	TessdataDir string
}

// Extractor pulls text out of PDF notices. Direct extraction runs an
// ordered chain of strategies; OCR is a separate entry point the caller
// invokes when direct output is too thin.
type Extractor struct {
	cfg        Config
	runner     Runner
	strategies []Strategy
	logger     *slog.Logger
}

// Strategy is one fallible way of getting text out of a PDF on disk.
// Returning ("", nil) and returning an error are both treated as
// "try the next one".
type Strategy struct {
	Name    string
	Extract func(ctx context.Context, path string) (string, error)
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
		cfg.DPI = 144
	}
	if cfg.PSM <= 0 {
		cfg.PSM = 6
	}
	e := &Extractor{cfg: cfg, runner: execRunner{}, logger: logger}
	e.strategies = []Strategy{
		{Name: constants.MethodPDFText, Extract: e.pdfToText},
		{Name: constants.MethodPDFStream, Extract: extractStreamText},
	}
	return e
}

// SetRunner replaces the subprocess runner (tests).
func (e *Extractor) SetRunner(r Runner) { e.runner = r }

// ExtractText tries each direct-extraction strategy in order and returns
// the first non-whitespace result plus the strategy name. Failures from
// any strategy are swallowed and logged, never propagated: an empty
// return means "no text", not an error.
func (e *Extractor) ExtractText(ctx context.Context, data []byte) (string, string) {
	path, cleanup, err := e.spool(data)
	if err != nil {
		e.logger.Warn("spool pdf for extraction", "error", err)
		return "", ""
	}
	defer cleanup()

	for _, s := range e.strategies {
		text, err := s.Extract(ctx, path)
		if err != nil {
			e.logger.Warn("extraction strategy failed", "strategy", s.Name, "error", err)
			continue
		}
		if NonWhitespaceLen(text) == 0 {
			continue
		}
		e.logger.Debug("extraction strategy succeeded", "strategy", s.Name, "bytes", len(text))
		return Normalize(text), s.Name
	}
	return "", ""
}

// ExtractTextOCR rasterizes every page and runs tesseract on each image,
// concatenating page outputs in order with newline separators. Any failure
// aborts OCR for the whole document and yields an empty string rather than
// partial output: OCR text from a half-failed document tends to be garbage
// that corrupts downstream pattern matching.
func (e *Extractor) ExtractTextOCR(ctx context.Context, data []byte) string {
	path, cleanup, err := e.spool(data)
	if err != nil {
		e.logger.Warn("spool pdf for ocr", "error", err)
		return ""
	}
	defer cleanup()

	text, pages, err := e.pdfToOCR(ctx, path)
	if err != nil {
		e.logger.Warn("ocr extraction failed", "error", err)
		return ""
	}
	e.logger.Debug("ocr extraction ok", "pages", pages, "bytes", len(text))
	return Normalize(text)
}

// spool writes the raw document bytes to a temp file for the subprocess
// strategies. The returned cleanup removes the containing directory.
func (e *Extractor) spool(data []byte) (string, func(), error) {
	tmpDir, err := os.MkdirTemp("", "njhm-doc-*")
	if err != nil {
		return "", nil, err
	}
	cleanup := func() { _ = os.RemoveAll(tmpDir) }
	path := filepath.Join(tmpDir, "notice.pdf")
	if err := os.WriteFile(path, data, 0o600); err != nil {
		cleanup()
		return "", nil, err
	}
	return path, cleanup, nil
}

// NonWhitespaceLen counts the non-whitespace runes in s. The pipeline uses
// it against the configured threshold to decide whether OCR is needed.
func NonWhitespaceLen(s string) int {
	n := 0
	for _, r := range s {
		if !unicode.IsSpace(r) {
			n++
		}
	}
	return n
}
