// parsepdf extracts and parses a local notice PDF, printing the parsed
// fields as JSON. Handy for debugging extraction on a single document.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"os"
	"time"

	"github.com/youngcitybandit/nj-health-monitor/constants"
	"github.com/youngcitybandit/nj-health-monitor/internal/common"
	"github.com/youngcitybandit/nj-health-monitor/internal/ocr"
	"github.com/youngcitybandit/nj-health-monitor/internal/parser"
)

func main() {
	in := flag.String("in", "", "path to the PDF to parse")
	forceOCR := flag.Bool("ocr", false, "skip direct extraction and OCR the document")
	timeout := flag.Duration("timeout", 2*time.Minute, "extraction timeout")
	flag.Parse()

	cfg, err := common.LoadConfig()
	if err != nil {
		os.Stderr.WriteString("loading config: " + err.Error() + "\n")
		os.Exit(1)
	}
	logger := common.NewLogger(cfg.LogLevel)

	if *in == "" {
		logger.Error("missing -in flag")
		os.Exit(2)
	}
	data, err := os.ReadFile(*in)
	if err != nil {
		logger.Error("reading input", "path", *in, "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	extractor := ocr.NewExtractor(ocr.Config{
		Pdftotext:     cfg.OCR.Pdftotext,
		Pdftoppm:      cfg.OCR.Pdftoppm,
		Tesseract:     cfg.OCR.Tesseract,
		TesseractLang: cfg.OCR.TesseractLang,
		DPI:           cfg.OCR.DPI,
		PSM:           cfg.OCR.PSM,
		MaxPages:      cfg.OCR.MaxPages,
	}, logger)

	var text, method string
	if *forceOCR {
		text = extractor.ExtractTextOCR(ctx, data)
		method = constants.MethodPDFOCR
	} else {
		text, method = extractor.ExtractText(ctx, data)
		if ocr.NonWhitespaceLen(text) < cfg.OCR.MinTextLen {
			logger.Info("direct extraction too thin, falling back to OCR",
				"non_ws_len", ocr.NonWhitespaceLen(text))
			if ocrText := extractor.ExtractTextOCR(ctx, data); ocrText != "" {
				text, method = ocrText, constants.MethodPDFOCR
			}
		}
	}

	fields := parser.New(nil, logger).ParseFields(text)
	fields.RawText = "" // keep the JSON output readable

	out := struct {
		Method    string `json:"extraction_method"`
		TextChars int    `json:"text_chars"`
		Fields    any    `json:"fields"`
	}{
		Method:    method,
		TextChars: len(text),
		Fields:    fields,
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(out); err != nil {
		logger.Error("encoding output", "error", err)
		os.Exit(1)
	}
}
