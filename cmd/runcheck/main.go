// runcheck performs a single monitoring check and exits. Useful for cron
// and for manual runs.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"os"
	"time"

	"github.com/youngcitybandit/nj-health-monitor/internal/common"
	"github.com/youngcitybandit/nj-health-monitor/internal/cursor"
	"github.com/youngcitybandit/nj-health-monitor/internal/notify"
	"github.com/youngcitybandit/nj-health-monitor/internal/ocr"
	"github.com/youngcitybandit/nj-health-monitor/internal/parser"
	"github.com/youngcitybandit/nj-health-monitor/internal/pipeline"
	"github.com/youngcitybandit/nj-health-monitor/internal/process"
	"github.com/youngcitybandit/nj-health-monitor/internal/repository"
	"github.com/youngcitybandit/nj-health-monitor/internal/scraper"
)

func main() {
	timeout := flag.Duration("timeout", 10*time.Minute, "overall check timeout")
	flag.Parse()

	cfg, err := common.LoadConfig()
	if err != nil {
		os.Stderr.WriteString("loading config: " + err.Error() + "\n")
		os.Exit(1)
	}
	logger := common.NewLogger(cfg.LogLevel)
	if err := cfg.Validate(); err != nil {
		logger.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	pool, err := repository.Open(ctx, cfg.Database, logger)
	if err != nil {
		logger.Error("failed to open database", "error", err)
		os.Exit(1)
	}
	defer repository.Close(pool, logger)

	records := repository.NewRecordStore(pool, logger)
	runs := repository.NewRunStore(pool, logger)
	if err := records.Init(ctx); err != nil {
		logger.Error("failed to init record store", "error", err)
		os.Exit(1)
	}
	if err := runs.Init(ctx); err != nil {
		logger.Error("failed to init run store", "error", err)
		os.Exit(1)
	}

	cur, err := cursor.Open(cfg.Cursor.Path)
	if err != nil {
		logger.Error("failed to open cursor store", "error", err)
		os.Exit(1)
	}
	defer cur.Close()

	scr, err := scraper.New(cfg.Scraper, logger)
	if err != nil {
		logger.Error("failed to build scraper", "error", err)
		os.Exit(1)
	}

	var notifier pipeline.Notifier
	if cfg.Notify.Enabled {
		notifier = notify.NewSMTPNotifier(cfg.Notify, logger)
	} else {
		notifier = notify.NewLogNotifier(logger)
	}

	pipe := pipeline.New(pipeline.Deps{
		Source: scr,
		Extractor: ocr.NewExtractor(ocr.Config{
			Pdftotext:     cfg.OCR.Pdftotext,
			Pdftoppm:      cfg.OCR.Pdftoppm,
			Tesseract:     cfg.OCR.Tesseract,
			TesseractLang: cfg.OCR.TesseractLang,
			DPI:           cfg.OCR.DPI,
			PSM:           cfg.OCR.PSM,
			MaxPages:      cfg.OCR.MaxPages,
		}, logger),
		Parser:     parser.New(nil, logger),
		Reconciler: process.New(logger),
		Records:    records,
		Runs:       runs,
		Cursor:     cur,
		Notifier:   notifier,
		Logger:     logger,
		MinTextLen: cfg.OCR.MinTextLen,
	})

	run, err := pipe.RunCheck(ctx)
	if err != nil {
		logger.Error("check failed", "error", err)
		os.Exit(1)
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(run); err != nil {
		logger.Error("encoding run result", "error", err)
		os.Exit(1)
	}
	if run.Failed > 0 {
		os.Exit(2)
	}
}
