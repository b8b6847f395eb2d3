// monitord is the long-running monitor: it serves the HTTP API and runs
// the enforcement-page check at the configured daily times.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/youngcitybandit/nj-health-monitor/internal/common"
	"github.com/youngcitybandit/nj-health-monitor/internal/cursor"
	"github.com/youngcitybandit/nj-health-monitor/internal/export"
	"github.com/youngcitybandit/nj-health-monitor/internal/monitoring"
	"github.com/youngcitybandit/nj-health-monitor/internal/notify"
	"github.com/youngcitybandit/nj-health-monitor/internal/ocr"
	"github.com/youngcitybandit/nj-health-monitor/internal/parser"
	"github.com/youngcitybandit/nj-health-monitor/internal/pipeline"
	"github.com/youngcitybandit/nj-health-monitor/internal/process"
	"github.com/youngcitybandit/nj-health-monitor/internal/repository"
	"github.com/youngcitybandit/nj-health-monitor/internal/scheduler"
	"github.com/youngcitybandit/nj-health-monitor/internal/scraper"
	"github.com/youngcitybandit/nj-health-monitor/internal/server"
)

func main() {
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

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pool, err := repository.Open(ctx, cfg.Database, logger)
	if err != nil {
		logger.Error("failed to open database", "error", err)
		os.Exit(1)
	}
	defer repository.Close(pool, logger)

	if err := repository.HealthCheck(ctx, pool, 5*time.Second, logger); err != nil {
		logger.Error("failed to ping database", "error", err)
		os.Exit(1)
	}

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
		logger.Error("failed to open cursor store", "error", err, "path", cfg.Cursor.Path)
		os.Exit(1)
	}
	defer cur.Close()

	scr, err := scraper.New(cfg.Scraper, logger)
	if err != nil {
		logger.Error("failed to build scraper", "error", err)
		os.Exit(1)
	}

	extractor := ocr.NewExtractor(ocr.Config{
		Pdftotext:     cfg.OCR.Pdftotext,
		Pdftoppm:      cfg.OCR.Pdftoppm,
		Tesseract:     cfg.OCR.Tesseract,
		TesseractLang: cfg.OCR.TesseractLang,
		DPI:           cfg.OCR.DPI,
		PSM:           cfg.OCR.PSM,
		MaxPages:      cfg.OCR.MaxPages,
	}, logger)

	var notifier pipeline.Notifier
	if cfg.Notify.Enabled {
		notifier = notify.NewSMTPNotifier(cfg.Notify, logger)
	} else {
		notifier = notify.NewLogNotifier(logger)
	}

	metrics := monitoring.NewMetrics()
	pipe := pipeline.New(pipeline.Deps{
		Source:     scr,
		Extractor:  extractor,
		Parser:     parser.New(nil, logger),
		Reconciler: process.New(logger),
		Records:    records,
		Runs:       runs,
		Cursor:     cur,
		Notifier:   notifier,
		Metrics:    metrics,
		Logger:     logger,
		MinTextLen: cfg.OCR.MinTextLen,
	})

	srv := server.New(cfg.Server, server.Deps{
		Records:    records,
		Runs:       runs,
		Checker:    pipe,
		Exporter:   export.NewService(records, logger),
		Reconciler: process.New(logger),
		Health: func(ctx context.Context) error {
			return repository.HealthCheck(ctx, pool, 3*time.Second, logger)
		},
		Logger: logger,
	})

	sched, err := scheduler.New(cfg.Scheduler, func(ctx context.Context) {
		if _, err := pipe.RunCheck(ctx); err != nil {
			logger.Error("scheduled check failed", "error", err)
		}
	}, logger)
	if err != nil {
		logger.Error("failed to build scheduler", "error", err)
		os.Exit(1)
	}

	go sched.Run(ctx)
	go func() {
		if err := srv.Start(); err != nil {
			logger.Error("http server failed", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http shutdown failed", "error", err)
	}
	logger.Info("stopped")
}
