// Package pipeline coordinates one monitoring check: scrape the page,
// download each new notice, extract and parse its text, reconcile, store,
// and notify.
package pipeline

import (
	"context"
	"log/slog"
	"time"

	"github.com/youngcitybandit/nj-health-monitor/constants"
	"github.com/youngcitybandit/nj-health-monitor/internal/entity"
	"github.com/youngcitybandit/nj-health-monitor/internal/monitoring"
	"github.com/youngcitybandit/nj-health-monitor/internal/ocr"
)

// PageSource lists new enforcement entries and fetches their PDFs.
type PageSource interface {
	NewEntries(ctx context.Context, lastCheck time.Time) ([]entity.Entry, error)
	DownloadPDF(ctx context.Context, pdfURL string) ([]byte, error)
}

// TextExtractor turns PDF bytes into text. ExtractText tries the direct
// strategies and reports the winning method; ExtractTextOCR is the
// rasterize-and-recognize fallback.
type TextExtractor interface {
	ExtractText(ctx context.Context, data []byte) (text, method string)
	ExtractTextOCR(ctx context.Context, data []byte) string
}

// FieldParser extracts structured fields from notice text.
type FieldParser interface {
	ParseFields(text string) entity.ParsedFields
}

// Reconciler merges an entry with its parsed fields into a record.
type Reconciler interface {
	Process(entry entity.Entry, fields entity.ParsedFields, method string) entity.Record
}

// RecordSink persists reconciled records.
type RecordSink interface {
	Upsert(ctx context.Context, rec entity.Record) error
}

// RunSink records check-run lifecycle rows.
type RunSink interface {
	Start(ctx context.Context) (entity.CheckRun, error)
	Finish(ctx context.Context, run entity.CheckRun) error
}

// Cursor tracks local check state between runs.
type Cursor interface {
	LastCheck(ctx context.Context) (time.Time, error)
	SetLastCheck(ctx context.Context, t time.Time) error
	Seen(ctx context.Context, pdfURL string) (bool, error)
	MarkSeen(ctx context.Context, pdfURL string, at time.Time) error
}

// Notifier announces newly stored records. Implementations must treat
// delivery as best effort.
type Notifier interface {
	NotifyNewAction(ctx context.Context, rec entity.Record) error
}

type Pipeline struct {
	source     PageSource
	extractor  TextExtractor
	parser     FieldParser
	reconciler Reconciler
	records    RecordSink
	runs       RunSink
	cursor     Cursor
	notifier   Notifier
	metrics    *monitoring.Metrics
	logger     *slog.Logger
	minTextLen int
	now        func() time.Time
}

type Deps struct {
	Source     PageSource
	Extractor  TextExtractor
	Parser     FieldParser
	Reconciler Reconciler
	Records    RecordSink
	Runs       RunSink
	Cursor     Cursor
	Notifier   Notifier // optional
	Metrics    *monitoring.Metrics
	Logger     *slog.Logger
	MinTextLen int
}

func New(d Deps) *Pipeline {
	if d.Logger == nil {
		d.Logger = slog.Default()
	}
	if d.MinTextLen <= 0 {
		d.MinTextLen = constants.MinTextLenForOCR
	}
	return &Pipeline{
		source:     d.Source,
		extractor:  d.Extractor,
		parser:     d.Parser,
		reconciler: d.Reconciler,
		records:    d.Records,
		runs:       d.Runs,
		cursor:     d.Cursor,
		notifier:   d.Notifier,
		metrics:    d.Metrics,
		logger:     d.Logger,
		minTextLen: d.MinTextLen,
		now:        time.Now,
	}
}

// RunCheck executes one full monitoring check. Per-entry failures are
// counted and skipped; only a failure to list entries aborts the run.
func (p *Pipeline) RunCheck(ctx context.Context) (entity.CheckRun, error) {
	started := p.now()
	run, err := p.runs.Start(ctx)
	if err != nil {
		return entity.CheckRun{}, err
	}

	lastCheck, err := p.cursor.LastCheck(ctx)
	if err != nil {
		p.logger.Warn("check.cursor.read_failed", "err", err)
	}

	entries, err := p.source.NewEntries(ctx, lastCheck)
	if err != nil {
		p.logger.Error("check.scrape.failed", "err", err)
		run.Status = constants.RunStatusFailed
		run.ErrorMessage = err.Error()
		p.finishRun(ctx, run, started)
		return run, err
	}
	run.EntriesFound = len(entries)
	if p.metrics != nil {
		p.metrics.EntriesFound.Add(float64(len(entries)))
	}

	for _, entry := range entries {
		if seen, err := p.cursor.Seen(ctx, entry.PDFURL); err == nil && seen {
			p.logger.Debug("check.entry.already_seen", "pdf_url", entry.PDFURL)
			continue
		}

		if _, err := p.ProcessEntry(ctx, entry); err != nil {
			p.logger.Error("check.entry.failed",
				"facility", entry.FacilityName, "pdf_url", entry.PDFURL, "err", err)
			run.Failed++
			if p.metrics != nil {
				p.metrics.IncProcessed("failed")
			}
			continue
		}
		run.Processed++
		if p.metrics != nil {
			p.metrics.IncProcessed("ok")
		}
		if err := p.cursor.MarkSeen(ctx, entry.PDFURL, p.now()); err != nil {
			p.logger.Warn("check.cursor.mark_failed", "pdf_url", entry.PDFURL, "err", err)
		}
	}

	if err := p.cursor.SetLastCheck(ctx, p.now()); err != nil {
		p.logger.Warn("check.cursor.write_failed", "err", err)
	}

	run.Status = constants.RunStatusOK
	p.finishRun(ctx, run, started)
	p.logger.Info("check.done",
		"run_id", run.ID, "found", run.EntriesFound,
		"processed", run.Processed, "failed", run.Failed)
	return run, nil
}

func (p *Pipeline) finishRun(ctx context.Context, run entity.CheckRun, started time.Time) {
	if err := p.runs.Finish(ctx, run); err != nil {
		p.logger.Error("check.run.finish_failed", "run_id", run.ID, "err", err)
	}
	if p.metrics != nil {
		p.metrics.IncCheck(string(run.Status))
		p.metrics.CheckDuration.Observe(p.now().Sub(started).Seconds())
	}
}

// ProcessEntry runs the full per-notice path: download, extract (with OCR
// fallback), parse, reconcile, store, notify.
func (p *Pipeline) ProcessEntry(ctx context.Context, entry entity.Entry) (entity.Record, error) {
	data, err := p.source.DownloadPDF(ctx, entry.PDFURL)
	if err != nil {
		return entity.Record{}, err
	}

	text, method := p.extractor.ExtractText(ctx, data)
	if ocr.NonWhitespaceLen(text) < p.minTextLen {
		p.logger.Info("entry.ocr_fallback",
			"pdf_url", entry.PDFURL, "direct_len", ocr.NonWhitespaceLen(text))
		if p.metrics != nil {
			p.metrics.OCRFallbacks.Inc()
		}
		if ocrText := p.extractor.ExtractTextOCR(ctx, data); ocrText != "" {
			text, method = ocrText, constants.MethodPDFOCR
		}
	}
	if p.metrics != nil {
		p.metrics.IncExtraction(method)
	}

	fields := p.safeParse(entry, text)
	rec := p.reconciler.Process(entry, fields, method)

	if err := p.records.Upsert(ctx, rec); err != nil {
		return entity.Record{}, err
	}

	if p.notifier != nil && rec.Validation.Valid {
		if err := p.notifier.NotifyNewAction(ctx, rec); err != nil {
			p.logger.Warn("entry.notify_failed", "id", rec.ID, "err", err)
		}
	}
	return rec, nil
}

// safeParse guards against a panicking parse; the entry still produces a
// record, just with nothing extracted.
func (p *Pipeline) safeParse(entry entity.Entry, text string) (fields entity.ParsedFields) {
	defer func() {
		if r := recover(); r != nil {
			p.logger.Error("entry.parse_panicked", "pdf_url", entry.PDFURL, "panic", r)
			fields = entity.ParsedFields{}
		}
	}()
	return p.parser.ParseFields(text)
}
