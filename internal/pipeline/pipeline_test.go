package pipeline

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/youngcitybandit/nj-health-monitor/constants"
	"github.com/youngcitybandit/nj-health-monitor/internal/entity"
	"github.com/youngcitybandit/nj-health-monitor/internal/monitoring"
	"github.com/youngcitybandit/nj-health-monitor/internal/parser"
	"github.com/youngcitybandit/nj-health-monitor/internal/process"
)

type fakeSource struct {
	entries []entity.Entry
	listErr error
	pdfs    map[string][]byte
	pdfErr  map[string]error
}

func (f *fakeSource) NewEntries(ctx context.Context, lastCheck time.Time) ([]entity.Entry, error) {
	return f.entries, f.listErr
}

func (f *fakeSource) DownloadPDF(ctx context.Context, pdfURL string) ([]byte, error) {
	if err := f.pdfErr[pdfURL]; err != nil {
		return nil, err
	}
	return f.pdfs[pdfURL], nil
}

// fakeExtractor maps PDF bytes to canned direct and OCR text.
type fakeExtractor struct {
	direct map[string]string
	ocred  map[string]string
}

func (f *fakeExtractor) ExtractText(ctx context.Context, data []byte) (string, string) {
	text := f.direct[string(data)]
	if text == "" {
		return "", ""
	}
	return text, constants.MethodPDFText
}

func (f *fakeExtractor) ExtractTextOCR(ctx context.Context, data []byte) string {
	return f.ocred[string(data)]
}

type memRecords struct {
	byID      map[string]entity.Record
	upsertErr error
}

func (m *memRecords) Upsert(ctx context.Context, rec entity.Record) error {
	if m.upsertErr != nil {
		return m.upsertErr
	}
	if m.byID == nil {
		m.byID = make(map[string]entity.Record)
	}
	m.byID[rec.ID] = rec
	return nil
}

type memRuns struct {
	finished []entity.CheckRun
}

func (m *memRuns) Start(ctx context.Context) (entity.CheckRun, error) {
	return entity.CheckRun{StartedAt: time.Now(), Status: constants.RunStatusRunning}, nil
}

func (m *memRuns) Finish(ctx context.Context, run entity.CheckRun) error {
	m.finished = append(m.finished, run)
	return nil
}

type memCursor struct {
	lastCheck time.Time
	seen      map[string]bool
	setCalls  int
}

func (m *memCursor) LastCheck(ctx context.Context) (time.Time, error) { return m.lastCheck, nil }

func (m *memCursor) SetLastCheck(ctx context.Context, t time.Time) error {
	m.lastCheck = t
	m.setCalls++
	return nil
}

func (m *memCursor) Seen(ctx context.Context, pdfURL string) (bool, error) {
	return m.seen[pdfURL], nil
}

func (m *memCursor) MarkSeen(ctx context.Context, pdfURL string, at time.Time) error {
	if m.seen == nil {
		m.seen = make(map[string]bool)
	}
	m.seen[pdfURL] = true
	return nil
}

type spyNotifier struct {
	notified []string
	err      error
}

func (s *spyNotifier) NotifyNewAction(ctx context.Context, rec entity.Record) error {
	s.notified = append(s.notified, rec.ID)
	return s.err
}

const noticeText = "Facility: Oak Manor Rehabilitation Center\n" +
	"Order of Curtailment issued with a penalty of $2,500 assessed.\n"

func testEntry(url string) entity.Entry {
	return entity.Entry{
		Date:              time.Date(2026, 1, 15, 0, 0, 0, 0, time.UTC),
		FacilityName:      "Oak Manor",
		EnforcementAction: "Curtailment",
		PDFURL:            url,
	}
}

type fixture struct {
	pipeline *Pipeline
	source   *fakeSource
	records  *memRecords
	runs     *memRuns
	cursor   *memCursor
	notifier *spyNotifier
}

func newFixture(t *testing.T, source *fakeSource, extractor *fakeExtractor) *fixture {
	t.Helper()
	f := &fixture{
		source:   source,
		records:  &memRecords{},
		runs:     &memRuns{},
		cursor:   &memCursor{},
		notifier: &spyNotifier{},
	}
	f.pipeline = New(Deps{
		Source:     source,
		Extractor:  extractor,
		Parser:     parser.New(parser.FixedNameSource("Casey"), nil),
		Reconciler: process.New(nil),
		Records:    f.records,
		Runs:       f.runs,
		Cursor:     f.cursor,
		Notifier:   f.notifier,
		Metrics:    monitoring.NewMetricsWith(prometheus.NewRegistry()),
	})
	return f
}

func TestRunCheck_HappyPath(t *testing.T) {
	source := &fakeSource{
		entries: []entity.Entry{testEntry("https://example.gov/a.pdf")},
		pdfs:    map[string][]byte{"https://example.gov/a.pdf": []byte("pdf-a")},
	}
	extractor := &fakeExtractor{direct: map[string]string{"pdf-a": noticeText}}
	f := newFixture(t, source, extractor)

	run, err := f.pipeline.RunCheck(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if run.Status != constants.RunStatusOK || run.EntriesFound != 1 || run.Processed != 1 || run.Failed != 0 {
		t.Errorf("run = %+v", run)
	}

	rec, ok := f.records.byID["oak_manor_20260115"]
	if !ok {
		t.Fatalf("record not stored, have %v", f.records.byID)
	}
	if rec.FacilityName != "Oak Manor Rehabilitation Center" {
		t.Errorf("facility = %q, want the longer PDF name", rec.FacilityName)
	}
	if rec.PenaltyAmount != "$2500" {
		t.Errorf("penalty = %q", rec.PenaltyAmount)
	}
	if rec.ExtractionMethod != constants.MethodPDFText {
		t.Errorf("method = %q", rec.ExtractionMethod)
	}

	if len(f.notifier.notified) != 1 {
		t.Errorf("notified = %v", f.notifier.notified)
	}
	if !f.cursor.seen["https://example.gov/a.pdf"] {
		t.Error("processed PDF not marked seen")
	}
	if f.cursor.setCalls != 1 {
		t.Errorf("last check written %d times", f.cursor.setCalls)
	}
	if len(f.runs.finished) != 1 {
		t.Errorf("finished runs = %d", len(f.runs.finished))
	}
}

func TestRunCheck_OCRFallback(t *testing.T) {
	source := &fakeSource{
		entries: []entity.Entry{testEntry("https://example.gov/scan.pdf")},
		pdfs:    map[string][]byte{"https://example.gov/scan.pdf": []byte("scanned")},
	}
	extractor := &fakeExtractor{
		direct: map[string]string{"scanned": "short"},
		ocred:  map[string]string{"scanned": noticeText},
	}
	f := newFixture(t, source, extractor)

	if _, err := f.pipeline.RunCheck(context.Background()); err != nil {
		t.Fatal(err)
	}
	rec := f.records.byID["oak_manor_20260115"]
	if rec.ExtractionMethod != constants.MethodPDFOCR {
		t.Errorf("method = %q, want OCR after short direct text", rec.ExtractionMethod)
	}
	if rec.PenaltyAmount != "$2500" {
		t.Errorf("penalty = %q, OCR text not parsed", rec.PenaltyAmount)
	}
}

func TestRunCheck_OCRFallbackAlsoEmpty(t *testing.T) {
	source := &fakeSource{
		entries: []entity.Entry{testEntry("https://example.gov/blank.pdf")},
		pdfs:    map[string][]byte{"https://example.gov/blank.pdf": []byte("blank")},
	}
	f := newFixture(t, source, &fakeExtractor{})

	run, err := f.pipeline.RunCheck(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	// Nothing extractable still yields a stored record from the web row.
	if run.Processed != 1 {
		t.Fatalf("run = %+v", run)
	}
	rec := f.records.byID["oak_manor_20260115"]
	if rec.FacilityName != "Oak Manor" || rec.ExtractionMethod != "" {
		t.Errorf("record = %+v", rec)
	}
}

func TestRunCheck_ContinueOnEntryFailure(t *testing.T) {
	source := &fakeSource{
		entries: []entity.Entry{
			testEntry("https://example.gov/broken.pdf"),
			testEntry("https://example.gov/ok.pdf"),
		},
		pdfs:   map[string][]byte{"https://example.gov/ok.pdf": []byte("pdf-ok")},
		pdfErr: map[string]error{"https://example.gov/broken.pdf": errors.New("boom")},
	}
	extractor := &fakeExtractor{direct: map[string]string{"pdf-ok": noticeText}}
	f := newFixture(t, source, extractor)

	run, err := f.pipeline.RunCheck(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if run.Status != constants.RunStatusOK || run.Processed != 1 || run.Failed != 1 {
		t.Errorf("run = %+v", run)
	}
	if f.cursor.seen["https://example.gov/broken.pdf"] {
		t.Error("failed entry must not be marked seen")
	}
	if !f.cursor.seen["https://example.gov/ok.pdf"] {
		t.Error("successful entry not marked seen")
	}
}

func TestRunCheck_ScrapeFailureAbortsRun(t *testing.T) {
	source := &fakeSource{listErr: errors.New("page down")}
	f := newFixture(t, source, &fakeExtractor{})

	run, err := f.pipeline.RunCheck(context.Background())
	if err == nil {
		t.Fatal("want error when listing entries fails")
	}
	if run.Status != constants.RunStatusFailed || run.ErrorMessage == "" {
		t.Errorf("run = %+v", run)
	}
	if len(f.runs.finished) != 1 {
		t.Error("failed run must still be finished")
	}
	if f.cursor.setCalls != 0 {
		t.Error("last check must not advance on a failed run")
	}
}

func TestRunCheck_SkipsSeenPDFs(t *testing.T) {
	source := &fakeSource{
		entries: []entity.Entry{testEntry("https://example.gov/a.pdf")},
		pdfs:    map[string][]byte{"https://example.gov/a.pdf": []byte("pdf-a")},
	}
	f := newFixture(t, source, &fakeExtractor{direct: map[string]string{"pdf-a": noticeText}})
	f.cursor.seen = map[string]bool{"https://example.gov/a.pdf": true}

	run, err := f.pipeline.RunCheck(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if run.EntriesFound != 1 || run.Processed != 0 || run.Failed != 0 {
		t.Errorf("run = %+v", run)
	}
	if len(f.records.byID) != 0 {
		t.Errorf("records = %v, want none for an already-seen PDF", f.records.byID)
	}
}

func TestRunCheck_NoNotifyForInvalidRecord(t *testing.T) {
	entry := entity.Entry{
		Date:   time.Date(2026, 1, 15, 0, 0, 0, 0, time.UTC),
		PDFURL: "https://example.gov/anon.pdf",
	}
	source := &fakeSource{
		entries: []entity.Entry{entry},
		pdfs:    map[string][]byte{"https://example.gov/anon.pdf": []byte("anon")},
	}
	f := newFixture(t, source, &fakeExtractor{})

	run, err := f.pipeline.RunCheck(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if run.Processed != 1 {
		t.Fatalf("run = %+v", run)
	}
	if len(f.notifier.notified) != 0 {
		t.Errorf("notified = %v, want none for an invalid record", f.notifier.notified)
	}
	if len(f.records.byID) != 1 {
		t.Error("invalid record should still be stored")
	}
}

func TestRunCheck_NotifierErrorIsNotFatal(t *testing.T) {
	source := &fakeSource{
		entries: []entity.Entry{testEntry("https://example.gov/a.pdf")},
		pdfs:    map[string][]byte{"https://example.gov/a.pdf": []byte("pdf-a")},
	}
	f := newFixture(t, source, &fakeExtractor{direct: map[string]string{"pdf-a": noticeText}})
	f.notifier.err = errors.New("smtp down")

	run, err := f.pipeline.RunCheck(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if run.Processed != 1 || run.Failed != 0 {
		t.Errorf("run = %+v", run)
	}
}
