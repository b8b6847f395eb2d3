package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/youngcitybandit/nj-health-monitor/constants"
	"github.com/youngcitybandit/nj-health-monitor/internal/common"
	"github.com/youngcitybandit/nj-health-monitor/internal/entity"
	"github.com/youngcitybandit/nj-health-monitor/internal/process"
	"github.com/youngcitybandit/nj-health-monitor/internal/repository"
)

type stubStore struct {
	byID    map[string]entity.Record
	listErr error
}

func (s *stubStore) Get(ctx context.Context, id string) (entity.Record, error) {
	rec, ok := s.byID[id]
	if !ok {
		return entity.Record{}, common.NewAppError("DB_READ", "record not found", common.ErrNotFound)
	}
	return rec, nil
}

func (s *stubStore) ListRecent(ctx context.Context, limit int) ([]entity.Record, error) {
	if s.listErr != nil {
		return nil, s.listErr
	}
	var out []entity.Record
	for _, rec := range s.byID {
		out = append(out, rec)
	}
	return out, nil
}

func (s *stubStore) ListBySeverity(ctx context.Context, severity string, limit int) ([]entity.Record, error) {
	var out []entity.Record
	for _, rec := range s.byID {
		if rec.SeverityLevel == severity {
			out = append(out, rec)
		}
	}
	return out, nil
}

func (s *stubStore) Stats(ctx context.Context) (repository.Stats, error) {
	return repository.Stats{Total: len(s.byID), BySeverity: map[string]int{}}, nil
}

func (s *stubStore) Upsert(ctx context.Context, rec entity.Record) error {
	if s.byID == nil {
		s.byID = make(map[string]entity.Record)
	}
	s.byID[rec.ID] = rec
	return nil
}

type stubRuns struct{ runs []entity.CheckRun }

func (s *stubRuns) ListRecent(ctx context.Context, limit int) ([]entity.CheckRun, error) {
	return s.runs, nil
}

type stubChecker struct {
	run entity.CheckRun
	err error
}

func (s *stubChecker) RunCheck(ctx context.Context) (entity.CheckRun, error) {
	return s.run, s.err
}

type stubExporter struct{ data []byte }

func (s *stubExporter) ExportRecordsXLSX(ctx context.Context, limit int) ([]byte, error) {
	return s.data, nil
}

func newTestServer(store *stubStore) *Server {
	return New(common.ServerConfig{Addr: ":0"}, Deps{
		Records:    store,
		Runs:       &stubRuns{},
		Checker:    &stubChecker{run: entity.CheckRun{Status: constants.RunStatusOK}},
		Exporter:   &stubExporter{data: []byte("xlsx-bytes")},
		Reconciler: process.New(nil),
		Health:     func(ctx context.Context) error { return nil },
	})
}

func doRequest(t *testing.T, srv *Server, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
	}
	rr := httptest.NewRecorder()
	srv.Router().ServeHTTP(rr, req)
	return rr
}

func TestHealthz(t *testing.T) {
	rr := doRequest(t, newTestServer(&stubStore{}), http.MethodGet, "/healthz", "")
	if rr.Code != http.StatusOK {
		t.Errorf("status = %d", rr.Code)
	}
}

func TestHealthz_Unhealthy(t *testing.T) {
	srv := newTestServer(&stubStore{})
	srv.health = func(ctx context.Context) error { return errors.New("db down") }
	rr := doRequest(t, srv, http.MethodGet, "/healthz", "")
	if rr.Code != http.StatusServiceUnavailable {
		t.Errorf("status = %d", rr.Code)
	}
}

func TestGetRecord(t *testing.T) {
	store := &stubStore{byID: map[string]entity.Record{
		"oak_manor_20260115": {ID: "oak_manor_20260115", FacilityName: "Oak Manor"},
	}}
	srv := newTestServer(store)

	rr := doRequest(t, srv, http.MethodGet, "/api/v1/records/oak_manor_20260115", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rr.Code, rr.Body)
	}
	var rec entity.Record
	if err := json.Unmarshal(rr.Body.Bytes(), &rec); err != nil {
		t.Fatal(err)
	}
	if rec.FacilityName != "Oak Manor" {
		t.Errorf("record = %+v", rec)
	}

	rr = doRequest(t, srv, http.MethodGet, "/api/v1/records/nope", "")
	if rr.Code != http.StatusNotFound {
		t.Errorf("status = %d for missing record", rr.Code)
	}
}

func TestListRecords_SeverityFilter(t *testing.T) {
	store := &stubStore{byID: map[string]entity.Record{
		"a": {ID: "a", SeverityLevel: constants.SeverityHigh},
		"b": {ID: "b", SeverityLevel: constants.SeverityLow},
	}}
	srv := newTestServer(store)

	rr := doRequest(t, srv, http.MethodGet, "/api/v1/records?severity=high", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d", rr.Code)
	}
	var recs []entity.Record
	if err := json.Unmarshal(rr.Body.Bytes(), &recs); err != nil {
		t.Fatal(err)
	}
	if len(recs) != 1 || recs[0].ID != "a" {
		t.Errorf("records = %+v", recs)
	}

	rr = doRequest(t, srv, http.MethodGet, "/api/v1/records?severity=bogus", "")
	if rr.Code != http.StatusBadRequest {
		t.Errorf("status = %d for invalid severity", rr.Code)
	}
}

func TestTriggerCheck(t *testing.T) {
	rr := doRequest(t, newTestServer(&stubStore{}), http.MethodPost, "/api/v1/checks", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d", rr.Code)
	}
	var run entity.CheckRun
	if err := json.Unmarshal(rr.Body.Bytes(), &run); err != nil {
		t.Fatal(err)
	}
	if run.Status != constants.RunStatusOK {
		t.Errorf("run = %+v", run)
	}
}

func TestExport(t *testing.T) {
	rr := doRequest(t, newTestServer(&stubStore{}), http.MethodGet, "/api/v1/records/export", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d", rr.Code)
	}
	if ct := rr.Header().Get("Content-Type"); !strings.Contains(ct, "spreadsheet") {
		t.Errorf("content type = %q", ct)
	}
	if cd := rr.Header().Get("Content-Disposition"); !strings.Contains(cd, "enforcement_actions.xlsx") {
		t.Errorf("content disposition = %q", cd)
	}
}

func TestIngestRecord(t *testing.T) {
	store := &stubStore{}
	srv := newTestServer(store)

	payload := `{
		"facility_name": "Oak Manor",
		"enforcement_date": "2026-01-15",
		"enforcement_action_type": "Suspension",
		"penalty_amount": "$1,234",
		"pdf_url": "https://example.gov/oak.pdf"
	}`
	rr := doRequest(t, srv, http.MethodPost, "/api/v1/records", payload)
	if rr.Code != http.StatusCreated {
		t.Fatalf("status = %d, body %s", rr.Code, rr.Body)
	}

	var rec entity.Record
	if err := json.Unmarshal(rr.Body.Bytes(), &rec); err != nil {
		t.Fatal(err)
	}
	if rec.ID != "oak_manor_20260115" {
		t.Errorf("id = %q", rec.ID)
	}
	if rec.SeverityLevel != constants.SeverityHigh {
		t.Errorf("severity = %q, want HIGH for a suspension", rec.SeverityLevel)
	}
	if rec.PenaltyAmount != "$1234" {
		t.Errorf("penalty = %q, want reconciled format", rec.PenaltyAmount)
	}
	if _, ok := store.byID["oak_manor_20260115"]; !ok {
		t.Error("record not stored")
	}
}

func TestIngestRecord_SchemaViolations(t *testing.T) {
	srv := newTestServer(&stubStore{})
	cases := []struct {
		name    string
		payload string
		want    int
	}{
		{"missing facility", `{"enforcement_date": "2026-01-15"}`, http.StatusUnprocessableEntity},
		{"bad date format", `{"facility_name": "Oak", "enforcement_date": "01/15/2026"}`, http.StatusUnprocessableEntity},
		{"unknown action type", `{"facility_name": "Oak", "enforcement_date": "2026-01-15", "enforcement_action_type": "Stern Warning"}`, http.StatusUnprocessableEntity},
		{"unknown field", `{"facility_name": "Oak", "enforcement_date": "2026-01-15", "surprise": 1}`, http.StatusUnprocessableEntity},
		{"not json", `{{{`, http.StatusBadRequest},
	}
	for _, c := range cases {
		rr := doRequest(t, srv, http.MethodPost, "/api/v1/records", c.payload)
		if rr.Code != c.want {
			t.Errorf("%s: status = %d, want %d (body %s)", c.name, rr.Code, c.want, rr.Body)
		}
	}
}
