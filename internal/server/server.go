// Package server exposes the monitor over HTTP: record queries, manual
// check triggers, XLSX export, backfill ingest, health and metrics.
package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/youngcitybandit/nj-health-monitor/internal/common"
	"github.com/youngcitybandit/nj-health-monitor/internal/entity"
	"github.com/youngcitybandit/nj-health-monitor/internal/repository"
)

// RecordStore is the slice of the repository the API needs.
type RecordStore interface {
	Get(ctx context.Context, id string) (entity.Record, error)
	ListRecent(ctx context.Context, limit int) ([]entity.Record, error)
	ListBySeverity(ctx context.Context, severity string, limit int) ([]entity.Record, error)
	Stats(ctx context.Context) (repository.Stats, error)
	Upsert(ctx context.Context, rec entity.Record) error
}

// RunLister reads check-run history.
type RunLister interface {
	ListRecent(ctx context.Context, limit int) ([]entity.CheckRun, error)
}

// CheckRunner triggers a monitoring check.
type CheckRunner interface {
	RunCheck(ctx context.Context) (entity.CheckRun, error)
}

// Exporter produces XLSX workbooks.
type Exporter interface {
	ExportRecordsXLSX(ctx context.Context, limit int) ([]byte, error)
}

// Reconciler turns backfill input into a scored record.
type Reconciler interface {
	Process(entry entity.Entry, fields entity.ParsedFields, method string) entity.Record
}

type Server struct {
	cfg        common.ServerConfig
	records    RecordStore
	runs       RunLister
	checker    CheckRunner
	exporter   Exporter
	reconciler Reconciler
	health     func(ctx context.Context) error
	logger     *slog.Logger
	httpServer *http.Server
}

type Deps struct {
	Records    RecordStore
	Runs       RunLister
	Checker    CheckRunner
	Exporter   Exporter
	Reconciler Reconciler
	Health     func(ctx context.Context) error
	Logger     *slog.Logger
}

func New(cfg common.ServerConfig, d Deps) *Server {
	if d.Logger == nil {
		d.Logger = slog.Default()
	}
	return &Server{
		cfg:        cfg,
		records:    d.Records,
		runs:       d.Runs,
		checker:    d.Checker,
		exporter:   d.Exporter,
		reconciler: d.Reconciler,
		health:     d.Health,
		logger:     d.Logger,
	}
}

// Router builds the chi router with all routes mounted.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(s.logRequests)

	r.Get("/healthz", s.handleHealthz)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/checks", s.handleTriggerCheck)
		r.Get("/checks", s.handleListRuns)
		r.Get("/records", s.handleListRecords)
		r.Get("/records/export", s.handleExport)
		r.Get("/records/stats", s.handleStats)
		r.Get("/records/{id}", s.handleGetRecord)
		r.Post("/records", s.handleIngestRecord)
	})
	return r
}

// Start runs the HTTP server until it fails or is shut down.
func (s *Server) Start() error {
	s.httpServer = &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           s.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	s.logger.Info("http server listening", "addr", s.cfg.Addr)
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown stops the HTTP server gracefully.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpServer == nil {
		return nil
	}
	s.logger.Info("http server shutting down")
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		s.logger.Info("http.request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			"elapsed_ms", time.Since(start).Milliseconds(),
			"request_id", middleware.GetReqID(r.Context()),
		)
	})
}
