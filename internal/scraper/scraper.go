// Package scraper fetches the enforcement-actions page, extracts table
// entries, and downloads the linked notice PDFs.
package scraper

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/youngcitybandit/nj-health-monitor/internal/common"
	"github.com/youngcitybandit/nj-health-monitor/internal/entity"
)

// defaultStartDate is the monitoring cutoff used when the configured one
// cannot be parsed. Entries dated before the cutoff are never reported.
var defaultStartDate = time.Date(2025, 9, 15, 0, 0, 0, 0, time.UTC)

type Scraper struct {
	cfg       common.ScraperConfig
	client    *http.Client
	base      *url.URL
	startDate time.Time
	logger    *slog.Logger
	now       func() time.Time
}

func New(cfg common.ScraperConfig, logger *slog.Logger) (*Scraper, error) {
	if logger == nil {
		logger = slog.Default()
	}
	base, err := url.Parse(cfg.TargetURL)
	if err != nil {
		return nil, common.NewAppError("SCRAPER_CONFIG", "invalid target URL", err)
	}

	start := defaultStartDate
	if cfg.MonitoringStartDate != "" {
		parsed, err := time.Parse("2006-01-02", cfg.MonitoringStartDate)
		if err != nil {
			logger.Warn("invalid monitoring start date, using default",
				"value", cfg.MonitoringStartDate, "default", defaultStartDate.Format("2006-01-02"))
		} else {
			start = parsed
		}
	}

	return &Scraper{
		cfg:       cfg,
		client:    &http.Client{},
		base:      base,
		startDate: start,
		logger:    logger,
		now:       time.Now,
	}, nil
}

// FetchPage retrieves the enforcement-actions page HTML.
func (s *Scraper) FetchPage(ctx context.Context) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, s.cfg.RequestTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.cfg.TargetURL, nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("User-Agent", s.cfg.UserAgent)

	resp, err := s.client.Do(req)
	if err != nil {
		return "", common.NewAppError("SCRAPER_FETCH", "fetching enforcement page", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", common.NewAppError("SCRAPER_FETCH",
			fmt.Sprintf("enforcement page returned %d", resp.StatusCode), nil)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", common.NewAppError("SCRAPER_FETCH", "reading enforcement page body", err)
	}
	return string(body), nil
}

// ParseEntries extracts enforcement entries from the first table on the
// page. Rows are skipped, never fatal: fewer than three cells, a facility
// cell without a link, or an unparseable date all drop the row and move on.
func (s *Scraper) ParseEntries(htmlContent string) []entity.Entry {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(htmlContent))
	if err != nil {
		s.logger.Error("parsing enforcement page HTML", "error", err)
		return nil
	}

	table := doc.Find("table").First()
	if table.Length() == 0 {
		s.logger.Warn("no table found on enforcement page")
		return nil
	}

	var entries []entity.Entry
	table.Find("tr").Each(func(i int, row *goquery.Selection) {
		if i == 0 {
			return // header row
		}
		cells := row.Find("td")
		if cells.Length() < 3 {
			return
		}

		link := cells.Eq(1).Find("a").First()
		if link.Length() == 0 {
			return
		}
		href, _ := link.Attr("href")

		dateStr := strings.TrimSpace(cells.Eq(0).Text())
		date, err := time.Parse("1/2/2006", dateStr)
		if err != nil {
			s.logger.Warn("could not parse entry date", "value", dateStr)
			return
		}

		entries = append(entries, entity.Entry{
			Date:              date,
			FacilityName:      strings.TrimSpace(link.Text()),
			EnforcementAction: strings.TrimSpace(cells.Eq(2).Text()),
			PDFURL:            s.resolveURL(href),
			ScrapedAt:         s.now(),
		})
	})
	return entries
}

func (s *Scraper) resolveURL(href string) string {
	if href == "" || strings.HasPrefix(href, "http") {
		return href
	}
	ref, err := url.Parse(href)
	if err != nil {
		return href
	}
	return s.base.ResolveReference(ref).String()
}

// NewEntries fetches the page and returns entries dated on or after the
// monitoring cutoff and strictly after lastCheck.
func (s *Scraper) NewEntries(ctx context.Context, lastCheck time.Time) ([]entity.Entry, error) {
	all, err := s.fetchAndParse(ctx)
	if err != nil {
		return nil, err
	}
	var fresh []entity.Entry
	for _, e := range all {
		if !e.Date.Before(s.startDate) && e.Date.After(lastCheck) {
			fresh = append(fresh, e)
		}
	}
	s.logger.Info("scraped enforcement page",
		"total", len(all), "new", len(fresh), "since", lastCheck.Format(time.RFC3339))
	return fresh, nil
}

// EntriesFromDate fetches the page and returns entries dated on or after
// start. A zero start falls back to the monitoring cutoff.
func (s *Scraper) EntriesFromDate(ctx context.Context, start time.Time) ([]entity.Entry, error) {
	if start.IsZero() {
		start = s.startDate
	}
	all, err := s.fetchAndParse(ctx)
	if err != nil {
		return nil, err
	}
	var out []entity.Entry
	for _, e := range all {
		if !e.Date.Before(start) {
			out = append(out, e)
		}
	}
	return out, nil
}

func (s *Scraper) fetchAndParse(ctx context.Context) ([]entity.Entry, error) {
	htmlContent, err := s.FetchPage(ctx)
	if err != nil {
		return nil, err
	}
	return s.ParseEntries(htmlContent), nil
}

// DownloadPDF fetches a notice PDF. A non-PDF content type is only warned
// about; exceeding the configured size limit is an error.
func (s *Scraper) DownloadPDF(ctx context.Context, pdfURL string) ([]byte, error) {
	if pdfURL == "" {
		return nil, common.NewAppError("SCRAPER_DOWNLOAD", "no PDF URL provided", common.ErrInvalidInput)
	}

	ctx, cancel := context.WithTimeout(ctx, s.cfg.DownloadTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pdfURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", s.cfg.UserAgent)

	s.logger.Info("downloading PDF", "url", pdfURL)
	resp, err := s.client.Do(req)
	if err != nil {
		return nil, common.NewAppError("SCRAPER_DOWNLOAD", "downloading PDF", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, common.NewAppError("SCRAPER_DOWNLOAD",
			fmt.Sprintf("PDF download returned %d", resp.StatusCode), nil)
	}

	if ct := strings.ToLower(resp.Header.Get("Content-Type")); !strings.Contains(ct, "pdf") {
		s.logger.Warn("URL may not be a PDF", "url", pdfURL, "content_type", ct)
	}

	limit := int64(s.cfg.MaxPDFSizeMB) << 20
	data, err := io.ReadAll(io.LimitReader(resp.Body, limit+1))
	if err != nil {
		return nil, common.NewAppError("SCRAPER_DOWNLOAD", "reading PDF body", err)
	}
	if int64(len(data)) > limit {
		return nil, common.NewAppError("SCRAPER_DOWNLOAD",
			fmt.Sprintf("PDF exceeds %dMB limit", s.cfg.MaxPDFSizeMB), nil)
	}
	return data, nil
}
