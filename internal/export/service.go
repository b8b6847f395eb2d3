// Package export produces XLSX workbooks from stored enforcement records.
package export

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/youngcitybandit/nj-health-monitor/internal/entity"
)

// RecordLister is the slice of the record store the exporter needs.
type RecordLister interface {
	ListRecent(ctx context.Context, limit int) ([]entity.Record, error)
}

// Service is a tiny façade over the record store that produces XLSX bytes.
type Service struct {
	records RecordLister
	logger  *slog.Logger
}

func NewService(records RecordLister, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{records: records, logger: logger}
}

// ExportRecordsXLSX returns an XLSX workbook of the most recent records.
// limit <= 0 exports the store's default page.
func (s *Service) ExportRecordsXLSX(ctx context.Context, limit int) ([]byte, error) {
	start := time.Now()

	recs, err := s.records.ListRecent(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("query records: %w", err)
	}
	return s.buildWorkbook(recs, start)
}

func (s *Service) buildWorkbook(recs []entity.Record, start time.Time) ([]byte, error) {
	f := excelize.NewFile()
	const sheet = "Enforcement Actions"
	if index, _ := f.GetSheetIndex(sheet); index == -1 {
		if _, err := f.NewSheet(sheet); err != nil {
			return nil, err
		}
	}
	activeIndex, _ := f.GetSheetIndex(sheet)
	f.SetActiveSheet(activeIndex)

	headers := []string{
		"Enforcement Date",
		"Facility",
		"License #",
		"Action Type",
		"Severity",
		"Priority",
		"Penalty",
		"Violation Summary",
		"Administrator",
		"PDF URL",
	}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(sheet, cell, h)
	}

	row := 2
	for _, r := range recs {
		write := func(col int, v any) {
			cell, _ := excelize.CoordinatesToCellName(col, row)
			_ = f.SetCellValue(sheet, cell, v)
		}

		write(1, r.EnforcementDate)
		write(2, r.FacilityName)
		write(3, r.FacilityLicenseNumber)
		write(4, r.EnforcementActionType)
		write(5, r.SeverityLevel)
		write(6, r.PriorityScore)
		write(7, r.PenaltyAmount)
		write(8, truncate(strings.Join(strings.Fields(r.ViolationSummary), " "), 140))
		write(9, r.AdministratorName)
		write(10, r.PDFURL)

		row++
	}

	_ = f.SetColWidth(sheet, "A", "A", 14) // date
	_ = f.SetColWidth(sheet, "B", "B", 36) // facility
	_ = f.SetColWidth(sheet, "C", "C", 14) // license
	_ = f.SetColWidth(sheet, "D", "D", 30) // action
	_ = f.SetColWidth(sheet, "E", "F", 10) // severity, priority
	_ = f.SetColWidth(sheet, "G", "G", 12) // penalty
	_ = f.SetColWidth(sheet, "H", "H", 48) // summary
	_ = f.SetColWidth(sheet, "I", "I", 24) // administrator
	_ = f.SetColWidth(sheet, "J", "J", 60) // url

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("xlsx write: %w", err)
	}

	s.logger.Info("export.xlsx.ok",
		"rows", len(recs),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return buf.Bytes(), nil
}

func truncate(s string, n int) string {
	if n <= 0 || len(s) <= n {
		return s
	}
	if n <= 1 {
		return s[:n]
	}
	return s[:n-1] + "…"
}
