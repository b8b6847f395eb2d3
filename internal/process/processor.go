// Package process reconciles web-sourced and PDF-sourced data into a
// single enforcement record, scores it, and validates it.
package process

import (
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"time"

	"github.com/youngcitybandit/nj-health-monitor/constants"
	"github.com/youngcitybandit/nj-health-monitor/internal/entity"
)

type Processor struct {
	logger *slog.Logger
	now    func() time.Time
}

func New(logger *slog.Logger) *Processor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Processor{logger: logger, now: time.Now}
}

// SetClock replaces the time source (tests).
func (p *Processor) SetClock(now func() time.Time) { p.now = now }

// Process merges a scraped entry with its parsed PDF fields into a Record.
// It never fails: an unexpected panic degrades to a record with empty
// structured fields and a validation error carrying the message.
func (p *Processor) Process(entry entity.Entry, fields entity.ParsedFields, method string) (rec entity.Record) {
	defer func() {
		if r := recover(); r != nil {
			p.logger.Error("reconciliation panicked", "facility", entry.FacilityName, "panic", r)
			rec = entity.Record{
				ID:        p.entryID(entry),
				ScrapedAt: p.now(),
				PDFURL:    entry.PDFURL,
				Validation: entity.Validation{
					Valid:  false,
					Errors: []string{fmt.Sprint(r)},
				},
			}
		}
	}()

	actionType := reconcileActionType(entry, fields)
	penalty := formatPenalty(fields.PenaltyAmount)

	rec = entity.Record{
		ID:                    p.entryID(entry),
		ScrapedAt:             p.now(),
		FacilityName:          reconcileFacilityName(entry, fields),
		FacilityAddress:       fields.FacilityAddress,
		FacilityLicenseNumber: fields.FacilityLicenseNumber,
		EnforcementDate:       formatDate(entry.Date),
		EnforcementActionType: actionType,
		PenaltyAmount:         penalty,
		ViolationSummary:      violationSummary(fields),
		KeyViolations:         fields.KeyViolations,
		EffectiveDate:         fields.EffectiveDate,
		ContactInformation:    fields.ContactInformation,
		AdministratorName:     fields.AdministratorName,
		AdministratorFirst:    fields.AdministratorFirstName,
		PDFURL:                entry.PDFURL,
		ExtractionMethod:      method,
		SeverityLevel:         assessSeverity(actionType, penalty),
		PriorityScore:         p.priorityScore(entry, actionType, penalty, fields.KeyViolations),
	}
	rec.Validation = validate(&rec)

	p.logger.Info("processed entry",
		"id", rec.ID,
		"facility", rec.FacilityName,
		"severity", rec.SeverityLevel,
		"priority", rec.PriorityScore,
		"valid", rec.Validation.Valid,
	)
	return rec
}

// entryID derives the record identifier from the scraped facility name and
// entry date. Deliberately not content-addressed: two filings for the same
// facility on the same date collide and the store overwrites.
func (p *Processor) entryID(entry entity.Entry) string {
	name := entry.FacilityName
	if name == "" {
		name = "unknown"
	}
	date := entry.Date
	if date.IsZero() {
		date = p.now()
	}
	id := fmt.Sprintf("%s_%s", name, date.Format("20060102"))
	id = strings.ReplaceAll(id, " ", "_")
	id = strings.ReplaceAll(id, "/", "_")
	return strings.ToLower(id)
}

// reconcileFacilityName prefers the longer of the two names as a proxy for
// "more complete", falling back to whichever is non-empty.
func reconcileFacilityName(entry entity.Entry, fields entity.ParsedFields) string {
	if fields.FacilityName != "" && len(fields.FacilityName) > len(entry.FacilityName) {
		return fields.FacilityName
	}
	if entry.FacilityName != "" {
		return entry.FacilityName
	}
	return fields.FacilityName
}

// reconcileActionType prefers the PDF-sourced value.
func reconcileActionType(entry entity.Entry, fields entity.ParsedFields) string {
	if fields.EnforcementActionType != "" {
		return fields.EnforcementActionType
	}
	return entry.EnforcementAction
}

var nonDigits = regexp.MustCompile(`[^\d]`)

// formatPenalty strips everything but digits from the raw extracted value
// and prefixes "$". Empty in, empty out.
func formatPenalty(raw string) string {
	digits := nonDigits.ReplaceAllString(raw, "")
	if digits == "" {
		return ""
	}
	return "$" + digits
}

// violationSummary joins the first three key violations, or falls back to
// the truncated free-text details.
func violationSummary(fields entity.ParsedFields) string {
	if len(fields.KeyViolations) > 0 {
		top := fields.KeyViolations
		if len(top) > 3 {
			top = top[:3]
		}
		return strings.Join(top, "; ")
	}
	if fields.ViolationDetails != "" {
		if len(fields.ViolationDetails) > constants.ViolationSummaryMaxLen {
			return fields.ViolationDetails[:constants.ViolationSummaryMaxLen] + "..."
		}
		return fields.ViolationDetails
	}
	return ""
}

// formatDate renders a date as ISO 8601, empty for the zero value.
func formatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format("2006-01-02")
}

// NormalizeDateString converts MM/DD/YYYY strings to ISO 8601. Strings it
// cannot parse pass through unchanged.
func NormalizeDateString(s string) string {
	if !strings.Contains(s, "/") {
		return s
	}
	t, err := time.Parse("1/2/2006", s)
	if err != nil {
		return s
	}
	return t.Format("2006-01-02")
}
