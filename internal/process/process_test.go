package process

import (
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/youngcitybandit/nj-health-monitor/constants"
	"github.com/youngcitybandit/nj-health-monitor/internal/entity"
)

var testNow = time.Date(2026, 1, 20, 12, 0, 0, 0, time.UTC)

func newTestProcessor() *Processor {
	p := New(nil)
	p.SetClock(func() time.Time { return testNow })
	return p
}

func TestProcess_SuspensionIsHighSeverity(t *testing.T) {
	entry := entity.Entry{
		Date:         time.Date(2026, 1, 10, 0, 0, 0, 0, time.UTC),
		FacilityName: "Oak Manor",
		PDFURL:       "https://example.gov/notices/oak.pdf",
	}
	fields := entity.ParsedFields{EnforcementActionType: "Suspension"}

	rec := newTestProcessor().Process(entry, fields, constants.MethodPDFText)

	if rec.SeverityLevel != constants.SeverityHigh {
		t.Errorf("severity = %q, want HIGH for a suspension with no penalty", rec.SeverityLevel)
	}
	if rec.PriorityScore < 40 {
		t.Errorf("priority = %d, want at least the action-type contribution", rec.PriorityScore)
	}
}

func TestProcess_PenaltyReconciledToDollarDigits(t *testing.T) {
	fields := entity.ParsedFields{PenaltyAmount: "1,234"}
	rec := newTestProcessor().Process(entity.Entry{FacilityName: "Oak Manor"}, fields, "")
	if rec.PenaltyAmount != "$1234" {
		t.Errorf("penalty = %q, want commas stripped and dollar sign prefixed", rec.PenaltyAmount)
	}

	empty := newTestProcessor().Process(entity.Entry{FacilityName: "Oak Manor"}, entity.ParsedFields{}, "")
	if empty.PenaltyAmount != "" {
		t.Errorf("penalty = %q, want empty when nothing was extracted", empty.PenaltyAmount)
	}
}

func TestProcess_FacilityNameLongerWins(t *testing.T) {
	entry := entity.Entry{FacilityName: "Oak Manor"}
	fields := entity.ParsedFields{FacilityName: "Oak Manor Rehabilitation Center"}
	rec := newTestProcessor().Process(entry, fields, "")
	if rec.FacilityName != "Oak Manor Rehabilitation Center" {
		t.Errorf("facility = %q, want the longer PDF name", rec.FacilityName)
	}

	rec = newTestProcessor().Process(entity.Entry{FacilityName: "Oak Manor Rehabilitation Center"},
		entity.ParsedFields{FacilityName: "Oak Manor"}, "")
	if rec.FacilityName != "Oak Manor Rehabilitation Center" {
		t.Errorf("facility = %q, want the longer web name", rec.FacilityName)
	}
}

func TestProcess_IDDerivation(t *testing.T) {
	entry := entity.Entry{
		Date:         time.Date(2026, 1, 15, 0, 0, 0, 0, time.UTC),
		FacilityName: "Sunrise Care Center",
	}
	rec := newTestProcessor().Process(entry, entity.ParsedFields{}, "")
	if rec.ID != "sunrise_care_center_20260115" {
		t.Errorf("id = %q", rec.ID)
	}

	slashed := entity.Entry{
		Date:         time.Date(2026, 1, 15, 0, 0, 0, 0, time.UTC),
		FacilityName: "A/B Home",
	}
	rec = newTestProcessor().Process(slashed, entity.ParsedFields{}, "")
	if rec.ID != "a_b_home_20260115" {
		t.Errorf("id = %q, want slashes folded to underscores", rec.ID)
	}

	// The web name drives the ID even when the PDF name wins reconciliation.
	rec = newTestProcessor().Process(entry, entity.ParsedFields{FacilityName: "Sunrise Care Center of Trenton"}, "")
	if rec.ID != "sunrise_care_center_20260115" {
		t.Errorf("id = %q, want derived from the scraped name", rec.ID)
	}
}

func TestProcess_MissingFacilityNameIsInvalid(t *testing.T) {
	rec := newTestProcessor().Process(entity.Entry{}, entity.ParsedFields{}, "")
	if rec.Validation.Valid {
		t.Error("record with no facility name should be invalid")
	}
	want := []string{"Missing facility name"}
	if !reflect.DeepEqual(rec.Validation.Errors, want) {
		t.Errorf("errors = %v, want %v", rec.Validation.Errors, want)
	}
	if !strings.HasPrefix(rec.ID, "unknown_") {
		t.Errorf("id = %q, want the unknown placeholder", rec.ID)
	}
}

func TestProcess_CompletenessRequiredOnly(t *testing.T) {
	entry := entity.Entry{
		Date:         time.Date(2026, 1, 15, 0, 0, 0, 0, time.UTC),
		FacilityName: "Oak Manor",
	}
	fields := entity.ParsedFields{EnforcementActionType: "Curtailment"}
	rec := newTestProcessor().Process(entry, fields, "")
	if rec.Validation.CompletenessScore != 60.0 {
		t.Errorf("completeness = %v, want 60.0 with required fields only", rec.Validation.CompletenessScore)
	}
}

func TestProcess_CompletenessRounding(t *testing.T) {
	entry := entity.Entry{
		Date:         time.Date(2026, 1, 15, 0, 0, 0, 0, time.UTC),
		FacilityName: "Oak Manor",
	}
	fields := entity.ParsedFields{
		EnforcementActionType: "Curtailment",
		FacilityAddress:       "12 Main St",
	}
	// 60 + 40/6 = 66.666..., rounded to one decimal.
	rec := newTestProcessor().Process(entry, fields, "")
	if rec.Validation.CompletenessScore != 66.7 {
		t.Errorf("completeness = %v, want 66.7", rec.Validation.CompletenessScore)
	}
}

func TestAssessSeverity(t *testing.T) {
	cases := []struct {
		action  string
		penalty string
		want    string
	}{
		{"Revocation", "", constants.SeverityHigh},
		{"Suspension", "", constants.SeverityHigh},
		{"Cease & Desist", "", constants.SeverityHigh},
		{"", "$15000", constants.SeverityHigh},
		{"", "$5000", constants.SeverityMedium},
		{"Curtailment", "", constants.SeverityMedium},
		{"Notice of Assessment of Penalties", "", constants.SeverityMedium},
		{"", "$500", constants.SeverityLow},
		{"", "", constants.SeverityLow},
		// Keyword rules outrank the penalty threshold.
		{"Revocation", "$500", constants.SeverityHigh},
	}
	for _, c := range cases {
		if got := assessSeverity(c.action, c.penalty); got != c.want {
			t.Errorf("assessSeverity(%q, %q) = %q, want %q", c.action, c.penalty, got, c.want)
		}
	}
}

func TestPriorityScore(t *testing.T) {
	p := newTestProcessor()
	old := entity.Entry{Date: testNow.AddDate(0, -2, 0)}
	fresh := entity.Entry{Date: testNow.Add(-2 * time.Hour)}
	weekOld := entity.Entry{Date: testNow.AddDate(0, 0, -5)}

	cases := []struct {
		name       string
		entry      entity.Entry
		action     string
		penalty    string
		violations int
		want       int
	}{
		{"revocation only", old, "Revocation", "", 0, 40},
		{"cease and desist", old, "Cease & Desist", "", 0, 30},
		{"curtailment", old, "Curtailment", "", 0, 20},
		{"penalties notice", old, "Notice of Assessment of Penalties", "", 0, 15},
		{"top penalty", old, "", "$60000", 0, 30},
		{"high penalty", old, "", "$10000", 0, 20},
		{"medium penalty", old, "", "$1000", 0, 10},
		{"many violations", old, "", "", 6, 15},
		{"some violations", old, "", "", 3, 10},
		{"one violation", old, "", "", 1, 5},
		{"fresh entry", fresh, "", "", 0, 10},
		{"week old entry", weekOld, "", "", 0, 5},
		{"everything", fresh, "Suspension", "$60000", 5, 95},
	}
	for _, c := range cases {
		violations := make([]string, c.violations)
		if got := p.priorityScore(c.entry, c.action, c.penalty, violations); got != c.want {
			t.Errorf("%s: score = %d, want %d", c.name, got, c.want)
		}
	}
}

func TestViolationSummary(t *testing.T) {
	fields := entity.ParsedFields{
		KeyViolations: []string{"first finding", "second finding", "third finding", "fourth finding"},
	}
	if got := violationSummary(fields); got != "first finding; second finding; third finding" {
		t.Errorf("summary = %q, want first three joined", got)
	}

	long := strings.Repeat("x", 600)
	fields = entity.ParsedFields{ViolationDetails: long}
	got := violationSummary(fields)
	if len(got) != constants.ViolationSummaryMaxLen+3 || !strings.HasSuffix(got, "...") {
		t.Errorf("summary len = %d, want truncation with ellipsis", len(got))
	}

	if got := violationSummary(entity.ParsedFields{}); got != "" {
		t.Errorf("summary = %q, want empty", got)
	}
}

func TestProcess_Idempotent(t *testing.T) {
	entry := entity.Entry{
		Date:         time.Date(2026, 1, 15, 0, 0, 0, 0, time.UTC),
		FacilityName: "Oak Manor",
		PDFURL:       "https://example.gov/notices/oak.pdf",
	}
	fields := entity.ParsedFields{
		EnforcementActionType: "Curtailment",
		PenaltyAmount:         "2,500",
		KeyViolations:         []string{"staffing levels routinely below required minimums"},
	}
	p := newTestProcessor()
	a := p.Process(entry, fields, constants.MethodPDFOCR)
	b := p.Process(entry, fields, constants.MethodPDFOCR)
	if !reflect.DeepEqual(a, b) {
		t.Error("Process is not idempotent under a fixed clock")
	}
}

func TestProcess_Warnings(t *testing.T) {
	entry := entity.Entry{FacilityName: "Oak Manor"}
	fields := entity.ParsedFields{FacilityLicenseNumber: "NJ"}
	rec := newTestProcessor().Process(entry, fields, "")

	if !rec.Validation.Valid {
		t.Fatal("warnings alone should not invalidate a record")
	}
	wantWarnings := map[string]bool{
		"Missing enforcement action type": true,
		"Missing enforcement date":        true,
		"License number seems too short":  true,
	}
	if len(rec.Validation.Warnings) != len(wantWarnings) {
		t.Fatalf("warnings = %v", rec.Validation.Warnings)
	}
	for _, w := range rec.Validation.Warnings {
		if !wantWarnings[w] {
			t.Errorf("unexpected warning %q", w)
		}
	}
}

func TestNormalizeDateString(t *testing.T) {
	cases := []struct{ in, want string }{
		{"01/15/2026", "2026-01-15"},
		{"5/6/2026", "2026-05-06"},
		{"2026-01-15", "2026-01-15"},
		{"not a date", "not a date"},
		{"13/45/2026", "13/45/2026"},
		{"", ""},
	}
	for _, c := range cases {
		if got := NormalizeDateString(c.in); got != c.want {
			t.Errorf("NormalizeDateString(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}
