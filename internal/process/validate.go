package process

import (
	"math"
	"regexp"

	"github.com/youngcitybandit/nj-health-monitor/constants"
	"github.com/youngcitybandit/nj-health-monitor/internal/entity"
)

var penaltyFormat = regexp.MustCompile(`^\$?[\d,]+$`)

// validate checks a reconciled record. Only a missing facility name is an
// error; everything else degrades to a warning.
func validate(rec *entity.Record) entity.Validation {
	v := entity.Validation{Valid: true}

	if rec.FacilityName == "" {
		v.Valid = false
		v.Errors = append(v.Errors, "Missing facility name")
	}
	if rec.EnforcementActionType == "" {
		v.Warnings = append(v.Warnings, "Missing enforcement action type")
	}
	if rec.EnforcementDate == "" {
		v.Warnings = append(v.Warnings, "Missing enforcement date")
	}
	if rec.PenaltyAmount != "" && !penaltyFormat.MatchString(rec.PenaltyAmount) {
		v.Warnings = append(v.Warnings, "Penalty amount format may be invalid")
	}
	if rec.FacilityLicenseNumber != "" && len(rec.FacilityLicenseNumber) < 3 {
		v.Warnings = append(v.Warnings, "License number seems too short")
	}

	v.CompletenessScore = completeness(rec)
	return v
}

// completeness weights required fields at 60% and optional fields at 40%,
// rounded to one decimal place.
func completeness(rec *entity.Record) float64 {
	required := map[string]bool{
		"facility_name":           rec.FacilityName != "",
		"enforcement_action_type": rec.EnforcementActionType != "",
		"enforcement_date":        rec.EnforcementDate != "",
	}
	optional := map[string]bool{
		"facility_address":        rec.FacilityAddress != "",
		"facility_license_number": rec.FacilityLicenseNumber != "",
		"penalty_amount":          rec.PenaltyAmount != "",
		"violation_summary":       rec.ViolationSummary != "",
		"key_violations":          len(rec.KeyViolations) > 0,
		"effective_date":          rec.EffectiveDate != "",
	}

	score := constants.RequiredFieldsWeight * fractionPresent(required)
	score += constants.OptionalFieldsWeight * fractionPresent(optional)
	return math.Round(score*10) / 10
}

func fractionPresent(fields map[string]bool) float64 {
	present := 0
	for _, ok := range fields {
		if ok {
			present++
		}
	}
	return float64(present) / float64(len(fields))
}
