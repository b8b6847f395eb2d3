package entity

import "time"

// Record is the reconciled enforcement record handed to persistence and
// notification. ID is derived from facility name + entry date, not content
// hashed: two filings for the same facility on the same date collide, and
// the store overwrites on collision.
type Record struct {
	ID                    string     `json:"id"`
	ScrapedAt             time.Time  `json:"scraped_at"`
	FacilityName          string     `json:"facility_name"`
	FacilityAddress       string     `json:"facility_address"`
	FacilityLicenseNumber string     `json:"facility_license_number"`
	EnforcementDate       string     `json:"enforcement_date"` // ISO 8601 date
	EnforcementActionType string     `json:"enforcement_action_type"`
	PenaltyAmount         string     `json:"penalty_amount"` // "$"+digits or empty
	ViolationSummary      string     `json:"violation_summary"`
	KeyViolations         []string   `json:"key_violations"`
	EffectiveDate         string     `json:"effective_date"`
	ContactInformation    string     `json:"contact_information"`
	AdministratorName     string     `json:"administrator_name"`
	AdministratorFirst    string     `json:"administrator_first_name"`
	PDFURL                string     `json:"pdf_url"`
	ExtractionMethod      string     `json:"extraction_method,omitempty"`
	SeverityLevel         string     `json:"severity_level"`
	PriorityScore         int        `json:"priority_score"`
	Validation            Validation `json:"validation"`
}

// Validation summarizes record quality. Only a missing facility name makes
// a record invalid; everything else surfaces as warnings.
type Validation struct {
	Valid             bool     `json:"valid"`
	Errors            []string `json:"errors"`
	Warnings          []string `json:"warnings"`
	CompletenessScore float64  `json:"completeness_score"` // 0–100, one decimal
}
