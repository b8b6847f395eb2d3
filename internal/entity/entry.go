package entity

import "time"

// Entry is one row scraped from the enforcement-actions table.
type Entry struct {
	Date              time.Time `json:"date"`
	FacilityName      string    `json:"facility_name"`
	EnforcementAction string    `json:"enforcement_action"`
	PDFURL            string    `json:"pdf_url"`
	ScrapedAt         time.Time `json:"scraped_at"`
}
