package entity

// ParsedFields holds everything the field-extraction engine could find in
// a notice. Every field defaults to its zero value when extraction misses;
// a fully-zero ParsedFields is a valid "nothing found" result, not an error.
type ParsedFields struct {
	RawText                string   `json:"raw_text,omitempty"`
	FacilityName           string   `json:"facility_name"`
	FacilityAddress        string   `json:"facility_address"`
	FacilityLicenseNumber  string   `json:"facility_license_number"`
	EnforcementActionType  string   `json:"enforcement_action_type"`
	PenaltyAmount          string   `json:"penalty_amount"` // digits-and-commas, no "$"
	ViolationDetails       string   `json:"violation_details"`
	KeyViolations          []string `json:"key_violations"`
	EffectiveDate          string   `json:"effective_date"` // raw form as found
	ContactInformation     string   `json:"contact_information"`
	AdministratorName      string   `json:"administrator_name"`
	AdministratorFirstName string   `json:"administrator_first_name"`
}
