package constants

// RequiredFields must be present for a record to count fully toward the
// required portion of the completeness score.
var RequiredFields = []string{
	"facility_name",
	"enforcement_action_type",
	"enforcement_date",
}

// OptionalFields contribute the remaining portion of the completeness score.
var OptionalFields = []string{
	"facility_address",
	"facility_license_number",
	"penalty_amount",
	"violation_summary",
	"key_violations",
	"effective_date",
}

// Completeness score weighting: required fields carry 60 points,
// optional fields 40.
const (
	RequiredFieldsWeight = 60.0
	OptionalFieldsWeight = 40.0
)

// Extraction limits.
const (
	// MinTextLenForOCR is the minimum number of non-whitespace characters
	// direct extraction must produce before OCR is skipped.
	MinTextLenForOCR = 50

	// MaxKeyViolations caps how many list items the parser keeps.
	MaxKeyViolations = 10

	// MinViolationLen filters out list-item matches too short to be real
	// violations.
	MinViolationLen = 20

	// ViolationSummaryMaxLen truncates free-text violation details in the
	// reconciled summary.
	ViolationSummaryMaxLen = 500
)
