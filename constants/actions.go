package constants

// EnforcementActionTypes is the closed vocabulary of action types, in
// canonical order. Detection elsewhere is first-match-wins over this
// ordering, so the order is load-bearing.
var EnforcementActionTypes = []string{
	"Notice of Assessment of Penalties",
	"Curtailment",
	"Cease & Desist",
	"Directed Plan of Correction",
	"Lifting Curtailment",
	"Revocation",
	"Suspension",
	"Amended Notice of Assessment of Penalties",
}

// Severity levels for enforcement actions.
const (
	SeverityHigh   = "HIGH"
	SeverityMedium = "MEDIUM"
	SeverityLow    = "LOW"
)

// Keyword groups used by severity classification. Matched against the
// lowercased action type.
var (
	HighSeverityKeywords   = []string{"revocation", "suspension", "cease"}
	MediumSeverityKeywords = []string{"curtailment", "penalties"}
)

// Penalty thresholds in dollars.
const (
	HighPenaltyThreshold   = 10000
	MediumPenaltyThreshold = 1000
	TopPenaltyThreshold    = 50000
)
