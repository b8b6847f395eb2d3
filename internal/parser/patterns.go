package parser

import "regexp"

// Every battery below is an ordered list and first-match-wins. The order
// is part of the contract: action-type detection in particular reports
// the first vocabulary entry in list order, not the first occurrence in
// the document.

var (
	reFacility = regexp.MustCompile(`(?i)Facility:\s*(.+)`)
	reAddress  = regexp.MustCompile(`(?is)Address:\s*(.+?)\s*(?:License|\n\n|$)`)
	reLicense  = regexp.MustCompile(`(?i)License\s*#?\s*:?\s*([A-Z0-9-]+)`)
)

// penaltyPatterns are the known phrasings for an assessed dollar amount,
// in priority order.
var penaltyPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)penalty\s*of\s*\$?([0-9,]+)`),
	regexp.MustCompile(`(?i)fine\s*of\s*\$?([0-9,]+)`),
	regexp.MustCompile(`(?i)\$([0-9,]+)\s*penalty`),
	regexp.MustCompile(`(?i)assessed\s*penalty\s*of\s*\$?([0-9,]+)`),
}

// actionPattern pairs a detection regex with the canonical vocabulary value.
type actionPattern struct {
	re        *regexp.Regexp
	canonical string
}

var actionPatterns = []actionPattern{
	{regexp.MustCompile(`(?i)Notice\s+of\s+Assessment\s+of\s+Penalties`), "Notice of Assessment of Penalties"},
	{regexp.MustCompile(`(?i)Curtailment`), "Curtailment"},
	{regexp.MustCompile(`(?i)Cease\s+&\s+Desist`), "Cease & Desist"},
	{regexp.MustCompile(`(?i)Directed\s+Plan\s+of\s+Correction`), "Directed Plan of Correction"},
	{regexp.MustCompile(`(?i)Lifting\s+Curtailment`), "Lifting Curtailment"},
	{regexp.MustCompile(`(?i)Revocation`), "Revocation"},
	{regexp.MustCompile(`(?i)Suspension`), "Suspension"},
}

// violationSectionPatterns match the free-text violations block under its
// common header synonyms, up to a blank line or a new capitalized line.
var violationSectionPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?is)Violations?:\s*(.+?)(?:\n\n|\n[A-Z]|$)`),
	regexp.MustCompile(`(?is)Deficiencies?:\s*(.+?)(?:\n\n|\n[A-Z]|$)`),
	regexp.MustCompile(`(?is)Findings?:\s*(.+?)(?:\n\n|\n[A-Z]|$)`),
	regexp.MustCompile(`(?is)Issues?:\s*(.+?)(?:\n\n|\n[A-Z]|$)`),
}

// listMarkerPatterns locate list-item markers for the three list styles.
// Items are sliced out between consecutive markers (see listItems), which
// keeps multi-line items intact without consuming the next marker.
var listMarkerPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?m)^[ \t]*[0-9]+\.[ \t]*`),  // 1. 2. 3.
	regexp.MustCompile(`(?m)^[ \t]*[•\-\*][ \t]+`),   // bullets
	regexp.MustCompile(`(?m)^[ \t]*[a-z]\)[ \t]*`),   // a) b) c)
}

// datePatterns, in priority order; the value is kept in raw form.
var datePatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)Effective\s+Date:\s*([0-9/]+)`),
	regexp.MustCompile(`(?i)Date:\s*([0-9/]+)`),
	regexp.MustCompile(`([0-9]{1,2}/[0-9]{1,2}/[0-9]{4})`),
}

var contactPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?is)Contact:\s*(.+?)(?:\n\n|\n[A-Z]|$)`),
	regexp.MustCompile(`(?is)For\s+questions?:\s*(.+?)(?:\n\n|\n[A-Z]|$)`),
	regexp.MustCompile(`(?is)Inquiries:\s*(.+?)(?:\n\n|\n[A-Z]|$)`),
}

// adminPatterns try the common ways an administrator is named in facility
// letters: title-suffixed, label-prefixed, specific titles, contact lines,
// and line-anchored variants.
var adminPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?im)([A-Z][a-z]+\s+[A-Z][a-z]+),?\s*Administrator`),
	regexp.MustCompile(`(?im)Administrator[:\s]*([A-Z][a-z]+\s+[A-Z][a-z]+)`),
	regexp.MustCompile(`(?im)Nursing\s+Home\s+Administrator[:\s]*([A-Z][a-z]+\s+[A-Z][a-z]+)`),
	regexp.MustCompile(`(?im)Facility\s+Administrator[:\s]*([A-Z][a-z]+\s+[A-Z][a-z]+)`),
	regexp.MustCompile(`(?im)Administrator\s*[-:]\s*([A-Z][a-z]+\s+[A-Z][a-z]+)`),
	regexp.MustCompile(`(?im)Contact\s+Person[:\s]*([A-Z][a-z]+\s+[A-Z][a-z]+)`),
	regexp.MustCompile(`(?im)Director[:\s]*([A-Z][a-z]+\s+[A-Z][a-z]+)`),
	regexp.MustCompile(`(?im)CEO[:\s]*([A-Z][a-z]+\s+[A-Z][a-z]+)`),
	regexp.MustCompile(`(?im)Chief\s+Executive\s+Officer[:\s]*([A-Z][a-z]+\s+[A-Z][a-z]+)`),
	regexp.MustCompile(`(?im)^([A-Z][a-z]+\s+[A-Z][a-z]+),?\s*Administrator`),
	regexp.MustCompile(`(?im)^([A-Z][a-z]+\s+[A-Z][a-z]+)\s*\n.*Administrator`),
	regexp.MustCompile(`(?im)([A-Z][a-z]+\s+[A-Z][a-z]+),?\s*Administrator\s*\n.*Health\s+Center`),
	regexp.MustCompile(`(?im)([A-Z][a-zA-Z]+\s+[A-Z][a-zA-Z]+),?\s*Administrator`),
}

// signaturePatterns are the fallback when no labeled administrator appears:
// letter sign-offs and trailing title lines.
var signaturePatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?im)Sincerely,\s*([A-Z][a-z]+\s+[A-Z][a-z]+)`),
	regexp.MustCompile(`(?im)Best\s+regards,\s*([A-Z][a-z]+\s+[A-Z][a-z]+)`),
	regexp.MustCompile(`(?im)([A-Z][a-z]+\s+[A-Z][a-z]+),?\s*(?:Administrator|Director|CEO)`),
}
