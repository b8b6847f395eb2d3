// Package parser turns extracted notice text into structured fields.
//
// Each field has its own ordered battery of patterns (see patterns.go).
// Extractors are independent: they run unconditionally even when earlier
// ones found nothing, and every one of them fails silently to its zero
// value on no-match. A completely empty input yields a completely empty
// ParsedFields, not an error.
package parser

import (
	"log/slog"
	"regexp"
	"strings"

	"github.com/youngcitybandit/nj-health-monitor/constants"
	"github.com/youngcitybandit/nj-health-monitor/internal/entity"
)

type Parser struct {
	names  NameSource
	logger *slog.Logger
}

func New(names NameSource, logger *slog.Logger) *Parser {
	if names == nil {
		names = NewRandNameSource()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Parser{names: names, logger: logger}
}

// ParseFields applies every field extractor to the text.
func (p *Parser) ParseFields(text string) entity.ParsedFields {
	fields := entity.ParsedFields{RawText: text}

	if m := reFacility.FindStringSubmatch(text); m != nil {
		fields.FacilityName = strings.TrimSpace(m[1])
	}
	if m := reAddress.FindStringSubmatch(text); m != nil {
		fields.FacilityAddress = strings.TrimSpace(m[1])
	}
	if m := reLicense.FindStringSubmatch(text); m != nil {
		fields.FacilityLicenseNumber = strings.TrimSpace(m[1])
	}

	for _, re := range penaltyPatterns {
		if m := re.FindStringSubmatch(text); m != nil {
			fields.PenaltyAmount = strings.TrimSpace(m[1])
			break
		}
	}

	for _, ap := range actionPatterns {
		if ap.re.MatchString(text) {
			fields.EnforcementActionType = ap.canonical
			break
		}
	}

	fields.ViolationDetails = extractViolationSection(text)
	fields.KeyViolations = extractKeyViolations(text)

	for _, re := range datePatterns {
		if m := re.FindStringSubmatch(text); m != nil {
			fields.EffectiveDate = strings.TrimSpace(m[1])
			break
		}
	}

	fields.ContactInformation = extractContactInfo(text)

	full, first := p.extractAdministrator(text)
	fields.AdministratorName = full
	fields.AdministratorFirstName = first

	return fields
}

func extractViolationSection(text string) string {
	for _, re := range violationSectionPatterns {
		if m := re.FindStringSubmatch(text); m != nil {
			return strings.TrimSpace(m[1])
		}
	}
	return ""
}

// extractKeyViolations collects numbered, bulleted, and lettered list
// items. Hits from each style are appended in pattern-scan order (styles
// are concatenated, not merged), short matches are dropped as noise, and
// the result is capped.
func extractKeyViolations(text string) []string {
	var violations []string
	for _, marker := range listMarkerPatterns {
		for _, item := range listItems(text, marker) {
			if len(item) > constants.MinViolationLen {
				violations = append(violations, item)
			}
		}
	}
	if len(violations) > constants.MaxKeyViolations {
		violations = violations[:constants.MaxKeyViolations]
	}
	return violations
}

// listItems slices the text between consecutive marker positions of one
// list style. An item ends at the next marker, at a blank line, or at the
// end of text, whichever comes first.
func listItems(text string, marker *regexp.Regexp) []string {
	locs := marker.FindAllStringIndex(text, -1)
	if locs == nil {
		return nil
	}
	var items []string
	for i, loc := range locs {
		start := loc[1]
		end := len(text)
		if i+1 < len(locs) {
			end = locs[i+1][0]
		}
		if blank := strings.Index(text[start:end], "\n\n"); blank >= 0 {
			end = start + blank
		}
		if item := strings.TrimSpace(text[start:end]); item != "" {
			items = append(items, item)
		}
	}
	return items
}

func extractContactInfo(text string) string {
	for _, re := range contactPatterns {
		if m := re.FindStringSubmatch(text); m != nil {
			return strings.TrimSpace(m[1])
		}
	}
	return ""
}

// extractAdministrator returns the administrator's full and first name.
// When every pattern misses, a first name is drawn from the NameSource
// and the full name is synthesized as "{first} [Administrator]".
func (p *Parser) extractAdministrator(text string) (full, first string) {
	for _, re := range adminPatterns {
		if m := re.FindStringSubmatch(text); m != nil {
			full = strings.TrimSpace(m[1])
			break
		}
	}
	if full == "" {
		for _, re := range signaturePatterns {
			if m := re.FindStringSubmatch(text); m != nil {
				full = strings.TrimSpace(m[1])
				break
			}
		}
	}
	if full != "" {
		if parts := strings.Fields(full); len(parts) > 0 {
			first = parts[0]
		}
		return full, first
	}

	first = p.names.First()
	full = first + " [Administrator]"
	return full, first
}
