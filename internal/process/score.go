package process

import (
	"strconv"
	"strings"
	"time"

	"github.com/youngcitybandit/nj-health-monitor/constants"
	"github.com/youngcitybandit/nj-health-monitor/internal/entity"
)

// penaltyValue parses a formatted "$1234" amount. ok is false when the
// amount is absent or non-numeric.
func penaltyValue(formatted string) (int, bool) {
	digits := strings.TrimPrefix(formatted, "$")
	if digits == "" {
		return 0, false
	}
	n, err := strconv.Atoi(strings.ReplaceAll(digits, ",", ""))
	if err != nil {
		return 0, false
	}
	return n, true
}

// assessSeverity classifies the record. Rules run in priority order:
// high-severity action keywords beat penalty thresholds, which beat
// medium-severity keywords. Anything else is LOW.
func assessSeverity(actionType, penalty string) string {
	action := strings.ToLower(actionType)
	for _, kw := range constants.HighSeverityKeywords {
		if strings.Contains(action, kw) {
			return constants.SeverityHigh
		}
	}
	if n, ok := penaltyValue(penalty); ok {
		if n >= constants.HighPenaltyThreshold {
			return constants.SeverityHigh
		}
		if n >= constants.MediumPenaltyThreshold {
			return constants.SeverityMedium
		}
	}
	for _, kw := range constants.MediumSeverityKeywords {
		if strings.Contains(action, kw) {
			return constants.SeverityMedium
		}
	}
	return constants.SeverityLow
}

// priorityScore computes the additive 0-100 attention score from action
// type, penalty size, violation count, and recency of the entry date.
func (p *Processor) priorityScore(entry entity.Entry, actionType, penalty string, violations []string) int {
	score := 0
	action := strings.ToLower(actionType)

	switch {
	case strings.Contains(action, "revocation") || strings.Contains(action, "suspension"):
		score += 40
	case strings.Contains(action, "cease"):
		score += 30
	case strings.Contains(action, "curtailment"):
		score += 20
	case strings.Contains(action, "penalties"):
		score += 15
	}

	if n, ok := penaltyValue(penalty); ok {
		switch {
		case n >= constants.TopPenaltyThreshold:
			score += 30
		case n >= constants.HighPenaltyThreshold:
			score += 20
		case n >= constants.MediumPenaltyThreshold:
			score += 10
		}
	}

	switch {
	case len(violations) >= 5:
		score += 15
	case len(violations) >= 3:
		score += 10
	case len(violations) >= 1:
		score += 5
	}

	if !entry.Date.IsZero() {
		daysOld := int(p.now().Sub(entry.Date) / (24 * time.Hour))
		switch {
		case daysOld <= 1:
			score += 10
		case daysOld <= 7:
			score += 5
		}
	}

	if score > 100 {
		score = 100
	}
	return score
}
