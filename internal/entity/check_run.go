package entity

import (
	"time"

	"github.com/google/uuid"

	"github.com/youngcitybandit/nj-health-monitor/constants"
)

// CheckRun records one execution of the monitoring pipeline.
type CheckRun struct {
	ID           uuid.UUID           `json:"id"`
	StartedAt    time.Time           `json:"started_at"`
	FinishedAt   *time.Time          `json:"finished_at,omitempty"`
	Status       constants.RunStatus `json:"status"`
	EntriesFound int                 `json:"entries_found"`
	Processed    int                 `json:"processed"`
	Failed       int                 `json:"failed"`
	ErrorMessage string              `json:"error_message,omitempty"`
}
