package storage

import (
	"errors"
	"time"
)

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = errors.New("not found")

// ReportRecord is a persisted analysis report. ReportJSON holds the full
// serialized report; the remaining columns exist so listings don't need to
// unmarshal every row.
type ReportRecord struct {
	ID           string    `json:"id"`
	Source       string    `json:"source"`
	Summary      string    `json:"summary"`
	RiskScore    int       `json:"risk_score"`
	FindingCount int       `json:"finding_count"`
	ReportJSON   string    `json:"report,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}
