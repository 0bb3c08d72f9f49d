package events

import (
	"time"

	"github.com/shopspring/decimal"
)

const JobsImportedTopic = "ops.jobs.imported.v1"

// ImportedJob is one row of the external jobs-in-progress export.
type ImportedJob struct {
	ExternalID             string           `json:"external_id"`
	Name                   string           `json:"name"`
	Branch                 string           `json:"branch,omitempty"`
	CrewLeader             string           `json:"crew_leader,omitempty"`
	Estimator              string           `json:"estimator,omitempty"`
	EstimatedHours         *decimal.Decimal `json:"estimated_hours,omitempty"`
	EstimateEstimatedHours *decimal.Decimal `json:"estimate_estimated_hours,omitempty"`
	CrewLeaderPlannedHours *decimal.Decimal `json:"crew_leader_planned_hours,omitempty"`
}

type JobsImportedEvent struct {
	EventType   string        `json:"event_type"`
	RequestID   string        `json:"request_id,omitempty"`
	SessionID   string        `json:"session_id"`
	CompanyID   string        `json:"company_id"`
	Jobs        []ImportedJob `json:"jobs"`
	DeliveredAt time.Time     `json:"delivered_at"`
}
