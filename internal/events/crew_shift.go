package events

import "time"

const (
	CrewShiftApprovedTopic = "crew.shift.approved.v1"
	CrewShiftRejectedTopic = "crew.shift.rejected.v1"
	CrewShiftConsumedTopic = "payroll.crew_shift.consumed.v1"
)

const (
	EventCrewShiftApproved = "crew_shift_approved"
	EventCrewShiftRejected = "crew_shift_rejected"
)

type CrewShiftApprovedEvent struct {
	EventType    string    `json:"event_type"`
	RequestID    string    `json:"request_id,omitempty"`
	CompanyID    string    `json:"company_id"`
	JobID        string    `json:"job_id"`
	ShiftIDs     []string  `json:"shift_ids"`
	ApprovedBy   string    `json:"approved_by,omitempty"`
	AutoApproved bool      `json:"auto_approved"`
	OccurredAt   time.Time `json:"occurred_at"`
}

type CrewShiftRejectedEvent struct {
	EventType  string    `json:"event_type"`
	RequestID  string    `json:"request_id,omitempty"`
	CompanyID  string    `json:"company_id"`
	JobID      string    `json:"job_id"`
	ShiftIDs   []string  `json:"shift_ids"`
	RejectedBy string    `json:"rejected_by,omitempty"`
	Reason     string    `json:"reason,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}

// CrewShiftConsumedEvent is the payroll side acknowledging that it has
// read approved shifts. It drives the approved to synced transition.
type CrewShiftConsumedEvent struct {
	EventType  string    `json:"event_type"`
	CompanyID  string    `json:"company_id"`
	ShiftIDs   []string  `json:"shift_ids"`
	ConsumedAt time.Time `json:"consumed_at"`
}
