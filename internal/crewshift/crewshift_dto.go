package crewshift

import "time"

type ApproveRequest struct {
	JobIDs []string `json:"job_ids" binding:"required,min=1,dive,required"`
}

// ShiftRef names a shift by id, or by job and crew member.
type ShiftRef struct {
	ShiftID    string `json:"shift_id"`
	JobID      string `json:"job_id"`
	CrewMember string `json:"crew_member"`
}

type RejectRequest struct {
	Refs   []ShiftRef `json:"shift_refs" binding:"required,min=1"`
	Reason string     `json:"reason"`
}

type SyncRequest struct {
	ShiftIDs []string `json:"shift_ids" binding:"required,min=1,dive,required"`
}

type CrewShiftResponse struct {
	ID           string     `json:"id"`
	SessionID    string     `json:"session_id"`
	RowID        string     `json:"row_id"`
	JobID        string     `json:"job_id"`
	CrewMember   string     `json:"crew_member"`
	EmployeeID   string     `json:"employee_id,omitempty"`
	ShiftCount   int        `json:"shift_count"`
	RegularHours float64    `json:"regular_hours"`
	OTHours      float64    `json:"ot_hours"`
	OT2Hours     float64    `json:"ot2_hours"`
	QCHours      float64    `json:"qc_hours"`
	TotalHours   float64    `json:"total_hours"`
	HasQC        bool       `json:"has_qc"`
	Tags         []string   `json:"tags,omitempty"`
	Status       string     `json:"status"`
	ApprovedBy   string     `json:"approved_by,omitempty"`
	ApprovedAt   *time.Time `json:"approved_at,omitempty"`
	RejectedBy   string     `json:"rejected_by,omitempty"`
	RejectedAt   *time.Time `json:"rejected_at,omitempty"`
	RejectReason string     `json:"reject_reason,omitempty"`
	SyncedAt     *time.Time `json:"synced_at,omitempty"`
}

// TransitionResponse lists the rows a request moved and the ids it left
// alone because they were already in (or past) the target state.
type TransitionResponse struct {
	Changed   []CrewShiftResponse `json:"changed"`
	Unchanged []string            `json:"unchanged"`
}
