package crewshift

import (
	"encoding/json"
	"time"

	"go-crewperf/internal/shiftagg"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

const (
	StatusPendingApproval = "pending_approval"
	StatusApproved        = "approved"
	StatusRejected        = "rejected"
	StatusSynced          = "synced"
)

// CrewShift is the durable record of one committed (job, crew member) row.
type CrewShift struct {
	ID           uuid.UUID       `gorm:"type:uuid;primaryKey"`
	CompanyID    uuid.UUID       `gorm:"type:uuid;index:idx_crew_shifts_company_job"`
	SessionID    uuid.UUID       `gorm:"type:uuid;uniqueIndex:uq_crew_shifts_session_row"`
	RowID        string          `gorm:"uniqueIndex:uq_crew_shifts_session_row"`
	JobID        string          `gorm:"index:idx_crew_shifts_company_job"`
	CrewMember   string          `gorm:"not null"`
	EmployeeID   *uuid.UUID      `gorm:"type:uuid"`
	ShiftCount   int             `gorm:"not null;default:0"`
	RegularHours decimal.Decimal `gorm:"column:regular_hours;type:numeric(10,2);not null"`
	OTHours      decimal.Decimal `gorm:"column:ot_hours;type:numeric(10,2);not null"`
	OT2Hours     decimal.Decimal `gorm:"column:ot2_hours;type:numeric(10,2);not null"`
	QCHours      decimal.Decimal `gorm:"column:qc_hours;type:numeric(10,2);not null"`
	TotalHours   decimal.Decimal `gorm:"column:total_hours;type:numeric(10,2);not null"`
	QCTagged     bool            `gorm:"column:has_qc;not null;default:false"`
	Tags         datatypes.JSON  `gorm:"type:jsonb"`
	Status       string          `gorm:"not null;index"`
	ApprovedBy   *string
	ApprovedAt   *time.Time
	RejectedBy   *string
	RejectedAt   *time.Time
	RejectReason *string
	SyncedAt     *time.Time
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

func (CrewShift) TableName() string {
	return "crew_shifts"
}

// HasQC reports whether any row behind the record was tagged QC.
func (c CrewShift) HasQC() bool {
	return c.QCTagged || c.QCHours.IsPositive()
}

func (c CrewShift) TagList() []string {
	var tags []string
	if len(c.Tags) == 0 {
		return tags
	}
	_ = json.Unmarshal(c.Tags, &tags)
	return tags
}

// FromAggregated turns a committed working-set row into a record in the
// given status. Buckets and total are copied from the row, which already
// derived its total.
func FromAggregated(companyID, sessionID uuid.UUID, s shiftagg.AggregatedShift, status string) CrewShift {
	h := s.Hours()
	tags, _ := json.Marshal(s.Tags())

	rec := CrewShift{
		ID:           uuid.New(),
		CompanyID:    companyID,
		SessionID:    sessionID,
		RowID:        s.RowID(),
		JobID:        s.JobID(),
		CrewMember:   s.CrewMember(),
		ShiftCount:   s.ShiftCount(),
		RegularHours: h.Regular,
		OTHours:      h.OT,
		OT2Hours:     h.OT2,
		QCHours:      h.QC,
		TotalHours:   s.Total(),
		QCTagged:     s.HasQC(),
		Tags:         datatypes.JSON(tags),
		Status:       status,
	}
	if id, err := uuid.Parse(s.EmployeeID()); err == nil {
		rec.EmployeeID = &id
	}
	return rec
}
