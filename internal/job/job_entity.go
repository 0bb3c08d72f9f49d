package job

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Job is the canonical job record, keyed by (company, external id). It is
// upserted from a session's imported job when that job is committed and
// owns the hours the performance calculator reads.
type Job struct {
	ID                     uuid.UUID `gorm:"type:uuid;primaryKey"`
	CompanyID              uuid.UUID `gorm:"type:uuid;uniqueIndex:uq_jobs_company_external"`
	ExternalID             string    `gorm:"uniqueIndex:uq_jobs_company_external"`
	Name                   string    `gorm:"not null"`
	Branch                 string
	CrewLeader             string
	Estimator              string
	EstimatedHours         *decimal.Decimal `gorm:"type:numeric(10,2)"`
	EstimateEstimatedHours *decimal.Decimal `gorm:"type:numeric(10,2)"`
	CrewLeaderPlannedHours *decimal.Decimal `gorm:"type:numeric(10,2)"`
	LastSessionID          *uuid.UUID       `gorm:"type:uuid"`
	CreatedAt              time.Time
	UpdatedAt              time.Time
}

func (Job) TableName() string {
	return "jobs"
}
