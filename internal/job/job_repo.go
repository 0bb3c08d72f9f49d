package job

import (
	"context"
	"database/sql"
	"errors"

	joberrors "go-crewperf/internal/job/errors"
	"go-crewperf/internal/shared/connection"
	"go-crewperf/internal/tenant"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type Repository interface {
	WithTx(tx *sql.Tx) Repository
	Upsert(ctx context.Context, job *Job) error
	FindByExternalID(ctx context.Context, companyID, externalID string) (*Job, error)
}

type repository struct {
	db *gorm.DB
	tx *sql.Tx
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *sql.Tx) Repository {
	return &repository{
		db: r.db,
		tx: tx,
	}
}

// Upsert inserts the job or refreshes the stored one with the same
// (company, external id). job is overwritten with the stored row, so its
// ID is the persisted one afterwards.
func (r *repository) Upsert(ctx context.Context, job *Job) error {
	if job.ExternalID == "" {
		return joberrors.ErrJobExternalIDRequired
	}
	return connection.Bind(ctx, r.db, r.tx).
		Clauses(
			clause.OnConflict{
				Columns: []clause.Column{{Name: "company_id"}, {Name: "external_id"}},
				DoUpdates: clause.AssignmentColumns([]string{
					"name",
					"branch",
					"crew_leader",
					"estimator",
					"estimated_hours",
					"estimate_estimated_hours",
					"crew_leader_planned_hours",
					"last_session_id",
					"updated_at",
				}),
			},
			clause.Returning{},
		).
		Create(job).Error
}

func (r *repository) FindByExternalID(ctx context.Context, companyID, externalID string) (*Job, error) {
	var j Job
	err := connection.Bind(ctx, r.db, r.tx).
		Scopes(tenant.Scope(companyID)).
		Where("external_id = ?", externalID).
		First(&j).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, joberrors.ErrJobNotFound.WithDetails(map[string]string{"job_id": externalID})
	}
	if err != nil {
		return nil, err
	}
	return &j, nil
}
