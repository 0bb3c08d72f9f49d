package crewshift

import (
	"context"
	"database/sql"
	"time"

	"go-crewperf/internal/shared/connection"
	"go-crewperf/internal/tenant"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Transition describes one conditional status change. Only rows whose
// current status is in From are touched.
type Transition struct {
	From   []string
	To     string
	Actor  string
	Reason string
	At     time.Time
}

type Repository interface {
	WithTx(tx *sql.Tx) Repository
	CreateBatch(ctx context.Context, shifts []CrewShift) error
	FindByIDs(ctx context.Context, companyID string, ids []string) ([]CrewShift, error)
	FindByJobIDs(ctx context.Context, companyID string, jobIDs []string, statuses ...string) ([]CrewShift, error)
	ApplyTransition(ctx context.Context, companyID string, ids []string, t Transition) ([]CrewShift, error)
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

func (r *repository) CreateBatch(ctx context.Context, shifts []CrewShift) error {
	if len(shifts) == 0 {
		return nil
	}
	err := connection.Bind(ctx, r.db, r.tx).CreateInBatches(shifts, 200).Error
	return mapRepositoryError(err)
}

func (r *repository) FindByIDs(ctx context.Context, companyID string, ids []string) ([]CrewShift, error) {
	var shifts []CrewShift
	if len(ids) == 0 {
		return shifts, nil
	}
	err := connection.Bind(ctx, r.db, r.tx).
		Scopes(tenant.Scope(companyID)).
		Where("id IN ?", ids).
		Order("job_id, crew_member").
		Find(&shifts).Error
	return shifts, err
}

func (r *repository) FindByJobIDs(ctx context.Context, companyID string, jobIDs []string, statuses ...string) ([]CrewShift, error) {
	var shifts []CrewShift
	if len(jobIDs) == 0 {
		return shifts, nil
	}
	q := connection.Bind(ctx, r.db, r.tx).
		Scopes(tenant.Scope(companyID)).
		Where("job_id IN ?", jobIDs)
	if len(statuses) > 0 {
		q = q.Where("status IN ?", statuses)
	}
	err := q.Order("job_id, crew_member").Find(&shifts).Error
	return shifts, err
}

// ApplyTransition moves the listed rows whose status is still in t.From and
// returns exactly the rows it changed. Rows that moved concurrently are
// skipped by the WHERE clause, never overwritten.
func (r *repository) ApplyTransition(ctx context.Context, companyID string, ids []string, t Transition) ([]CrewShift, error) {
	var updated []CrewShift
	if len(ids) == 0 {
		return updated, nil
	}

	at := t.At
	if at.IsZero() {
		at = time.Now().UTC()
	}
	changes := map[string]any{
		"status":     t.To,
		"updated_at": at,
	}
	switch t.To {
	case StatusApproved:
		changes["approved_by"] = t.Actor
		changes["approved_at"] = at
	case StatusRejected:
		changes["rejected_by"] = t.Actor
		changes["rejected_at"] = at
		changes["reject_reason"] = t.Reason
	case StatusSynced:
		changes["synced_at"] = at
	}

	err := connection.Bind(ctx, r.db, r.tx).
		Model(&updated).
		Clauses(clause.Returning{}).
		Scopes(tenant.Scope(companyID)).
		Where("id IN ?", ids).
		Where("status IN ?", t.From).
		Updates(changes).Error
	return updated, err
}
