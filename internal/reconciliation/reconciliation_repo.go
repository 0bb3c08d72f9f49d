package reconciliation

import (
	"context"
	"database/sql"
	"errors"
	"time"

	reconciliationerrors "go-crewperf/internal/reconciliation/errors"
	"go-crewperf/internal/shared/apperror"
	"go-crewperf/internal/shared/connection"
	"go-crewperf/internal/tenant"

	"gorm.io/gorm"
)

type Repository interface {
	WithTx(tx *sql.Tx) Repository
	Create(ctx context.Context, session *Session) error
	FindByID(ctx context.Context, companyID, id string) (*Session, error)
	Save(ctx context.Context, session *Session) error
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

func (r *repository) Create(ctx context.Context, session *Session) error {
	return connection.Bind(ctx, r.db, r.tx).Create(session).Error
}

func (r *repository) FindByID(ctx context.Context, companyID, id string) (*Session, error) {
	var s Session
	err := connection.Bind(ctx, r.db, r.tx).
		Scopes(tenant.Scope(companyID)).
		Where("id = ?", id).
		First(&s).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, reconciliationerrors.ErrSessionNotFound.WithDetails(map[string]string{"session_id": id})
	}
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// Save writes the session only if nobody bumped its version since it was
// read. On success session.Version holds the new version.
func (r *repository) Save(ctx context.Context, session *Session) error {
	now := time.Now().UTC()
	res := connection.Bind(ctx, r.db, r.tx).
		Model(&Session{}).
		Scopes(tenant.Scope(session.CompanyID.String())).
		Where("id = ? AND version = ?", session.ID, session.Version).
		Updates(map[string]any{
			"status":            session.Status,
			"source_filename":   session.SourceFilename,
			"jobs":              session.Jobs,
			"raw_rows":          session.RawRows,
			"warnings":          session.Warnings,
			"dropped_rows":      session.DroppedRows,
			"matches":           session.Matches,
			"unmatched_names":   session.UnmatchedNames,
			"working_set":       session.WorkingSet,
			"committed_job_ids": session.CommittedJobIDs,
			"committed_at":      session.CommittedAt,
			"version":           gorm.Expr("version + 1"),
			"updated_at":        now,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return apperror.ErrStaleState.WithDetails(map[string]any{
			"session_id": session.ID.String(),
			"version":    session.Version,
		})
	}
	session.Version++
	session.UpdatedAt = now
	return nil
}
