package crew

import (
	"context"

	"go-crewperf/internal/tenant"

	"gorm.io/gorm"
)

type Repository interface {
	FindActiveByCompany(ctx context.Context, companyID string) ([]Employee, error)
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) FindActiveByCompany(ctx context.Context, companyID string) ([]Employee, error) {
	var employees []Employee
	err := r.db.WithContext(ctx).
		Scopes(tenant.Scope(companyID)).
		Select("id", "company_id", "full_name", "employment_status").
		Where("employment_status = ?", EmploymentStatusActive).
		Order("full_name").
		Find(&employees).Error
	return employees, err
}
