package crew

import (
	"time"

	"github.com/google/uuid"
)

const EmploymentStatusActive = "active"

// Employee is the read side of the company's employee table. Crew members
// typed into worksheets are resolved against it.
type Employee struct {
	ID               uuid.UUID `gorm:"type:uuid;primaryKey"`
	CompanyID        uuid.UUID `gorm:"type:uuid;index"`
	FullName         string
	EmploymentStatus string
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

func (Employee) TableName() string {
	return "employees"
}

// Member is the cached directory entry.
type Member struct {
	EmployeeID string `json:"employee_id"`
	FullName   string `json:"full_name"`
}

// Match is the outcome of resolving a typed name.
type Match struct {
	Found      bool    `json:"found"`
	EmployeeID string  `json:"employee_id,omitempty"`
	FullName   string  `json:"full_name,omitempty"`
	Score      float64 `json:"score"`
}
