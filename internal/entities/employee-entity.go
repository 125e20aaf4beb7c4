package entities

import (
	"time"

	"github.com/aarondl/null/v8"
)

type Skill struct {
	Name          string     `json:"name" validate:"required"`
	Level         string     `json:"level" validate:"required,oneof=beginner intermediate advanced expert"`
	CertifiedDate *time.Time `json:"certifiedDate,omitempty"`
}

type Employee struct {
	ID             string         `json:"id" db:"id"`
	EmployeeID     string         `json:"employeeId" db:"employee_id"`
	Name           string         `json:"name" db:"name"`
	Position       string         `json:"position" db:"position"`
	Department     string         `json:"department" db:"department"`
	Email          null.String    `json:"email" db:"email"`
	Phone          null.String    `json:"phone" db:"phone"`
	JoinDate       null.Time      `json:"joinDate" db:"join_date"`
	BirthDate      null.Time      `json:"birthDate" db:"birth_date"`
	Address        null.String    `json:"address" db:"address"`
	Status         string         `json:"status" db:"status"`
	EmploymentType string         `json:"employmentType" db:"employment_type"`
	Salary         null.Float64   `json:"salary" db:"salary"`
	CurrentProject null.String    `json:"currentProject" db:"current_project"`
	Skills         []Skill        `json:"skills" db:"skills"`
	Metadata       map[string]any `json:"metadata" db:"metadata"`
	SubsidiaryID   null.String    `json:"subsidiaryId" db:"subsidiary_id"`
	UserID         null.Int64     `json:"userId" db:"user_id"`
	CreatedAt      time.Time      `json:"createdAt" db:"created_at"`
	UpdatedAt      time.Time      `json:"updatedAt" db:"updated_at"`

	// Joined columns, read-only.
	SubsidiaryName null.String `json:"subsidiaryName,omitempty" db:"-"`
	SubsidiaryCode null.String `json:"subsidiaryCode,omitempty" db:"-"`
	Username       null.String `json:"username,omitempty" db:"-"`
	UserRole       null.String `json:"userRole,omitempty" db:"-"`
}
