package dto

import (
	"bytes"
	"encoding/json"

	"nusantara-erp/internal/entities"
	"nusantara-erp/pkg/types"
)

type CreateEmployeeDTO struct {
	EmployeeID     string           `json:"employeeId" validate:"required,max=50"`
	Name           string           `json:"name" validate:"required,min=1,max=255"`
	Position       string           `json:"position" validate:"required,max=255"`
	Department     string           `json:"department" validate:"required,max=255"`
	Email          *string          `json:"email" validate:"omitempty,email,max=255"`
	Phone          *string          `json:"phone" validate:"omitempty,max=50"`
	JoinDate       *types.Date      `json:"joinDate"`
	BirthDate      *types.Date      `json:"birthDate" validate:"omitempty,notfuture"`
	Address        *string          `json:"address" validate:"omitempty,max=1000"`
	Status         string           `json:"status" validate:"omitempty,oneof=active inactive terminated"`
	EmploymentType string           `json:"employmentType" validate:"omitempty,oneof=permanent contract intern freelance"`
	Salary         *float64         `json:"salary" validate:"omitempty,min=0"`
	CurrentProject *string          `json:"currentProject" validate:"omitempty,max=50"`
	Skills         []entities.Skill `json:"skills" validate:"omitempty,dive"`
	SubsidiaryID   *string          `json:"subsidiaryId" validate:"omitempty,max=50"`

	CreateUserAccount bool   `json:"createUserAccount"`
	Username          string `json:"username" validate:"required_if=CreateUserAccount true,omitempty,min=3,max=30,username"`
	UserPassword      string `json:"userPassword" validate:"required_if=CreateUserAccount true,omitempty,min=6"`
	UserRole          string `json:"userRole" validate:"required_if=CreateUserAccount true,omitempty,oneof=admin project_manager finance_manager inventory_manager hr_manager supervisor"`
}

// LinkUser distinguishes an absent userId key from an explicit null.
type LinkUser struct {
	Set    bool
	UserID *uint64
}

func (l *LinkUser) UnmarshalJSON(b []byte) error {
	l.Set = true
	if bytes.Equal(bytes.TrimSpace(b), []byte("null")) {
		l.UserID = nil
		return nil
	}
	var id uint64
	if err := json.Unmarshal(b, &id); err != nil {
		return err
	}
	l.UserID = &id
	return nil
}

type UpdateEmployeeDTO struct {
	EmployeeID     *string          `json:"employeeId" validate:"omitempty,min=1,max=50"`
	Name           *string          `json:"name" validate:"omitempty,min=1,max=255"`
	Position       *string          `json:"position" validate:"omitempty,min=1,max=255"`
	Department     *string          `json:"department" validate:"omitempty,min=1,max=255"`
	Email          *string          `json:"email" validate:"omitempty,email,max=255"`
	Phone          *string          `json:"phone" validate:"omitempty,max=50"`
	JoinDate       *types.Date      `json:"joinDate"`
	BirthDate      *types.Date      `json:"birthDate" validate:"omitempty,notfuture"`
	Address        *string          `json:"address" validate:"omitempty,max=1000"`
	Status         *string          `json:"status" validate:"omitempty,oneof=active inactive terminated"`
	EmploymentType *string          `json:"employmentType" validate:"omitempty,oneof=permanent contract intern freelance"`
	Salary         *float64         `json:"salary" validate:"omitempty,min=0"`
	CurrentProject *string          `json:"currentProject" validate:"omitempty,max=50"`
	Skills         []entities.Skill `json:"skills" validate:"omitempty,dive"`
	SubsidiaryID   *string          `json:"subsidiaryId" validate:"omitempty,max=50"`
	UserID         LinkUser         `json:"userId"`
}

type EmployeeCreatedDTO struct {
	Employee    *entities.Employee `json:"employee"`
	UserAccount *UserPublicDTO     `json:"userAccount,omitempty"`
}

type ManpowerOverviewDTO struct {
	Total          int64            `json:"total"`
	Active         int64            `json:"active"`
	Inactive       int64            `json:"inactive"`
	Permanent      int64            `json:"permanent"`
	Contract       int64            `json:"contract"`
	Departments    int64            `json:"departments"`
	ActiveProjects int64            `json:"activeProjects"`
	ByDepartment   map[string]int64 `json:"byDepartment"`
}

type SubsidiaryManpowerDTO struct {
	SubsidiaryID   string  `json:"subsidiaryId"`
	SubsidiaryName string  `json:"subsidiaryName"`
	SubsidiaryCode string  `json:"subsidiaryCode"`
	Total          int64   `json:"total"`
	Directors      int64   `json:"directors"`
	Staff          int64   `json:"staff"`
	Active         int64   `json:"active"`
	AverageSalary  float64 `json:"averageSalary"`
}

type AvailableUserDTO struct {
	ID       uint64 `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
	FullName string `json:"fullName"`
	Role     string `json:"role"`
}
