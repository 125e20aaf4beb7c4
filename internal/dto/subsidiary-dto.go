package dto

import (
	"strings"

	"nusantara-erp/internal/entities"
)

type CreateSubsidiaryDTO struct {
	Name             string                  `json:"name" validate:"required,min=1,max=255"`
	Code             string                  `json:"code" validate:"required,min=2,max=10,upper_code"`
	Description      *string                 `json:"description" validate:"omitempty,max=1000"`
	Specialization   string                  `json:"specialization" validate:"omitempty,specialization"`
	ContactInfo      *entities.ContactInfo   `json:"contactInfo"`
	Address          *entities.Address       `json:"address"`
	EstablishedYear  *int                    `json:"establishedYear" validate:"omitempty,min=1900"`
	EmployeeCount    *int                    `json:"employeeCount" validate:"omitempty,min=0"`
	Certification    []string                `json:"certification" validate:"omitempty,dive,max=255"`
	Status           string                  `json:"status" validate:"omitempty,oneof=active inactive"`
	ParentCompany    string                  `json:"parentCompany" validate:"omitempty,max=255"`
	BoardOfDirectors []entities.Director     `json:"boardOfDirectors" validate:"omitempty,dive"`
	LegalInfo        *entities.LegalInfo     `json:"legalInfo"`
	Permits          []entities.Permit       `json:"permits" validate:"omitempty,dive"`
	FinancialInfo    *entities.FinancialInfo `json:"financialInfo"`
	ProfileInfo      *entities.ProfileInfo   `json:"profileInfo"`
}

// Normalize trims the name and upper-cases the code before validation.
func (d *CreateSubsidiaryDTO) Normalize() {
	d.Name = strings.TrimSpace(d.Name)
	d.Code = strings.ToUpper(strings.TrimSpace(d.Code))
}

type UpdateSubsidiaryDTO struct {
	Name             *string                 `json:"name" validate:"omitempty,min=1,max=255"`
	Code             *string                 `json:"code" validate:"omitempty,min=2,max=10,upper_code"`
	Description      *string                 `json:"description" validate:"omitempty,max=1000"`
	Specialization   *string                 `json:"specialization" validate:"omitempty,specialization"`
	ContactInfo      *entities.ContactInfo   `json:"contactInfo"`
	Address          *entities.Address       `json:"address"`
	EstablishedYear  *int                    `json:"establishedYear" validate:"omitempty,min=1900"`
	EmployeeCount    *int                    `json:"employeeCount" validate:"omitempty,min=0"`
	Certification    []string                `json:"certification" validate:"omitempty,dive,max=255"`
	Status           *string                 `json:"status" validate:"omitempty,oneof=active inactive"`
	ParentCompany    *string                 `json:"parentCompany" validate:"omitempty,max=255"`
	BoardOfDirectors []entities.Director     `json:"boardOfDirectors" validate:"omitempty,dive"`
	LegalInfo        *entities.LegalInfo     `json:"legalInfo"`
	Permits          []entities.Permit       `json:"permits" validate:"omitempty,dive"`
	FinancialInfo    *entities.FinancialInfo `json:"financialInfo"`
	ProfileInfo      *entities.ProfileInfo   `json:"profileInfo"`
}

func (d *UpdateSubsidiaryDTO) Normalize() {
	if d.Name != nil {
		n := strings.TrimSpace(*d.Name)
		d.Name = &n
	}
	if d.Code != nil {
		c := strings.ToUpper(strings.TrimSpace(*d.Code))
		d.Code = &c
	}
}

type SubsidiaryStatsDTO struct {
	Total            int64            `json:"total"`
	Active           int64            `json:"active"`
	Inactive         int64            `json:"inactive"`
	BySpecialization map[string]int64 `json:"bySpecialization"`
	TotalProjects    int64            `json:"totalProjects"`
	ActiveProjects   int64            `json:"activeProjects"`
}

type UploadAttachmentDTO struct {
	Description string `form:"description" validate:"max=500"`
}
