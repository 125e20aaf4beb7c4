package entities

import (
	"time"

	"github.com/aarondl/null/v8"
)

type ContactInfo struct {
	Phone *string `json:"phone,omitempty"`
	Email *string `json:"email,omitempty" validate:"omitempty,email"`
	Fax   *string `json:"fax,omitempty"`
}

type Address struct {
	Street     *string `json:"street,omitempty"`
	City       *string `json:"city,omitempty"`
	State      *string `json:"state,omitempty"`
	Country    *string `json:"country,omitempty"`
	PostalCode *string `json:"postalCode,omitempty"`
}

type Director struct {
	Name            *string    `json:"name,omitempty"`
	Position        *string    `json:"position,omitempty"`
	Email           *string    `json:"email,omitempty" validate:"omitempty,email"`
	Phone           *string    `json:"phone,omitempty"`
	AppointmentDate *time.Time `json:"appointmentDate,omitempty"`
	IsActive        *bool      `json:"isActive,omitempty"`
}

type LegalInfo struct {
	CompanyRegistrationNumber *string `json:"companyRegistrationNumber,omitempty"`
	TaxIdentificationNumber   *string `json:"taxIdentificationNumber,omitempty"`
	BusinessLicenseNumber     *string `json:"businessLicenseNumber,omitempty"`
	ArticlesOfIncorporation   *string `json:"articlesOfIncorporation,omitempty"`
	VATRegistrationNumber     *string `json:"vatRegistrationNumber,omitempty"`
}

type Permit struct {
	Name       *string    `json:"name,omitempty"`
	Number     *string    `json:"number,omitempty"`
	IssuedBy   *string    `json:"issuedBy,omitempty"`
	IssuedDate *time.Time `json:"issuedDate,omitempty"`
	ExpiryDate *time.Time `json:"expiryDate,omitempty"`
	Status     *string    `json:"status,omitempty" validate:"omitempty,oneof=active expired pending"`
}

type FinancialInfo struct {
	AuthorizedCapital *float64 `json:"authorizedCapital,omitempty" validate:"omitempty,min=0"`
	PaidUpCapital     *float64 `json:"paidUpCapital,omitempty" validate:"omitempty,min=0"`
	Currency          *string  `json:"currency,omitempty"`
	FiscalYearEnd     *string  `json:"fiscalYearEnd,omitempty"`
}

type ProfileInfo struct {
	Website                *string           `json:"website,omitempty" validate:"omitempty,url"`
	SocialMedia            map[string]string `json:"socialMedia,omitempty"`
	CompanySize            *string           `json:"companySize,omitempty" validate:"omitempty,oneof=small medium large"`
	IndustryClassification *string           `json:"industryClassification,omitempty"`
	BusinessDescription    *string           `json:"businessDescription,omitempty"`
}

type Attachment struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	OriginalName string    `json:"originalName"`
	URL          string    `json:"url"`
	Size         int64     `json:"size"`
	MimeType     string    `json:"mimeType"`
	Description  string    `json:"description,omitempty"`
	UploadedBy   uint64    `json:"uploadedBy"`
	UploadedAt   time.Time `json:"uploadedAt"`
}

const DefaultParentCompany = "NUSANTARA GROUP"

type Subsidiary struct {
	ID               string        `json:"id" db:"id"`
	Name             string        `json:"name" db:"name"`
	Code             string        `json:"code" db:"code"`
	Description      null.String   `json:"description" db:"description"`
	Specialization   string        `json:"specialization" db:"specialization"`
	ContactInfo      ContactInfo   `json:"contactInfo" db:"contact_info"`
	Address          Address       `json:"address" db:"address"`
	EstablishedYear  null.Int      `json:"establishedYear" db:"established_year"`
	EmployeeCount    int           `json:"employeeCount" db:"employee_count"`
	Certification    []string      `json:"certification" db:"certification"`
	Status           string        `json:"status" db:"status"`
	ParentCompany    string        `json:"parentCompany" db:"parent_company"`
	BoardOfDirectors []Director    `json:"boardOfDirectors" db:"board_of_directors"`
	LegalInfo        LegalInfo     `json:"legalInfo" db:"legal_info"`
	Permits          []Permit      `json:"permits" db:"permits"`
	FinancialInfo    FinancialInfo `json:"financialInfo" db:"financial_info"`
	ProfileInfo      ProfileInfo   `json:"profileInfo" db:"profile_info"`
	Attachments      []Attachment  `json:"attachments" db:"attachments"`
	CreatedAt        time.Time     `json:"createdAt" db:"created_at"`
	UpdatedAt        time.Time     `json:"updatedAt" db:"updated_at"`
	DeletedAt        null.Time     `json:"-" db:"deleted_at"`
}
