package seeders

import (
	"time"

	"nusantara-erp/internal/entities"
	"nusantara-erp/pkg/utils"

	"github.com/aarondl/null/v8"
)

type subsidiarySeed struct {
	code           string
	name           string
	description    string
	specialization string
	street         string
	phone          string
	email          string
	established    int
	employees      int
	certification  []string
}

var subsidiarySeeds = []subsidiarySeed{
	{
		code:           "CUE14",
		name:           "CV. CAHAYA UTAMA EMPATBELAS",
		description:    "Commercial and infrastructure construction around Karawang.",
		specialization: "commercial",
		street:         "Jl. Industri Raya No. 14, Kawasan Industri KIIC",
		phone:          "+62-267-8451401",
		email:          "info@cahayautama14.co.id",
		established:    2008,
		employees:      85,
		certification:  []string{"ISO 9001:2015", "SBU Grade 6 Konstruksi Bangunan Gedung", "ISO 14001:2015"},
	},
	{
		code:           "BSR",
		name:           "CV. BINTANG SURAYA",
		description:    "Residential and real estate contractor.",
		specialization: "residential",
		street:         "Jl. Tuparev No. 88",
		phone:          "+62-267-8452201",
		email:          "info@bintangsuraya.co.id",
		established:    2009,
		employees:      62,
		certification:  []string{"ISO 9001:2015"},
	},
	{
		code:           "KMJ",
		name:           "PT. KARYA MANDIRI JAYA",
		description:    "Roads, bridges and drainage works.",
		specialization: "infrastructure",
		street:         "Jl. Ahmad Yani No. 21",
		phone:          "+62-267-8453301",
		email:          "info@karyamandirijaya.co.id",
		established:    2005,
		employees:      125,
		certification:  []string{"ISO 9001:2015", "SBU Grade 7 Jalan dan Jembatan"},
	},
	{
		code:           "TBI",
		name:           "CV. TEKNIK BANGUNAN INDONESIA",
		description:    "Building renovation and maintenance.",
		specialization: "renovation",
		street:         "Jl. Kertabumi No. 7",
		phone:          "+62-267-8454401",
		email:          "info@teknikbangunan.co.id",
		established:    2012,
		employees:      45,
	},
	{
		code:           "IKP",
		name:           "PT. INDAH KARYA PERSADA",
		description:    "Factories, warehouses and industrial facilities.",
		specialization: "industrial",
		street:         "Jl. Surya Utama Kav. 5, Kawasan Surya Cipta",
		phone:          "+62-267-8455501",
		email:          "info@indahkarya.co.id",
		established:    2006,
		employees:      98,
		certification:  []string{"ISO 9001:2015", "ISO 45001:2018"},
	},
	{
		code:           "NAI",
		name:           "CV. NUSANTARA ARSITEKTUR INTERIOR",
		description:    "Interior design and fit-out.",
		specialization: "interior",
		street:         "Jl. Galuh Mas Raya No. 3",
		phone:          "+62-267-8456601",
		email:          "info@nusantarainterior.co.id",
		established:    2014,
		employees:      35,
	},
}

func groupSubsidiaries() []entities.Subsidiary {
	out := make([]entities.Subsidiary, 0, len(subsidiarySeeds))
	for _, s := range subsidiarySeeds {
		out = append(out, entities.Subsidiary{
			Name:           s.name,
			Code:           s.code,
			Description:    null.StringFrom(s.description),
			Specialization: s.specialization,
			ContactInfo: entities.ContactInfo{
				Phone: utils.ToPtr(s.phone),
				Email: utils.ToPtr(s.email),
			},
			Address: entities.Address{
				Street:     utils.ToPtr(s.street),
				City:       utils.ToPtr("Karawang"),
				State:      utils.ToPtr("Jawa Barat"),
				Country:    utils.ToPtr("Indonesia"),
				PostalCode: utils.ToPtr("41361"),
			},
			EstablishedYear: null.IntFrom(s.established),
			EmployeeCount:   s.employees,
			Certification:   s.certification,
			Status:          "active",
			ParentCompany:   entities.DefaultParentCompany,
			FinancialInfo:   entities.FinancialInfo{Currency: utils.ToPtr("IDR")},
		})
	}
	return out
}

type rabSeed struct {
	Category    string
	Description string
	Unit        string
	Quantity    float64
	UnitPrice   float64
}

type projectSeed struct {
	ID     string
	Name   string
	Status string
	Budget float64
	Start  time.Time
	End    time.Time
	RAB    []rabSeed
}

var demoProjects = []projectSeed{
	{
		ID:     "PRJ-2025-001",
		Name:   "Karawang Industrial Complex Phase 2",
		Status: "in_progress",
		Budget: 85_000_000_000,
		Start:  time.Date(2025, time.January, 15, 0, 0, 0, 0, time.UTC),
		End:    time.Date(2026, time.June, 30, 0, 0, 0, 0, time.UTC),
		RAB: []rabSeed{
			{Category: "Material", Description: "Ready mix concrete K-350", Unit: "m3", Quantity: 4200, UnitPrice: 1_150_000},
			{Category: "Material", Description: "Reinforcing steel BJTS 420", Unit: "kg", Quantity: 380_000, UnitPrice: 14_500},
			{Category: "Labor", Description: "Structural works crew", Unit: "ls", Quantity: 1, UnitPrice: 9_500_000_000},
			{Category: "Equipment", Description: "Tower crane rental", Unit: "month", Quantity: 14, UnitPrice: 185_000_000},
		},
	},
	{
		ID:     "PRJ-2025-002",
		Name:   "Karawang Central Mall Renovation",
		Status: "planning",
		Budget: 28_000_000_000,
		Start:  time.Date(2025, time.March, 1, 0, 0, 0, 0, time.UTC),
		End:    time.Date(2026, time.February, 28, 0, 0, 0, 0, time.UTC),
		RAB: []rabSeed{
			{Category: "Material", Description: "Ceramic floor tiles 60x60", Unit: "m2", Quantity: 12_000, UnitPrice: 235_000},
			{Category: "Labor", Description: "Interior finishing crew", Unit: "ls", Quantity: 1, UnitPrice: 3_200_000_000},
		},
	},
}
