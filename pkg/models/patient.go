package models

import (
	"math"
	"time"
)

type Gender string

const (
	GenderMale   Gender = "Male"
	GenderFemale Gender = "Female"
	GenderOther  Gender = "Other"
)

var ValidGenders = []Gender{GenderMale, GenderFemale, GenderOther}

// Patient is a stored record from the stroke dataset or entered by staff.
// BMI is nil when the value was recorded as "N/A".
type Patient struct {
	ID              int      `json:"id"`
	Gender          string   `json:"gender"`
	Age             float64  `json:"age"`
	Hypertension    int      `json:"hypertension"`
	HeartDisease    int      `json:"heart_disease"`
	EverMarried     string   `json:"ever_married"`
	WorkType        string   `json:"work_type"`
	ResidenceType   string   `json:"Residence_type"`
	AvgGlucoseLevel float64  `json:"avg_glucose_level"`
	BMI             *float64 `json:"bmi"`
	SmokingStatus   string   `json:"smoking_status"`
	Stroke          int      `json:"stroke"`

	CreatedBy string    `json:"created_by,omitempty"`
	UpdatedBy string    `json:"updated_by,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (p *Patient) HasStroke() bool {
	return p.Stroke == 1
}

// PatientFilter narrows a patient listing. Zero values mean "no filter".
type PatientFilter struct {
	Query   string
	Stroke  *int
	Gender  string
	Page    int
	PerPage int
}

// MaxPage bounds the page number so the row offset stays well inside int32.
const MaxPage = 1_000_000

// Offset is the number of rows before the page. Pages past MaxPage are
// treated as MaxPage.
func (f PatientFilter) Offset() int {
	if f.Page < 1 || f.PerPage < 1 {
		return 0
	}
	page := f.Page
	if page > MaxPage {
		page = MaxPage
	}
	offset := int64(page-1) * int64(f.PerPage)
	if offset > math.MaxInt32 {
		return math.MaxInt32
	}
	return int(offset)
}

type PatientPage struct {
	Patients   []*Patient `json:"patients"`
	Page       int        `json:"page"`
	PerPage    int        `json:"per_page"`
	TotalCount int        `json:"total_count"`
	TotalPages int        `json:"total_pages"`
}

func TotalPages(totalCount, perPage int) int {
	if perPage <= 0 {
		return 0
	}
	return (totalCount + perPage - 1) / perPage
}
