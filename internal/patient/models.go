package patient

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Sex as recorded on the screening form.
type Sex string

const (
	SexFemale Sex = "F"
	SexMale   Sex = "M"
	SexOther  Sex = "X"
)

// Status is the enrolment state of a patient.
type Status string

const (
	StatusScreening Status = "screening"
	StatusEnrolled  Status = "enrolled"
	StatusWithdrawn Status = "withdrawn"
	StatusCompleted Status = "completed"
)

// Patient is a study participant identified by screening number and initials only.
type Patient struct {
	ID              uuid.UUID  `json:"id"`
	StudyID         uuid.UUID  `json:"study_id"`
	ScreeningNumber string     `json:"screening_number"`
	Initials        string     `json:"initials"`
	BirthDate       *time.Time `json:"birth_date,omitempty"`
	Sex             Sex        `json:"sex"`
	Status          Status     `json:"status"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

// CreateInput carries the fields for a new patient.
type CreateInput struct {
	StudyID         uuid.UUID  `json:"study_id"`
	ScreeningNumber string     `json:"screening_number"`
	Initials        string     `json:"initials"`
	BirthDate       *time.Time `json:"birth_date"`
	Sex             Sex        `json:"sex"`
	Status          Status     `json:"status"`
}

func (in *CreateInput) normalize() {
	in.ScreeningNumber = strings.TrimSpace(in.ScreeningNumber)
	in.Initials = strings.ToUpper(strings.TrimSpace(in.Initials))
	in.Sex = Sex(strings.ToUpper(string(in.Sex)))
	if in.Status == "" {
		in.Status = StatusScreening
	}
}

// Patch is a partial patient update. The owning study cannot change.
type Patch struct {
	ScreeningNumber *string    `json:"screening_number"`
	Initials        *string    `json:"initials"`
	BirthDate       *time.Time `json:"birth_date"`
	Sex             *Sex       `json:"sex"`
	Status          *Status    `json:"status"`
}

// Apply merges the non-nil fields of p onto pt.
func (p Patch) Apply(pt *Patient) {
	if p.ScreeningNumber != nil {
		pt.ScreeningNumber = strings.TrimSpace(*p.ScreeningNumber)
	}
	if p.Initials != nil {
		pt.Initials = strings.ToUpper(strings.TrimSpace(*p.Initials))
	}
	if p.BirthDate != nil {
		pt.BirthDate = p.BirthDate
	}
	if p.Sex != nil {
		pt.Sex = Sex(strings.ToUpper(string(*p.Sex)))
	}
	if p.Status != nil {
		pt.Status = *p.Status
	}
}

// Filter narrows List results.
type Filter struct {
	StudyID *uuid.UUID
	Status  Status
}
