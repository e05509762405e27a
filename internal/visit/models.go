package visit

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Status is the outcome of a scheduled visit.
type Status string

const (
	StatusScheduled Status = "scheduled"
	StatusCompleted Status = "completed"
	StatusMissed    Status = "missed"
	StatusCancelled Status = "cancelled"
)

// Visit is a protocol visit of a patient.
type Visit struct {
	ID          uuid.UUID  `json:"id"`
	PatientID   uuid.UUID  `json:"patient_id"`
	Name        string     `json:"name"`
	ScheduledAt time.Time  `json:"scheduled_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
	Status      Status     `json:"status"`
	Notes       string     `json:"notes"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// CreateInput carries the fields for a new visit.
type CreateInput struct {
	PatientID   uuid.UUID  `json:"patient_id"`
	Name        string     `json:"name"`
	ScheduledAt time.Time  `json:"scheduled_at"`
	CompletedAt *time.Time `json:"completed_at"`
	Status      Status     `json:"status"`
	Notes       string     `json:"notes"`
}

func (in *CreateInput) normalize(now time.Time) {
	in.Name = strings.TrimSpace(in.Name)
	in.Notes = strings.TrimSpace(in.Notes)
	if in.Status == "" {
		in.Status = StatusScheduled
	}
	if in.Status == StatusCompleted && in.CompletedAt == nil {
		in.CompletedAt = &now
	}
}

// Patch is a partial visit update.
type Patch struct {
	Name        *string    `json:"name"`
	ScheduledAt *time.Time `json:"scheduled_at"`
	CompletedAt *time.Time `json:"completed_at"`
	Status      *Status    `json:"status"`
	Notes       *string    `json:"notes"`
}

// Apply merges the non-nil fields of p onto v. Completing a visit without an
// explicit completed_at stamps it with now; moving it to any other status
// drops the stamp unless the patch sets one.
func (p Patch) Apply(v *Visit, now time.Time) {
	if p.Name != nil {
		v.Name = strings.TrimSpace(*p.Name)
	}
	if p.ScheduledAt != nil {
		v.ScheduledAt = *p.ScheduledAt
	}
	if p.CompletedAt != nil {
		v.CompletedAt = p.CompletedAt
	}
	if p.Status != nil {
		v.Status = *p.Status
		if v.Status != StatusCompleted && p.CompletedAt == nil {
			v.CompletedAt = nil
		}
	}
	if p.Notes != nil {
		v.Notes = strings.TrimSpace(*p.Notes)
	}
	if v.Status == StatusCompleted && v.CompletedAt == nil {
		v.CompletedAt = &now
	}
}

// Filter narrows List results.
type Filter struct {
	PatientID *uuid.UUID
	Status    Status
	From      *time.Time
	To        *time.Time
}
