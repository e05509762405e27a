package activity

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Status is the progress of a study activity.
type Status string

const (
	StatusPending    Status = "pending"
	StatusInProgress Status = "in_progress"
	StatusDone       Status = "done"
)

// Activity is a task tracked against a study, optionally assigned to a user.
type Activity struct {
	ID          uuid.UUID  `json:"id"`
	StudyID     uuid.UUID  `json:"study_id"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	AssigneeID  *uuid.UUID `json:"assignee_id,omitempty"`
	DueDate     *time.Time `json:"due_date,omitempty"`
	Status      Status     `json:"status"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// CreateInput carries the fields for a new activity.
type CreateInput struct {
	StudyID     uuid.UUID  `json:"study_id"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	AssigneeID  *uuid.UUID `json:"assignee_id"`
	DueDate     *time.Time `json:"due_date"`
	Status      Status     `json:"status"`
}

func (in *CreateInput) normalize() {
	in.Title = strings.TrimSpace(in.Title)
	in.Description = strings.TrimSpace(in.Description)
	if in.Status == "" {
		in.Status = StatusPending
	}
}

// Patch is a partial activity update. Unassign clears the assignee.
type Patch struct {
	Title        *string    `json:"title"`
	Description  *string    `json:"description"`
	AssigneeID   *uuid.UUID `json:"assignee_id"`
	Unassign     bool       `json:"unassign"`
	DueDate      *time.Time `json:"due_date"`
	ClearDueDate bool       `json:"clear_due_date"`
	Status       *Status    `json:"status"`
}

// Apply merges p onto a.
func (p Patch) Apply(a *Activity) {
	if p.Title != nil {
		a.Title = strings.TrimSpace(*p.Title)
	}
	if p.Description != nil {
		a.Description = strings.TrimSpace(*p.Description)
	}
	switch {
	case p.Unassign:
		a.AssigneeID = nil
	case p.AssigneeID != nil:
		a.AssigneeID = p.AssigneeID
	}
	switch {
	case p.ClearDueDate:
		a.DueDate = nil
	case p.DueDate != nil:
		a.DueDate = p.DueDate
	}
	if p.Status != nil {
		a.Status = *p.Status
	}
}

// Filter narrows List results.
type Filter struct {
	StudyID    *uuid.UUID
	AssigneeID *uuid.UUID
	Status     Status
}
