package feasibility

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Status tracks a feasibility questionnaire through sponsor review.
type Status string

const (
	StatusRequested Status = "requested"
	StatusSubmitted Status = "submitted"
	StatusApproved  Status = "approved"
	StatusRejected  Status = "rejected"
)

// transitions lists the statuses reachable from each status.
var transitions = map[Status][]Status{
	StatusRequested: {StatusSubmitted},
	StatusSubmitted: {StatusApproved, StatusRejected, StatusRequested},
	StatusApproved:  {},
	StatusRejected:  {StatusRequested},
}

func canTransition(from, to Status) bool {
	if from == to {
		return true
	}
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// Feasibility is a site feasibility assessment, possibly before a study exists.
type Feasibility struct {
	ID               uuid.UUID  `json:"id"`
	StudyID          *uuid.UUID `json:"study_id,omitempty"`
	SiteName         string     `json:"site_name"`
	Sponsor          string     `json:"sponsor"`
	ExpectedPatients int        `json:"expected_patients"`
	Status           Status     `json:"status"`
	SubmittedAt      *time.Time `json:"submitted_at,omitempty"`
	Notes            string     `json:"notes"`
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at"`
}

// CreateInput carries the fields for a new feasibility request. New requests
// always start as requested.
type CreateInput struct {
	StudyID          *uuid.UUID `json:"study_id"`
	SiteName         string     `json:"site_name"`
	Sponsor          string     `json:"sponsor"`
	ExpectedPatients int        `json:"expected_patients"`
	Notes            string     `json:"notes"`
}

func (in *CreateInput) normalize() {
	in.SiteName = strings.TrimSpace(in.SiteName)
	in.Sponsor = strings.TrimSpace(in.Sponsor)
	in.Notes = strings.TrimSpace(in.Notes)
}

// Patch is a partial feasibility update.
type Patch struct {
	StudyID          *uuid.UUID `json:"study_id"`
	UnlinkStudy      bool       `json:"unlink_study"`
	SiteName         *string    `json:"site_name"`
	Sponsor          *string    `json:"sponsor"`
	ExpectedPatients *int       `json:"expected_patients"`
	Status           *Status    `json:"status"`
	Notes            *string    `json:"notes"`
}

// Apply merges p onto f. Moving to submitted stamps SubmittedAt.
func (p Patch) Apply(f *Feasibility, now time.Time) {
	switch {
	case p.UnlinkStudy:
		f.StudyID = nil
	case p.StudyID != nil:
		f.StudyID = p.StudyID
	}
	if p.SiteName != nil {
		f.SiteName = strings.TrimSpace(*p.SiteName)
	}
	if p.Sponsor != nil {
		f.Sponsor = strings.TrimSpace(*p.Sponsor)
	}
	if p.ExpectedPatients != nil {
		f.ExpectedPatients = *p.ExpectedPatients
	}
	if p.Status != nil {
		if *p.Status == StatusSubmitted && f.Status != StatusSubmitted {
			f.SubmittedAt = &now
		}
		f.Status = *p.Status
	}
	if p.Notes != nil {
		f.Notes = strings.TrimSpace(*p.Notes)
	}
}

// Filter narrows List results.
type Filter struct {
	StudyID *uuid.UUID
	Status  Status
	Sponsor string
}
