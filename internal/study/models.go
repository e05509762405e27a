package study

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Phase is the clinical trial phase.
type Phase string

const (
	PhaseI   Phase = "I"
	PhaseII  Phase = "II"
	PhaseIII Phase = "III"
	PhaseIV  Phase = "IV"
)

// Status tracks where a study is in its lifecycle.
type Status string

const (
	StatusDraft  Status = "draft"
	StatusActive Status = "active"
	StatusClosed Status = "closed"
)

// Study is a clinical study run at the site.
type Study struct {
	ID                    uuid.UUID  `json:"id"`
	Code                  string     `json:"code"`
	Title                 string     `json:"title"`
	Sponsor               string     `json:"sponsor"`
	Phase                 Phase      `json:"phase"`
	Status                Status     `json:"status"`
	PrincipalInvestigator string     `json:"principal_investigator"`
	StartDate             *time.Time `json:"start_date,omitempty"`
	EndDate               *time.Time `json:"end_date,omitempty"`
	CreatedAt             time.Time  `json:"created_at"`
	UpdatedAt             time.Time  `json:"updated_at"`
}

// CreateInput carries the fields for a new study.
type CreateInput struct {
	Code                  string     `json:"code"`
	Title                 string     `json:"title"`
	Sponsor               string     `json:"sponsor"`
	Phase                 Phase      `json:"phase"`
	Status                Status     `json:"status"`
	PrincipalInvestigator string     `json:"principal_investigator"`
	StartDate             *time.Time `json:"start_date"`
	EndDate               *time.Time `json:"end_date"`
}

func (in *CreateInput) normalize() {
	in.Code = normalizeCode(in.Code)
	in.Title = strings.TrimSpace(in.Title)
	in.Sponsor = strings.TrimSpace(in.Sponsor)
	in.PrincipalInvestigator = strings.TrimSpace(in.PrincipalInvestigator)
	if in.Status == "" {
		in.Status = StatusDraft
	}
}

// Patch is a partial study update. CreatedAt lets imports backdate a record.
type Patch struct {
	Code                  *string    `json:"code"`
	Title                 *string    `json:"title"`
	Sponsor               *string    `json:"sponsor"`
	Phase                 *Phase     `json:"phase"`
	Status                *Status    `json:"status"`
	PrincipalInvestigator *string    `json:"principal_investigator"`
	StartDate             *time.Time `json:"start_date"`
	EndDate               *time.Time `json:"end_date"`
	ClearStartDate        bool       `json:"clear_start_date"`
	ClearEndDate          bool       `json:"clear_end_date"`
	CreatedAt             *time.Time `json:"created_at"`
}

// Apply merges the non-nil fields of p onto s.
func (p Patch) Apply(s *Study) {
	if p.Code != nil {
		s.Code = normalizeCode(*p.Code)
	}
	if p.Title != nil {
		s.Title = strings.TrimSpace(*p.Title)
	}
	if p.Sponsor != nil {
		s.Sponsor = strings.TrimSpace(*p.Sponsor)
	}
	if p.Phase != nil {
		s.Phase = *p.Phase
	}
	if p.Status != nil {
		s.Status = *p.Status
	}
	if p.PrincipalInvestigator != nil {
		s.PrincipalInvestigator = strings.TrimSpace(*p.PrincipalInvestigator)
	}
	switch {
	case p.ClearStartDate:
		s.StartDate = nil
	case p.StartDate != nil:
		s.StartDate = p.StartDate
	}
	switch {
	case p.ClearEndDate:
		s.EndDate = nil
	case p.EndDate != nil:
		s.EndDate = p.EndDate
	}
	if p.CreatedAt != nil {
		s.CreatedAt = p.CreatedAt.UTC()
	}
}

// Filter narrows List results. Zero fields are ignored.
type Filter struct {
	Status  Status
	Phase   Phase
	Sponsor string
	Search  string
}

func normalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}
