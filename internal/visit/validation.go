package visit

import (
	"errors"
	"time"

	"github.com/abduss/clinstudy/internal/httpx"
	validation "github.com/go-ozzo/ozzo-validation"
)

var statuses = []interface{}{StatusScheduled, StatusCompleted, StatusMissed, StatusCancelled}

// Validate checks a new visit.
func (in CreateInput) Validate() error {
	return validation.ValidateStruct(&in,
		validation.Field(&in.PatientID, httpx.RequiredID),
		validation.Field(&in.Name, validation.Required, validation.Length(1, 128)),
		validation.Field(&in.ScheduledAt, validation.Required),
		validation.Field(&in.Status, validation.In(statuses...)),
		validation.Field(&in.Notes, validation.Length(0, 4000)),
	)
}

// Validate checks the fields present in the patch.
func (p Patch) Validate() error {
	return validation.ValidateStruct(&p,
		validation.Field(&p.Name, validation.NilOrNotEmpty, validation.Length(1, 128)),
		validation.Field(&p.Status, validation.NilOrNotEmpty, validation.In(statuses...)),
		validation.Field(&p.Notes, validation.Length(0, 4000)),
	)
}

// validateVisit checks cross-field rules on the merged record.
func validateVisit(v Visit, now time.Time) error {
	errs := validation.Errors{}
	if v.CompletedAt != nil && v.CompletedAt.After(now) {
		errs["completed_at"] = errors.New("must not be in the future")
	}
	if v.Status != StatusCompleted && v.CompletedAt != nil {
		errs["status"] = errors.New("must be completed when completed_at is set")
	}
	return errs.Filter()
}
