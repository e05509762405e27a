package activity

import (
	"errors"

	"github.com/abduss/clinstudy/internal/httpx"
	validation "github.com/go-ozzo/ozzo-validation"
)

var statuses = []interface{}{StatusPending, StatusInProgress, StatusDone}

// Validate checks a new activity.
func (in CreateInput) Validate() error {
	return validation.ValidateStruct(&in,
		validation.Field(&in.StudyID, httpx.RequiredID),
		validation.Field(&in.Title, validation.Required, validation.Length(1, 255)),
		validation.Field(&in.Description, validation.Length(0, 4000)),
		validation.Field(&in.AssigneeID, httpx.RequiredID),
		validation.Field(&in.Status, validation.In(statuses...)),
	)
}

// Validate checks the fields present in the patch.
func (p Patch) Validate() error {
	return validation.ValidateStruct(&p,
		validation.Field(&p.Title, validation.NilOrNotEmpty, validation.Length(1, 255)),
		validation.Field(&p.Description, validation.Length(0, 4000)),
		validation.Field(&p.AssigneeID, httpx.RequiredID, validation.By(func(interface{}) error {
			if p.Unassign && p.AssigneeID != nil {
				return errors.New("cannot be combined with unassign")
			}
			return nil
		})),
		validation.Field(&p.DueDate, validation.By(func(interface{}) error {
			if p.ClearDueDate && p.DueDate != nil {
				return errors.New("cannot be combined with clear_due_date")
			}
			return nil
		})),
		validation.Field(&p.Status, validation.NilOrNotEmpty, validation.In(statuses...)),
	)
}
