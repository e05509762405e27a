package feasibility

import (
	"errors"

	"github.com/abduss/clinstudy/internal/httpx"
	validation "github.com/go-ozzo/ozzo-validation"
)

var statuses = []interface{}{StatusRequested, StatusSubmitted, StatusApproved, StatusRejected}

// Validate checks a new feasibility request.
func (in CreateInput) Validate() error {
	return validation.ValidateStruct(&in,
		validation.Field(&in.StudyID, httpx.RequiredID),
		validation.Field(&in.SiteName, validation.Required, validation.Length(1, 255)),
		validation.Field(&in.Sponsor, validation.Length(0, 255)),
		validation.Field(&in.ExpectedPatients, validation.Min(0), validation.Max(100000)),
		validation.Field(&in.Notes, validation.Length(0, 4000)),
	)
}

// Validate checks the fields present in the patch.
func (p Patch) Validate() error {
	return validation.ValidateStruct(&p,
		validation.Field(&p.StudyID, httpx.RequiredID, validation.By(func(interface{}) error {
			if p.UnlinkStudy && p.StudyID != nil {
				return errors.New("cannot be combined with unlink_study")
			}
			return nil
		})),
		validation.Field(&p.SiteName, validation.NilOrNotEmpty, validation.Length(1, 255)),
		validation.Field(&p.Sponsor, validation.Length(0, 255)),
		validation.Field(&p.ExpectedPatients, validation.Min(0), validation.Max(100000)),
		validation.Field(&p.Status, validation.NilOrNotEmpty, validation.In(statuses...)),
		validation.Field(&p.Notes, validation.Length(0, 4000)),
	)
}
