package comment

import (
	"github.com/abduss/clinstudy/internal/httpx"
	validation "github.com/go-ozzo/ozzo-validation"
)

var entityTypes = []interface{}{EntityStudy, EntityPatient, EntityVisit, EntityActivity, EntityFeasibility}

const maxBodyLength = 8000

// Validate checks a new comment.
func (in CreateInput) Validate() error {
	return validation.ValidateStruct(&in,
		validation.Field(&in.EntityType, validation.Required, validation.In(entityTypes...)),
		validation.Field(&in.EntityID, httpx.RequiredID),
		validation.Field(&in.Body, validation.Required, validation.Length(1, maxBodyLength)),
	)
}

// Validate checks the comment edit.
func (p Patch) Validate() error {
	return validation.ValidateStruct(&p,
		validation.Field(&p.Body, validation.Required, validation.Length(1, maxBodyLength)),
	)
}
