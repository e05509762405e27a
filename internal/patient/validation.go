package patient

import (
	"errors"
	"regexp"
	"time"

	"github.com/abduss/clinstudy/internal/httpx"
	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
)

var (
	initialsPattern = regexp.MustCompile(`^[A-Za-z]{2,4}$`)
	sexes           = []interface{}{SexFemale, SexMale, SexOther}
	statuses        = []interface{}{StatusScreening, StatusEnrolled, StatusWithdrawn, StatusCompleted}
)

// Validate checks a new patient.
func (in CreateInput) Validate() error {
	return validation.ValidateStruct(&in,
		validation.Field(&in.StudyID, httpx.RequiredID),
		validation.Field(&in.ScreeningNumber, validation.Required, validation.Length(1, 32), is.PrintableASCII),
		validation.Field(&in.Initials, validation.Required, validation.Match(initialsPattern).Error("must be 2 to 4 letters")),
		validation.Field(&in.BirthDate, validation.By(pastDate)),
		validation.Field(&in.Sex, validation.Required, validation.In(sexes...)),
		validation.Field(&in.Status, validation.In(statuses...)),
	)
}

// Validate checks the fields present in the patch.
func (p Patch) Validate() error {
	return validation.ValidateStruct(&p,
		validation.Field(&p.ScreeningNumber, validation.NilOrNotEmpty, validation.Length(1, 32), is.PrintableASCII),
		validation.Field(&p.Initials, validation.NilOrNotEmpty, validation.Match(initialsPattern).Error("must be 2 to 4 letters")),
		validation.Field(&p.BirthDate, validation.By(pastDate)),
		validation.Field(&p.Sex, validation.NilOrNotEmpty, validation.In(sexes...)),
		validation.Field(&p.Status, validation.NilOrNotEmpty, validation.In(statuses...)),
	)
}

func pastDate(value interface{}) error {
	t, _ := value.(*time.Time)
	if t != nil && t.After(time.Now()) {
		return errors.New("must be in the past")
	}
	return nil
}
