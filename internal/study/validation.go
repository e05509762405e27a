package study

import (
	"errors"
	"fmt"
	"time"

	validation "github.com/go-ozzo/ozzo-validation"
)

var (
	phases   = []interface{}{PhaseI, PhaseII, PhaseIII, PhaseIV}
	statuses = []interface{}{StatusDraft, StatusActive, StatusClosed}
)

// Validate checks a new study.
func (in CreateInput) Validate() error {
	return validation.ValidateStruct(&in,
		validation.Field(&in.Code, validation.Required, validation.Length(2, 32)),
		validation.Field(&in.Title, validation.Required, validation.Length(1, 255)),
		validation.Field(&in.Sponsor, validation.Length(0, 255)),
		validation.Field(&in.Phase, validation.Required, validation.In(phases...)),
		validation.Field(&in.Status, validation.In(statuses...)),
		validation.Field(&in.PrincipalInvestigator, validation.Length(0, 255)),
		validation.Field(&in.EndDate, validation.By(notBefore(in.StartDate))),
	)
}

// Validate checks the fields present in the patch.
func (p Patch) Validate() error {
	return validation.ValidateStruct(&p,
		validation.Field(&p.Code, validation.NilOrNotEmpty, validation.Length(2, 32)),
		validation.Field(&p.Title, validation.NilOrNotEmpty, validation.Length(1, 255)),
		validation.Field(&p.Sponsor, validation.Length(0, 255)),
		validation.Field(&p.Phase, validation.NilOrNotEmpty, validation.In(phases...)),
		validation.Field(&p.Status, validation.NilOrNotEmpty, validation.In(statuses...)),
		validation.Field(&p.PrincipalInvestigator, validation.Length(0, 255)),
		validation.Field(&p.StartDate, validation.By(unlessCleared(p.ClearStartDate, "clear_start_date"))),
		validation.Field(&p.EndDate, validation.By(unlessCleared(p.ClearEndDate, "clear_end_date"))),
		validation.Field(&p.CreatedAt, validation.By(notFuture)),
	)
}

func validateDates(s Study) error {
	if err := notBefore(s.StartDate)(s.EndDate); err != nil {
		return validation.Errors{"end_date": err}
	}
	return nil
}

func notBefore(start *time.Time) validation.RuleFunc {
	return func(value interface{}) error {
		end, _ := value.(*time.Time)
		if start == nil || end == nil {
			return nil
		}
		if end.Before(*start) {
			return errors.New("must not be before start_date")
		}
		return nil
	}
}

// unlessCleared rejects a date sent together with its clear flag.
func unlessCleared(cleared bool, flag string) validation.RuleFunc {
	return func(value interface{}) error {
		t, _ := value.(*time.Time)
		if cleared && t != nil {
			return fmt.Errorf("cannot be combined with %s", flag)
		}
		return nil
	}
}

func notFuture(value interface{}) error {
	t, _ := value.(*time.Time)
	if t != nil && t.After(time.Now()) {
		return errors.New("must not be in the future")
	}
	return nil
}
