package auth

import (
	"errors"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/nyaruka/phonenumbers"
)

var errInvalidPhone = errors.New("must be a valid international phone number")

// phoneRule accepts empty values and numbers parseable in international format.
var phoneRule = validation.By(func(value interface{}) error {
	v, isNil := validation.Indirect(value)
	if isNil {
		return nil
	}
	s, _ := v.(string)
	if _, err := normalizePhone(s); err != nil {
		return errInvalidPhone
	}
	return nil
})

// normalizePhone returns the E.164 form of raw. Blank input yields "".
func normalizePhone(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", nil
	}
	num, err := phonenumbers.Parse(raw, "")
	if err != nil {
		return "", err
	}
	if !phonenumbers.IsValidNumber(num) {
		return "", errInvalidPhone
	}
	return phonenumbers.Format(num, phonenumbers.E164), nil
}

// formatPhone is normalizePhone for already validated input.
func formatPhone(raw string) string {
	if phone, err := normalizePhone(raw); err == nil {
		return phone
	}
	return strings.TrimSpace(raw)
}
