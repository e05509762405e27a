package visit

import "errors"

var (
	// ErrNotFound signals that the visit does not exist.
	ErrNotFound = errors.New("visit not found")
	// ErrPatientNotFound is returned when the referenced patient does not exist.
	ErrPatientNotFound = errors.New("patient not found")
)
