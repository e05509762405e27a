package patient

import "errors"

var (
	// ErrNotFound signals that the patient does not exist.
	ErrNotFound = errors.New("patient not found")
	// ErrDuplicate indicates the screening number is already used within the study.
	ErrDuplicate = errors.New("screening number already exists in study")
	// ErrStudyNotFound is returned when the referenced study does not exist.
	ErrStudyNotFound = errors.New("study not found")
)
