package feasibility

import "errors"

var (
	// ErrNotFound signals that the feasibility does not exist.
	ErrNotFound = errors.New("feasibility not found")
	// ErrStudyNotFound is returned when the linked study does not exist.
	ErrStudyNotFound = errors.New("study not found")
	// ErrInvalidTransition rejects a status change the review workflow does not allow.
	ErrInvalidTransition = errors.New("invalid status transition")
)
