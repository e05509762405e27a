package activity

import "errors"

var (
	// ErrNotFound signals that the activity does not exist.
	ErrNotFound = errors.New("activity not found")
	// ErrInvalidReference is returned when the study or assignee does not exist.
	ErrInvalidReference = errors.New("referenced study or assignee does not exist")
)
