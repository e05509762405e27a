package study

import "errors"

var (
	// ErrNotFound signals that the study does not exist.
	ErrNotFound = errors.New("study not found")
	// ErrDuplicate indicates the study code is already taken.
	ErrDuplicate = errors.New("study code already exists")
)
