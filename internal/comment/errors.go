package comment

import "errors"

var (
	// ErrNotFound signals that the comment does not exist.
	ErrNotFound = errors.New("comment not found")
	// ErrForbidden is returned when a caller edits someone else's comment.
	ErrForbidden = errors.New("only the author or an admin may modify this comment")
)
