package auth

import "errors"

var (
	// ErrEmailAlreadyExists indicates the email is already registered.
	ErrEmailAlreadyExists = errors.New("email already exists")
	// ErrInvalidCredentials is returned when authentication fails.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrUserNotFound signals that the user could not be located.
	ErrUserNotFound = errors.New("user not found")
	// ErrInvalidToken represents a token with a bad signature, wrong kind or past expiry.
	ErrInvalidToken = errors.New("invalid token")
	// ErrDocumentNotFound signals that no document is stored under the requested name.
	ErrDocumentNotFound = errors.New("document not found")
	// ErrDocumentTooLarge signals that an upload exceeds the configured limit.
	ErrDocumentTooLarge = errors.New("document too large")
	// ErrDocumentsUnavailable is returned when no object store is configured.
	ErrDocumentsUnavailable = errors.New("document storage unavailable")
)
