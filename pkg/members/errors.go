package members

import "errors"

// Sentinel errors for expected failure modes. Callers match with errors.Is;
// anything else returned by the service is an internal failure wrapped with
// its original cause.
var (
	// ErrNotFound indicates a referenced member or membership does not exist
	ErrNotFound = errors.New("not found")

	// ErrAlreadyExists indicates a unique key (member email) is already taken
	ErrAlreadyExists = errors.New("already exists")

	// ErrInvalidInput indicates a missing or malformed request field
	ErrInvalidInput = errors.New("invalid input")
)
