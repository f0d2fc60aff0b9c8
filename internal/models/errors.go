package models

import "errors"

// Errors shared by the repository, service and handler layers. Callers wrap
// them with context and test with errors.Is.
var (
	ErrInvalidInput      = errors.New("invalid input")
	ErrNotFound          = errors.New("not found")
	ErrInvalidTransition = errors.New("invalid status transition")
	ErrConflict          = errors.New("already exists")
)
