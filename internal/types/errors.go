package types

import "errors"

// Domain failure taxonomy. Services wrap these with fmt.Errorf("...: %w", ...)
// and handlers map them to HTTP statuses with errors.Is.
var (
	ErrNotFound          = errors.New("not found")
	ErrAlreadyExists     = errors.New("already exists")
	ErrUnauthorized      = errors.New("unauthorized")
	ErrInvalidTransition = errors.New("invalid status transition")
	ErrNotAnExpert       = errors.New("user is not an expert")
	ErrConflict          = errors.New("concurrent modification detected")
	ErrValidation        = errors.New("invalid input")
	ErrDependency        = errors.New("dependency failure")
)
