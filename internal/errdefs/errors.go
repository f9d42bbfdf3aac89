package errdefs

import (
	"errors"
	"fmt"

	"assignment_service/internal/domain"
)

var (
	ErrPermissionDenied     = errors.New("permission denied")
	ErrNotFound             = errors.New("not found")
	ErrAlreadyExists        = errors.New("already exists")
	ErrValidation           = errors.New("validation error")
	ErrTransitionNotAllowed = errors.New("transition not allowed")
	ErrInternal             = errors.New("internal error")

	// ErrStaleStatus is returned by stores when a conditional write found the
	// assignment in a different status than expected.
	ErrStaleStatus = errors.New("assignment status changed concurrently")
)

// TransitionNotAllowedError reports an operation requested while the
// assignment was in a status that does not permit it.
type TransitionNotAllowedError struct {
	Status    domain.AssignmentStatus
	Operation domain.Operation
}

func NewTransitionNotAllowed(status domain.AssignmentStatus, op domain.Operation) *TransitionNotAllowedError {
	return &TransitionNotAllowedError{Status: status, Operation: op}
}

func (e *TransitionNotAllowedError) Error() string {
	return fmt.Sprintf("%s is not allowed while assignment is %s", e.Operation, e.Status)
}

func (e *TransitionNotAllowedError) Is(target error) bool {
	return target == ErrTransitionNotAllowed
}

func Validation(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

func NotFound(what string) error {
	return fmt.Errorf("%s %w", what, ErrNotFound)
}

func PermissionDenied(reason string) error {
	return fmt.Errorf("%w: %s", ErrPermissionDenied, reason)
}

// Internal hides an unexpected failure behind ErrInternal. The cause is kept
// in the message for the logs only, so a sentinel it carries never changes
// how the failure is classified.
func Internal(err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%w: %v", ErrInternal, err)
}

// IsDomain reports whether err belongs to the typed failures callers are
// expected to handle.
func IsDomain(err error) bool {
	return errors.Is(err, ErrPermissionDenied) ||
		errors.Is(err, ErrNotFound) ||
		errors.Is(err, ErrAlreadyExists) ||
		errors.Is(err, ErrValidation) ||
		errors.Is(err, ErrTransitionNotAllowed)
}

func Conflict(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrAlreadyExists, fmt.Sprintf(format, args...))
}
