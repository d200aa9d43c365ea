package appointment

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrValidation           = errors.New("validation failed")
	ErrInvalidHistory       = errors.New("invalid history")
	ErrEmptyHistory         = errors.New("history is empty")
	ErrMissingJustification = errors.New("a justification is required for a human priority change")
	ErrMissingModifier      = errors.New("a modifier is required for a human priority change")
	ErrInvalidTransition    = errors.New("invalid status transition")
	ErrPatientNotFound      = errors.New("patient not found")
	ErrAppointmentNotFound  = errors.New("appointment not found")
	ErrConcurrentUpdate     = errors.New("appointment was modified concurrently")
)

// ValidationError reports a malformed entity field.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

func invalid(field, format string, args ...any) error {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}

// InvalidTransitionError is returned when a lifecycle guard rejects an
// operation. Its message is meant to be shown to users as is.
type InvalidTransitionError struct {
	Operation string
	Allowed   []Status
	Current   Status
}

func (e *InvalidTransitionError) Error() string {
	allowed := make([]string, len(e.Allowed))
	for i, s := range e.Allowed {
		allowed[i] = s.String()
	}
	return fmt.Sprintf("only an appointment in %s may be %s; current state is %s",
		strings.Join(allowed, " or "), e.Operation, e.Current)
}

func (e *InvalidTransitionError) Is(target error) bool {
	return target == ErrInvalidTransition
}
