package usecase

import (
	"errors"
	"fmt"

	"github.com/hackgods/clinic-appointment-lifecycle/internal/appointment"
	"github.com/hackgods/clinic-appointment-lifecycle/internal/decision"
	"github.com/hackgods/clinic-appointment-lifecycle/internal/lock"
)

// Kind tags a failed Result so adapters can pick a status code without
// parsing the message.
type Kind string

const (
	KindOK                   Kind = "ok"
	KindValidation           Kind = "validation"
	KindInvalidHistory       Kind = "invalid_history"
	KindMissingJustification Kind = "missing_justification"
	KindMissingModifier      Kind = "missing_modifier"
	KindInvalidTransition    Kind = "invalid_transition"
	KindNotFound             Kind = "not_found"
	KindAlreadyResolved      Kind = "already_resolved"
	KindConflict             Kind = "conflict"
	KindUnknown              Kind = "unknown"
)

// Result is what every use case returns. Use cases never return a Go error
// and never panic; failures are reported as OK=false with a message.
type Result[T any] struct {
	OK    bool   `json:"ok"`
	Value T      `json:"value,omitempty"`
	Error string `json:"error,omitempty"`
	Kind  Kind   `json:"kind,omitempty"`
}

func succeed[T any](v T) Result[T] {
	return Result[T]{OK: true, Value: v, Kind: KindOK}
}

func fail[T any](kind Kind, message string) Result[T] {
	return Result[T]{OK: false, Error: message, Kind: kind}
}

// classify maps an error onto the taxonomy. Anything it does not recognize
// is KindUnknown.
func classify(err error) Kind {
	var transition *appointment.InvalidTransitionError
	switch {
	case errors.As(err, &transition):
		return KindInvalidTransition
	case errors.Is(err, appointment.ErrMissingJustification):
		return KindMissingJustification
	case errors.Is(err, appointment.ErrMissingModifier):
		return KindMissingModifier
	case errors.Is(err, appointment.ErrValidation),
		errors.Is(err, decision.ErrNotEscalated):
		return KindValidation
	case errors.Is(err, appointment.ErrInvalidHistory),
		errors.Is(err, appointment.ErrEmptyHistory):
		return KindInvalidHistory
	case errors.Is(err, appointment.ErrAppointmentNotFound),
		errors.Is(err, appointment.ErrPatientNotFound),
		errors.Is(err, decision.ErrPendingDecisionNotFound):
		return KindNotFound
	case errors.Is(err, decision.ErrAlreadyResolved):
		return KindAlreadyResolved
	case errors.Is(err, appointment.ErrConcurrentUpdate),
		errors.Is(err, lock.ErrLockNotAcquired):
		return KindConflict
	}
	return KindUnknown
}

func describe(operation string, kind Kind, err error) string {
	switch kind {
	case KindUnknown:
		return fmt.Sprintf("unknown error while trying to %s", operation)
	case KindConflict:
		return fmt.Sprintf("could not %s: the appointment is being changed by another request, please retry", operation)
	}
	return err.Error()
}
