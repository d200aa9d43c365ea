package usecase

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/hackgods/clinic-appointment-lifecycle/internal/appointment"
)

// AppointmentCommand identifies the appointment a lifecycle use case acts on.
type AppointmentCommand struct {
	AppointmentID uuid.UUID
}

type RescheduleCommand struct {
	AppointmentID uuid.UUID
	NewDateTime   time.Time
}

type UpdateStatusCommand struct {
	AppointmentID uuid.UUID
	Target        appointment.Status
}

func (s *Service) Confirm(ctx context.Context, cmd AppointmentCommand) Result[*appointment.Appointment] {
	return s.mutate(ctx, "confirm appointment", cmd.AppointmentID, (*appointment.Appointment).Confirm)
}

func (s *Service) Cancel(ctx context.Context, cmd AppointmentCommand) Result[*appointment.Appointment] {
	return s.mutate(ctx, "cancel appointment", cmd.AppointmentID, (*appointment.Appointment).Cancel)
}

func (s *Service) MarkAttended(ctx context.Context, cmd AppointmentCommand) Result[*appointment.Appointment] {
	return s.mutate(ctx, "mark appointment as attended", cmd.AppointmentID, (*appointment.Appointment).MarkAttended)
}

func (s *Service) RegisterNoShow(ctx context.Context, cmd AppointmentCommand) Result[*appointment.Appointment] {
	return s.mutate(ctx, "register no-show", cmd.AppointmentID, (*appointment.Appointment).RegisterNoShow)
}

func (s *Service) Reschedule(ctx context.Context, cmd RescheduleCommand) Result[*appointment.Appointment] {
	return s.mutate(ctx, "reschedule appointment", cmd.AppointmentID, func(a *appointment.Appointment, at time.Time) (appointment.Transition, error) {
		return a.Reschedule(storedTime(cmd.NewDateTime), at)
	})
}

// UpdateStatus routes a target status to the matching lifecycle command.
func (s *Service) UpdateStatus(ctx context.Context, cmd UpdateStatusCommand) Result[*appointment.Appointment] {
	return s.mutate(ctx, "update appointment status", cmd.AppointmentID, func(a *appointment.Appointment, at time.Time) (appointment.Transition, error) {
		return a.TransitionTo(cmd.Target, at)
	})
}
