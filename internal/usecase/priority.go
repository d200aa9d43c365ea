package usecase

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/hackgods/clinic-appointment-lifecycle/internal/appointment"
)

type OverridePriorityCommand struct {
	AppointmentID uuid.UUID
	NewPriority   appointment.Priority
	Justification string
	ModifiedBy    string
}

// OverridePriority records a human priority decision. It is accepted in any
// lifecycle state.
func (s *Service) OverridePriority(ctx context.Context, cmd OverridePriorityCommand) Result[*appointment.Appointment] {
	return s.mutate(ctx, "override priority", cmd.AppointmentID, func(a *appointment.Appointment, at time.Time) (appointment.Transition, error) {
		return a.OverridePriority(cmd.NewPriority, cmd.Justification, cmd.ModifiedBy, at)
	})
}
