package usecase

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/hackgods/clinic-appointment-lifecycle/internal/appointment"
	"github.com/hackgods/clinic-appointment-lifecycle/internal/decision"
	"github.com/hackgods/clinic-appointment-lifecycle/internal/eventbus"
)

const (
	defaultListLimit = 20
	maxListLimit     = 100
)

func (s *Service) GetAppointment(ctx context.Context, id uuid.UUID) Result[*appointment.Appointment] {
	return execute(ctx, s, "get appointment", []any{"appointment_id", id}, func(ctx context.Context) (*appointment.Appointment, error) {
		return s.appointments.GetAppointmentByID(ctx, id)
	})
}

func (s *Service) ListAppointments(ctx context.Context, q appointment.ListQuery) Result[[]*appointment.Appointment] {
	if q.Limit <= 0 {
		q.Limit = defaultListLimit
	}
	if q.Limit > maxListLimit {
		q.Limit = maxListLimit
	}
	if q.Offset < 0 {
		q.Offset = 0
	}
	return execute(ctx, s, "list appointments", nil, func(ctx context.Context) ([]*appointment.Appointment, error) {
		return s.appointments.ListAppointments(ctx, q)
	})
}

func (s *Service) GetPendingDecision(ctx context.Context, id uuid.UUID) Result[*decision.PendingDecision] {
	return execute(ctx, s, "get decision", []any{"decision_id", id}, func(ctx context.Context) (*decision.PendingDecision, error) {
		return s.decisions.GetPendingDecisionByID(ctx, id)
	})
}

func (s *Service) ListPendingDecisions(ctx context.Context, f decision.Filter) Result[[]*decision.PendingDecision] {
	return execute(ctx, s, "list decisions", nil, func(ctx context.Context) ([]*decision.PendingDecision, error) {
		return s.decisions.ListPendingDecisions(ctx, f)
	})
}

var errNoEventLog = errors.New("event log is not configured")

// AuditTrail returns the events recorded for an appointment, oldest first.
func (s *Service) AuditTrail(ctx context.Context, id uuid.UUID) Result[[]eventbus.Record] {
	return execute(ctx, s, "read audit trail", []any{"appointment_id", id}, func(ctx context.Context) ([]eventbus.Record, error) {
		if s.eventLog == nil {
			return nil, errNoEventLog
		}
		if _, err := s.appointments.GetAppointmentByID(ctx, id); err != nil {
			return nil, err
		}
		return s.eventLog.ListByAppointment(ctx, id)
	})
}
