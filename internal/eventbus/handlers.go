package eventbus

import (
	"context"
	"log/slog"

	"github.com/hackgods/clinic-appointment-lifecycle/internal/event"
	"github.com/hackgods/clinic-appointment-lifecycle/internal/metrics"
)

// AllTypes lists every event type the core emits.
var AllTypes = []event.Type{
	event.TypeAppointmentRequested,
	event.TypeAppointmentStatusChanged,
	event.TypeAppointmentCancelled,
	event.TypeAppointmentRescheduled,
	event.TypePriorityAssignedBySystem,
	event.TypePriorityOverriddenByHuman,
	event.TypeDecisionEscalated,
	event.TypeDecisionApproved,
	event.TypeDecisionRejected,
	event.TypeDecisionRejectedByEngine,
}

// AuditLogHandlers log every event type at info level.
func AuditLogHandlers(logger *slog.Logger) []Handler {
	handlers := make([]Handler, 0, len(AllTypes))
	for _, t := range AllTypes {
		handlers = append(handlers, HandlerFunc(t, func(ctx context.Context, e event.Event) error {
			logger.InfoContext(ctx, "domain event",
				"event_type", e.EventType(),
				"event_id", e.EventID(),
				"appointment_id", e.AggregateID(),
				"occurred_at", e.OccurredAt(),
			)
			return nil
		}))
	}
	return handlers
}

// AlertHandlers raise warnings for the events staff should look at.
func AlertHandlers(logger *slog.Logger) []Handler {
	return []Handler{
		HandlerFunc(event.TypePriorityOverriddenByHuman, func(ctx context.Context, e event.Event) error {
			o, ok := e.(event.PriorityOverriddenByHuman)
			if !ok {
				return nil
			}
			logger.WarnContext(ctx, "priority overridden",
				"appointment_id", o.AggregateID(),
				"previous", o.PreviousPriority,
				"new", o.NewPriority,
				"modified_by", o.ModifiedBy,
				"justification", o.Justification,
			)
			return nil
		}),
		HandlerFunc(event.TypeDecisionEscalated, func(ctx context.Context, e event.Event) error {
			d, ok := e.(event.DecisionEscalated)
			if !ok {
				return nil
			}
			logger.WarnContext(ctx, "decision awaiting approval",
				"appointment_id", d.AggregateID(),
				"decision_id", d.DecisionID,
				"action", d.Action,
				"reason", d.Reason,
			)
			return nil
		}),
	}
}

// MetricsHandlers count published events by type.
func MetricsHandlers(m *metrics.Metrics) []Handler {
	handlers := make([]Handler, 0, len(AllTypes))
	for _, t := range AllTypes {
		handlers = append(handlers, HandlerFunc(t, func(ctx context.Context, e event.Event) error {
			m.IncrementPublished(string(e.EventType()))
			return nil
		}))
	}
	return handlers
}
