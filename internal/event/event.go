// Package event holds the immutable domain event records emitted by the
// appointment aggregate and the decision workflow.
package event

import (
	"time"

	"github.com/google/uuid"
)

type Type string

const (
	TypeAppointmentRequested      Type = "appointment.requested"
	TypeAppointmentStatusChanged  Type = "appointment.status_changed"
	TypeAppointmentCancelled      Type = "appointment.cancelled"
	TypeAppointmentRescheduled    Type = "appointment.rescheduled"
	TypePriorityAssignedBySystem  Type = "appointment.priority_assigned_by_system"
	TypePriorityOverriddenByHuman Type = "appointment.priority_overridden_by_human"
	TypeDecisionEscalated         Type = "decision.escalated"
	TypeDecisionApproved          Type = "decision.approved"
	TypeDecisionRejected          Type = "decision.rejected"
	TypeDecisionRejectedByEngine  Type = "decision.rejected_by_engine"
)

// Event is implemented by value types only, so a published event can never
// be changed by whoever receives it.
type Event interface {
	EventID() uuid.UUID
	EventType() Type
	AggregateID() uuid.UUID
	OccurredAt() time.Time
}

// Base carries the fields every event shares.
type Base struct {
	ID        uuid.UUID `json:"event_id"`
	Aggregate uuid.UUID `json:"aggregate_id"`
	At        time.Time `json:"occurred_at"`
}

func NewBase(aggregateID uuid.UUID, at time.Time) Base {
	return Base{ID: uuid.New(), Aggregate: aggregateID, At: at}
}

func (b Base) EventID() uuid.UUID     { return b.ID }
func (b Base) AggregateID() uuid.UUID { return b.Aggregate }
func (b Base) OccurredAt() time.Time  { return b.At }

type AppointmentRequested struct {
	Base
	PatientID   uuid.UUID `json:"patient_id"`
	Specialty   string    `json:"specialty"`
	ScheduledAt time.Time `json:"scheduled_at"`
}

func (AppointmentRequested) EventType() Type { return TypeAppointmentRequested }

type AppointmentStatusChanged struct {
	Base
	Previous string `json:"previous"`
	Next     string `json:"next"`
}

func (AppointmentStatusChanged) EventType() Type { return TypeAppointmentStatusChanged }

type AppointmentCancelled struct {
	Base
}

func (AppointmentCancelled) EventType() Type { return TypeAppointmentCancelled }

type AppointmentRescheduled struct {
	Base
	PreviousDateTime time.Time `json:"previous_date_time"`
	NewDateTime      time.Time `json:"new_date_time"`
}

func (AppointmentRescheduled) EventType() Type { return TypeAppointmentRescheduled }

type PriorityAssignedBySystem struct {
	Base
	Priority string `json:"priority"`
}

func (PriorityAssignedBySystem) EventType() Type { return TypePriorityAssignedBySystem }

type PriorityOverriddenByHuman struct {
	Base
	PreviousPriority string `json:"previous_priority"`
	NewPriority      string `json:"new_priority"`
	Justification    string `json:"justification"`
	ModifiedBy       string `json:"modified_by"`
}

func (PriorityOverriddenByHuman) EventType() Type { return TypePriorityOverriddenByHuman }
