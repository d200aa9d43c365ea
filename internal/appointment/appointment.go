package appointment

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/hackgods/clinic-appointment-lifecycle/internal/event"
)

// Appointment is the aggregate root. It is never changed in place: every
// operation returns a new value together with the events it produced.
type Appointment struct {
	id          uuid.UUID
	patientID   uuid.UUID
	specialty   string
	scheduledAt time.Time
	createdAt   time.Time
	statuses    StatusHistory
	priorities  PriorityHistory
	version     int
}

// Transition is the outcome of a domain operation: the new aggregate and the
// events to publish, in order.
type Transition struct {
	Appointment *Appointment
	Events      []event.Event
}

type RequestParams struct {
	ID               uuid.UUID
	PatientID        uuid.UUID
	Specialty        string
	ScheduledAt      time.Time
	UrgencySignals   []string
	RecurringPatient bool
}

// Request opens a new appointment in Requested and assigns its first system
// priority.
func Request(p RequestParams, at time.Time) (Transition, error) {
	if at.IsZero() {
		return Transition{}, invalid("occurred_at", "is required")
	}
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	if p.PatientID == uuid.Nil {
		return Transition{}, invalid("patient_id", "must not be empty")
	}
	if isBlank(p.Specialty) {
		return Transition{}, invalid("specialty", "must not be empty")
	}
	if !p.ScheduledAt.After(at) {
		return Transition{}, invalid("scheduled_at", "must be in the future")
	}

	statuses, err := NewStatusHistory([]StatusEntry{{Status: StatusRequested, OccurredAt: at}})
	if err != nil {
		return Transition{}, err
	}

	priority := ScorePriority(PriorityInputs{
		Specialty:        p.Specialty,
		ScheduledAt:      p.ScheduledAt,
		Now:              at,
		UrgencySignals:   p.UrgencySignals,
		RecurringPatient: p.RecurringPatient,
	})
	priorities, err := NewPriorityHistory([]PriorityEntry{{Priority: priority, Origin: OriginSystem, OccurredAt: at}})
	if err != nil {
		return Transition{}, err
	}

	a := &Appointment{
		id:          p.ID,
		patientID:   p.PatientID,
		specialty:   p.Specialty,
		scheduledAt: p.ScheduledAt,
		createdAt:   at,
		statuses:    statuses,
		priorities:  priorities,
	}

	return Transition{
		Appointment: a,
		Events: []event.Event{
			event.AppointmentRequested{
				Base:        event.NewBase(a.id, at),
				PatientID:   a.patientID,
				Specialty:   a.specialty,
				ScheduledAt: a.scheduledAt,
			},
			event.PriorityAssignedBySystem{
				Base:     event.NewBase(a.id, at),
				Priority: priority.String(),
			},
		},
	}, nil
}

type RehydrateParams struct {
	ID          uuid.UUID
	PatientID   uuid.UUID
	Specialty   string
	ScheduledAt time.Time
	CreatedAt   time.Time
	Statuses    []StatusEntry
	Priorities  []PriorityEntry
	Version     int
}

// Rehydrate rebuilds a stored aggregate, re-running every history invariant.
func Rehydrate(p RehydrateParams) (*Appointment, error) {
	if p.ID == uuid.Nil {
		return nil, invalid("id", "must not be empty")
	}
	statuses, err := NewStatusHistory(p.Statuses)
	if err != nil {
		return nil, fmt.Errorf("appointment %s: %w", p.ID, err)
	}
	priorities, err := NewPriorityHistory(p.Priorities)
	if err != nil {
		return nil, fmt.Errorf("appointment %s: %w", p.ID, err)
	}
	return &Appointment{
		id:          p.ID,
		patientID:   p.PatientID,
		specialty:   p.Specialty,
		scheduledAt: p.ScheduledAt,
		createdAt:   p.CreatedAt,
		statuses:    statuses,
		priorities:  priorities,
		version:     p.Version,
	}, nil
}

func (a *Appointment) ID() uuid.UUID                { return a.id }
func (a *Appointment) PatientID() uuid.UUID         { return a.patientID }
func (a *Appointment) Specialty() string            { return a.specialty }
func (a *Appointment) ScheduledAt() time.Time       { return a.scheduledAt }
func (a *Appointment) CreatedAt() time.Time         { return a.createdAt }
func (a *Appointment) StatusHistory() StatusHistory { return a.statuses }
func (a *Appointment) PriorityHistory() PriorityHistory {
	return a.priorities
}

// Version is the persisted version the aggregate was loaded at; zero means
// it has never been saved.
func (a *Appointment) Version() int { return a.version }

func (a *Appointment) Status() Status {
	current, _ := a.statuses.Current()
	return current.Status
}

func (a *Appointment) Priority() Priority {
	current, _ := a.priorities.Current()
	return current.Priority
}

func (a *Appointment) PriorityOrigin() Origin {
	current, _ := a.priorities.Current()
	return current.Origin
}

func (a *Appointment) clone() *Appointment {
	c := *a
	return &c
}

func (a *Appointment) Confirm(at time.Time) (Transition, error) {
	if err := guard("confirmed", a.Status(), StatusRequested); err != nil {
		return Transition{}, err
	}
	return a.changeStatus(StatusConfirmed, at)
}

func (a *Appointment) MarkAttended(at time.Time) (Transition, error) {
	if err := guard("marked as attended", a.Status(), StatusConfirmed); err != nil {
		return Transition{}, err
	}
	return a.changeStatus(StatusAttended, at)
}

func (a *Appointment) RegisterNoShow(at time.Time) (Transition, error) {
	if err := guard("registered as a no-show", a.Status(), StatusConfirmed); err != nil {
		return Transition{}, err
	}
	return a.changeStatus(StatusNoShow, at)
}

// Cancel emits AppointmentCancelled before the status change.
func (a *Appointment) Cancel(at time.Time) (Transition, error) {
	if err := guard("cancelled", a.Status(), nonTerminal...); err != nil {
		return Transition{}, err
	}
	t, err := a.changeStatus(StatusCancelled, at)
	if err != nil {
		return Transition{}, err
	}
	cancelled := event.AppointmentCancelled{Base: event.NewBase(a.id, at)}
	t.Events = append([]event.Event{cancelled}, t.Events...)
	return t, nil
}

// Reschedule moves the appointment without touching its status.
func (a *Appointment) Reschedule(newDateTime, at time.Time) (Transition, error) {
	if err := guard("rescheduled", a.Status(), nonTerminal...); err != nil {
		return Transition{}, err
	}
	if !newDateTime.After(at) {
		return Transition{}, invalid("scheduled_at", "must be in the future")
	}
	if newDateTime.Equal(a.scheduledAt) {
		return Transition{}, invalid("scheduled_at", "is the current date and time")
	}

	next := a.clone()
	next.scheduledAt = newDateTime
	return Transition{
		Appointment: next,
		Events: []event.Event{event.AppointmentRescheduled{
			Base:             event.NewBase(a.id, at),
			PreviousDateTime: a.scheduledAt,
			NewDateTime:      newDateTime,
		}},
	}, nil
}

// Apply runs a lifecycle command. The switch is total over StatusCommand.
func (a *Appointment) Apply(cmd StatusCommand, at time.Time) (Transition, error) {
	switch cmd.(type) {
	case ConfirmCommand:
		return a.Confirm(at)
	case MarkAttendedCommand:
		return a.MarkAttended(at)
	case RegisterNoShowCommand:
		return a.RegisterNoShow(at)
	case CancelCommand:
		return a.Cancel(at)
	default:
		return Transition{}, fmt.Errorf("unsupported status command %T", cmd)
	}
}

// TransitionTo moves the appointment to target through the matching command.
func (a *Appointment) TransitionTo(target Status, at time.Time) (Transition, error) {
	cmd, err := CommandFor(target)
	if err != nil {
		return Transition{}, err
	}
	return a.Apply(cmd, at)
}

func (a *Appointment) changeStatus(next Status, at time.Time) (Transition, error) {
	latest, _ := a.statuses.Current()
	if !at.After(latest.OccurredAt) {
		return Transition{}, fmt.Errorf("%w: %s is not after the latest status change at %s",
			ErrInvalidHistory, at.Format(time.RFC3339Nano), latest.OccurredAt.Format(time.RFC3339Nano))
	}
	statuses, err := a.statuses.Append(StatusEntry{Status: next, OccurredAt: at})
	if err != nil {
		return Transition{}, err
	}

	updated := a.clone()
	updated.statuses = statuses
	return Transition{
		Appointment: updated,
		Events: []event.Event{event.AppointmentStatusChanged{
			Base:     event.NewBase(a.id, at),
			Previous: latest.Status.String(),
			Next:     next.String(),
		}},
	}, nil
}

// AssignSystemPriority records a priority computed by the system.
func (a *Appointment) AssignSystemPriority(p Priority, at time.Time) (Transition, error) {
	next, err := a.appendPriority(PriorityEntry{Priority: p, Origin: OriginSystem, OccurredAt: at})
	if err != nil {
		return Transition{}, err
	}
	return Transition{
		Appointment: next,
		Events: []event.Event{event.PriorityAssignedBySystem{
			Base:     event.NewBase(a.id, at),
			Priority: p.String(),
		}},
	}, nil
}

// OverridePriority records a human decision. It does not look at the
// lifecycle status: priority is metadata and may change in any state.
func (a *Appointment) OverridePriority(p Priority, justification, modifiedBy string, at time.Time) (Transition, error) {
	if isBlank(justification) {
		return Transition{}, ErrMissingJustification
	}
	if isBlank(modifiedBy) {
		return Transition{}, ErrMissingModifier
	}
	if !p.Valid() {
		return Transition{}, invalid("priority", "unknown priority %d", int(p))
	}

	previous := a.Priority()
	next, err := a.appendPriority(PriorityEntry{
		Priority:      p,
		Origin:        OriginHuman,
		OccurredAt:    at,
		Justification: justification,
		ModifiedBy:    modifiedBy,
	})
	if err != nil {
		return Transition{}, err
	}
	return Transition{
		Appointment: next,
		Events: []event.Event{event.PriorityOverriddenByHuman{
			Base:             event.NewBase(a.id, at),
			PreviousPriority: previous.String(),
			NewPriority:      p.String(),
			Justification:    justification,
			ModifiedBy:       modifiedBy,
		}},
	}, nil
}

func (a *Appointment) appendPriority(entry PriorityEntry) (*Appointment, error) {
	if latest, err := a.priorities.Current(); err == nil && !entry.OccurredAt.After(latest.OccurredAt) {
		return nil, fmt.Errorf("%w: %s is not after the latest priority change at %s",
			ErrInvalidHistory, entry.OccurredAt.Format(time.RFC3339Nano), latest.OccurredAt.Format(time.RFC3339Nano))
	}
	priorities, err := a.priorities.Append(entry)
	if err != nil {
		return nil, err
	}
	next := a.clone()
	next.priorities = priorities
	return next, nil
}
