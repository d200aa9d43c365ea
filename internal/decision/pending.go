package decision

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/hackgods/clinic-appointment-lifecycle/internal/appointment"
)

var (
	ErrPendingDecisionNotFound = errors.New("pending decision not found")
	ErrAlreadyResolved         = errors.New("decision has already been resolved")
	ErrNotEscalated            = errors.New("only escalated evaluations become pending decisions")
)

type Status string

const (
	StatusPending  Status = "pending"
	StatusApproved Status = "approved"
	StatusRejected Status = "rejected"
)

func ParseStatus(raw string) (Status, error) {
	switch s := Status(raw); s {
	case StatusPending, StatusApproved, StatusRejected:
		return s, nil
	}
	return "", &appointment.ValidationError{Field: "status", Message: "must be pending, approved or rejected"}
}

// PendingDecision is an escalated proposal waiting for a human. It refers to
// the appointment by id only.
type PendingDecision struct {
	id            uuid.UUID
	appointmentID uuid.UUID
	context       Context
	result        Result
	level         AutonomyLevel
	reason        string
	createdAt     time.Time
	status        Status
	resolvedAt    *time.Time
	resolvedBy    string
	note          string
}

func NewPendingDecision(c Context, eval Evaluation, createdAt time.Time) (*PendingDecision, error) {
	if eval.Level != RequiresApproval {
		return nil, ErrNotEscalated
	}
	if c.AppointmentID == uuid.Nil {
		return nil, &appointment.ValidationError{Field: "appointment_id", Message: "must not be empty"}
	}
	if strings.TrimSpace(eval.Reason) == "" {
		return nil, &appointment.ValidationError{Field: "reason", Message: "must not be empty"}
	}
	if createdAt.IsZero() {
		return nil, &appointment.ValidationError{Field: "created_at", Message: "is required"}
	}
	return &PendingDecision{
		id:            uuid.New(),
		appointmentID: c.AppointmentID,
		context:       c,
		result:        eval.Result,
		level:         eval.Level,
		reason:        eval.Reason,
		createdAt:     createdAt,
		status:        StatusPending,
	}, nil
}

func (d *PendingDecision) ID() uuid.UUID                { return d.id }
func (d *PendingDecision) AppointmentID() uuid.UUID     { return d.appointmentID }
func (d *PendingDecision) Context() Context             { return d.context }
func (d *PendingDecision) Result() Result               { return d.result }
func (d *PendingDecision) AutonomyLevel() AutonomyLevel { return d.level }
func (d *PendingDecision) Reason() string               { return d.reason }
func (d *PendingDecision) CreatedAt() time.Time         { return d.createdAt }
func (d *PendingDecision) Status() Status               { return d.status }
func (d *PendingDecision) ResolvedAt() *time.Time       { return d.resolvedAt }
func (d *PendingDecision) ResolvedBy() string           { return d.resolvedBy }
func (d *PendingDecision) Note() string                 { return d.note }

func (d *PendingDecision) IsResolved() bool { return d.status != StatusPending }

// Approve returns the resolved copy; d itself stays pending.
func (d *PendingDecision) Approve(by, note string, at time.Time) (*PendingDecision, error) {
	return d.resolve(StatusApproved, by, note, at)
}

func (d *PendingDecision) Reject(by, note string, at time.Time) (*PendingDecision, error) {
	return d.resolve(StatusRejected, by, note, at)
}

// reopened returns a pending copy of d with the resolution cleared.
func (d *PendingDecision) reopened() *PendingDecision {
	c := *d
	c.status = StatusPending
	c.resolvedAt = nil
	c.resolvedBy = ""
	c.note = ""
	return &c
}

func (d *PendingDecision) resolve(status Status, by, note string, at time.Time) (*PendingDecision, error) {
	if d.IsResolved() {
		return nil, ErrAlreadyResolved
	}
	resolved := *d
	resolved.status = status
	resolved.resolvedAt = &at
	resolved.resolvedBy = by
	resolved.note = note
	return &resolved, nil
}
