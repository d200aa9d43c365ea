package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/hackgods/clinic-appointment-lifecycle/internal/appointment"
	"github.com/hackgods/clinic-appointment-lifecycle/internal/decision"
	"github.com/hackgods/clinic-appointment-lifecycle/internal/event"
	"github.com/hackgods/clinic-appointment-lifecycle/internal/eventbus"
	"github.com/hackgods/clinic-appointment-lifecycle/internal/lock"
)

// ProposeActionCommand carries an automated proposal about one appointment.
type ProposeActionCommand struct {
	AppointmentID    uuid.UUID
	Action           decision.Action
	ProposedPriority appointment.Priority
	ProposedDateTime *time.Time
	Confidence       float64
	Signals          []string
	Source           string
}

// Proposal reports what happened to a proposal. Decision is set only when
// the engine escalated it.
type Proposal struct {
	Appointment *appointment.Appointment  `json:"appointment"`
	Level       decision.AutonomyLevel    `json:"autonomy_level"`
	Reason      string                    `json:"reason"`
	Decision    *decision.PendingDecision `json:"decision,omitempty"`
}

type ResolveDecisionCommand struct {
	DecisionID uuid.UUID
	ResolvedBy string
	Note       string
}

// ProposeAction asks the decision engine whether the proposal may apply.
// AutoApply applies it now, RequiresApproval stores a pending decision and
// leaves the appointment untouched, Reject only records the rationale.
func (s *Service) ProposeAction(ctx context.Context, cmd ProposeActionCommand) Result[Proposal] {
	return execute(ctx, s, "propose action", []any{"appointment_id", cmd.AppointmentID, "action", cmd.Action}, func(ctx context.Context) (Proposal, error) {
		var proposal Proposal
		err := s.locker.WithLock(ctx, lock.AppointmentKey(cmd.AppointmentID.String()), func(ctx context.Context) error {
			a, err := s.appointments.GetAppointmentByID(ctx, cmd.AppointmentID)
			if err != nil {
				return err
			}
			proposal, err = s.propose(ctx, a, cmd)
			return err
		})
		return proposal, err
	})
}

func (s *Service) propose(ctx context.Context, a *appointment.Appointment, cmd ProposeActionCommand) (Proposal, error) {
	if cmd.ProposedDateTime != nil {
		at := storedTime(*cmd.ProposedDateTime)
		cmd.ProposedDateTime = &at
	}
	dc := decision.Context{
		AppointmentID:    a.ID(),
		CurrentStatus:    a.Status(),
		CurrentPriority:  a.Priority(),
		PriorityOrigin:   a.PriorityOrigin(),
		Action:           cmd.Action,
		ProposedPriority: cmd.ProposedPriority,
		ProposedDateTime: cmd.ProposedDateTime,
		Confidence:       cmd.Confidence,
		Signals:          cmd.Signals,
		Source:           cmd.Source,
	}
	eval := s.engine.Evaluate(dc)
	s.metrics.IncrementVerdict(string(eval.Level), cmd.Action.Label())
	now := s.clock()

	switch eval.Level {
	case decision.AutoApply:
		t, err := applyResult(a, eval.Result, now)
		if err != nil {
			return Proposal{}, err
		}
		if err := s.commit(ctx, t.Appointment, t.Events); err != nil {
			return Proposal{}, err
		}
		return Proposal{Appointment: t.Appointment, Level: eval.Level, Reason: eval.Reason}, nil

	case decision.RequiresApproval:
		pd, err := decision.NewPendingDecision(dc, eval, now)
		if err != nil {
			return Proposal{}, err
		}
		escalated := event.DecisionEscalated{
			Base:       event.NewBase(a.ID(), now),
			DecisionID: pd.ID(),
			Action:     string(cmd.Action),
			Reason:     eval.Reason,
		}
		if err := s.publisher.Publish(ctx, escalated); err != nil {
			return Proposal{}, err
		}
		if err := s.decisions.SavePendingDecision(ctx, pd); err != nil {
			return Proposal{}, err
		}
		return Proposal{Appointment: a, Level: eval.Level, Reason: eval.Reason, Decision: pd}, nil

	case decision.Reject:
		rejected := event.DecisionRejectedByEngine{
			Base:      event.NewBase(a.ID(), now),
			Action:    string(cmd.Action),
			Rationale: eval.Reason,
		}
		if err := s.publisher.Publish(ctx, rejected); err != nil {
			return Proposal{}, err
		}
		return Proposal{Appointment: a, Level: eval.Level, Reason: eval.Reason}, nil
	}
	return Proposal{}, fmt.Errorf("unknown autonomy level %q", eval.Level)
}

// applyResult replays an engine result through the ordinary aggregate
// operations, so approved decisions obey the same guards as direct calls.
func applyResult(a *appointment.Appointment, r decision.Result, at time.Time) (appointment.Transition, error) {
	switch r.Action {
	case decision.ActionConfirm, decision.ActionMarkAttended, decision.ActionRegisterNoShow, decision.ActionCancel:
		return a.TransitionTo(r.TargetStatus, at)
	case decision.ActionReschedule:
		if r.NewDateTime == nil {
			return appointment.Transition{}, &appointment.ValidationError{Field: "new_date_time", Message: "is required"}
		}
		return a.Reschedule(storedTime(*r.NewDateTime), at)
	case decision.ActionAssignPriority:
		return a.AssignSystemPriority(r.Priority, at)
	}
	return appointment.Transition{}, fmt.Errorf("unsupported decision action %q", r.Action)
}

// ApproveDecision applies a pending decision exactly once. The decision is
// claimed with an atomic resolve before anything is published or saved; a
// concurrent or repeated approval loses that race and fails. If the commit
// fails the decision goes back to pending.
func (s *Service) ApproveDecision(ctx context.Context, cmd ResolveDecisionCommand) Result[*appointment.Appointment] {
	return execute(ctx, s, "approve decision", []any{"decision_id", cmd.DecisionID}, func(ctx context.Context) (*appointment.Appointment, error) {
		if err := requireResolver(cmd); err != nil {
			return nil, err
		}
		var updated *appointment.Appointment
		err := s.locker.WithLock(ctx, lock.DecisionKey(cmd.DecisionID.String()), func(ctx context.Context) error {
			pd, err := s.openDecision(ctx, cmd.DecisionID)
			if err != nil {
				return err
			}

			return s.locker.WithLock(ctx, lock.AppointmentKey(pd.AppointmentID().String()), func(ctx context.Context) error {
				a, err := s.appointments.GetAppointmentByID(ctx, pd.AppointmentID())
				if err != nil {
					return err
				}
				now := s.clock()
				t, err := applyResult(a, pd.Result(), now)
				if err != nil {
					return err
				}

				resolved, err := pd.Approve(cmd.ResolvedBy, cmd.Note, now)
				if err != nil {
					return err
				}
				if err := s.decisions.ResolvePendingDecision(ctx, resolved); err != nil {
					return err
				}

				approved := event.DecisionApproved{
					Base:       event.NewBase(a.ID(), now),
					DecisionID: pd.ID(),
					Action:     string(pd.Result().Action),
					ApprovedBy: cmd.ResolvedBy,
					Note:       cmd.Note,
				}
				if err := s.commit(ctx, t.Appointment, append(t.Events, approved)); err != nil {
					s.reopen(ctx, pd.ID(), err)
					return err
				}
				updated = t.Appointment
				return nil
			})
		})
		return updated, err
	})
}

// RejectDecision discards a pending decision without touching the
// appointment and publishes the resolution for audit.
func (s *Service) RejectDecision(ctx context.Context, cmd ResolveDecisionCommand) Result[*decision.PendingDecision] {
	return execute(ctx, s, "reject decision", []any{"decision_id", cmd.DecisionID}, func(ctx context.Context) (*decision.PendingDecision, error) {
		if err := requireResolver(cmd); err != nil {
			return nil, err
		}
		var resolved *decision.PendingDecision
		err := s.locker.WithLock(ctx, lock.DecisionKey(cmd.DecisionID.String()), func(ctx context.Context) error {
			pd, err := s.openDecision(ctx, cmd.DecisionID)
			if err != nil {
				return err
			}
			now := s.clock()
			resolved, err = pd.Reject(cmd.ResolvedBy, cmd.Note, now)
			if err != nil {
				return err
			}
			if err := s.decisions.ResolvePendingDecision(ctx, resolved); err != nil {
				return err
			}
			err = eventbus.PublishAll(ctx, s.publisher, []event.Event{event.DecisionRejected{
				Base:       event.NewBase(pd.AppointmentID(), now),
				DecisionID: pd.ID(),
				Action:     string(pd.Result().Action),
				RejectedBy: cmd.ResolvedBy,
				Note:       cmd.Note,
			}})
			if err != nil {
				s.reopen(ctx, pd.ID(), err)
				resolved = nil
			}
			return err
		})
		return resolved, err
	})
}

// reopen puts a decision back to pending after the work that followed its
// resolution failed, so the caller can retry. It runs under the decision lock.
func (s *Service) reopen(ctx context.Context, id uuid.UUID, cause error) {
	if err := s.decisions.ReopenPendingDecision(context.WithoutCancel(ctx), id); err != nil {
		s.logger.ErrorContext(ctx, "decision left resolved after a failed commit",
			"decision_id", id,
			"cause", cause,
			"error", err,
		)
	}
}

func requireResolver(cmd ResolveDecisionCommand) error {
	if strings.TrimSpace(cmd.ResolvedBy) == "" {
		return &appointment.ValidationError{Field: "resolved_by", Message: "must not be empty"}
	}
	return nil
}

func (s *Service) openDecision(ctx context.Context, id uuid.UUID) (*decision.PendingDecision, error) {
	pd, err := s.decisions.GetPendingDecisionByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if pd.IsResolved() {
		return nil, decision.ErrAlreadyResolved
	}
	return pd, nil
}
