package decision

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/hackgods/clinic-appointment-lifecycle/internal/appointment"
)

type Action string

const (
	ActionConfirm        Action = "confirm"
	ActionMarkAttended   Action = "mark_attended"
	ActionRegisterNoShow Action = "register_no_show"
	ActionCancel         Action = "cancel"
	ActionReschedule     Action = "reschedule"
	ActionAssignPriority Action = "assign_priority"
)

// Actions lists every action the engine understands.
var Actions = []Action{ActionConfirm, ActionMarkAttended, ActionRegisterNoShow, ActionCancel, ActionReschedule, ActionAssignPriority}

func (a Action) Known() bool {
	for _, known := range Actions {
		if a == known {
			return true
		}
	}
	return false
}

// Label is the metric label for a; anything outside Actions collapses into
// "unsupported" so callers cannot mint new series.
func (a Action) Label() string {
	if a.Known() {
		return string(a)
	}
	return "unsupported"
}

func ParseAction(raw string) (Action, error) {
	a := Action(raw)
	if !a.Known() {
		return "", &appointment.ValidationError{Field: "action", Message: fmt.Sprintf("unknown action %q", raw)}
	}
	return a, nil
}

// statusActions maps lifecycle actions onto the status they reach.
var statusActions = map[Action]appointment.Status{
	ActionConfirm:        appointment.StatusConfirmed,
	ActionMarkAttended:   appointment.StatusAttended,
	ActionRegisterNoShow: appointment.StatusNoShow,
	ActionCancel:         appointment.StatusCancelled,
}

// irreversible actions always need a human.
var irreversible = map[Action]bool{
	ActionCancel:         true,
	ActionRegisterNoShow: true,
}

type AutonomyLevel string

const (
	AutoApply        AutonomyLevel = "AutoApply"
	RequiresApproval AutonomyLevel = "RequiresApproval"
	Reject           AutonomyLevel = "Reject"
)

// Context is the snapshot of everything the engine looked at. It is stored
// verbatim with a pending decision.
type Context struct {
	AppointmentID    uuid.UUID            `json:"appointment_id"`
	CurrentStatus    appointment.Status   `json:"current_status"`
	CurrentPriority  appointment.Priority `json:"current_priority"`
	PriorityOrigin   appointment.Origin   `json:"priority_origin"`
	Action           Action               `json:"action"`
	ProposedPriority appointment.Priority `json:"proposed_priority,omitempty"`
	ProposedDateTime *time.Time           `json:"proposed_date_time,omitempty"`
	Confidence       float64              `json:"confidence"`
	Signals          []string             `json:"signals,omitempty"`
	Source           string               `json:"source,omitempty"`
}

// Result is the outcome the engine proposes.
type Result struct {
	Action       Action               `json:"action"`
	TargetStatus appointment.Status   `json:"target_status,omitempty"`
	Priority     appointment.Priority `json:"priority,omitempty"`
	NewDateTime  *time.Time           `json:"new_date_time,omitempty"`
	Rationale    string               `json:"rationale"`
}

type Evaluation struct {
	Result Result
	Level  AutonomyLevel
	Reason string
}

type Policy struct {
	// AutoApplyConfidence is the minimum confidence for an action to apply
	// without a human.
	AutoApplyConfidence float64
	// RejectBelowConfidence rejects proposals outright.
	RejectBelowConfidence float64
}

func DefaultPolicy() Policy {
	return Policy{AutoApplyConfidence: 0.8, RejectBelowConfidence: 0.3}
}

// Engine decides whether an automated proposal may apply on its own.
// Evaluate is pure: no I/O and no clock.
type Engine struct {
	policy Policy
}

func NewEngine(policy Policy) *Engine {
	return &Engine{policy: policy}
}

// Evaluate applies the rules in order; the first that matches wins.
//  1. unknown or impossible actions are rejected
//  2. low-confidence proposals are rejected
//  3. irreversible actions, human-set priorities, ambiguous signals and
//     middling confidence are escalated
//  4. anything else applies automatically
func (e *Engine) Evaluate(c Context) Evaluation {
	result := Result{Action: c.Action}

	if reason := e.rejection(c); reason != "" {
		result.Rationale = reason
		return Evaluation{Result: result, Level: Reject, Reason: reason}
	}

	if target, ok := statusActions[c.Action]; ok {
		result.TargetStatus = target
	}
	switch c.Action {
	case ActionAssignPriority:
		result.Priority = c.ProposedPriority
	case ActionReschedule:
		at := *c.ProposedDateTime
		result.NewDateTime = &at
	}

	if reason := e.escalation(c); reason != "" {
		result.Rationale = reason
		return Evaluation{Result: result, Level: RequiresApproval, Reason: reason}
	}

	result.Rationale = "all automated checks passed"
	return Evaluation{Result: result, Level: AutoApply, Reason: result.Rationale}
}

func (e *Engine) rejection(c Context) string {
	switch c.Action {
	case ActionConfirm, ActionMarkAttended, ActionRegisterNoShow, ActionCancel:
	case ActionReschedule:
		if c.ProposedDateTime == nil || c.ProposedDateTime.IsZero() {
			return "a reschedule proposal needs a new date and time"
		}
	case ActionAssignPriority:
		if !c.ProposedPriority.Valid() {
			return "a priority proposal needs a valid priority"
		}
		if c.ProposedPriority == c.CurrentPriority {
			return fmt.Sprintf("priority is already %s", c.CurrentPriority)
		}
	default:
		return fmt.Sprintf("unsupported action %q", string(c.Action))
	}

	if c.CurrentStatus.IsTerminal() && c.Action != ActionAssignPriority {
		return fmt.Sprintf("appointment is already %s", c.CurrentStatus)
	}
	if target, ok := statusActions[c.Action]; ok && !reachable(c.CurrentStatus, target) {
		return fmt.Sprintf("%s is not reachable from %s", target, c.CurrentStatus)
	}
	if c.Confidence < e.policy.RejectBelowConfidence {
		return fmt.Sprintf("confidence %.2f is below the rejection threshold %.2f", c.Confidence, e.policy.RejectBelowConfidence)
	}
	return ""
}

func (e *Engine) escalation(c Context) string {
	switch {
	case irreversible[c.Action]:
		return fmt.Sprintf("%s cannot be undone and needs human approval", c.Action)
	case c.Action == ActionAssignPriority && c.PriorityOrigin == appointment.OriginHuman:
		return "the current priority was set by a human"
	case len(c.Signals) > 0:
		return "ambiguous signals: " + strings.Join(c.Signals, ", ")
	case c.Confidence < e.policy.AutoApplyConfidence:
		return fmt.Sprintf("confidence %.2f is below the auto-apply threshold %.2f", c.Confidence, e.policy.AutoApplyConfidence)
	}
	return ""
}

func reachable(from, to appointment.Status) bool {
	switch to {
	case appointment.StatusConfirmed:
		return from == appointment.StatusRequested
	case appointment.StatusAttended, appointment.StatusNoShow:
		return from == appointment.StatusConfirmed
	case appointment.StatusCancelled:
		return !from.IsTerminal()
	}
	return false
}
