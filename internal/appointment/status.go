package appointment

type Status string

const (
	StatusRequested Status = "Requested"
	StatusConfirmed Status = "Confirmed"
	StatusAttended  Status = "Attended"
	StatusNoShow    Status = "NoShow"
	StatusCancelled Status = "Cancelled"
)

// Statuses lists every lifecycle state in declaration order.
var Statuses = []Status{StatusRequested, StatusConfirmed, StatusAttended, StatusNoShow, StatusCancelled}

func (s Status) String() string { return string(s) }

// IsTerminal reports whether no further lifecycle transition is possible.
func (s Status) IsTerminal() bool {
	switch s {
	case StatusAttended, StatusNoShow, StatusCancelled:
		return true
	}
	return false
}

func (s Status) Valid() bool {
	for _, known := range Statuses {
		if s == known {
			return true
		}
	}
	return false
}

// ParseStatus accepts the canonical spelling of a status.
func ParseStatus(raw string) (Status, error) {
	s := Status(raw)
	if !s.Valid() {
		return "", invalid("status", "unknown status %q", raw)
	}
	return s, nil
}

// nonTerminal is the set Cancel and Reschedule accept.
var nonTerminal = []Status{StatusRequested, StatusConfirmed}

func guard(operation string, current Status, allowed ...Status) error {
	for _, s := range allowed {
		if current == s {
			return nil
		}
	}
	return &InvalidTransitionError{Operation: operation, Allowed: allowed, Current: current}
}

// StatusCommand is a closed set of lifecycle commands. Only the types in this
// package implement it, so a type switch over them is total.
type StatusCommand interface {
	Target() Status
	isStatusCommand()
}

type ConfirmCommand struct{}
type MarkAttendedCommand struct{}
type RegisterNoShowCommand struct{}
type CancelCommand struct{}

func (ConfirmCommand) Target() Status        { return StatusConfirmed }
func (MarkAttendedCommand) Target() Status   { return StatusAttended }
func (RegisterNoShowCommand) Target() Status { return StatusNoShow }
func (CancelCommand) Target() Status         { return StatusCancelled }

func (ConfirmCommand) isStatusCommand()        {}
func (MarkAttendedCommand) isStatusCommand()   {}
func (RegisterNoShowCommand) isStatusCommand() {}
func (CancelCommand) isStatusCommand()         {}

// CommandFor maps a target status onto the command that reaches it.
// Requested is the initial state and has no command.
func CommandFor(target Status) (StatusCommand, error) {
	switch target {
	case StatusConfirmed:
		return ConfirmCommand{}, nil
	case StatusAttended:
		return MarkAttendedCommand{}, nil
	case StatusNoShow:
		return RegisterNoShowCommand{}, nil
	case StatusCancelled:
		return CancelCommand{}, nil
	case StatusRequested:
		return nil, invalid("status", "%s is the initial state and cannot be a transition target", target)
	default:
		return nil, invalid("status", "unknown status %q", string(target))
	}
}
