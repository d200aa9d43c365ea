package event

import "github.com/google/uuid"

// Decision events use the appointment id as aggregate id so the audit trail
// of an appointment includes the decisions taken about it.

type DecisionEscalated struct {
	Base
	DecisionID uuid.UUID `json:"decision_id"`
	Action     string    `json:"action"`
	Reason     string    `json:"reason"`
}

func (DecisionEscalated) EventType() Type { return TypeDecisionEscalated }

type DecisionApproved struct {
	Base
	DecisionID uuid.UUID `json:"decision_id"`
	Action     string    `json:"action"`
	ApprovedBy string    `json:"approved_by,omitempty"`
	Note       string    `json:"note,omitempty"`
}

func (DecisionApproved) EventType() Type { return TypeDecisionApproved }

type DecisionRejected struct {
	Base
	DecisionID uuid.UUID `json:"decision_id"`
	Action     string    `json:"action"`
	RejectedBy string    `json:"rejected_by,omitempty"`
	Note       string    `json:"note,omitempty"`
}

func (DecisionRejected) EventType() Type { return TypeDecisionRejected }

type DecisionRejectedByEngine struct {
	Base
	Action    string `json:"action"`
	Rationale string `json:"rationale"`
}

func (DecisionRejectedByEngine) EventType() Type { return TypeDecisionRejectedByEngine }
