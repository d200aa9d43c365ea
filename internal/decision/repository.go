package decision

import (
	"context"

	"github.com/google/uuid"
)

type Filter struct {
	AppointmentID *uuid.UUID
	Status        *Status
}

// Repository is the storage port for pending decisions.
type Repository interface {
	GetPendingDecisionByID(ctx context.Context, id uuid.UUID) (*PendingDecision, error)
	SavePendingDecision(ctx context.Context, d *PendingDecision) error

	// ResolvePendingDecision stores a resolved decision only if the stored
	// copy is still pending. The check and the write are a single atomic
	// step; a second caller gets ErrAlreadyResolved.
	ResolvePendingDecision(ctx context.Context, d *PendingDecision) error

	// ReopenPendingDecision returns a resolved decision to pending and clears
	// its resolution. It undoes a resolve whose follow-up work failed.
	ReopenPendingDecision(ctx context.Context, id uuid.UUID) error

	DeletePendingDecision(ctx context.Context, id uuid.UUID) error
	ListPendingDecisions(ctx context.Context, f Filter) ([]*PendingDecision, error)
}
