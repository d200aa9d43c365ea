package decision

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"
)

type MemoryRepository struct {
	mu        sync.Mutex
	decisions map[uuid.UUID]*PendingDecision
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{decisions: make(map[uuid.UUID]*PendingDecision)}
}

func (r *MemoryRepository) GetPendingDecisionByID(ctx context.Context, id uuid.UUID) (*PendingDecision, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	d, ok := r.decisions[id]
	if !ok {
		return nil, ErrPendingDecisionNotFound
	}
	c := *d
	return &c, nil
}

func (r *MemoryRepository) SavePendingDecision(ctx context.Context, d *PendingDecision) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	c := *d
	r.decisions[d.id] = &c
	return nil
}

func (r *MemoryRepository) ResolvePendingDecision(ctx context.Context, d *PendingDecision) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored, ok := r.decisions[d.id]
	if !ok {
		return ErrPendingDecisionNotFound
	}
	if stored.IsResolved() {
		return ErrAlreadyResolved
	}
	c := *d
	r.decisions[d.id] = &c
	return nil
}

func (r *MemoryRepository) ReopenPendingDecision(ctx context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored, ok := r.decisions[id]
	if !ok {
		return ErrPendingDecisionNotFound
	}
	r.decisions[id] = stored.reopened()
	return nil
}

func (r *MemoryRepository) DeletePendingDecision(ctx context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.decisions[id]; !ok {
		return ErrPendingDecisionNotFound
	}
	delete(r.decisions, id)
	return nil
}

func (r *MemoryRepository) ListPendingDecisions(ctx context.Context, f Filter) ([]*PendingDecision, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	result := make([]*PendingDecision, 0)
	for _, d := range r.decisions {
		if f.AppointmentID != nil && d.appointmentID != *f.AppointmentID {
			continue
		}
		if f.Status != nil && d.status != *f.Status {
			continue
		}
		c := *d
		result = append(result, &c)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].createdAt.Before(result[j].createdAt)
	})
	return result, nil
}
