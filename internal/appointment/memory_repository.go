package appointment

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"
)

// MemoryRepository keeps aggregates and patients in process memory. It is
// safe for concurrent use and is what tests and STORAGE_DRIVER=memory use.
type MemoryRepository struct {
	mu           sync.RWMutex
	appointments map[uuid.UUID]*Appointment
	patients     map[uuid.UUID]Patient
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		appointments: make(map[uuid.UUID]*Appointment),
		patients:     make(map[uuid.UUID]Patient),
	}
}

func (r *MemoryRepository) GetAppointmentByID(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	a, ok := r.appointments[id]
	if !ok {
		return nil, ErrAppointmentNotFound
	}
	return a.clone(), nil
}

func (r *MemoryRepository) SaveAppointment(ctx context.Context, a *Appointment) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored, exists := r.appointments[a.id]
	switch {
	case !exists && a.version != 0:
		return ErrAppointmentNotFound
	case exists && stored.version != a.version:
		return ErrConcurrentUpdate
	}

	saved := a.clone()
	saved.version = a.version + 1
	r.appointments[a.id] = saved
	return nil
}

func (r *MemoryRepository) ListAppointments(ctx context.Context, q ListQuery) ([]*Appointment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]*Appointment, 0)
	for _, a := range r.appointments {
		if q.PatientID != nil && a.patientID != *q.PatientID {
			continue
		}
		if q.Status != nil && a.Status() != *q.Status {
			continue
		}
		result = append(result, a.clone())
	}

	sort.Slice(result, func(i, j int) bool {
		if result[i].scheduledAt.Equal(result[j].scheduledAt) {
			return result[i].id.String() < result[j].id.String()
		}
		return result[i].scheduledAt.Before(result[j].scheduledAt)
	})

	if q.Offset > 0 {
		if q.Offset >= len(result) {
			return []*Appointment{}, nil
		}
		result = result[q.Offset:]
	}
	if q.Limit > 0 && len(result) > q.Limit {
		result = result[:q.Limit]
	}
	return result, nil
}

func (r *MemoryRepository) GetPatientByID(ctx context.Context, id uuid.UUID) (*Patient, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.patients[id]
	if !ok {
		return nil, ErrPatientNotFound
	}
	return &p, nil
}

func (r *MemoryRepository) SavePatient(ctx context.Context, p Patient) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.patients[p.id] = p
	return nil
}
