package appointment

import (
	"context"

	"github.com/google/uuid"
)

// ListQuery filters appointments. Zero fields match everything.
type ListQuery struct {
	PatientID *uuid.UUID
	Status    *Status
	Limit     int
	Offset    int
}

// Repository is the storage port for appointment aggregates.
type Repository interface {
	GetAppointmentByID(ctx context.Context, id uuid.UUID) (*Appointment, error)

	// SaveAppointment stores a new aggregate or appends to an existing one.
	// It fails with ErrConcurrentUpdate when the stored version is not the
	// version the aggregate was loaded at.
	SaveAppointment(ctx context.Context, a *Appointment) error

	ListAppointments(ctx context.Context, q ListQuery) ([]*Appointment, error)
}

type PatientRepository interface {
	GetPatientByID(ctx context.Context, id uuid.UUID) (*Patient, error)
	SavePatient(ctx context.Context, p Patient) error
}
