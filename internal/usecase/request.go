package usecase

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/hackgods/clinic-appointment-lifecycle/internal/appointment"
	"github.com/hackgods/clinic-appointment-lifecycle/internal/lock"
)

type RegisterPatientCommand struct {
	ID        uuid.UUID
	Name      string
	Phone     string
	BirthDate time.Time
	Recurring bool
}

func (s *Service) RegisterPatient(ctx context.Context, cmd RegisterPatientCommand) Result[*appointment.Patient] {
	return execute(ctx, s, "register patient", []any{"patient_id", cmd.ID}, func(ctx context.Context) (*appointment.Patient, error) {
		if cmd.ID == uuid.Nil {
			cmd.ID = uuid.New()
		}
		p, err := appointment.NewPatient(appointment.PatientParams{
			ID:        cmd.ID,
			Name:      cmd.Name,
			Phone:     cmd.Phone,
			BirthDate: cmd.BirthDate,
			Recurring: cmd.Recurring,
		}, s.clock())
		if err != nil {
			return nil, err
		}
		if err := s.patients.SavePatient(ctx, p); err != nil {
			return nil, err
		}
		return &p, nil
	})
}

type RequestAppointmentCommand struct {
	PatientID      uuid.UUID
	Specialty      string
	ScheduledAt    time.Time
	UrgencySignals []string
}

// RequestAppointment opens a new appointment for an existing patient.
func (s *Service) RequestAppointment(ctx context.Context, cmd RequestAppointmentCommand) Result[*appointment.Appointment] {
	return execute(ctx, s, "request appointment", []any{"patient_id", cmd.PatientID}, func(ctx context.Context) (*appointment.Appointment, error) {
		patient, err := s.patients.GetPatientByID(ctx, cmd.PatientID)
		if err != nil {
			return nil, err
		}

		t, err := appointment.Request(appointment.RequestParams{
			ID:               uuid.New(),
			PatientID:        patient.ID(),
			Specialty:        cmd.Specialty,
			ScheduledAt:      storedTime(cmd.ScheduledAt),
			UrgencySignals:   cmd.UrgencySignals,
			RecurringPatient: patient.IsRecurring(),
		}, s.clock())
		if err != nil {
			return nil, err
		}

		err = s.locker.WithLock(ctx, lock.AppointmentKey(t.Appointment.ID().String()), func(ctx context.Context) error {
			return s.commit(ctx, t.Appointment, t.Events)
		})
		if err != nil {
			return nil, err
		}
		return t.Appointment, nil
	})
}
