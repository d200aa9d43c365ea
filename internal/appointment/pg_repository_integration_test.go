//go:build integration

package appointment

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hackgods/clinic-appointment-lifecycle/internal/db/dbtest"
)

func savedPatient(t *testing.T, repo *PgRepository) Patient {
	t.Helper()
	p, err := NewPatient(PatientParams{
		ID:        uuid.New(),
		Name:      "Joana Prado",
		Phone:     "11 98765-4321",
		BirthDate: time.Date(1984, 5, 17, 0, 0, 0, 0, time.UTC),
		Recurring: true,
	}, t0)
	require.NoError(t, err)
	require.NoError(t, repo.SavePatient(context.Background(), p))
	return p
}

func requestedFor(t *testing.T, patientID uuid.UUID, scheduledAt time.Time) *Appointment {
	t.Helper()
	tr, err := Request(RequestParams{
		PatientID:   patientID,
		Specialty:   "Cardiology",
		ScheduledAt: scheduledAt,
	}, t0)
	require.NoError(t, err)
	return tr.Appointment
}

func TestPgRepository(t *testing.T) {
	repo := NewPgRepository(dbtest.Postgres(t))
	ctx := context.Background()

	t.Run("patient round trip", func(t *testing.T) {
		p := savedPatient(t, repo)

		loaded, err := repo.GetPatientByID(ctx, p.ID())
		require.NoError(t, err)
		assert.Equal(t, p.Name(), loaded.Name())
		assert.Equal(t, p.Phone(), loaded.Phone())
		assert.True(t, loaded.BirthDate().Equal(p.BirthDate()))
		assert.True(t, loaded.IsRecurring())

		_, err = repo.GetPatientByID(ctx, uuid.New())
		assert.ErrorIs(t, err, ErrPatientNotFound)
	})

	t.Run("aggregate round trip keeps both histories", func(t *testing.T) {
		p := savedPatient(t, repo)
		a := requestedFor(t, p.ID(), t0.Add(48*time.Hour))
		require.NoError(t, repo.SaveAppointment(ctx, a))

		loaded, err := repo.GetAppointmentByID(ctx, a.ID())
		require.NoError(t, err)
		assert.Equal(t, 1, loaded.Version())

		tr, err := loaded.Confirm(t0.Add(time.Minute))
		require.NoError(t, err)
		tr, err = tr.Appointment.OverridePriority(PriorityUrgent, "chest pain", "dr-1", t0.Add(2*time.Minute))
		require.NoError(t, err)
		require.NoError(t, repo.SaveAppointment(ctx, tr.Appointment))

		stored, err := repo.GetAppointmentByID(ctx, a.ID())
		require.NoError(t, err)
		assert.Equal(t, 2, stored.Version())
		assert.Equal(t, StatusConfirmed, stored.Status())
		assert.Equal(t, PriorityUrgent, stored.Priority())
		assert.Equal(t, OriginHuman, stored.PriorityOrigin())
		assert.Equal(t, time.UTC, stored.ScheduledAt().Location())
		assert.True(t, stored.ScheduledAt().Equal(a.ScheduledAt()))
		assert.Equal(t, tr.Appointment.StatusHistory().Entries(), stored.StatusHistory().Entries())
		assert.Equal(t, tr.Appointment.PriorityHistory().Entries(), stored.PriorityHistory().Entries())
	})

	t.Run("rejects a stale version", func(t *testing.T) {
		p := savedPatient(t, repo)
		a := requestedFor(t, p.ID(), t0.Add(24*time.Hour))
		require.NoError(t, repo.SaveAppointment(ctx, a))
		assert.ErrorIs(t, repo.SaveAppointment(ctx, a), ErrConcurrentUpdate)

		loaded, err := repo.GetAppointmentByID(ctx, a.ID())
		require.NoError(t, err)
		first, err := loaded.Confirm(t0.Add(time.Minute))
		require.NoError(t, err)
		second, err := loaded.Cancel(t0.Add(2 * time.Minute))
		require.NoError(t, err)

		require.NoError(t, repo.SaveAppointment(ctx, first.Appointment))
		assert.ErrorIs(t, repo.SaveAppointment(ctx, second.Appointment), ErrConcurrentUpdate)

		stored, err := repo.GetAppointmentByID(ctx, a.ID())
		require.NoError(t, err)
		assert.Equal(t, StatusConfirmed, stored.Status())
		assert.Equal(t, 2, stored.StatusHistory().Len())
	})

	t.Run("unknown id", func(t *testing.T) {
		_, err := repo.GetAppointmentByID(ctx, uuid.New())
		assert.ErrorIs(t, err, ErrAppointmentNotFound)
	})

	t.Run("lists by patient in schedule order with paging", func(t *testing.T) {
		p := savedPatient(t, repo)
		var ids []uuid.UUID
		for i := 0; i < 4; i++ {
			a := requestedFor(t, p.ID(), t0.Add(time.Duration(4-i)*time.Hour))
			require.NoError(t, repo.SaveAppointment(ctx, a))
			ids = append([]uuid.UUID{a.ID()}, ids...)
		}
		patientID := p.ID()

		all, err := repo.ListAppointments(ctx, ListQuery{PatientID: &patientID})
		require.NoError(t, err)
		require.Len(t, all, 4)
		for i, a := range all {
			assert.Equal(t, ids[i], a.ID())
		}

		page, err := repo.ListAppointments(ctx, ListQuery{PatientID: &patientID, Limit: 2, Offset: 1})
		require.NoError(t, err)
		require.Len(t, page, 2)
		assert.Equal(t, ids[1], page[0].ID())
		assert.Equal(t, ids[2], page[1].ID())

		status := StatusConfirmed
		none, err := repo.ListAppointments(ctx, ListQuery{PatientID: &patientID, Status: &status})
		require.NoError(t, err)
		assert.Empty(t, none)
	})
}
