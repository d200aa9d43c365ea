package usecase

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hackgods/clinic-appointment-lifecycle/internal/appointment"
	"github.com/hackgods/clinic-appointment-lifecycle/internal/event"
)

func TestRegisterPatient(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)

	res := h.svc.RegisterPatient(ctx, RegisterPatientCommand{
		Name:      "Rui Lima",
		Phone:     "(21) 3456-7890",
		BirthDate: time.Date(1975, 8, 3, 0, 0, 0, 0, time.UTC),
		Recurring: true,
	})
	require.True(t, res.OK, res.Error)
	assert.NotEqual(t, uuid.Nil, res.Value.ID())
	assert.True(t, res.Value.IsRecurring())

	bad := h.svc.RegisterPatient(ctx, RegisterPatientCommand{Name: "R", Phone: "(21) 3456-7890", BirthDate: time.Date(1975, 8, 3, 0, 0, 0, 0, time.UTC)})
	assert.Equal(t, KindValidation, bad.Kind)
	assert.Contains(t, bad.Error, "name")
}

func TestRequestAppointment(t *testing.T) {
	ctx := context.Background()

	t.Run("publishes request and priority then saves", func(t *testing.T) {
		h := newHarness(t)
		p := h.svc.RegisterPatient(ctx, RegisterPatientCommand{
			Name:      "Rui Lima",
			Phone:     "(21) 3456-7890",
			BirthDate: time.Date(1975, 8, 3, 0, 0, 0, 0, time.UTC),
		})
		require.True(t, p.OK, p.Error)

		res := h.svc.RequestAppointment(ctx, RequestAppointmentCommand{
			PatientID:      p.Value.ID(),
			Specialty:      "Cardiology",
			ScheduledAt:    t0.Add(3 * time.Hour),
			UrgencySignals: []string{"chest_pain"},
		})

		require.True(t, res.OK, res.Error)
		assert.Equal(t, appointment.StatusRequested, res.Value.Status())
		assert.Equal(t, appointment.PriorityUrgent, res.Value.Priority())
		assert.Equal(t, []string{
			"publish " + string(event.TypeAppointmentRequested),
			"publish " + string(event.TypePriorityAssignedBySystem),
			"save Requested",
		}, h.journal.list())
	})

	t.Run("unknown patient", func(t *testing.T) {
		h := newHarness(t)
		res := h.svc.RequestAppointment(ctx, RequestAppointmentCommand{
			PatientID:   uuid.New(),
			Specialty:   "Cardiology",
			ScheduledAt: t0.Add(3 * time.Hour),
		})
		assert.Equal(t, KindNotFound, res.Kind)
		assert.Empty(t, h.journal.list())
	})
}

func TestQueries(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	a := h.confirmed(t)

	got := h.svc.GetAppointment(ctx, a.ID())
	require.True(t, got.OK, got.Error)
	assert.Equal(t, appointment.StatusConfirmed, got.Value.Status())

	confirmed := appointment.StatusConfirmed
	list := h.svc.ListAppointments(ctx, appointment.ListQuery{Status: &confirmed, Limit: 1000})
	require.True(t, list.OK, list.Error)
	assert.Len(t, list.Value, 1)

	trail := h.svc.AuditTrail(ctx, a.ID())
	require.True(t, trail.OK, trail.Error)
	var types []event.Type
	for _, r := range trail.Value {
		types = append(types, r.EventType)
	}
	assert.Equal(t, []event.Type{
		event.TypeAppointmentRequested,
		event.TypePriorityAssignedBySystem,
		event.TypeAppointmentStatusChanged,
	}, types)

	missing := h.svc.AuditTrail(ctx, uuid.New())
	assert.Equal(t, KindNotFound, missing.Kind)
}
