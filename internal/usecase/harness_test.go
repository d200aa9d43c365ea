package usecase

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"

	"github.com/hackgods/clinic-appointment-lifecycle/internal/appointment"
	"github.com/hackgods/clinic-appointment-lifecycle/internal/decision"
	"github.com/hackgods/clinic-appointment-lifecycle/internal/event"
	"github.com/hackgods/clinic-appointment-lifecycle/internal/eventbus"
	"github.com/hackgods/clinic-appointment-lifecycle/internal/metrics"
)

var t0 = time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)

// journal records publishes and saves in the order they happen.
type journal struct {
	mu      sync.Mutex
	entries []string
}

func (j *journal) add(entry string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.entries = append(j.entries, entry)
}

func (j *journal) list() []string {
	j.mu.Lock()
	defer j.mu.Unlock()
	return append([]string(nil), j.entries...)
}

func (j *journal) reset() {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.entries = nil
}

type recordingPublisher struct {
	journal *journal
	mu      sync.Mutex
	events  []event.Event
	err     error
	panics  bool
}

func (p *recordingPublisher) Publish(ctx context.Context, e event.Event) error {
	if p.panics {
		panic("publisher exploded")
	}
	if p.err != nil {
		return p.err
	}
	p.mu.Lock()
	p.events = append(p.events, e)
	p.mu.Unlock()
	p.journal.add("publish " + string(e.EventType()))
	return nil
}

func (p *recordingPublisher) published() []event.Event {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]event.Event(nil), p.events...)
}

func (p *recordingPublisher) reset() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = nil
}

type recordingRepository struct {
	*appointment.MemoryRepository
	journal *journal
	err     error
}

func (r *recordingRepository) SaveAppointment(ctx context.Context, a *appointment.Appointment) error {
	if r.err != nil {
		return r.err
	}
	r.journal.add("save " + a.Status().String())
	return r.MemoryRepository.SaveAppointment(ctx, a)
}

// fakeClock ticks one second on every read so successive operations get
// strictly increasing timestamps.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(time.Second)
	return c.now
}

func (c *fakeClock) advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type harness struct {
	svc       *Service
	journal   *journal
	publisher *recordingPublisher
	repo      *recordingRepository
	decisions *decision.MemoryRepository
	log       *eventbus.MemoryEventLog
	metrics   *metrics.Metrics
	clock     *fakeClock
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	j := &journal{}
	h := &harness{
		journal:   j,
		publisher: &recordingPublisher{journal: j},
		repo:      &recordingRepository{MemoryRepository: appointment.NewMemoryRepository(), journal: j},
		decisions: decision.NewMemoryRepository(),
		log:       eventbus.NewMemoryEventLog(),
		metrics:   metrics.New(prometheus.NewRegistry()),
		clock:     &fakeClock{now: t0},
	}
	h.svc = NewService(Deps{
		Appointments: h.repo,
		Patients:     h.repo,
		Decisions:    h.decisions,
		Publisher:    eventbus.NewComposite(eventbus.NewLogSink(h.log), h.publisher),
		EventLog:     h.log,
		Logger:       slog.New(slog.NewTextHandler(io.Discard, nil)),
		Metrics:      h.metrics,
		Now:          h.clock.Now,
	})
	return h
}

// requested registers a patient, opens an appointment two days out and
// clears the journal.
func (h *harness) requested(t *testing.T) *appointment.Appointment {
	t.Helper()
	ctx := context.Background()

	p := h.svc.RegisterPatient(ctx, RegisterPatientCommand{
		Name:      "Joana Prado",
		Phone:     "11 98765-4321",
		BirthDate: time.Date(1980, 1, 15, 0, 0, 0, 0, time.UTC),
	})
	require.True(t, p.OK, p.Error)

	res := h.svc.RequestAppointment(ctx, RequestAppointmentCommand{
		PatientID:   p.Value.ID(),
		Specialty:   "Cardiology",
		ScheduledAt: t0.Add(48 * time.Hour),
	})
	require.True(t, res.OK, res.Error)

	h.journal.reset()
	h.publisher.reset()
	return res.Value
}

func (h *harness) confirmed(t *testing.T) *appointment.Appointment {
	t.Helper()
	a := h.requested(t)
	res := h.svc.Confirm(context.Background(), AppointmentCommand{AppointmentID: a.ID()})
	require.True(t, res.OK, res.Error)

	h.journal.reset()
	h.publisher.reset()
	return res.Value
}

func (h *harness) stored(t *testing.T, id uuid.UUID) *appointment.Appointment {
	t.Helper()
	a, err := h.repo.GetAppointmentByID(context.Background(), id)
	require.NoError(t, err)
	return a
}
