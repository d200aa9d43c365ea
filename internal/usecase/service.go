package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/hackgods/clinic-appointment-lifecycle/internal/appointment"
	"github.com/hackgods/clinic-appointment-lifecycle/internal/decision"
	"github.com/hackgods/clinic-appointment-lifecycle/internal/event"
	"github.com/hackgods/clinic-appointment-lifecycle/internal/eventbus"
	"github.com/hackgods/clinic-appointment-lifecycle/internal/lock"
	"github.com/hackgods/clinic-appointment-lifecycle/internal/metrics"
)

const defaultNoShowGrace = 30 * time.Minute

type Deps struct {
	Appointments appointment.Repository
	Patients     appointment.PatientRepository
	Decisions    decision.Repository
	Publisher    eventbus.Publisher
	EventLog     eventbus.EventLog

	Locker  lock.Locker
	Engine  *decision.Engine
	Logger  *slog.Logger
	Metrics *metrics.Metrics

	// Now is the clock. Timestamps are truncated to microseconds so they
	// survive a round trip through PostgreSQL unchanged.
	Now func() time.Time

	NoShowGrace time.Duration
}

// Service runs the appointment use cases. Every operation on one
// appointment holds that appointment's lock from fetch to save.
type Service struct {
	appointments appointment.Repository
	patients     appointment.PatientRepository
	decisions    decision.Repository
	publisher    eventbus.Publisher
	eventLog     eventbus.EventLog
	locker       lock.Locker
	engine       *decision.Engine
	logger       *slog.Logger
	metrics      *metrics.Metrics
	now          func() time.Time
	noShowGrace  time.Duration
}

func NewService(d Deps) *Service {
	s := &Service{
		appointments: d.Appointments,
		patients:     d.Patients,
		decisions:    d.Decisions,
		publisher:    d.Publisher,
		eventLog:     d.EventLog,
		locker:       d.Locker,
		engine:       d.Engine,
		logger:       d.Logger,
		metrics:      d.Metrics,
		now:          d.Now,
		noShowGrace:  d.NoShowGrace,
	}
	if s.publisher == nil {
		s.publisher = eventbus.NewComposite()
	}
	if s.locker == nil {
		s.locker = lock.NewKeyedMutex()
	}
	if s.engine == nil {
		s.engine = decision.NewEngine(decision.DefaultPolicy())
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	if s.now == nil {
		s.now = time.Now
	}
	if s.noShowGrace <= 0 {
		s.noShowGrace = defaultNoShowGrace
	}
	return s
}

func (s *Service) clock() time.Time {
	return storedTime(s.now())
}

// storedTime matches the precision PostgreSQL keeps for timestamptz.
func storedTime(t time.Time) time.Time {
	return t.UTC().Truncate(time.Microsecond)
}

// execute is the boundary every use case goes through: it recovers panics,
// turns errors into a failed Result and records metrics.
func execute[T any](ctx context.Context, s *Service, operation string, attrs []any, fn func(ctx context.Context) (T, error)) (res Result[T]) {
	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			s.logger.ErrorContext(ctx, "use case panicked",
				append([]any{"operation", operation, "panic", fmt.Sprint(r)}, attrs...)...)
			res = fail[T](KindUnknown, describe(operation, KindUnknown, nil))
		}
		s.metrics.IncrementOutcome(operation, string(res.Kind))
		s.metrics.ObserveUseCase(operation, time.Since(start))
	}()

	value, err := fn(ctx)
	if err != nil {
		kind := classify(err)
		logAttrs := append([]any{"operation", operation, "kind", kind, "error", err}, attrs...)
		if kind == KindUnknown {
			s.logger.ErrorContext(ctx, "use case failed", logAttrs...)
		} else {
			s.logger.InfoContext(ctx, "use case rejected", logAttrs...)
		}
		return fail[T](kind, describe(operation, kind, err))
	}
	return succeed(value)
}

// mutate is the orchestrator template: lock, fetch, apply the pure domain
// operation, publish its events in order, then save.
func (s *Service) mutate(ctx context.Context, operation string, id uuid.UUID, apply func(a *appointment.Appointment, at time.Time) (appointment.Transition, error)) Result[*appointment.Appointment] {
	return execute(ctx, s, operation, []any{"appointment_id", id}, func(ctx context.Context) (*appointment.Appointment, error) {
		var updated *appointment.Appointment
		err := s.locker.WithLock(ctx, lock.AppointmentKey(id.String()), func(ctx context.Context) error {
			a, err := s.appointments.GetAppointmentByID(ctx, id)
			if err != nil {
				return err
			}
			t, err := apply(a, s.clock())
			if err != nil {
				return err
			}
			if err := s.commit(ctx, t.Appointment, t.Events); err != nil {
				return err
			}
			updated = t.Appointment
			return nil
		})
		return updated, err
	})
}

// commit publishes events in the order produced and then saves the
// aggregate. A save failure after publishing leaves events in the log for a
// state that was not stored; it is logged with the event ids.
func (s *Service) commit(ctx context.Context, a *appointment.Appointment, events []event.Event) error {
	if err := eventbus.PublishAll(ctx, s.publisher, events); err != nil {
		return err
	}
	if err := s.appointments.SaveAppointment(ctx, a); err != nil {
		ids := make([]string, len(events))
		for i, e := range events {
			ids[i] = e.EventID().String()
		}
		s.logger.ErrorContext(ctx, "appointment not saved after its events were published",
			"appointment_id", a.ID(),
			"event_ids", ids,
			"error", err,
		)
		return err
	}
	return nil
}
