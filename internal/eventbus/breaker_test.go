package eventbus

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hackgods/clinic-appointment-lifecycle/internal/event"
)

func TestBreakerPublisher_OpensAfterConsecutiveFailures(t *testing.T) {
	brokerDown := errors.New("connection refused")
	calls := 0
	next := PublisherFunc(func(ctx context.Context, e event.Event) error {
		calls++
		return brokerDown
	})

	b := NewBreakerPublisher(next, BreakerSettings{Name: "rabbitmq", FailureThreshold: 2, OpenTimeout: time.Minute}, nil)
	e := event.AppointmentCancelled{Base: event.NewBase(uuid.New(), time.Now())}

	require.ErrorIs(t, b.Publish(context.Background(), e), brokerDown)
	require.ErrorIs(t, b.Publish(context.Background(), e), brokerDown)
	assert.Equal(t, "open", b.State())

	err := b.Publish(context.Background(), e)
	require.ErrorIs(t, err, ErrStageUnavailable)
	assert.Equal(t, 2, calls, "open breaker must not reach the stage")
}

func TestBreakerPublisher_PassesThroughWhenHealthy(t *testing.T) {
	var got []event.Type
	next := PublisherFunc(func(ctx context.Context, e event.Event) error {
		got = append(got, e.EventType())
		return nil
	})

	b := NewBreakerPublisher(next, BreakerSettings{Name: "rabbitmq"}, nil)
	id := uuid.New()
	require.NoError(t, b.Publish(context.Background(), event.AppointmentCancelled{Base: event.NewBase(id, time.Now())}))
	require.NoError(t, b.Publish(context.Background(), event.AppointmentRescheduled{Base: event.NewBase(id, time.Now())}))

	assert.Equal(t, []event.Type{event.TypeAppointmentCancelled, event.TypeAppointmentRescheduled}, got)
	assert.Equal(t, "closed", b.State())
}
