//go:build integration

package eventbus

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hackgods/clinic-appointment-lifecycle/internal/db/dbtest"
	"github.com/hackgods/clinic-appointment-lifecycle/internal/event"
)

func TestPgEventLog(t *testing.T) {
	ctx := context.Background()
	log := NewPgEventLog(dbtest.Postgres(t))
	sink := NewLogSink(log)
	id := uuid.New()

	first := statusChanged(id)
	second := event.AppointmentCancelled{Base: event.NewBase(id, time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC))}
	require.NoError(t, sink.Publish(ctx, first))
	require.NoError(t, sink.Publish(ctx, second))
	require.NoError(t, sink.Publish(ctx, statusChanged(uuid.New())))

	t.Run("lists one appointment in append order", func(t *testing.T) {
		records, err := log.ListByAppointment(ctx, id)
		require.NoError(t, err)
		require.Len(t, records, 2)

		assert.Equal(t, first.EventID(), records[0].EventID)
		assert.Equal(t, event.TypeAppointmentStatusChanged, records[0].EventType)
		assert.Equal(t, first.OccurredAt(), records[0].OccurredAt)
		assert.Equal(t, second.EventID(), records[1].EventID)
		assert.Equal(t, event.TypeAppointmentCancelled, records[1].EventType)
		assert.Less(t, records[0].ID, records[1].ID)

		var payload map[string]any
		require.NoError(t, json.Unmarshal(records[0].Payload, &payload))
		assert.Equal(t, "Confirmed", payload["next"])
	})

	t.Run("a replayed event is stored once", func(t *testing.T) {
		require.NoError(t, sink.Publish(ctx, first))

		records, err := log.ListByAppointment(ctx, id)
		require.NoError(t, err)
		assert.Len(t, records, 2)
	})

	t.Run("unknown appointment", func(t *testing.T) {
		records, err := log.ListByAppointment(ctx, uuid.New())
		require.NoError(t, err)
		assert.Empty(t, records)
	})
}
