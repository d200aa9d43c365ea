package appointment

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewStatusHistory(t *testing.T) {
	t.Run("orders entries by time", func(t *testing.T) {
		h, err := NewStatusHistory([]StatusEntry{
			{Status: StatusConfirmed, OccurredAt: t0.Add(time.Hour)},
			{Status: StatusRequested, OccurredAt: t0},
		})
		require.NoError(t, err)

		current, err := h.Current()
		require.NoError(t, err)
		assert.Equal(t, StatusConfirmed, current.Status)
		assert.Equal(t, StatusRequested, h.Entries()[0].Status)
	})

	t.Run("rejects an empty log", func(t *testing.T) {
		_, err := NewStatusHistory(nil)
		assert.ErrorIs(t, err, ErrEmptyHistory)
	})

	t.Run("rejects duplicate timestamps", func(t *testing.T) {
		_, err := NewStatusHistory([]StatusEntry{
			{Status: StatusRequested, OccurredAt: t0},
			{Status: StatusConfirmed, OccurredAt: t0},
		})
		assert.ErrorIs(t, err, ErrInvalidHistory)
	})

	t.Run("rejects a zero timestamp", func(t *testing.T) {
		_, err := NewStatusHistory([]StatusEntry{{Status: StatusRequested}})
		assert.ErrorIs(t, err, ErrInvalidHistory)
	})

	t.Run("rejects an unknown status", func(t *testing.T) {
		_, err := NewStatusHistory([]StatusEntry{{Status: "Lost", OccurredAt: t0}})
		assert.ErrorIs(t, err, ErrInvalidHistory)
	})
}

func TestStatusHistory_Append(t *testing.T) {
	h, err := NewStatusHistory([]StatusEntry{{Status: StatusRequested, OccurredAt: t0}})
	require.NoError(t, err)

	next, err := h.Append(StatusEntry{Status: StatusConfirmed, OccurredAt: t0.Add(time.Minute)})
	require.NoError(t, err)

	assert.Equal(t, 1, h.Len())
	assert.Equal(t, 2, next.Len())

	entries := next.Entries()
	entries[0].Status = StatusCancelled
	assert.Equal(t, StatusRequested, next.Entries()[0].Status)
}

func TestHistory_AppendOutOfOrder(t *testing.T) {
	t.Run("status entry lands in sorted position", func(t *testing.T) {
		h, err := NewStatusHistory([]StatusEntry{
			{Status: StatusRequested, OccurredAt: t0},
			{Status: StatusCancelled, OccurredAt: t0.Add(time.Hour)},
		})
		require.NoError(t, err)

		next, err := h.Append(StatusEntry{Status: StatusConfirmed, OccurredAt: t0.Add(30 * time.Minute)})
		require.NoError(t, err)

		assert.Equal(t, []StatusEntry{
			{Status: StatusRequested, OccurredAt: t0},
			{Status: StatusConfirmed, OccurredAt: t0.Add(30 * time.Minute)},
			{Status: StatusCancelled, OccurredAt: t0.Add(time.Hour)},
		}, next.Entries())

		current, err := next.Current()
		require.NoError(t, err)
		assert.Equal(t, StatusCancelled, current.Status)
		assert.Equal(t, 2, h.Len())
	})

	t.Run("status entry before the first one", func(t *testing.T) {
		h, err := NewStatusHistory([]StatusEntry{{Status: StatusConfirmed, OccurredAt: t0}})
		require.NoError(t, err)

		next, err := h.Append(StatusEntry{Status: StatusRequested, OccurredAt: t0.Add(-time.Minute)})
		require.NoError(t, err)
		assert.Equal(t, StatusRequested, next.Entries()[0].Status)

		current, err := next.Current()
		require.NoError(t, err)
		assert.Equal(t, StatusConfirmed, current.Status)
	})

	t.Run("status entry sharing a timestamp is refused", func(t *testing.T) {
		h, err := NewStatusHistory([]StatusEntry{
			{Status: StatusRequested, OccurredAt: t0},
			{Status: StatusConfirmed, OccurredAt: t0.Add(time.Hour)},
		})
		require.NoError(t, err)

		_, err = h.Append(StatusEntry{Status: StatusCancelled, OccurredAt: t0})
		assert.ErrorIs(t, err, ErrInvalidHistory)
	})

	t.Run("priority entry lands in sorted position", func(t *testing.T) {
		h, err := NewPriorityHistory([]PriorityEntry{
			{Priority: PriorityNormal, Origin: OriginSystem, OccurredAt: t0},
			{Priority: PriorityUrgent, Origin: OriginHuman, OccurredAt: t0.Add(time.Hour), Justification: "chest pain", ModifiedBy: "dr-1"},
		})
		require.NoError(t, err)

		next, err := h.Append(PriorityEntry{Priority: PriorityHigh, Origin: OriginSystem, OccurredAt: t0.Add(10 * time.Minute)})
		require.NoError(t, err)

		entries := next.Entries()
		require.Len(t, entries, 3)
		assert.Equal(t, []Priority{PriorityNormal, PriorityHigh, PriorityUrgent},
			[]Priority{entries[0].Priority, entries[1].Priority, entries[2].Priority})

		current, err := next.Current()
		require.NoError(t, err)
		assert.Equal(t, PriorityUrgent, current.Priority)
		assert.Equal(t, OriginHuman, current.Origin)
	})
}

func TestStatusHistory_ZeroValue(t *testing.T) {
	var h StatusHistory
	_, err := h.Current()
	assert.ErrorIs(t, err, ErrEmptyHistory)
}

func TestNewPriorityHistory(t *testing.T) {
	t.Run("may be empty", func(t *testing.T) {
		h, err := NewPriorityHistory(nil)
		require.NoError(t, err)
		assert.Equal(t, 0, h.Len())

		_, err = h.Current()
		assert.ErrorIs(t, err, ErrEmptyHistory)
	})

	t.Run("human entries need a justification and a modifier", func(t *testing.T) {
		_, err := NewPriorityHistory([]PriorityEntry{{Priority: PriorityHigh, Origin: OriginHuman, OccurredAt: t0, ModifiedBy: "dr-1"}})
		assert.ErrorIs(t, err, ErrMissingJustification)

		_, err = NewPriorityHistory([]PriorityEntry{{Priority: PriorityHigh, Origin: OriginHuman, OccurredAt: t0, Justification: "triage"}})
		assert.ErrorIs(t, err, ErrMissingModifier)
	})

	t.Run("system entries need neither", func(t *testing.T) {
		_, err := NewPriorityHistory([]PriorityEntry{{Priority: PriorityLow, Origin: OriginSystem, OccurredAt: t0}})
		assert.NoError(t, err)
	})

	t.Run("rejects unknown priority and origin", func(t *testing.T) {
		_, err := NewPriorityHistory([]PriorityEntry{{Priority: 9, Origin: OriginSystem, OccurredAt: t0}})
		assert.ErrorIs(t, err, ErrInvalidHistory)

		_, err = NewPriorityHistory([]PriorityEntry{{Priority: PriorityLow, Origin: "Robot", OccurredAt: t0}})
		assert.ErrorIs(t, err, ErrInvalidHistory)
	})
}
