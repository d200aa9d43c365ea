//go:build integration

package decision

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hackgods/clinic-appointment-lifecycle/internal/db/dbtest"
)

func TestPgRepository(t *testing.T) {
	repo := NewPgRepository(dbtest.Postgres(t))
	ctx := context.Background()

	t.Run("save and load", func(t *testing.T) {
		d := escalated(t)
		require.NoError(t, repo.SavePendingDecision(ctx, d))

		loaded, err := repo.GetPendingDecisionByID(ctx, d.ID())
		require.NoError(t, err)
		assert.Equal(t, d.AppointmentID(), loaded.AppointmentID())
		assert.Equal(t, d.Context().Action, loaded.Context().Action)
		assert.Equal(t, d.Context().Source, loaded.Context().Source)
		assert.Equal(t, d.Result(), loaded.Result())
		assert.Equal(t, RequiresApproval, loaded.AutonomyLevel())
		assert.Equal(t, d.Reason(), loaded.Reason())
		assert.Equal(t, created, loaded.CreatedAt())
		assert.Equal(t, StatusPending, loaded.Status())
		assert.Nil(t, loaded.ResolvedAt())

		_, err = repo.GetPendingDecisionByID(ctx, uuid.New())
		assert.ErrorIs(t, err, ErrPendingDecisionNotFound)
	})

	t.Run("resolves once", func(t *testing.T) {
		d := escalated(t)
		require.NoError(t, repo.SavePendingDecision(ctx, d))
		at := created.Add(time.Hour)

		approved, err := d.Approve("dr-1", "ok", at)
		require.NoError(t, err)
		rejected, err := d.Reject("dr-2", "no", at)
		require.NoError(t, err)

		require.NoError(t, repo.ResolvePendingDecision(ctx, approved))
		assert.ErrorIs(t, repo.ResolvePendingDecision(ctx, rejected), ErrAlreadyResolved)

		stored, err := repo.GetPendingDecisionByID(ctx, d.ID())
		require.NoError(t, err)
		assert.Equal(t, StatusApproved, stored.Status())
		assert.Equal(t, "dr-1", stored.ResolvedBy())
		assert.Equal(t, "ok", stored.Note())
		require.NotNil(t, stored.ResolvedAt())
		assert.Equal(t, at, *stored.ResolvedAt())
	})

	t.Run("resolving an unknown decision", func(t *testing.T) {
		approved, err := escalated(t).Approve("dr-1", "", created)
		require.NoError(t, err)
		assert.ErrorIs(t, repo.ResolvePendingDecision(ctx, approved), ErrPendingDecisionNotFound)
	})

	t.Run("reopen clears the resolution", func(t *testing.T) {
		d := escalated(t)
		require.NoError(t, repo.SavePendingDecision(ctx, d))
		rejected, err := d.Reject("dr-1", "not now", created.Add(time.Minute))
		require.NoError(t, err)
		require.NoError(t, repo.ResolvePendingDecision(ctx, rejected))

		require.NoError(t, repo.ReopenPendingDecision(ctx, d.ID()))

		stored, err := repo.GetPendingDecisionByID(ctx, d.ID())
		require.NoError(t, err)
		assert.Equal(t, StatusPending, stored.Status())
		assert.Nil(t, stored.ResolvedAt())
		assert.Empty(t, stored.ResolvedBy())
		assert.Empty(t, stored.Note())

		assert.ErrorIs(t, repo.ReopenPendingDecision(ctx, uuid.New()), ErrPendingDecisionNotFound)
	})

	t.Run("lists by appointment and status", func(t *testing.T) {
		first := escalated(t)
		c := first.Context()
		eval := NewEngine(DefaultPolicy()).Evaluate(c)
		second, err := NewPendingDecision(c, eval, created.Add(time.Minute))
		require.NoError(t, err)
		require.NoError(t, repo.SavePendingDecision(ctx, first))
		require.NoError(t, repo.SavePendingDecision(ctx, second))

		approved, err := second.Approve("dr-1", "", created.Add(time.Hour))
		require.NoError(t, err)
		require.NoError(t, repo.ResolvePendingDecision(ctx, approved))

		appointmentID := first.AppointmentID()
		all, err := repo.ListPendingDecisions(ctx, Filter{AppointmentID: &appointmentID})
		require.NoError(t, err)
		require.Len(t, all, 2)
		assert.Equal(t, first.ID(), all[0].ID())
		assert.Equal(t, second.ID(), all[1].ID())

		pending := StatusPending
		open, err := repo.ListPendingDecisions(ctx, Filter{AppointmentID: &appointmentID, Status: &pending})
		require.NoError(t, err)
		require.Len(t, open, 1)
		assert.Equal(t, first.ID(), open[0].ID())
	})

	t.Run("delete", func(t *testing.T) {
		d := escalated(t)
		require.NoError(t, repo.SavePendingDecision(ctx, d))

		require.NoError(t, repo.DeletePendingDecision(ctx, d.ID()))
		_, err := repo.GetPendingDecisionByID(ctx, d.ID())
		assert.ErrorIs(t, err, ErrPendingDecisionNotFound)
		assert.ErrorIs(t, repo.DeletePendingDecision(ctx, d.ID()), ErrPendingDecisionNotFound)
	})
}
