package decision

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hackgods/clinic-appointment-lifecycle/internal/appointment"
)

var created = time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)

func escalated(t *testing.T) *PendingDecision {
	t.Helper()
	c := baseContext(ActionCancel)
	eval := NewEngine(DefaultPolicy()).Evaluate(c)
	require.Equal(t, RequiresApproval, eval.Level)

	d, err := NewPendingDecision(c, eval, created)
	require.NoError(t, err)
	return d
}

func TestNewPendingDecision(t *testing.T) {
	t.Run("keeps the reason and starts pending", func(t *testing.T) {
		d := escalated(t)
		assert.Equal(t, StatusPending, d.Status())
		assert.Equal(t, "cancel cannot be undone and needs human approval", d.Reason())
		assert.Equal(t, RequiresApproval, d.AutonomyLevel())
		assert.Nil(t, d.ResolvedAt())
		assert.False(t, d.IsResolved())
	})

	t.Run("only escalations qualify", func(t *testing.T) {
		c := baseContext(ActionConfirm)
		eval := NewEngine(DefaultPolicy()).Evaluate(c)

		_, err := NewPendingDecision(c, eval, created)
		assert.ErrorIs(t, err, ErrNotEscalated)
	})

	t.Run("needs a reason", func(t *testing.T) {
		c := baseContext(ActionCancel)
		_, err := NewPendingDecision(c, Evaluation{Level: RequiresApproval, Reason: " "}, created)
		assert.ErrorIs(t, err, appointment.ErrValidation)
	})

	t.Run("needs an appointment", func(t *testing.T) {
		c := baseContext(ActionCancel)
		c.AppointmentID = uuid.Nil
		_, err := NewPendingDecision(c, Evaluation{Level: RequiresApproval, Reason: "check"}, created)
		assert.ErrorIs(t, err, appointment.ErrValidation)
	})
}

func TestPendingDecision_Resolve(t *testing.T) {
	d := escalated(t)
	at := created.Add(time.Hour)

	approved, err := d.Approve("dr-1", "looks right", at)
	require.NoError(t, err)
	assert.Equal(t, StatusApproved, approved.Status())
	assert.Equal(t, "dr-1", approved.ResolvedBy())
	assert.Equal(t, "looks right", approved.Note())
	require.NotNil(t, approved.ResolvedAt())
	assert.Equal(t, at, *approved.ResolvedAt())

	assert.Equal(t, StatusPending, d.Status())

	_, err = approved.Reject("dr-2", "", at)
	assert.ErrorIs(t, err, ErrAlreadyResolved)
}

func TestMemoryRepository_ResolveIsExactlyOnce(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryRepository()
	d := escalated(t)
	require.NoError(t, repo.SavePendingDecision(ctx, d))

	var wins atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			resolved, err := d.Approve("dr-1", "", created.Add(time.Minute))
			if err != nil {
				return
			}
			if repo.ResolvePendingDecision(ctx, resolved) == nil {
				wins.Add(1)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), wins.Load())

	stored, err := repo.GetPendingDecisionByID(ctx, d.ID())
	require.NoError(t, err)
	assert.Equal(t, StatusApproved, stored.Status())
}

func TestMemoryRepository_List(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryRepository()

	first := escalated(t)
	second := escalated(t)
	require.NoError(t, repo.SavePendingDecision(ctx, first))
	require.NoError(t, repo.SavePendingDecision(ctx, second))

	rejected, err := second.Reject("dr-1", "not now", created.Add(time.Minute))
	require.NoError(t, err)
	require.NoError(t, repo.ResolvePendingDecision(ctx, rejected))

	pending := StatusPending
	list, err := repo.ListPendingDecisions(ctx, Filter{Status: &pending})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, first.ID(), list[0].ID())

	appointmentID := second.AppointmentID()
	list, err = repo.ListPendingDecisions(ctx, Filter{AppointmentID: &appointmentID})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, StatusRejected, list[0].Status())

	require.NoError(t, repo.DeletePendingDecision(ctx, first.ID()))
	_, err = repo.GetPendingDecisionByID(ctx, first.ID())
	assert.ErrorIs(t, err, ErrPendingDecisionNotFound)
	assert.ErrorIs(t, repo.DeletePendingDecision(ctx, first.ID()), ErrPendingDecisionNotFound)
}

func TestMemoryRepository_Reopen(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryRepository()
	d := escalated(t)
	require.NoError(t, repo.SavePendingDecision(ctx, d))

	approved, err := d.Approve("dr-1", "go ahead", created.Add(time.Minute))
	require.NoError(t, err)
	require.NoError(t, repo.ResolvePendingDecision(ctx, approved))

	require.NoError(t, repo.ReopenPendingDecision(ctx, d.ID()))

	stored, err := repo.GetPendingDecisionByID(ctx, d.ID())
	require.NoError(t, err)
	assert.Equal(t, StatusPending, stored.Status())
	assert.Nil(t, stored.ResolvedAt())
	assert.Empty(t, stored.ResolvedBy())
	assert.Empty(t, stored.Note())

	again, err := stored.Approve("dr-2", "", created.Add(2*time.Minute))
	require.NoError(t, err)
	assert.NoError(t, repo.ResolvePendingDecision(ctx, again))

	assert.ErrorIs(t, repo.ReopenPendingDecision(ctx, uuid.New()), ErrPendingDecisionNotFound)
}

func TestParseStatusAndAction(t *testing.T) {
	s, err := ParseStatus("approved")
	require.NoError(t, err)
	assert.Equal(t, StatusApproved, s)

	_, err = ParseStatus("Approved")
	assert.ErrorIs(t, err, appointment.ErrValidation)

	a, err := ParseAction("register_no_show")
	require.NoError(t, err)
	assert.Equal(t, ActionRegisterNoShow, a)
	assert.Equal(t, "register_no_show", a.Label())

	_, err = ParseAction("teleport")
	assert.ErrorIs(t, err, appointment.ErrValidation)
	assert.Equal(t, "unsupported", Action("teleport").Label())
}
