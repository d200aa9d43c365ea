package appointment

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScorePriority(t *testing.T) {
	now := t0
	tests := []struct {
		name string
		in   PriorityInputs
		want Priority
	}{
		{
			name: "routine visit far ahead",
			in:   PriorityInputs{Specialty: "Dermatology", ScheduledAt: now.Add(30 * 24 * time.Hour), Now: now},
			want: PriorityLow,
		},
		{
			name: "cardiology in two days",
			in:   PriorityInputs{Specialty: "Cardiology", ScheduledAt: now.Add(48 * time.Hour), Now: now},
			want: PriorityNormal,
		},
		{
			name: "fever tomorrow",
			in:   PriorityInputs{Specialty: "General Practice", ScheduledAt: now.Add(20 * time.Hour), Now: now, UrgencySignals: []string{"high fever"}},
			want: PriorityHigh,
		},
		{
			name: "chest pain in cardiology today",
			in:   PriorityInputs{Specialty: "cardiology", ScheduledAt: now.Add(2 * time.Hour), Now: now, UrgencySignals: []string{"Chest-Pain"}},
			want: PriorityUrgent,
		},
		{
			name: "recurring patient tips the balance",
			in:   PriorityInputs{Specialty: "Pediatrics", ScheduledAt: now.Add(10 * 24 * time.Hour), Now: now, RecurringPatient: true},
			want: PriorityNormal,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ScorePriority(tt.in))
		})
	}
}

func TestParsePriority(t *testing.T) {
	p, err := ParsePriority("high")
	require.NoError(t, err)
	assert.Equal(t, PriorityHigh, p)

	p, err = ParsePriority("4")
	require.NoError(t, err)
	assert.Equal(t, PriorityUrgent, p)

	_, err = ParsePriority("5")
	assert.ErrorIs(t, err, ErrValidation)

	assert.Equal(t, "Unknown", Priority(0).String())
}
