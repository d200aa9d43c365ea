package appointment

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewPatient(t *testing.T) {
	now := t0
	valid := PatientParams{
		ID:        uuid.New(),
		Name:      "  Ana Souza ",
		Phone:     "(11) 9876-5432",
		BirthDate: time.Date(1990, 5, 17, 0, 0, 0, 0, time.UTC),
	}

	t.Run("normalizes name and phone", func(t *testing.T) {
		p, err := NewPatient(valid, now)
		require.NoError(t, err)
		assert.Equal(t, "Ana Souza", p.Name())
		assert.Equal(t, "1198765432", p.Phone())
		assert.False(t, p.IsRecurring())
	})

	tests := []struct {
		name  string
		edit  func(p *PatientParams)
		field string
	}{
		{"missing id", func(p *PatientParams) { p.ID = uuid.Nil }, "id"},
		{"one letter name", func(p *PatientParams) { p.Name = " A " }, "name"},
		{"letters in phone", func(p *PatientParams) { p.Phone = "11-98ab-5432" }, "phone"},
		{"short phone", func(p *PatientParams) { p.Phone = "123-456" }, "phone"},
		{"future birth date", func(p *PatientParams) { p.BirthDate = now.Add(24 * time.Hour) }, "birth_date"},
		{"implausible age", func(p *PatientParams) { p.BirthDate = now.AddDate(-151, 0, 0) }, "birth_date"},
		{"missing birth date", func(p *PatientParams) { p.BirthDate = time.Time{} }, "birth_date"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			params := valid
			tt.edit(&params)

			_, err := NewPatient(params, now)
			var verr *ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, tt.field, verr.Field)
		})
	}
}
