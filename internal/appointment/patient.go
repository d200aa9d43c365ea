package appointment

import (
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/google/uuid"
)

const (
	minNameLength  = 2
	minPhoneDigits = 8
	maxAgeYears    = 150
)

// Patient is immutable once built; NewPatient is the only way to get a valid one.
type Patient struct {
	id        uuid.UUID
	name      string
	phone     string
	birthDate time.Time
	recurring bool
}

type PatientParams struct {
	ID        uuid.UUID
	Name      string
	Phone     string
	BirthDate time.Time
	Recurring bool
}

// NewPatient validates every field against now and fails on the first
// malformed one.
func NewPatient(p PatientParams, now time.Time) (Patient, error) {
	if p.ID == uuid.Nil {
		return Patient{}, invalid("id", "must not be empty")
	}

	name := strings.TrimSpace(p.Name)
	if utf8.RuneCountInString(name) < minNameLength {
		return Patient{}, invalid("name", "must have at least %d characters", minNameLength)
	}

	phone, err := normalizePhone(p.Phone)
	if err != nil {
		return Patient{}, err
	}

	if p.BirthDate.IsZero() {
		return Patient{}, invalid("birth_date", "is required")
	}
	if p.BirthDate.After(now) {
		return Patient{}, invalid("birth_date", "must not be in the future")
	}
	if p.BirthDate.Before(now.AddDate(-maxAgeYears, 0, 0)) {
		return Patient{}, invalid("birth_date", "must be within the last %d years", maxAgeYears)
	}

	return Patient{
		id:        p.ID,
		name:      name,
		phone:     phone,
		birthDate: p.BirthDate,
		recurring: p.Recurring,
	}, nil
}

func normalizePhone(raw string) (string, error) {
	stripped := strings.Map(func(r rune) rune {
		switch r {
		case ' ', '-', '(', ')':
			return -1
		}
		return r
	}, raw)
	for _, r := range stripped {
		if !unicode.IsDigit(r) || r > unicode.MaxASCII {
			return "", invalid("phone", "must contain only digits, spaces, dashes or parentheses")
		}
	}
	if len(stripped) < minPhoneDigits {
		return "", invalid("phone", "must have at least %d digits", minPhoneDigits)
	}
	return stripped, nil
}

func (p Patient) ID() uuid.UUID        { return p.id }
func (p Patient) Name() string         { return p.name }
func (p Patient) Phone() string        { return p.phone }
func (p Patient) BirthDate() time.Time { return p.birthDate }
func (p Patient) IsRecurring() bool    { return p.recurring }

func isBlank(s string) bool { return strings.TrimSpace(s) == "" }
