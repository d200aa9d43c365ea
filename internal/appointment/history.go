package appointment

import (
	"fmt"
	"slices"
	"time"
)

// ordered copies entries, sorts them by timestamp and rejects duplicate
// timestamps. Every history constructor and every append goes through it.
func ordered[E any](entries []E, at func(E) time.Time) ([]E, error) {
	out := slices.Clone(entries)
	slices.SortStableFunc(out, func(a, b E) int {
		return at(a).Compare(at(b))
	})
	for i := 1; i < len(out); i++ {
		if at(out[i]).Equal(at(out[i-1])) {
			return nil, fmt.Errorf("%w: two entries share timestamp %s", ErrInvalidHistory, at(out[i]).Format(time.RFC3339Nano))
		}
	}
	for i, e := range out {
		if at(e).IsZero() {
			return nil, fmt.Errorf("%w: entry %d has no timestamp", ErrInvalidHistory, i)
		}
	}
	return out, nil
}

type StatusEntry struct {
	Status     Status
	OccurredAt time.Time
}

// StatusHistory is an append-only, strictly chronological log of status
// entries. The zero value is empty; use NewStatusHistory to build one.
type StatusHistory struct {
	entries []StatusEntry
}

// NewStatusHistory validates entries and returns them ordered by time.
func NewStatusHistory(entries []StatusEntry) (StatusHistory, error) {
	if len(entries) == 0 {
		return StatusHistory{}, fmt.Errorf("%w: a status history needs at least one entry", ErrEmptyHistory)
	}
	for _, e := range entries {
		if !e.Status.Valid() {
			return StatusHistory{}, fmt.Errorf("%w: unknown status %q", ErrInvalidHistory, string(e.Status))
		}
	}
	out, err := ordered(entries, func(e StatusEntry) time.Time { return e.OccurredAt })
	if err != nil {
		return StatusHistory{}, err
	}
	return StatusHistory{entries: out}, nil
}

// Current returns the latest entry.
func (h StatusHistory) Current() (StatusEntry, error) {
	if len(h.entries) == 0 {
		return StatusEntry{}, ErrEmptyHistory
	}
	return h.entries[len(h.entries)-1], nil
}

// Append returns a new history containing entry. h is left untouched.
func (h StatusHistory) Append(entry StatusEntry) (StatusHistory, error) {
	next := make([]StatusEntry, 0, len(h.entries)+1)
	next = append(next, h.entries...)
	return NewStatusHistory(append(next, entry))
}

// Entries returns a copy of the ordered log.
func (h StatusHistory) Entries() []StatusEntry {
	return slices.Clone(h.entries)
}

func (h StatusHistory) Len() int { return len(h.entries) }

type Origin string

const (
	OriginSystem Origin = "System"
	OriginHuman  Origin = "Human"
)

type PriorityEntry struct {
	Priority      Priority
	Origin        Origin
	OccurredAt    time.Time
	Justification string
	ModifiedBy    string
}

func (e PriorityEntry) validate() error {
	if !e.Priority.Valid() {
		return fmt.Errorf("%w: unknown priority %d", ErrInvalidHistory, int(e.Priority))
	}
	switch e.Origin {
	case OriginSystem:
	case OriginHuman:
		if isBlank(e.Justification) {
			return ErrMissingJustification
		}
		if isBlank(e.ModifiedBy) {
			return ErrMissingModifier
		}
	default:
		return fmt.Errorf("%w: unknown origin %q", ErrInvalidHistory, string(e.Origin))
	}
	return nil
}

// PriorityHistory is the priority counterpart of StatusHistory. Human
// entries always carry a justification and the identifier of who made them.
type PriorityHistory struct {
	entries []PriorityEntry
}

func NewPriorityHistory(entries []PriorityEntry) (PriorityHistory, error) {
	for _, e := range entries {
		if err := e.validate(); err != nil {
			return PriorityHistory{}, err
		}
	}
	out, err := ordered(entries, func(e PriorityEntry) time.Time { return e.OccurredAt })
	if err != nil {
		return PriorityHistory{}, err
	}
	return PriorityHistory{entries: out}, nil
}

func (h PriorityHistory) Current() (PriorityEntry, error) {
	if len(h.entries) == 0 {
		return PriorityEntry{}, ErrEmptyHistory
	}
	return h.entries[len(h.entries)-1], nil
}

func (h PriorityHistory) Append(entry PriorityEntry) (PriorityHistory, error) {
	next := make([]PriorityEntry, 0, len(h.entries)+1)
	next = append(next, h.entries...)
	return NewPriorityHistory(append(next, entry))
}

func (h PriorityHistory) Entries() []PriorityEntry {
	return slices.Clone(h.entries)
}

func (h PriorityHistory) Len() int { return len(h.entries) }
