package appointment

import (
	"strings"
	"time"
)

type Priority int

const (
	PriorityLow Priority = iota + 1
	PriorityNormal
	PriorityHigh
	PriorityUrgent
)

var priorityNames = map[Priority]string{
	PriorityLow:    "Low",
	PriorityNormal: "Normal",
	PriorityHigh:   "High",
	PriorityUrgent: "Urgent",
}

func (p Priority) String() string {
	if name, ok := priorityNames[p]; ok {
		return name
	}
	return "Unknown"
}

func (p Priority) Valid() bool {
	_, ok := priorityNames[p]
	return ok
}

// ParsePriority accepts either the name ("High") or the numeric level ("3").
func ParsePriority(raw string) (Priority, error) {
	raw = strings.TrimSpace(raw)
	for p, name := range priorityNames {
		if strings.EqualFold(raw, name) {
			return p, nil
		}
	}
	if len(raw) == 1 && raw[0] >= '1' && raw[0] <= '4' {
		return Priority(raw[0] - '0'), nil
	}
	return 0, invalid("priority", "unknown priority %q", raw)
}

// PriorityInputs are the appointment attributes the system scores.
type PriorityInputs struct {
	Specialty        string
	ScheduledAt      time.Time
	Now              time.Time
	UrgencySignals   []string
	RecurringPatient bool
}

var urgencyWeights = map[string]int{
	"chest_pain":         4,
	"breathing_distress": 4,
	"severe_bleeding":    4,
	"high_fever":         2,
	"post_surgery":       2,
	"pregnancy":          2,
	"persistent_pain":    1,
	"follow_up":          0,
}

var specialtyWeights = map[string]int{
	"cardiology": 2,
	"oncology":   2,
	"neurology":  2,
	"pediatrics": 1,
	"obstetrics": 1,
}

// ScorePriority maps appointment attributes to a system priority. It is a pure
// function: the same inputs always give the same priority.
func ScorePriority(in PriorityInputs) Priority {
	score := 0
	for _, signal := range in.UrgencySignals {
		score += urgencyWeights[normalizeKey(signal)]
	}
	score += specialtyWeights[normalizeKey(in.Specialty)]

	if !in.ScheduledAt.IsZero() && !in.Now.IsZero() {
		until := in.ScheduledAt.Sub(in.Now)
		switch {
		case until <= 24*time.Hour:
			score += 2
		case until <= 72*time.Hour:
			score++
		}
	}
	if in.RecurringPatient {
		score++
	}

	switch {
	case score >= 6:
		return PriorityUrgent
	case score >= 4:
		return PriorityHigh
	case score >= 1:
		return PriorityNormal
	default:
		return PriorityLow
	}
}

func normalizeKey(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	return strings.NewReplacer(" ", "_", "-", "_").Replace(s)
}
