package eventbus

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/hackgods/clinic-appointment-lifecycle/internal/event"
)

// Record is the stored form of an event in the append-only log.
type Record struct {
	ID            int64
	EventID       uuid.UUID
	EventType     event.Type
	AppointmentID uuid.UUID
	Payload       json.RawMessage
	OccurredAt    time.Time
}

func NewRecord(e event.Event) (Record, error) {
	payload, err := json.Marshal(e)
	if err != nil {
		return Record{}, fmt.Errorf("marshal %s payload: %w", e.EventType(), err)
	}
	return Record{
		EventID:       e.EventID(),
		EventType:     e.EventType(),
		AppointmentID: e.AggregateID(),
		Payload:       payload,
		OccurredAt:    e.OccurredAt(),
	}, nil
}

// EventLog is an append-only store of published events.
type EventLog interface {
	Append(ctx context.Context, r Record) error
	ListByAppointment(ctx context.Context, appointmentID uuid.UUID) ([]Record, error)
}

// LogSink is the publisher stage that writes to an EventLog.
type LogSink struct {
	log EventLog
}

func NewLogSink(log EventLog) *LogSink {
	return &LogSink{log: log}
}

func (s *LogSink) Publish(ctx context.Context, e event.Event) error {
	r, err := NewRecord(e)
	if err != nil {
		return err
	}
	return s.log.Append(ctx, r)
}

type MemoryEventLog struct {
	mu      sync.RWMutex
	records []Record
}

func NewMemoryEventLog() *MemoryEventLog {
	return &MemoryEventLog{}
}

func (l *MemoryEventLog) Append(ctx context.Context, r Record) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	r.ID = int64(len(l.records) + 1)
	l.records = append(l.records, r)
	return nil
}

func (l *MemoryEventLog) ListByAppointment(ctx context.Context, appointmentID uuid.UUID) ([]Record, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	result := make([]Record, 0)
	for _, r := range l.records {
		if r.AppointmentID == appointmentID {
			result = append(result, r)
		}
	}
	return result, nil
}

// All returns every record in append order.
func (l *MemoryEventLog) All() []Record {
	l.mu.RLock()
	defer l.mu.RUnlock()

	return append([]Record(nil), l.records...)
}
