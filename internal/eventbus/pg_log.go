package eventbus

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/hackgods/clinic-appointment-lifecycle/internal/event"
)

// PgEventLog appends records to the event_logs table.
type PgEventLog struct {
	pool *pgxpool.Pool
}

func NewPgEventLog(pool *pgxpool.Pool) *PgEventLog {
	return &PgEventLog{pool: pool}
}

func (l *PgEventLog) Append(ctx context.Context, r Record) error {
	_, err := l.pool.Exec(ctx, `
		INSERT INTO event_logs (event_id, event_type, appointment_id, payload, created_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (event_id) DO NOTHING
	`, r.EventID, string(r.EventType), r.AppointmentID, []byte(r.Payload), r.OccurredAt)
	if err != nil {
		return fmt.Errorf("insert event log: %w", err)
	}

	return nil
}

func (l *PgEventLog) ListByAppointment(ctx context.Context, appointmentID uuid.UUID) ([]Record, error) {
	rows, err := l.pool.Query(ctx, `
		SELECT id, event_id, event_type, appointment_id, payload, created_at
		FROM event_logs
		WHERE appointment_id = $1
		ORDER BY id
	`, appointmentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []Record
	for rows.Next() {
		var r Record
		var eventType string
		var payload []byte
		if err := rows.Scan(&r.ID, &r.EventID, &eventType, &r.AppointmentID, &payload, &r.OccurredAt); err != nil {
			return nil, err
		}
		r.EventType = event.Type(eventType)
		r.OccurredAt = r.OccurredAt.UTC()
		r.Payload = payload
		result = append(result, r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return result, nil
}
