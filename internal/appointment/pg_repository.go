package appointment

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PgRepository stores aggregates in PostgreSQL. Histories live in their own
// append-only tables; the appointments row carries the current status and
// priority for filtering plus the version used for compare-and-swap.
type PgRepository struct {
	pool *pgxpool.Pool
}

func NewPgRepository(pool *pgxpool.Pool) *PgRepository {
	return &PgRepository{pool: pool}
}

// Helpers

type appointmentRow struct {
	ID          uuid.UUID
	PatientID   uuid.UUID
	Specialty   string
	ScheduledAt time.Time
	CreatedAt   time.Time
	Version     int
}

func scanAppointmentRow(row pgx.Row) (*appointmentRow, error) {
	var a appointmentRow

	err := row.Scan(
		&a.ID,
		&a.PatientID,
		&a.Specialty,
		&a.ScheduledAt,
		&a.CreatedAt,
		&a.Version,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrAppointmentNotFound
		}
		return nil, err
	}

	return &a, nil
}

func scanPatient(row pgx.Row) (*Patient, error) {
	var p Patient

	err := row.Scan(
		&p.id,
		&p.name,
		&p.phone,
		&p.birthDate,
		&p.recurring,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrPatientNotFound
		}
		return nil, err
	}

	return &p, nil
}

func (r *PgRepository) loadStatuses(ctx context.Context, id uuid.UUID) ([]StatusEntry, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT status, occurred_at
		FROM appointment_status_history
		WHERE appointment_id = $1
		ORDER BY occurred_at
	`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []StatusEntry
	for rows.Next() {
		var e StatusEntry
		var status string
		if err := rows.Scan(&status, &e.OccurredAt); err != nil {
			return nil, err
		}
		e.Status = Status(status)
		e.OccurredAt = e.OccurredAt.UTC()
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

func (r *PgRepository) loadPriorities(ctx context.Context, id uuid.UUID) ([]PriorityEntry, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT priority, origin, occurred_at, justification, modified_by
		FROM appointment_priority_history
		WHERE appointment_id = $1
		ORDER BY occurred_at
	`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []PriorityEntry
	for rows.Next() {
		var e PriorityEntry
		var priority int
		var origin string
		var justification, modifiedBy *string
		if err := rows.Scan(&priority, &origin, &e.OccurredAt, &justification, &modifiedBy); err != nil {
			return nil, err
		}
		e.Priority = Priority(priority)
		e.Origin = Origin(origin)
		e.OccurredAt = e.OccurredAt.UTC()
		if justification != nil {
			e.Justification = *justification
		}
		if modifiedBy != nil {
			e.ModifiedBy = *modifiedBy
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

func (r *PgRepository) hydrate(ctx context.Context, row *appointmentRow) (*Appointment, error) {
	statuses, err := r.loadStatuses(ctx, row.ID)
	if err != nil {
		return nil, fmt.Errorf("load status history: %w", err)
	}
	priorities, err := r.loadPriorities(ctx, row.ID)
	if err != nil {
		return nil, fmt.Errorf("load priority history: %w", err)
	}
	return Rehydrate(RehydrateParams{
		ID:          row.ID,
		PatientID:   row.PatientID,
		Specialty:   row.Specialty,
		ScheduledAt: row.ScheduledAt.UTC(),
		CreatedAt:   row.CreatedAt.UTC(),
		Statuses:    statuses,
		Priorities:  priorities,
		Version:     row.Version,
	})
}

// Interface methods

func (r *PgRepository) GetAppointmentByID(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	row, err := scanAppointmentRow(r.pool.QueryRow(ctx, `
		SELECT id, patient_id, specialty, scheduled_at, created_at, version
		FROM appointments
		WHERE id = $1
	`, id))
	if err != nil {
		return nil, err
	}
	return r.hydrate(ctx, row)
}

func (r *PgRepository) SaveAppointment(ctx context.Context, a *Appointment) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin save appointment: %w", err)
	}
	defer tx.Rollback(ctx)

	var tag pgconn.CommandTag
	if a.version == 0 {
		tag, err = tx.Exec(ctx, `
			INSERT INTO appointments (id, patient_id, specialty, scheduled_at, created_at, status, priority, version)
			VALUES ($1, $2, $3, $4, $5, $6, $7, 1)
			ON CONFLICT (id) DO NOTHING
		`, a.id, a.patientID, a.specialty, a.scheduledAt, a.createdAt, string(a.Status()), int(a.Priority()))
	} else {
		tag, err = tx.Exec(ctx, `
			UPDATE appointments
			SET scheduled_at = $2,
			    status = $3,
			    priority = $4,
			    version = version + 1
			WHERE id = $1
			  AND version = $5
		`, a.id, a.scheduledAt, string(a.Status()), int(a.Priority()), a.version)
	}
	if err != nil {
		return fmt.Errorf("save appointment: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrConcurrentUpdate
	}

	// History tables are append-only: rows already stored are skipped.
	for _, e := range a.statuses.entries {
		_, err := tx.Exec(ctx, `
			INSERT INTO appointment_status_history (appointment_id, status, occurred_at)
			VALUES ($1, $2, $3)
			ON CONFLICT (appointment_id, occurred_at) DO NOTHING
		`, a.id, string(e.Status), e.OccurredAt)
		if err != nil {
			return fmt.Errorf("append status history: %w", err)
		}
	}
	for _, e := range a.priorities.entries {
		_, err := tx.Exec(ctx, `
			INSERT INTO appointment_priority_history (appointment_id, priority, origin, occurred_at, justification, modified_by)
			VALUES ($1, $2, $3, $4, $5, $6)
			ON CONFLICT (appointment_id, occurred_at) DO NOTHING
		`, a.id, int(e.Priority), string(e.Origin), e.OccurredAt, nullableString(e.Justification), nullableString(e.ModifiedBy))
		if err != nil {
			return fmt.Errorf("append priority history: %w", err)
		}
	}

	return tx.Commit(ctx)
}

func (r *PgRepository) ListAppointments(ctx context.Context, q ListQuery) ([]*Appointment, error) {
	var (
		where []string
		args  []any
	)
	if q.PatientID != nil {
		args = append(args, *q.PatientID)
		where = append(where, fmt.Sprintf("patient_id = $%d", len(args)))
	}
	if q.Status != nil {
		args = append(args, string(*q.Status))
		where = append(where, fmt.Sprintf("status = $%d", len(args)))
	}

	query := `SELECT id, patient_id, specialty, scheduled_at, created_at, version FROM appointments`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY scheduled_at, id"
	if q.Limit > 0 {
		args = append(args, q.Limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}
	if q.Offset > 0 {
		args = append(args, q.Offset)
		query += fmt.Sprintf(" OFFSET $%d", len(args))
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	var found []*appointmentRow
	for rows.Next() {
		row, err := scanAppointmentRow(rows)
		if err != nil {
			rows.Close()
			return nil, err
		}
		found = append(found, row)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	result := make([]*Appointment, 0, len(found))
	for _, row := range found {
		a, err := r.hydrate(ctx, row)
		if err != nil {
			return nil, err
		}
		result = append(result, a)
	}
	return result, nil
}

func (r *PgRepository) GetPatientByID(ctx context.Context, id uuid.UUID) (*Patient, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT id, name, phone, birth_date, recurring
		FROM patients
		WHERE id = $1
	`, id)
	return scanPatient(row)
}

func (r *PgRepository) SavePatient(ctx context.Context, p Patient) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO patients (id, name, phone, birth_date, recurring, created_at)
		VALUES ($1, $2, $3, $4, $5, now())
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			phone = EXCLUDED.phone,
			birth_date = EXCLUDED.birth_date,
			recurring = EXCLUDED.recurring
	`, p.id, p.name, p.phone, p.birthDate, p.recurring)
	if err != nil {
		return fmt.Errorf("save patient: %w", err)
	}
	return nil
}

func nullableString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
