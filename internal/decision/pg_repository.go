package decision

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type PgRepository struct {
	pool *pgxpool.Pool
}

func NewPgRepository(pool *pgxpool.Pool) *PgRepository {
	return &PgRepository{pool: pool}
}

const decisionColumns = `id, appointment_id, context, result, autonomy_level, reason, created_at, status, resolved_at, resolved_by, note`

func scanDecision(row pgx.Row) (*PendingDecision, error) {
	var (
		d                PendingDecision
		contextJSON      []byte
		resultJSON       []byte
		level, status    string
		resolvedBy, note *string
		resolvedAt       *time.Time
	)

	err := row.Scan(
		&d.id,
		&d.appointmentID,
		&contextJSON,
		&resultJSON,
		&level,
		&d.reason,
		&d.createdAt,
		&status,
		&resolvedAt,
		&resolvedBy,
		&note,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrPendingDecisionNotFound
		}
		return nil, err
	}

	if err := json.Unmarshal(contextJSON, &d.context); err != nil {
		return nil, fmt.Errorf("decode decision context: %w", err)
	}
	if err := json.Unmarshal(resultJSON, &d.result); err != nil {
		return nil, fmt.Errorf("decode decision result: %w", err)
	}
	d.level = AutonomyLevel(level)
	d.status = Status(status)
	d.createdAt = d.createdAt.UTC()
	if resolvedAt != nil {
		at := resolvedAt.UTC()
		d.resolvedAt = &at
	}
	if resolvedBy != nil {
		d.resolvedBy = *resolvedBy
	}
	if note != nil {
		d.note = *note
	}
	return &d, nil
}

func (r *PgRepository) GetPendingDecisionByID(ctx context.Context, id uuid.UUID) (*PendingDecision, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+decisionColumns+` FROM pending_decisions WHERE id = $1`, id)
	return scanDecision(row)
}

func (r *PgRepository) SavePendingDecision(ctx context.Context, d *PendingDecision) error {
	contextJSON, err := json.Marshal(d.context)
	if err != nil {
		return fmt.Errorf("encode decision context: %w", err)
	}
	resultJSON, err := json.Marshal(d.result)
	if err != nil {
		return fmt.Errorf("encode decision result: %w", err)
	}

	_, err = r.pool.Exec(ctx, `
		INSERT INTO pending_decisions (`+decisionColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`, d.id, d.appointmentID, contextJSON, resultJSON, string(d.level), d.reason, d.createdAt,
		string(d.status), d.resolvedAt, nullableString(d.resolvedBy), nullableString(d.note))
	if err != nil {
		return fmt.Errorf("insert pending decision: %w", err)
	}
	return nil
}

// ResolvePendingDecision flips the row only while it is still pending, the
// same compare-and-swap the appointment status updates use.
func (r *PgRepository) ResolvePendingDecision(ctx context.Context, d *PendingDecision) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE pending_decisions
		SET status = $2,
		    resolved_at = $3,
		    resolved_by = $4,
		    note = $5
		WHERE id = $1
		  AND status = 'pending'
	`, d.id, string(d.status), d.resolvedAt, nullableString(d.resolvedBy), nullableString(d.note))
	if err != nil {
		return fmt.Errorf("resolve pending decision: %w", err)
	}
	if tag.RowsAffected() == 1 {
		return nil
	}

	var exists bool
	if err := r.pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM pending_decisions WHERE id = $1)`, d.id).Scan(&exists); err != nil {
		return fmt.Errorf("resolve pending decision: %w", err)
	}
	if !exists {
		return ErrPendingDecisionNotFound
	}
	return ErrAlreadyResolved
}

func (r *PgRepository) ReopenPendingDecision(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE pending_decisions
		SET status = 'pending',
		    resolved_at = NULL,
		    resolved_by = NULL,
		    note = NULL
		WHERE id = $1
	`, id)
	if err != nil {
		return fmt.Errorf("reopen pending decision: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrPendingDecisionNotFound
	}
	return nil
}

func (r *PgRepository) DeletePendingDecision(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM pending_decisions WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete pending decision: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrPendingDecisionNotFound
	}
	return nil
}

func (r *PgRepository) ListPendingDecisions(ctx context.Context, f Filter) ([]*PendingDecision, error) {
	var (
		where []string
		args  []any
	)
	if f.AppointmentID != nil {
		args = append(args, *f.AppointmentID)
		where = append(where, fmt.Sprintf("appointment_id = $%d", len(args)))
	}
	if f.Status != nil {
		args = append(args, string(*f.Status))
		where = append(where, fmt.Sprintf("status = $%d", len(args)))
	}

	query := `SELECT ` + decisionColumns + ` FROM pending_decisions`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY created_at"

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []*PendingDecision
	for rows.Next() {
		d, err := scanDecision(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, d)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func nullableString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
