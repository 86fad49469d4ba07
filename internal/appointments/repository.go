package appointments

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Tatito1901/prediccion-hernia-vesicula-sub006/internal/admission"
)

// db defines the database interface needed by Repository; pgxpool and
// pgxmock both satisfy it.
type db interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Begin(ctx context.Context) (pgx.Tx, error)
}

// Repository provides persistence for appointments.
type Repository struct {
	db db
}

// NewRepository creates a repository backed by a pgx pool.
func NewRepository(pool *pgxpool.Pool) *Repository {
	if pool == nil {
		panic("appointments: pgx pool required")
	}
	return &Repository{db: pool}
}

// NewRepositoryWithDB allows injecting a mock database for testing.
func NewRepositoryWithDB(database db) *Repository {
	return &Repository{db: database}
}

const appointmentColumns = `id, patient_id, scheduled_at, duration_mins, reason, status, notes, created_at, updated_at`

// Create inserts a new appointment row.
func (r *Repository) Create(ctx context.Context, appt *Appointment) error {
	now := time.Now().UTC()
	if appt.ID == uuid.Nil {
		appt.ID = uuid.New()
	}
	appt.CreatedAt = now
	appt.UpdatedAt = now
	if appt.DurationMins == 0 {
		appt.DurationMins = 30
	}

	_, err := r.db.Exec(ctx, `
		INSERT INTO appointments (id, patient_id, scheduled_at, duration_mins, reason, status, notes, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		appt.ID, appt.PatientID, appt.ScheduledAt, appt.DurationMins,
		appt.Reason, string(appt.Status), appt.Notes, appt.CreatedAt, appt.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("appointments: insert: %w", err)
	}
	return nil
}

// GetByID loads one appointment.
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	row := r.db.QueryRow(ctx,
		`SELECT `+appointmentColumns+` FROM appointments WHERE id = $1`, id)
	appt, err := scanAppointment(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrAppointmentNotFound
		}
		return nil, fmt.Errorf("appointments: load: %w", err)
	}
	return appt, nil
}

// ListBetween returns appointments scheduled inside [start, end), ordered by
// scheduled time. Callers compute clinic-local day bounds.
func (r *Repository) ListBetween(ctx context.Context, start, end time.Time) ([]Appointment, error) {
	rows, err := r.db.Query(ctx, `
		SELECT `+appointmentColumns+`
		FROM appointments
		WHERE scheduled_at >= $1 AND scheduled_at < $2
		ORDER BY scheduled_at`,
		start, end)
	if err != nil {
		return nil, fmt.Errorf("appointments: list between: %w", err)
	}
	defer rows.Close()
	return collectAppointments(rows)
}

// ListByPatient returns a patient's appointments, newest first.
func (r *Repository) ListByPatient(ctx context.Context, patientID uuid.UUID) ([]Appointment, error) {
	rows, err := r.db.Query(ctx, `
		SELECT `+appointmentColumns+`
		FROM appointments
		WHERE patient_id = $1
		ORDER BY scheduled_at DESC`,
		patientID)
	if err != nil {
		return nil, fmt.Errorf("appointments: list by patient: %w", err)
	}
	defer rows.Close()
	return collectAppointments(rows)
}

// UpdateStatus performs the status write with an optimistic updated_at
// compare-and-set. Two concurrent conflicting transitions cannot both
// succeed: the loser sees ErrStaleAppointment. This is the authoritative
// concurrency guard; the rule engine's cooldown is advisory.
func (r *Repository) UpdateStatus(ctx context.Context, id uuid.UUID, next admission.Status, expectedUpdatedAt time.Time) (*Appointment, error) {
	row := r.db.QueryRow(ctx, `
		UPDATE appointments
		SET status = $1, updated_at = $2
		WHERE id = $3 AND updated_at = $4
		RETURNING `+appointmentColumns,
		string(next), time.Now().UTC(), id, expectedUpdatedAt)
	appt, err := scanAppointment(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			// Row exists but the timestamp moved: lost the race.
			if _, getErr := r.GetByID(ctx, id); getErr == nil {
				return nil, ErrStaleAppointment
			}
			return nil, ErrAppointmentNotFound
		}
		return nil, fmt.Errorf("appointments: update status: %w", err)
	}
	return appt, nil
}

// Reschedule marks the old appointment RESCHEDULED and inserts the
// replacement slot in one transaction.
func (r *Repository) Reschedule(ctx context.Context, old *Appointment, newTime time.Time) (*Appointment, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("appointments: begin reschedule: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	now := time.Now().UTC()
	tag, err := tx.Exec(ctx, `
		UPDATE appointments
		SET status = $1, updated_at = $2
		WHERE id = $3 AND updated_at = $4`,
		string(admission.StatusRescheduled), now, old.ID, old.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("appointments: mark rescheduled: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return nil, ErrStaleAppointment
	}

	replacement := &Appointment{
		ID:           uuid.New(),
		PatientID:    old.PatientID,
		ScheduledAt:  newTime,
		DurationMins: old.DurationMins,
		Reason:       old.Reason,
		Status:       admission.StatusScheduled,
		Notes:        old.Notes,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	_, err = tx.Exec(ctx, `
		INSERT INTO appointments (id, patient_id, scheduled_at, duration_mins, reason, status, notes, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		replacement.ID, replacement.PatientID, replacement.ScheduledAt, replacement.DurationMins,
		replacement.Reason, string(replacement.Status), replacement.Notes,
		replacement.CreatedAt, replacement.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("appointments: insert replacement: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("appointments: commit reschedule: %w", err)
	}
	return replacement, nil
}

func scanAppointment(row pgx.Row) (*Appointment, error) {
	var appt Appointment
	var status string
	err := row.Scan(
		&appt.ID, &appt.PatientID, &appt.ScheduledAt, &appt.DurationMins,
		&appt.Reason, &status, &appt.Notes, &appt.CreatedAt, &appt.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	appt.Status = admission.Status(status)
	return &appt, nil
}

func collectAppointments(rows pgx.Rows) ([]Appointment, error) {
	var out []Appointment
	for rows.Next() {
		appt, err := scanAppointment(rows)
		if err != nil {
			return nil, fmt.Errorf("appointments: scan: %w", err)
		}
		out = append(out, *appt)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("appointments: rows: %w", err)
	}
	return out, nil
}
