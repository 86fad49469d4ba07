package surveys

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresRepository stores surveys in the relational database.
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresRepository initializes a repo backed by pgxpool.
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	if pool == nil {
		panic("surveys: pgx pool required")
	}
	return &PostgresRepository{pool: pool}
}

// Submit inserts a new response.
func (r *PostgresRepository) Submit(ctx context.Context, req *SubmitSurveyRequest) (*Survey, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	id := uuid.New()
	query := `
		INSERT INTO surveys (id, appointment_id, rating, wait_minutes, comment)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING created_at
	`
	var createdAt time.Time
	if err := r.pool.QueryRow(ctx, query,
		id, req.AppointmentID, req.Rating, req.WaitMinutes, req.Comment,
	).Scan(&createdAt); err != nil {
		return nil, fmt.Errorf("surveys: insert failed: %w", err)
	}

	return &Survey{
		ID:            id.String(),
		AppointmentID: req.AppointmentID,
		Rating:        req.Rating,
		WaitMinutes:   req.WaitMinutes,
		Comment:       req.Comment,
		CreatedAt:     createdAt,
	}, nil
}

// ListByAppointment returns responses for one appointment.
func (r *PostgresRepository) ListByAppointment(ctx context.Context, appointmentID string) ([]*Survey, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, appointment_id, rating, wait_minutes, comment, created_at
		FROM surveys
		WHERE appointment_id = $1
		ORDER BY created_at DESC`,
		appointmentID)
	if err != nil {
		return nil, fmt.Errorf("surveys: list failed: %w", err)
	}
	defer rows.Close()

	var out []*Survey
	for rows.Next() {
		var survey Survey
		if err := rows.Scan(
			&survey.ID, &survey.AppointmentID, &survey.Rating,
			&survey.WaitMinutes, &survey.Comment, &survey.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("surveys: scan failed: %w", err)
		}
		out = append(out, &survey)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("surveys: rows: %w", err)
	}
	return out, nil
}

// Summarize aggregates responses submitted at or after since.
func (r *PostgresRepository) Summarize(ctx context.Context, since time.Time) (*Summary, error) {
	query := `
		SELECT COUNT(*),
		       COALESCE(AVG(rating), 0),
		       COALESCE(AVG(wait_minutes), 0)
		FROM surveys
		WHERE created_at >= $1
	`
	var summary Summary
	if err := r.pool.QueryRow(ctx, query, since).Scan(
		&summary.Count, &summary.AverageRating, &summary.AverageWaitMin,
	); err != nil {
		return nil, fmt.Errorf("surveys: summarize failed: %w", err)
	}
	return &summary, nil
}
