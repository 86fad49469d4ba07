package patients

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresRepository stores patients in the relational database.
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresRepository initializes a repo backed by pgxpool.
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	if pool == nil {
		panic("patients: pgx pool required")
	}
	return &PostgresRepository{pool: pool}
}

// Create inserts a new row.
func (r *PostgresRepository) Create(ctx context.Context, req *CreatePatientRequest) (*Patient, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	id := uuid.New()
	query := `
		INSERT INTO patients (id, first_name, last_name, email, phone, diagnosis, notes)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING created_at
	`
	var createdAt time.Time
	if err := r.pool.QueryRow(ctx, query,
		id,
		req.FirstName,
		req.LastName,
		req.Email,
		req.Phone,
		req.Diagnosis,
		req.Notes,
	).Scan(&createdAt); err != nil {
		return nil, fmt.Errorf("patients: insert failed: %w", err)
	}

	return &Patient{
		ID:        id.String(),
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Email:     req.Email,
		Phone:     req.Phone,
		Diagnosis: req.Diagnosis,
		Notes:     req.Notes,
		CreatedAt: createdAt,
	}, nil
}

// GetByID fetches one patient.
func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*Patient, error) {
	query := `
		SELECT id, first_name, last_name, email, phone, diagnosis, notes, created_at
		FROM patients
		WHERE id = $1
	`
	row := r.pool.QueryRow(ctx, query, id)
	var patient Patient
	if err := row.Scan(
		&patient.ID,
		&patient.FirstName,
		&patient.LastName,
		&patient.Email,
		&patient.Phone,
		&patient.Diagnosis,
		&patient.Notes,
		&patient.CreatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrPatientNotFound
		}
		return nil, fmt.Errorf("patients: select failed: %w", err)
	}
	return &patient, nil
}

// List returns patients matching the filter, newest first. The name search
// matches case-insensitively against first and last name together.
func (r *PostgresRepository) List(ctx context.Context, filter ListFilter) ([]*Patient, error) {
	if filter.Limit <= 0 || filter.Limit > 100 {
		filter.Limit = 50
	}

	query := `
		SELECT id, first_name, last_name, email, phone, diagnosis, notes, created_at
		FROM patients
		WHERE ($1 = '' OR first_name || ' ' || last_name ILIKE '%' || $1 || '%')
		  AND ($2 = '' OR diagnosis = $2)
		ORDER BY created_at DESC
		LIMIT $3 OFFSET $4
	`
	rows, err := r.pool.Query(ctx, query, filter.Query, filter.Diagnosis, filter.Limit, filter.Offset)
	if err != nil {
		return nil, fmt.Errorf("patients: list failed: %w", err)
	}
	defer rows.Close()

	var out []*Patient
	for rows.Next() {
		var patient Patient
		if err := rows.Scan(
			&patient.ID,
			&patient.FirstName,
			&patient.LastName,
			&patient.Email,
			&patient.Phone,
			&patient.Diagnosis,
			&patient.Notes,
			&patient.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("patients: scan failed: %w", err)
		}
		out = append(out, &patient)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("patients: rows: %w", err)
	}
	return out, nil
}
