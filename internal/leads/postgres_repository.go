package leads

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresRepository stores leads in the relational database.
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresRepository initializes a repo backed by pgxpool.
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	if pool == nil {
		panic("leads: pgx pool required")
	}
	return &PostgresRepository{pool: pool}
}

const leadColumns = `id, name, email, phone, concern, source, stage, patient_id, created_at, updated_at`

// Create inserts a new row.
func (r *PostgresRepository) Create(ctx context.Context, req *CreateLeadRequest) (*Lead, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	id := uuid.New()
	query := `
		INSERT INTO leads (id, name, email, phone, concern, source, stage)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING created_at, updated_at
	`
	var createdAt, updatedAt time.Time
	if err := r.pool.QueryRow(ctx, query,
		id,
		req.Name,
		req.Email,
		req.Phone,
		req.Concern,
		req.Source,
		string(StageNew),
	).Scan(&createdAt, &updatedAt); err != nil {
		return nil, fmt.Errorf("leads: insert failed: %w", err)
	}

	return &Lead{
		ID:        id.String(),
		Name:      req.Name,
		Email:     req.Email,
		Phone:     req.Phone,
		Concern:   req.Concern,
		Source:    req.Source,
		Stage:     StageNew,
		CreatedAt: createdAt,
		UpdatedAt: updatedAt,
	}, nil
}

// GetByID fetches one lead.
func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*Lead, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT `+leadColumns+` FROM leads WHERE id = $1`, id)
	lead, err := scanLead(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrLeadNotFound
		}
		return nil, fmt.Errorf("leads: select failed: %w", err)
	}
	return lead, nil
}

// List returns leads matching the filter, newest first.
func (r *PostgresRepository) List(ctx context.Context, filter ListLeadsFilter) ([]*Lead, error) {
	if filter.Limit <= 0 || filter.Limit > 100 {
		filter.Limit = 50
	}

	rows, err := r.pool.Query(ctx, `
		SELECT `+leadColumns+`
		FROM leads
		WHERE ($1 = '' OR stage = $1)
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3`,
		string(filter.Stage), filter.Limit, filter.Offset)
	if err != nil {
		return nil, fmt.Errorf("leads: list failed: %w", err)
	}
	defer rows.Close()

	var out []*Lead
	for rows.Next() {
		lead, err := scanLead(rows)
		if err != nil {
			return nil, fmt.Errorf("leads: scan failed: %w", err)
		}
		out = append(out, lead)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("leads: rows: %w", err)
	}
	return out, nil
}

// MoveStage advances a lead through the funnel. The current stage is read
// and checked first so an illegal move is reported instead of silently
// written.
func (r *PostgresRepository) MoveStage(ctx context.Context, id string, next Stage) (*Lead, error) {
	if !next.IsValid() {
		return nil, ErrInvalidStage
	}
	current, err := r.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !current.Stage.CanMoveTo(next) {
		return nil, ErrIllegalStageChange
	}

	row := r.pool.QueryRow(ctx, `
		UPDATE leads
		SET stage = $1, updated_at = now()
		WHERE id = $2
		RETURNING `+leadColumns,
		string(next), id)
	lead, err := scanLead(row)
	if err != nil {
		return nil, fmt.Errorf("leads: move stage failed: %w", err)
	}
	return lead, nil
}

// MarkConverted closes the lead as converted and links the registered
// patient.
func (r *PostgresRepository) MarkConverted(ctx context.Context, id, patientID string) (*Lead, error) {
	current, err := r.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !current.Stage.CanMoveTo(StageConverted) {
		return nil, ErrIllegalStageChange
	}

	row := r.pool.QueryRow(ctx, `
		UPDATE leads
		SET stage = $1, patient_id = $2, updated_at = now()
		WHERE id = $3
		RETURNING `+leadColumns,
		string(StageConverted), patientID, id)
	lead, err := scanLead(row)
	if err != nil {
		return nil, fmt.Errorf("leads: mark converted failed: %w", err)
	}
	return lead, nil
}

func scanLead(row pgx.Row) (*Lead, error) {
	var lead Lead
	var stage string
	var patientID *string
	err := row.Scan(
		&lead.ID,
		&lead.Name,
		&lead.Email,
		&lead.Phone,
		&lead.Concern,
		&lead.Source,
		&stage,
		&patientID,
		&lead.CreatedAt,
		&lead.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	lead.Stage = Stage(stage)
	if patientID != nil {
		lead.PatientID = *patientID
	}
	return &lead, nil
}
