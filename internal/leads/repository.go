package leads

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Repository defines the interface for lead storage
type Repository interface {
	Create(ctx context.Context, req *CreateLeadRequest) (*Lead, error)
	GetByID(ctx context.Context, id string) (*Lead, error)
	List(ctx context.Context, filter ListLeadsFilter) ([]*Lead, error)
	MoveStage(ctx context.Context, id string, next Stage) (*Lead, error)
	MarkConverted(ctx context.Context, id, patientID string) (*Lead, error)
}

// InMemoryRepository is an in-memory Repository used by tests and demos.
type InMemoryRepository struct {
	mu    sync.RWMutex
	leads map[string]*Lead
}

// NewInMemoryRepository creates a new in-memory repository
func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{
		leads: make(map[string]*Lead),
	}
}

// Create creates a new lead in memory
func (r *InMemoryRepository) Create(ctx context.Context, req *CreateLeadRequest) (*Lead, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	lead := &Lead{
		ID:        uuid.New().String(),
		Name:      req.Name,
		Email:     req.Email,
		Phone:     req.Phone,
		Concern:   req.Concern,
		Source:    req.Source,
		Stage:     StageNew,
		CreatedAt: now,
		UpdatedAt: now,
	}

	r.mu.Lock()
	r.leads[lead.ID] = lead
	r.mu.Unlock()

	return lead, nil
}

// GetByID retrieves a lead by ID
func (r *InMemoryRepository) GetByID(ctx context.Context, id string) (*Lead, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	lead, ok := r.leads[id]
	if !ok {
		return nil, ErrLeadNotFound
	}
	return lead, nil
}

// List returns leads matching the filter, newest first.
func (r *InMemoryRepository) List(ctx context.Context, filter ListLeadsFilter) ([]*Lead, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []*Lead
	for _, lead := range r.leads {
		if filter.Stage != "" && lead.Stage != filter.Stage {
			continue
		}
		out = append(out, lead)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})

	if filter.Offset >= len(out) {
		return nil, nil
	}
	out = out[filter.Offset:]
	if filter.Limit > 0 && filter.Limit < len(out) {
		out = out[:filter.Limit]
	}
	return out, nil
}

// MoveStage advances a lead through the funnel.
func (r *InMemoryRepository) MoveStage(ctx context.Context, id string, next Stage) (*Lead, error) {
	if !next.IsValid() {
		return nil, ErrInvalidStage
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	lead, ok := r.leads[id]
	if !ok {
		return nil, ErrLeadNotFound
	}
	if !lead.Stage.CanMoveTo(next) {
		return nil, ErrIllegalStageChange
	}
	lead.Stage = next
	lead.UpdatedAt = time.Now().UTC()
	return lead, nil
}

// MarkConverted closes the lead as converted and links the registered
// patient.
func (r *InMemoryRepository) MarkConverted(ctx context.Context, id, patientID string) (*Lead, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	lead, ok := r.leads[id]
	if !ok {
		return nil, ErrLeadNotFound
	}
	if !lead.Stage.CanMoveTo(StageConverted) {
		return nil, ErrIllegalStageChange
	}
	lead.Stage = StageConverted
	lead.PatientID = patientID
	lead.UpdatedAt = time.Now().UTC()
	return lead, nil
}
