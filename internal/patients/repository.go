package patients

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Repository defines the interface for patient storage.
type Repository interface {
	Create(ctx context.Context, req *CreatePatientRequest) (*Patient, error)
	GetByID(ctx context.Context, id string) (*Patient, error)
	List(ctx context.Context, filter ListFilter) ([]*Patient, error)
}

// InMemoryRepository is an in-memory Repository used by tests and demos.
type InMemoryRepository struct {
	mu       sync.RWMutex
	patients map[string]*Patient
}

// NewInMemoryRepository creates a new in-memory repository.
func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{
		patients: make(map[string]*Patient),
	}
}

// Create registers a new patient in memory.
func (r *InMemoryRepository) Create(ctx context.Context, req *CreatePatientRequest) (*Patient, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	patient := &Patient{
		ID:        uuid.New().String(),
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Email:     req.Email,
		Phone:     req.Phone,
		Diagnosis: req.Diagnosis,
		Notes:     req.Notes,
		CreatedAt: time.Now().UTC(),
	}

	r.mu.Lock()
	r.patients[patient.ID] = patient
	r.mu.Unlock()

	return patient, nil
}

// GetByID retrieves a patient by ID.
func (r *InMemoryRepository) GetByID(ctx context.Context, id string) (*Patient, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	patient, ok := r.patients[id]
	if !ok {
		return nil, ErrPatientNotFound
	}
	return patient, nil
}

// List returns patients matching the filter, newest first.
func (r *InMemoryRepository) List(ctx context.Context, filter ListFilter) ([]*Patient, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []*Patient
	q := strings.ToLower(filter.Query)
	for _, patient := range r.patients {
		if filter.Diagnosis != "" && patient.Diagnosis != filter.Diagnosis {
			continue
		}
		if q != "" {
			name := strings.ToLower(patient.FirstName + " " + patient.LastName)
			if !strings.Contains(name, q) {
				continue
			}
		}
		out = append(out, patient)
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
