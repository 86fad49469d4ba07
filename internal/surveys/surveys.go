// Package surveys collects post-visit satisfaction responses and computes
// the aggregates the dashboard shows alongside the day's appointments.
package surveys

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

var (
	ErrInvalidRating      = errors.New("rating must be between 1 and 5")
	ErrMissingAppointment = errors.New("appointment_id is required")
	ErrSurveyNotFound     = errors.New("survey not found")
)

// Survey is one patient's post-visit response.
type Survey struct {
	ID            string    `json:"id"`
	AppointmentID string    `json:"appointment_id"`
	Rating        int       `json:"rating"`
	WaitMinutes   int       `json:"wait_minutes"`
	Comment       string    `json:"comment,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
}

// SubmitSurveyRequest is the request body for submitting a response.
type SubmitSurveyRequest struct {
	AppointmentID string `json:"appointment_id"`
	Rating        int    `json:"rating"`
	WaitMinutes   int    `json:"wait_minutes"`
	Comment       string `json:"comment"`
}

// Validate validates the survey submission.
func (r *SubmitSurveyRequest) Validate() error {
	if strings.TrimSpace(r.AppointmentID) == "" {
		return ErrMissingAppointment
	}
	if r.Rating < 1 || r.Rating > 5 {
		return ErrInvalidRating
	}
	return nil
}

// Summary aggregates responses for the dashboard.
type Summary struct {
	Count          int     `json:"count"`
	AverageRating  float64 `json:"average_rating"`
	AverageWaitMin float64 `json:"average_wait_minutes"`
}

// Repository defines the interface for survey storage.
type Repository interface {
	Submit(ctx context.Context, req *SubmitSurveyRequest) (*Survey, error)
	ListByAppointment(ctx context.Context, appointmentID string) ([]*Survey, error)
	Summarize(ctx context.Context, since time.Time) (*Summary, error)
}

// InMemoryRepository is an in-memory Repository used by tests and demos.
type InMemoryRepository struct {
	mu      sync.RWMutex
	surveys []*Survey
}

// NewInMemoryRepository creates a new in-memory repository.
func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{}
}

// Submit stores a new response in memory.
func (r *InMemoryRepository) Submit(ctx context.Context, req *SubmitSurveyRequest) (*Survey, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	survey := &Survey{
		ID:            uuid.New().String(),
		AppointmentID: req.AppointmentID,
		Rating:        req.Rating,
		WaitMinutes:   req.WaitMinutes,
		Comment:       req.Comment,
		CreatedAt:     time.Now().UTC(),
	}

	r.mu.Lock()
	r.surveys = append(r.surveys, survey)
	r.mu.Unlock()

	return survey, nil
}

// ListByAppointment returns responses for one appointment.
func (r *InMemoryRepository) ListByAppointment(ctx context.Context, appointmentID string) ([]*Survey, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []*Survey
	for _, survey := range r.surveys {
		if survey.AppointmentID == appointmentID {
			out = append(out, survey)
		}
	}
	return out, nil
}

// Summarize aggregates responses submitted at or after since.
func (r *InMemoryRepository) Summarize(ctx context.Context, since time.Time) (*Summary, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	summary := &Summary{}
	var ratingSum, waitSum int
	for _, survey := range r.surveys {
		if survey.CreatedAt.Before(since) {
			continue
		}
		summary.Count++
		ratingSum += survey.Rating
		waitSum += survey.WaitMinutes
	}
	if summary.Count > 0 {
		summary.AverageRating = float64(ratingSum) / float64(summary.Count)
		summary.AverageWaitMin = float64(waitSum) / float64(summary.Count)
	}
	return summary, nil
}
