package clinic

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/Tatito1901/prediccion-hernia-vesicula-sub006/internal/admission"
)

const settingsKey = "clinic:settings"

// Settings are the operational windows staff can adjust without a deploy.
// They overlay the compiled-in defaults; zero values leave a default alone.
type Settings struct {
	Timezone       string `json:"timezone,omitempty"`
	WorkStartHour  int    `json:"work_start_hour,omitempty"`
	WorkEndHour    int    `json:"work_end_hour,omitempty"`
	LunchStartHour int    `json:"lunch_start_hour,omitempty"`
	LunchEndHour   int    `json:"lunch_end_hour,omitempty"`
}

// Validate rejects windows the engine could not evaluate.
func (s *Settings) Validate() error {
	if s.Timezone != "" {
		if _, err := time.LoadLocation(s.Timezone); err != nil {
			return fmt.Errorf("clinic: unknown timezone %q", s.Timezone)
		}
	}
	for _, hour := range []int{s.WorkStartHour, s.WorkEndHour, s.LunchStartHour, s.LunchEndHour} {
		if hour < 0 || hour > 24 {
			return errors.New("clinic: hours must be between 0 and 24")
		}
	}
	if s.WorkEndHour != 0 && s.WorkStartHour >= s.WorkEndHour {
		return errors.New("clinic: work window must end after it starts")
	}
	return nil
}

// Apply overlays the settings onto an engine config.
func (s *Settings) Apply(cfg admission.Config) admission.Config {
	if s.Timezone != "" {
		if loc, err := time.LoadLocation(s.Timezone); err == nil {
			cfg.Location = loc
		}
	}
	if s.WorkEndHour != 0 {
		cfg.WorkStartHour = s.WorkStartHour
		cfg.WorkEndHour = s.WorkEndHour
	}
	if s.LunchEndHour != 0 {
		cfg.LunchStartHour = s.LunchStartHour
		cfg.LunchEndHour = s.LunchEndHour
	}
	return cfg
}

// Store provides persistence for clinic settings.
type Store struct {
	redis *redis.Client
}

// NewStore creates a new clinic settings store.
func NewStore(redisClient *redis.Client) *Store {
	return &Store{redis: redisClient}
}

// Get retrieves the settings, returning empty defaults if none were saved.
func (s *Store) Get(ctx context.Context) (*Settings, error) {
	data, err := s.redis.Get(ctx, settingsKey).Bytes()
	if errors.Is(err, redis.Nil) {
		return &Settings{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("clinic: get settings: %w", err)
	}

	var settings Settings
	if err := json.Unmarshal(data, &settings); err != nil {
		return nil, fmt.Errorf("clinic: unmarshal settings: %w", err)
	}
	return &settings, nil
}

// Set saves the settings.
func (s *Store) Set(ctx context.Context, settings *Settings) error {
	if err := settings.Validate(); err != nil {
		return err
	}
	data, err := json.Marshal(settings)
	if err != nil {
		return fmt.Errorf("clinic: marshal settings: %w", err)
	}
	if err := s.redis.Set(ctx, settingsKey, data, 0).Err(); err != nil {
		return fmt.Errorf("clinic: set settings: %w", err)
	}
	return nil
}
