package repository

import (
	"context"
	"sync"
	"time"

	"batterypower/backend/services/battery-service/internal/models"
)

// MemoryStore keeps the reading log in process memory for the lifetime of the process.
type MemoryStore struct {
	mu       sync.RWMutex
	readings []models.Reading
}

// NewMemoryStore returns an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

// Append adds readings to the tail of the log.
func (s *MemoryStore) Append(_ context.Context, readings ...models.Reading) error {
	if err := validateBatch(readings); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.readings = append(s.readings, readings...)
	return nil
}

// Latest returns the tail of the log.
func (s *MemoryStore) Latest(_ context.Context) (models.Reading, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if len(s.readings) == 0 {
		return models.Reading{}, false, nil
	}
	return s.readings[len(s.readings)-1], true, nil
}

// Since scans the log for readings at or after threshold.
func (s *MemoryStore) Since(_ context.Context, threshold time.Time) ([]models.Reading, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	result := make([]models.Reading, 0)
	for _, r := range s.readings {
		if !r.Timestamp.Before(threshold) {
			result = append(result, r)
		}
	}
	return result, nil
}

// Len returns the number of stored readings.
func (s *MemoryStore) Len(_ context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.readings), nil
}
