package repository

import (
	"context"
	"errors"
	"time"

	"batterypower/backend/services/battery-service/internal/models"
)

// ErrMissingTimestamp is returned when a reading without a timestamp is appended.
var ErrMissingTimestamp = errors.New("repository: reading has no timestamp")

// ReadingStore is the reading log: an append-only, insertion-ordered sequence of readings.
type ReadingStore interface {
	// Append adds readings atomically: either all of them become visible or none do.
	Append(ctx context.Context, readings ...models.Reading) error
	// Latest returns the most recently appended reading and false when the log is empty.
	Latest(ctx context.Context) (models.Reading, bool, error)
	// Since returns every reading with timestamp >= threshold, in log order.
	Since(ctx context.Context, threshold time.Time) ([]models.Reading, error)
	// Len returns the number of readings in the log.
	Len(ctx context.Context) (int, error)
}

func validateBatch(readings []models.Reading) error {
	for _, r := range readings {
		if r.Timestamp.IsZero() {
			return ErrMissingTimestamp
		}
	}
	return nil
}
