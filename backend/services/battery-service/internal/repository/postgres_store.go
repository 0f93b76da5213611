package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"batterypower/backend/services/battery-service/internal/models"
)

const createReadingsTable = `
	CREATE TABLE IF NOT EXISTS battery_readings (
		id                  BIGSERIAL PRIMARY KEY,
		recorded_at         TIMESTAMPTZ NOT NULL,
		energy_available_kw DOUBLE PRECISION NOT NULL,
		battery_capacity_kw DOUBLE PRECISION NOT NULL,
		battery_level       DOUBLE PRECISION NOT NULL,
		extra               JSONB,
		created_at          TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)
`

// PostgresStore persists the reading log in the battery_readings table. Log order is the
// order of the serial id.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore returns store.
func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// EnsureSchema creates the readings table when missing.
func (s *PostgresStore) EnsureSchema(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, createReadingsTable); err != nil {
		return fmt.Errorf("repository: create battery_readings: %w", err)
	}
	return nil
}

// Append inserts all readings in a single transaction.
func (s *PostgresStore) Append(ctx context.Context, readings ...models.Reading) error {
	if err := validateBatch(readings); err != nil {
		return err
	}
	if len(readings) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO battery_readings (recorded_at, energy_available_kw, battery_capacity_kw, battery_level, extra)
		VALUES ($1, $2, $3, $4, $5)
	`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, r := range readings {
		extra, err := encodeExtra(r.Extra)
		if err != nil {
			return err
		}
		if _, err := stmt.ExecContext(ctx, r.Timestamp, r.EnergyAvailableKW, r.BatteryCapacityKW, r.BatteryLevel, extra); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// Latest returns the most recently inserted reading.
func (s *PostgresStore) Latest(ctx context.Context) (models.Reading, bool, error) {
	const query = `
		SELECT recorded_at, energy_available_kw, battery_capacity_kw, battery_level, extra
		FROM battery_readings
		ORDER BY id DESC
		LIMIT 1
	`
	reading, err := scanReading(s.db.QueryRowContext(ctx, query))
	if errors.Is(err, sql.ErrNoRows) {
		return models.Reading{}, false, nil
	}
	if err != nil {
		return models.Reading{}, false, err
	}
	return reading, true, nil
}

// Since returns readings recorded at or after threshold in insertion order.
func (s *PostgresStore) Since(ctx context.Context, threshold time.Time) ([]models.Reading, error) {
	const query = `
		SELECT recorded_at, energy_available_kw, battery_capacity_kw, battery_level, extra
		FROM battery_readings
		WHERE recorded_at >= $1
		ORDER BY id ASC
	`
	rows, err := s.db.QueryContext(ctx, query, threshold)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := make([]models.Reading, 0)
	for rows.Next() {
		reading, err := scanReading(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, reading)
	}
	return result, rows.Err()
}

// Len counts stored readings.
func (s *PostgresStore) Len(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM battery_readings`).Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanReading(row rowScanner) (models.Reading, error) {
	var (
		r     models.Reading
		extra []byte
	)
	if err := row.Scan(&r.Timestamp, &r.EnergyAvailableKW, &r.BatteryCapacityKW, &r.BatteryLevel, &extra); err != nil {
		return models.Reading{}, err
	}
	if len(extra) > 0 {
		if err := json.Unmarshal(extra, &r.Extra); err != nil {
			return models.Reading{}, fmt.Errorf("repository: decode extra: %w", err)
		}
	}
	return r, nil
}

func encodeExtra(extra map[string]any) (any, error) {
	if len(extra) == 0 {
		return nil, nil
	}
	data, err := json.Marshal(extra)
	if err != nil {
		return nil, fmt.Errorf("repository: encode extra: %w", err)
	}
	return string(data), nil
}
