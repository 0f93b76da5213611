package service

import (
	"context"
	"fmt"
	"math"
	"time"

	"go.uber.org/zap"

	"batterypower/backend/services/battery-service/internal/metrics"
	"batterypower/backend/services/battery-service/internal/models"
	"batterypower/backend/services/battery-service/internal/repository"
)

// LatestCache holds a copy of the most recent reading. Set overwrites; Fill only stores
// when the cache is empty and reports whether it did.
type LatestCache interface {
	Get(ctx context.Context) (models.Reading, bool, error)
	Set(ctx context.Context, reading models.Reading) error
	Fill(ctx context.Context, reading models.Reading) (bool, error)
}

// Publisher fans appended readings out to live subscribers.
type Publisher interface {
	PublishReading(reading models.Reading)
	PublishLoad(count int, latest models.Reading)
}

// Source yields the readings of an external data file.
type Source interface {
	Load(ctx context.Context) ([]models.Reading, error)
}

// Options carries the optional collaborators of TelemetryService.
type Options struct {
	Cache     LatestCache
	Publisher Publisher
	Source    Source
	Now       func() time.Time
}

// TelemetryService records and queries battery readings.
type TelemetryService struct {
	store     repository.ReadingStore
	cache     LatestCache
	publisher Publisher
	source    Source
	now       func() time.Time
	logger    *zap.Logger
}

// NewTelemetryService returns service instance.
func NewTelemetryService(store repository.ReadingStore, logger *zap.Logger, opts Options) *TelemetryService {
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TelemetryService{
		store:     store,
		cache:     opts.Cache,
		publisher: opts.Publisher,
		source:    opts.Source,
		now:       now,
		logger:    logger,
	}
}

// RecordReading stamps the input with the current time, derives the battery level and
// appends it to the log.
func (s *TelemetryService) RecordReading(ctx context.Context, input StatusInput) (models.Reading, error) {
	if input.EnergyAvailableKW == nil || input.BatteryCapacityKW == nil {
		return models.Reading{}, s.fail("record", &ValidationError{Message: MsgInvalidStatusFormat})
	}
	energy, capacity := *input.EnergyAvailableKW, *input.BatteryCapacityKW
	if capacity <= 0 {
		return models.Reading{}, s.fail("record", &ValidationError{Message: "'battery_capacity_kW' must be greater than zero."})
	}
	if energy < 0 {
		return models.Reading{}, s.fail("record", &ValidationError{Message: "'energy_available_kW' must not be negative."})
	}
	if !finite(energy) || !finite(capacity) {
		return models.Reading{}, s.fail("record", &ValidationError{Message: "Battery values must be finite numbers."})
	}
	level := models.LevelFromEnergy(energy, capacity)
	if !finite(level) {
		return models.Reading{}, s.fail("record", &ValidationError{Message: "'battery_level' is out of range for the given energy and capacity."})
	}

	reading := models.Reading{
		Timestamp:         s.now(),
		EnergyAvailableKW: energy,
		BatteryCapacityKW: capacity,
		BatteryLevel:      level,
		Extra:             input.Extra,
	}
	if err := s.store.Append(ctx, reading); err != nil {
		return models.Reading{}, s.fail("record", fmt.Errorf("append reading: %w", err))
	}

	metrics.ReadingsRecorded.Inc()
	s.afterAppend(ctx, reading)
	if s.publisher != nil {
		s.publisher.PublishReading(reading)
	}

	s.logger.Debug("battery status recorded",
		zap.Float64("battery_level", reading.BatteryLevel),
		zap.Float64("energy_available_kW", energy),
		zap.Float64("battery_capacity_kW", capacity),
	)
	return reading, nil
}

// Current returns the most recently appended reading.
func (s *TelemetryService) Current(ctx context.Context) (models.Reading, error) {
	if s.cache != nil {
		reading, ok, err := s.cache.Get(ctx)
		if err != nil {
			s.logger.Warn("failed to read latest reading cache", zap.Error(err))
		} else if ok {
			return reading, nil
		}
	}

	reading, ok, err := s.store.Latest(ctx)
	if err != nil {
		return models.Reading{}, s.fail("current", fmt.Errorf("read latest reading: %w", err))
	}
	if !ok {
		return models.Reading{}, &NotFoundError{Message: MsgNoData}
	}

	// An append may have cached a newer reading since Latest returned.
	if s.cache != nil {
		if _, err := s.cache.Fill(ctx, reading); err != nil {
			s.logger.Warn("failed to refresh latest reading cache", zap.Error(err))
		}
	}
	return reading, nil
}

// History returns every reading recorded within delta of now, in log order.
func (s *TelemetryService) History(ctx context.Context, delta string) ([]models.Reading, error) {
	window, err := ParseDelta(delta)
	if err != nil {
		return nil, s.fail("history", err)
	}

	n, err := s.store.Len(ctx)
	if err != nil {
		return nil, s.fail("history", fmt.Errorf("count readings: %w", err))
	}
	if n == 0 {
		return nil, s.fail("history", &NotFoundError{Message: MsgNoValidData})
	}

	threshold := s.now().Add(-window)
	readings, err := s.store.Since(ctx, threshold)
	if err != nil {
		return nil, s.fail("history", fmt.Errorf("scan readings: %w", err))
	}
	return readings, nil
}

// LoadFromSource appends every reading of the configured source to the log and returns how
// many were appended. A source that fails to convert appends nothing.
func (s *TelemetryService) LoadFromSource(ctx context.Context) (int, error) {
	if s.source == nil {
		return 0, s.fail("load", fmt.Errorf("no data source configured"))
	}

	readings, err := s.source.Load(ctx)
	if err != nil {
		return 0, s.fail("load", err)
	}
	if len(readings) == 0 {
		s.logger.Info("battery data source has no rows")
		return 0, nil
	}

	if err := s.store.Append(ctx, readings...); err != nil {
		return 0, s.fail("load", fmt.Errorf("append readings: %w", err))
	}

	latest := readings[len(readings)-1]
	metrics.ReadingsLoaded.Add(float64(len(readings)))
	s.afterAppend(ctx, latest)
	if s.publisher != nil {
		s.publisher.PublishLoad(len(readings), latest)
	}

	s.logger.Info("battery data loaded", zap.Int("rows", len(readings)))
	return len(readings), nil
}

func (s *TelemetryService) afterAppend(ctx context.Context, latest models.Reading) {
	if s.cache != nil {
		if err := s.cache.Set(ctx, latest); err != nil {
			s.logger.Warn("failed to cache latest reading", zap.Error(err))
		}
	}
	if n, err := s.store.Len(ctx); err == nil {
		metrics.ReadingLogLength.Set(float64(n))
	}
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

func (s *TelemetryService) fail(operation string, err error) error {
	kind := ErrorKind(err)
	metrics.OperationErrors.WithLabelValues(operation, kind).Inc()
	if kind == KindInternal {
		s.logger.Error("battery operation failed", zap.String("operation", operation), zap.Error(err))
	} else {
		s.logger.Debug("battery operation rejected", zap.String("operation", operation), zap.String("kind", kind), zap.Error(err))
	}
	return err
}
