// Package generator simulates a solar-charged battery and produces the rows of the battery
// data file.
package generator

import (
	"errors"
	"math"
	"math/rand"
	"time"

	"batterypower/backend/libs/batterycsv"
)

const (
	dayStartHour  = 8
	dayEndHour    = 17
	peakStartHour = 10
	peakEndHour   = 14

	minLevel = 20.0
	maxLevel = 100.0
)

// Params controls the simulated window and the battery.
type Params struct {
	End          time.Time
	Days         int
	Interval     time.Duration
	CapacityKW   float64
	InitialLevel float64
}

// Validate reports parameters Generate cannot work with.
func (p Params) Validate() error {
	switch {
	case p.Days <= 0:
		return errors.New("generator: days must be positive")
	case p.Interval <= 0:
		return errors.New("generator: interval must be positive")
	case p.CapacityKW <= 0:
		return errors.New("generator: capacity must be positive")
	case p.InitialLevel < 0 || p.InitialLevel > maxLevel:
		return errors.New("generator: initial level must be within 0..100")
	}
	return nil
}

// Count is the number of samples in the window.
func (p Params) Count() int {
	return int(time.Duration(p.Days) * 24 * time.Hour / p.Interval)
}

// Generate walks the window from End minus Days, one sample per Interval. Daytime hours
// charge the battery (faster at peak), night hours drain it. Level and energy are rounded
// to two decimals on output while the walk keeps the unrounded level.
func Generate(p Params, rng *rand.Rand) ([]batterycsv.Sample, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}

	start := p.End.Add(-time.Duration(p.Days) * 24 * time.Hour)
	n := p.Count()
	samples := make([]batterycsv.Sample, 0, n)

	level := p.InitialLevel
	for i := 0; i < n; i++ {
		ts := start.Add(time.Duration(i) * p.Interval)
		level = step(level, ts.Hour(), rng)
		energy := level / 100 * p.CapacityKW

		samples = append(samples, batterycsv.Sample{
			Timestamp:         ts,
			BatteryLevel:      round2(level),
			BatteryCapacityKW: p.CapacityKW,
			EnergyAvailableKW: round2(energy),
		})
	}
	return samples, nil
}

func step(level float64, hour int, rng *rand.Rand) float64 {
	if hour >= dayStartHour && hour <= dayEndHour {
		var change float64
		if hour >= peakStartHour && hour <= peakEndHour {
			change = uniform(rng, 0.2, 0.5)
		} else {
			change = uniform(rng, 0.1, 0.3)
		}
		return math.Min(maxLevel, level+change)
	}
	return math.Max(minLevel, level-uniform(rng, 0.1, 0.4))
}

func uniform(rng *rand.Rand, lo, hi float64) float64 {
	return lo + rng.Float64()*(hi-lo)
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
