// Package batterycsv describes the tabular battery data file exchanged between the
// generator and the battery service, and reads and writes it.
package batterycsv

import (
	"fmt"
	"strings"
	"time"
)

// Column names of the battery data file.
const (
	ColumnTimestamp       = "Timestamp"
	ColumnBatteryLevel    = "Battery_Level"
	ColumnBatteryCapacity = "Battery_Capacity_kW"
	ColumnEnergyAvailable = "Energy_Available_kW"
)

// TimestampLayout is the layout the generator writes: local wall clock, microseconds, no zone.
const TimestampLayout = "2006-01-02 15:04:05.000000"

// RequiredColumns must be present for a file to be loadable.
var RequiredColumns = []string{ColumnTimestamp, ColumnBatteryLevel, ColumnBatteryCapacity}

// Header is the full column order written by WriteSamples.
var Header = []string{ColumnTimestamp, ColumnBatteryLevel, ColumnBatteryCapacity, ColumnEnergyAvailable}

var zonedLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05Z07:00",
	"2006-01-02 15:04:05Z07:00",
	"2006-01-02 15:04:05-07:00",
}

var naiveLayouts = []string{
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
	"01/02/2006 15:04:05",
	"01/02/2006 15:04",
}

// ParseTimestamp accepts the generator layout plus the common ISO-8601 variants. Values without
// a zone are interpreted in loc.
func ParseTimestamp(raw string, loc *time.Location) (time.Time, error) {
	value := strings.TrimSpace(raw)
	if value == "" {
		return time.Time{}, fmt.Errorf("batterycsv: empty timestamp")
	}
	if loc == nil {
		loc = time.Local
	}
	for _, layout := range zonedLayouts {
		if ts, err := time.Parse(layout, value); err == nil {
			return ts, nil
		}
	}
	for _, layout := range naiveLayouts {
		if ts, err := time.ParseInLocation(layout, value, loc); err == nil {
			return ts, nil
		}
	}
	return time.Time{}, fmt.Errorf("batterycsv: unrecognized timestamp %q", raw)
}
