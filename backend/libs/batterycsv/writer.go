package batterycsv

import (
	"encoding/csv"
	"io"
	"os"
	"strconv"
	"time"
)

// Sample is one row of the battery data file.
type Sample struct {
	Timestamp         time.Time
	BatteryLevel      float64
	BatteryCapacityKW float64
	EnergyAvailableKW float64
}

// WriteSamples writes the header followed by one row per sample. Level and energy are
// written with two decimals.
func WriteSamples(w io.Writer, samples []Sample) error {
	writer := csv.NewWriter(w)

	if err := writer.Write(Header); err != nil {
		return err
	}

	for _, s := range samples {
		record := []string{
			s.Timestamp.Format(TimestampLayout),
			strconv.FormatFloat(s.BatteryLevel, 'f', 2, 64),
			strconv.FormatFloat(s.BatteryCapacityKW, 'f', -1, 64),
			strconv.FormatFloat(s.EnergyAvailableKW, 'f', 2, 64),
		}
		if err := writer.Write(record); err != nil {
			return err
		}
	}

	writer.Flush()
	return writer.Error()
}

// WriteFile creates (or truncates) path and writes samples into it.
func WriteFile(path string, samples []Sample) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := WriteSamples(file, samples); err != nil {
		file.Close()
		return err
	}
	return file.Close()
}
