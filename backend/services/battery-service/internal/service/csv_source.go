package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strconv"
	"time"

	"batterypower/backend/libs/batterycsv"
	"batterypower/backend/services/battery-service/internal/models"
)

var columnFields = map[string]string{
	batterycsv.ColumnTimestamp:       models.FieldTimestamp,
	batterycsv.ColumnBatteryLevel:    models.FieldBatteryLevel,
	batterycsv.ColumnBatteryCapacity: models.FieldBatteryCapacity,
	batterycsv.ColumnEnergyAvailable: models.FieldEnergyAvailable,
}

// CSVSource reads readings from the battery data file at a fixed path.
type CSVSource struct {
	path string
	loc  *time.Location
}

// NewCSVSource returns a source for path. Timestamps without a zone are read in loc.
func NewCSVSource(path string, loc *time.Location) *CSVSource {
	if loc == nil {
		loc = time.Local
	}
	return &CSVSource{path: path, loc: loc}
}

// Path returns the file the source reads.
func (s *CSVSource) Path() string {
	return s.path
}

// Load reads and converts the whole file. Nothing is returned unless every row converts.
func (s *CSVSource) Load(ctx context.Context) ([]models.Reading, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	table, err := batterycsv.ReadFile(s.path)
	if errors.Is(err, batterycsv.ErrEmptyFile) {
		return nil, &SourceFormatError{Message: "CSV file is empty.", Err: err}
	}
	if err != nil {
		return nil, fmt.Errorf("read battery data: %w", err)
	}
	return ReadingsFromTable(table, s.loc)
}

// ReadingsFromTable converts decoded rows into readings. Energy is derived from level and
// capacity when the file has no energy column or the cell is empty. Unknown columns are
// kept as extra fields.
func ReadingsFromTable(table *batterycsv.Table, loc *time.Location) ([]models.Reading, error) {
	if len(table.Missing(batterycsv.RequiredColumns...)) > 0 {
		return nil, &SourceFormatError{Message: MsgMissingColumns}
	}
	hasEnergy := table.Has(batterycsv.ColumnEnergyAvailable)

	readings := make([]models.Reading, 0, len(table.Rows))
	for _, row := range table.Rows {
		ts, err := batterycsv.ParseTimestamp(row.Fields[batterycsv.ColumnTimestamp], loc)
		if err != nil {
			return nil, rowError(row, batterycsv.ColumnTimestamp, err)
		}
		level, err := parseCell(row, batterycsv.ColumnBatteryLevel)
		if err != nil {
			return nil, err
		}
		capacity, err := parseCell(row, batterycsv.ColumnBatteryCapacity)
		if err != nil {
			return nil, err
		}

		var energy float64
		if hasEnergy && row.Fields[batterycsv.ColumnEnergyAvailable] != "" {
			energy, err = parseCell(row, batterycsv.ColumnEnergyAvailable)
			if err != nil {
				return nil, err
			}
		} else {
			energy = models.EnergyFromLevel(level, capacity)
		}

		readings = append(readings, models.Reading{
			Timestamp:         ts,
			EnergyAvailableKW: energy,
			BatteryCapacityKW: capacity,
			BatteryLevel:      level,
			Extra:             extraColumns(table.Columns, row),
		})
	}
	return readings, nil
}

func parseCell(row batterycsv.Row, column string) (float64, error) {
	v, err := strconv.ParseFloat(row.Fields[column], 64)
	if err != nil {
		return 0, rowError(row, column, err)
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, rowError(row, column, errors.New("value is not finite"))
	}
	return v, nil
}

func rowError(row batterycsv.Row, column string, err error) error {
	return &SourceFormatError{
		Message: fmt.Sprintf("line %d: invalid %s value %q", row.Line, column, row.Fields[column]),
		Err:     err,
	}
}

func extraColumns(columns []string, row batterycsv.Row) map[string]any {
	var extra map[string]any
	for _, c := range columns {
		if _, known := columnFields[c]; known || models.IsReservedField(c) {
			continue
		}
		if extra == nil {
			extra = make(map[string]any)
		}
		raw := row.Fields[c]
		switch {
		case raw == "":
			extra[c] = nil
		default:
			if v, err := strconv.ParseFloat(raw, 64); err == nil && !math.IsNaN(v) && !math.IsInf(v, 0) {
				extra[c] = v
			} else {
				extra[c] = raw
			}
		}
	}
	return extra
}
