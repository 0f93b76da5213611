package service

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"

	"batterypower/backend/services/battery-service/internal/models"
)

// StatusInput is the body of a status update. Both typed fields are required; any other
// field is optional and kept with the reading.
type StatusInput struct {
	EnergyAvailableKW *float64
	BatteryCapacityKW *float64
	Extra             map[string]any
}

// DecodeStatusInput reads a JSON object into a StatusInput. Non-numeric values for the
// required fields are rejected here; missing fields are left nil for RecordReading to report.
func DecodeStatusInput(r io.Reader) (StatusInput, error) {
	var raw map[string]json.RawMessage
	if err := json.NewDecoder(r).Decode(&raw); err != nil {
		return StatusInput{}, &ValidationError{Message: fmt.Sprintf("invalid json: %v", err)}
	}

	var input StatusInput
	for key, value := range raw {
		switch key {
		case models.FieldEnergyAvailable:
			v, err := decodeNumber(key, value)
			if err != nil {
				return StatusInput{}, err
			}
			input.EnergyAvailableKW = &v
		case models.FieldBatteryCapacity:
			v, err := decodeNumber(key, value)
			if err != nil {
				return StatusInput{}, err
			}
			input.BatteryCapacityKW = &v
		case models.FieldTimestamp, models.FieldBatteryLevel:
			// computed server-side
		default:
			var extra any
			if err := json.Unmarshal(value, &extra); err != nil {
				return StatusInput{}, &ValidationError{Message: fmt.Sprintf("invalid json: %v", err)}
			}
			if input.Extra == nil {
				input.Extra = make(map[string]any)
			}
			input.Extra[key] = extra
		}
	}
	return input, nil
}

func decodeNumber(key string, value json.RawMessage) (float64, error) {
	var v float64
	if bytes.Equal(bytes.TrimSpace(value), []byte("null")) {
		return 0, &ValidationError{Message: fmt.Sprintf("'%s' must be a number.", key)}
	}
	if err := json.Unmarshal(value, &v); err != nil {
		return 0, &ValidationError{Message: fmt.Sprintf("'%s' must be a number.", key)}
	}
	return v, nil
}
