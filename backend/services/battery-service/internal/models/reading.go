package models

import (
	"encoding/json"
	"fmt"
	"time"
)

// JSON keys of the four typed reading fields.
const (
	FieldTimestamp       = "timestamp"
	FieldEnergyAvailable = "energy_available_kW"
	FieldBatteryCapacity = "battery_capacity_kW"
	FieldBatteryLevel    = "battery_level"
)

// Reading is a single battery telemetry sample. Extra carries any additional fields supplied
// by the client or the source file; they are flattened next to the typed fields on output.
type Reading struct {
	Timestamp         time.Time      `json:"timestamp"`
	EnergyAvailableKW float64        `json:"energy_available_kW"`
	BatteryCapacityKW float64        `json:"battery_capacity_kW"`
	BatteryLevel      float64        `json:"battery_level"`
	Extra             map[string]any `json:"-"`
}

// CurrentStatus is the four-field view returned by the current endpoint.
type CurrentStatus struct {
	Timestamp         time.Time `json:"timestamp"`
	BatteryLevel      float64   `json:"battery_level"`
	BatteryCapacityKW float64   `json:"battery_capacity_kW"`
	EnergyAvailableKW float64   `json:"energy_available_kW"`
}

// LevelFromEnergy returns the charge percentage for the given energy and capacity.
func LevelFromEnergy(energyKW, capacityKW float64) float64 {
	return energyKW / capacityKW * 100
}

// EnergyFromLevel is the inverse of LevelFromEnergy.
func EnergyFromLevel(level, capacityKW float64) float64 {
	return level / 100 * capacityKW
}

// Status returns the four-field view of the reading.
func (r Reading) Status() CurrentStatus {
	return CurrentStatus{
		Timestamp:         r.Timestamp,
		BatteryLevel:      r.BatteryLevel,
		BatteryCapacityKW: r.BatteryCapacityKW,
		EnergyAvailableKW: r.EnergyAvailableKW,
	}
}

// IsReservedField reports whether key names one of the typed fields.
func IsReservedField(key string) bool {
	switch key {
	case FieldTimestamp, FieldEnergyAvailable, FieldBatteryCapacity, FieldBatteryLevel:
		return true
	}
	return false
}

// MarshalJSON flattens Extra into the object; typed fields win on collision.
func (r Reading) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(r.Extra)+4)
	for k, v := range r.Extra {
		if IsReservedField(k) {
			continue
		}
		out[k] = v
	}
	out[FieldTimestamp] = r.Timestamp
	out[FieldEnergyAvailable] = r.EnergyAvailableKW
	out[FieldBatteryCapacity] = r.BatteryCapacityKW
	out[FieldBatteryLevel] = r.BatteryLevel
	return json.Marshal(out)
}

// UnmarshalJSON reverses MarshalJSON: unknown keys end up in Extra.
func (r *Reading) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	var decoded Reading
	targets := map[string]any{
		FieldTimestamp:       &decoded.Timestamp,
		FieldEnergyAvailable: &decoded.EnergyAvailableKW,
		FieldBatteryCapacity: &decoded.BatteryCapacityKW,
		FieldBatteryLevel:    &decoded.BatteryLevel,
	}
	for key, value := range raw {
		if target, ok := targets[key]; ok {
			if err := json.Unmarshal(value, target); err != nil {
				return fmt.Errorf("reading: decode %s: %w", key, err)
			}
			continue
		}
		var extra any
		if err := json.Unmarshal(value, &extra); err != nil {
			return fmt.Errorf("reading: decode %s: %w", key, err)
		}
		if decoded.Extra == nil {
			decoded.Extra = make(map[string]any)
		}
		decoded.Extra[key] = extra
	}

	*r = decoded
	return nil
}
