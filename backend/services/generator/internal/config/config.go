package config

import (
	"errors"
	"strings"
	"time"

	libconfig "batterypower/backend/libs/config"
)

// Config defines generator configuration.
type Config struct {
	Output       string        `yaml:"output" env:"GENERATOR_OUTPUT"`
	Days         int           `yaml:"days" env:"GENERATOR_DAYS"`
	Interval     time.Duration `yaml:"interval" env:"GENERATOR_INTERVAL"`
	Seed         int64         `yaml:"seed" env:"GENERATOR_SEED"`
	CapacityKW   float64       `yaml:"capacityKW" env:"GENERATOR_CAPACITY_KW"`
	InitialLevel float64       `yaml:"initialLevel" env:"GENERATOR_INITIAL_LEVEL"`
	NotifyURL    string        `yaml:"notifyURL" env:"GENERATOR_NOTIFY_URL"`
}

// Default returns a two day, one sample per minute run of a 10 kW battery starting at 50%.
func Default() *Config {
	return &Config{
		Output:       "battery_data.csv",
		Days:         2,
		Interval:     time.Minute,
		CapacityKW:   10,
		InitialLevel: 50,
	}
}

// Load configuration using shared helper.
func Load() (*Config, error) {
	cfg := Default()
	if err := libconfig.LoadConfig(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the values flags cannot fix up on their own.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Output) == "" {
		return errors.New("config: output path required")
	}
	return nil
}
