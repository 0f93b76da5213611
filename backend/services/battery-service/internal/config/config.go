package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	libconfig "batterypower/backend/libs/config"
)

const (
	StorageMemory   = "memory"
	StoragePostgres = "postgres"

	defaultPort = "8000"
)

// Config defines battery service configuration.
type Config struct {
	HTTP     HTTPConfig     `yaml:"http"`
	Data     DataConfig     `yaml:"data"`
	Storage  StorageConfig  `yaml:"storage"`
	Database DatabaseConfig `yaml:"database"`
	Redis    RedisConfig    `yaml:"redis"`
	Stream   StreamConfig   `yaml:"stream"`
}

type HTTPConfig struct {
	Port string `yaml:"port" env:"BATTERY_HTTP_PORT"`
}

// DataConfig points at the CSV file read by POST /battery/load.
type DataConfig struct {
	CSVPath string `yaml:"csvPath" env:"BATTERY_CSV_PATH"`
}

type StorageConfig struct {
	Driver string `yaml:"driver" env:"BATTERY_STORAGE_DRIVER"`
}

type DatabaseConfig struct {
	DSN          string `yaml:"dsn" env:"BATTERY_POSTGRES_DSN"`
	MaxOpenConns int    `yaml:"maxOpenConns" env:"BATTERY_POSTGRES_MAX_OPEN_CONNS"`
	MaxIdleConns int    `yaml:"maxIdleConns" env:"BATTERY_POSTGRES_MAX_IDLE_CONNS"`
}

// RedisConfig enables the latest-reading cache when Addr is set.
type RedisConfig struct {
	Addr     string        `yaml:"addr" env:"BATTERY_REDIS_ADDR"`
	Password string        `yaml:"password" env:"BATTERY_REDIS_PASSWORD"`
	DB       int           `yaml:"db" env:"BATTERY_REDIS_DB"`
	TTL      time.Duration `yaml:"ttl" env:"BATTERY_REDIS_TTL"`
}

type StreamConfig struct {
	PingInterval time.Duration `yaml:"pingInterval" env:"BATTERY_STREAM_PING_INTERVAL"`
	WriteTimeout time.Duration `yaml:"writeTimeout" env:"BATTERY_STREAM_WRITE_TIMEOUT"`
}

// Default returns the configuration used when nothing is overridden.
func Default() *Config {
	return &Config{
		HTTP:     HTTPConfig{Port: defaultPort},
		Data:     DataConfig{CSVPath: "battery_data.csv"},
		Storage:  StorageConfig{Driver: StorageMemory},
		Database: DatabaseConfig{MaxOpenConns: 10, MaxIdleConns: 5},
		Redis:    RedisConfig{TTL: 10 * time.Minute},
		Stream:   StreamConfig{PingInterval: 30 * time.Second, WriteTimeout: 10 * time.Second},
	}
}

// Load configuration using shared helper.
func Load() (*Config, error) {
	cfg := Default()
	if err := libconfig.LoadConfig(cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate normalizes the storage driver and checks cross-field requirements.
func (c *Config) Validate() error {
	c.Storage.Driver = strings.ToLower(strings.TrimSpace(c.Storage.Driver))
	switch c.Storage.Driver {
	case "":
		c.Storage.Driver = StorageMemory
	case StorageMemory:
	case StoragePostgres:
		if strings.TrimSpace(c.Database.DSN) == "" {
			return errors.New("config: database dsn required for postgres storage")
		}
	default:
		return fmt.Errorf("config: unknown storage driver %q", c.Storage.Driver)
	}

	if strings.TrimSpace(c.Data.CSVPath) == "" {
		return errors.New("config: csv path required")
	}
	if c.Stream.PingInterval <= 0 || c.Stream.WriteTimeout <= 0 {
		return errors.New("config: stream intervals must be positive")
	}
	return nil
}

// HTTPAddress returns :port style.
func (c *Config) HTTPAddress() string {
	port := strings.TrimSpace(c.HTTP.Port)
	if port == "" {
		port = defaultPort
	}
	if strings.HasPrefix(port, ":") {
		return port
	}
	return fmt.Sprintf(":%s", port)
}
