package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("CONFIG_FILE", "")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "battery_data.csv", cfg.Output)
	assert.Equal(t, 2, cfg.Days)
	assert.Equal(t, time.Minute, cfg.Interval)
	assert.Equal(t, 10.0, cfg.CapacityKW)
	assert.Equal(t, 50.0, cfg.InitialLevel)
	assert.Zero(t, cfg.Seed)
	require.NoError(t, cfg.Validate())
}

func TestLoadReadsEnvironment(t *testing.T) {
	t.Setenv("CONFIG_FILE", "")
	t.Setenv("GENERATOR_OUTPUT", "/tmp/out.csv")
	t.Setenv("GENERATOR_DAYS", "3")
	t.Setenv("GENERATOR_SEED", "99")
	t.Setenv("GENERATOR_CAPACITY_KW", "13.5")
	t.Setenv("GENERATOR_NOTIFY_URL", "http://localhost:8000")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "/tmp/out.csv", cfg.Output)
	assert.Equal(t, 3, cfg.Days)
	assert.Equal(t, int64(99), cfg.Seed)
	assert.Equal(t, 13.5, cfg.CapacityKW)
	assert.Equal(t, "http://localhost:8000", cfg.NotifyURL)
}

func TestValidateRequiresOutput(t *testing.T) {
	cfg := Default()
	cfg.Output = " "
	assert.Error(t, cfg.Validate())
}
