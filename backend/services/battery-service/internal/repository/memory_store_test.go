package repository

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"batterypower/backend/services/battery-service/internal/models"
)

func reading(ts time.Time, energy float64) models.Reading {
	return models.Reading{
		Timestamp:         ts,
		EnergyAvailableKW: energy,
		BatteryCapacityKW: 10,
		BatteryLevel:      models.LevelFromEnergy(energy, 10),
	}
}

func TestMemoryStoreLatest(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	_, ok, err := store.Latest(ctx)
	require.NoError(t, err)
	assert.False(t, ok)

	base := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	require.NoError(t, store.Append(ctx, reading(base, 1), reading(base.Add(time.Minute), 2)))

	latest, ok, err := store.Latest(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, 2.0, latest.EnergyAvailableKW)
}

func TestMemoryStoreSinceKeepsLogOrder(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	base := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)

	// Insertion order is not chronological on purpose.
	require.NoError(t, store.Append(ctx,
		reading(base.Add(2*time.Hour), 3),
		reading(base, 1),
		reading(base.Add(time.Hour), 2),
	))

	got, err := store.Since(ctx, base.Add(time.Hour))
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, 3.0, got[0].EnergyAvailableKW)
	assert.Equal(t, 2.0, got[1].EnergyAvailableKW)

	none, err := store.Since(ctx, base.Add(3*time.Hour))
	require.NoError(t, err)
	assert.NotNil(t, none)
	assert.Empty(t, none)
}

func TestMemoryStoreRejectsBatchWithoutTimestamp(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	base := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)

	err := store.Append(ctx, reading(base, 1), models.Reading{EnergyAvailableKW: 2, BatteryCapacityKW: 10})
	require.ErrorIs(t, err, ErrMissingTimestamp)

	n, err := store.Len(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestMemoryStoreConcurrentAppend(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	base := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_ = store.Append(ctx, reading(base.Add(time.Duration(i)*time.Second), float64(i%10)))
			_, _ = store.Since(ctx, base)
		}(i)
	}
	wg.Wait()

	n, err := store.Len(ctx)
	require.NoError(t, err)
	assert.Equal(t, 50, n)
}
