package service

import (
	"context"
	"errors"
	"math"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"batterypower/backend/services/battery-service/internal/models"
	"batterypower/backend/services/battery-service/internal/repository"
)

type fakeCache struct {
	mu      sync.Mutex
	reading models.Reading
	ok      bool
	getErr  error
	sets    int
}

func (c *fakeCache) Get(context.Context) (models.Reading, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.reading, c.ok, c.getErr
}

func (c *fakeCache) Set(_ context.Context, r models.Reading) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.reading, c.ok = r, true
	c.sets++
	return nil
}

func (c *fakeCache) Fill(_ context.Context, r models.Reading) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.ok {
		return false, nil
	}
	c.reading, c.ok = r, true
	c.sets++
	return true, nil
}

type fakePublisher struct {
	readings []models.Reading
	loads    []int
}

func (p *fakePublisher) PublishReading(r models.Reading) { p.readings = append(p.readings, r) }

func (p *fakePublisher) PublishLoad(count int, _ models.Reading) { p.loads = append(p.loads, count) }

type failingStore struct {
	repository.ReadingStore
}

func (failingStore) Append(context.Context, ...models.Reading) error { return errors.New("disk full") }

// interleavingStore runs beforeReturn after Latest has read the tail but before it returns.
type interleavingStore struct {
	*repository.MemoryStore
	beforeReturn func()
}

func (s *interleavingStore) Latest(ctx context.Context) (models.Reading, bool, error) {
	reading, ok, err := s.MemoryStore.Latest(ctx)
	if s.beforeReturn != nil {
		hook := s.beforeReturn
		s.beforeReturn = nil
		hook()
	}
	return reading, ok, err
}

var fixedNow = time.Date(2024, 5, 3, 12, 0, 0, 0, time.Local)

func newTestService(t *testing.T, opts Options) (*TelemetryService, *repository.MemoryStore) {
	t.Helper()
	store := repository.NewMemoryStore()
	if opts.Now == nil {
		opts.Now = func() time.Time { return fixedNow }
	}
	return NewTelemetryService(store, zap.NewNop(), opts), store
}

func ptr(v float64) *float64 { return &v }

func storeLen(t *testing.T, store repository.ReadingStore) int {
	t.Helper()
	n, err := store.Len(context.Background())
	require.NoError(t, err)
	return n
}

func TestRecordReadingDerivesLevel(t *testing.T) {
	cache := &fakeCache{}
	pub := &fakePublisher{}
	svc, store := newTestService(t, Options{Cache: cache, Publisher: pub})

	reading, err := svc.RecordReading(context.Background(), StatusInput{
		EnergyAvailableKW: ptr(8.5),
		BatteryCapacityKW: ptr(10),
		Extra:             map[string]any{"site": "garage"},
	})
	require.NoError(t, err)

	assert.InDelta(t, 85.0, reading.BatteryLevel, 1e-9)
	assert.Equal(t, fixedNow, reading.Timestamp)
	assert.Equal(t, "garage", reading.Extra["site"])
	assert.Equal(t, 1, storeLen(t, store))
	assert.Equal(t, 1, cache.sets)
	require.Len(t, pub.readings, 1)
	assert.Equal(t, reading.BatteryLevel, pub.readings[0].BatteryLevel)
}

func TestRecordReadingLevelFormula(t *testing.T) {
	svc, _ := newTestService(t, Options{})
	cases := []struct{ energy, capacity float64 }{
		{0, 10}, {10, 10}, {3.3, 7.5}, {0.001, 250}, {12, 10},
	}
	for _, c := range cases {
		r, err := svc.RecordReading(context.Background(), StatusInput{EnergyAvailableKW: ptr(c.energy), BatteryCapacityKW: ptr(c.capacity)})
		require.NoError(t, err)
		assert.InDelta(t, 100*c.energy/c.capacity, r.BatteryLevel, 1e-9)
	}
}

func TestRecordReadingRejectsMissingFields(t *testing.T) {
	svc, store := newTestService(t, Options{})
	inputs := []StatusInput{
		{},
		{EnergyAvailableKW: ptr(1)},
		{BatteryCapacityKW: ptr(10)},
	}
	for _, in := range inputs {
		_, err := svc.RecordReading(context.Background(), in)
		var verr *ValidationError
		require.ErrorAs(t, err, &verr)
		assert.Equal(t, MsgInvalidStatusFormat, verr.Message)
	}
	assert.Zero(t, storeLen(t, store))
}

func TestRecordReadingRejectsBadCapacityAndEnergy(t *testing.T) {
	svc, store := newTestService(t, Options{})

	_, err := svc.RecordReading(context.Background(), StatusInput{EnergyAvailableKW: ptr(1), BatteryCapacityKW: ptr(0)})
	assert.Equal(t, KindValidation, ErrorKind(err))

	_, err = svc.RecordReading(context.Background(), StatusInput{EnergyAvailableKW: ptr(-1), BatteryCapacityKW: ptr(10)})
	assert.Equal(t, KindValidation, ErrorKind(err))

	assert.Zero(t, storeLen(t, store))
}

func TestRecordReadingRejectsNonFiniteLevel(t *testing.T) {
	svc, store := newTestService(t, Options{})
	ctx := context.Background()

	_, err := svc.RecordReading(ctx, StatusInput{EnergyAvailableKW: ptr(1e308), BatteryCapacityKW: ptr(1e-10)})
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Message, "battery_level")

	_, err = svc.RecordReading(ctx, StatusInput{EnergyAvailableKW: ptr(math.Inf(1)), BatteryCapacityKW: ptr(10)})
	assert.Equal(t, KindValidation, ErrorKind(err))

	_, err = svc.RecordReading(ctx, StatusInput{EnergyAvailableKW: ptr(1), BatteryCapacityKW: ptr(math.NaN())})
	assert.Equal(t, KindValidation, ErrorKind(err))

	assert.Zero(t, storeLen(t, store))
}

func TestRecordReadingStoreFailure(t *testing.T) {
	svc := NewTelemetryService(failingStore{repository.NewMemoryStore()}, zap.NewNop(), Options{})
	_, err := svc.RecordReading(context.Background(), StatusInput{EnergyAvailableKW: ptr(1), BatteryCapacityKW: ptr(2)})
	require.Error(t, err)
	assert.Equal(t, KindInternal, ErrorKind(err))
	assert.Contains(t, err.Error(), "disk full")
}

func TestCurrentEmptyAndAfterIngest(t *testing.T) {
	svc, _ := newTestService(t, Options{})

	_, err := svc.Current(context.Background())
	var nf *NotFoundError
	require.ErrorAs(t, err, &nf)
	assert.Equal(t, MsgNoData, nf.Message)

	_, err = svc.RecordReading(context.Background(), StatusInput{EnergyAvailableKW: ptr(8.5), BatteryCapacityKW: ptr(10)})
	require.NoError(t, err)

	current, err := svc.Current(context.Background())
	require.NoError(t, err)
	status := current.Status()
	assert.Equal(t, fixedNow, status.Timestamp)
	assert.InDelta(t, 85.0, status.BatteryLevel, 1e-9)
	assert.Equal(t, 10.0, status.BatteryCapacityKW)
	assert.Equal(t, 8.5, status.EnergyAvailableKW)
}

func TestCurrentPrefersCacheAndFallsBack(t *testing.T) {
	cached := models.Reading{Timestamp: fixedNow, EnergyAvailableKW: 1, BatteryCapacityKW: 2, BatteryLevel: 50}
	cache := &fakeCache{reading: cached, ok: true}
	svc, store := newTestService(t, Options{Cache: cache})

	got, err := svc.Current(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 50.0, got.BatteryLevel)

	cache.getErr = errors.New("redis down")
	require.NoError(t, store.Append(context.Background(), models.Reading{Timestamp: fixedNow, EnergyAvailableKW: 3, BatteryCapacityKW: 4, BatteryLevel: 75}))
	got, err = svc.Current(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 75.0, got.BatteryLevel)
}

func TestCurrentMissDoesNotOverwriteNewerAppend(t *testing.T) {
	ctx := context.Background()
	store := &interleavingStore{MemoryStore: repository.NewMemoryStore()}
	cache := &fakeCache{}
	svc := NewTelemetryService(store, zap.NewNop(), Options{Cache: cache, Now: func() time.Time { return fixedNow }})

	require.NoError(t, store.Append(ctx, models.Reading{Timestamp: fixedNow, EnergyAvailableKW: 1, BatteryCapacityKW: 10, BatteryLevel: 10}))

	store.beforeReturn = func() {
		_, err := svc.RecordReading(ctx, StatusInput{EnergyAvailableKW: ptr(9), BatteryCapacityKW: ptr(10)})
		require.NoError(t, err)
	}
	stale, err := svc.Current(ctx)
	require.NoError(t, err)
	assert.Equal(t, 10.0, stale.BatteryLevel)

	got, err := svc.Current(ctx)
	require.NoError(t, err)
	assert.InDelta(t, 90.0, got.BatteryLevel, 1e-9)
}

func TestHistoryWindows(t *testing.T) {
	svc, store := newTestService(t, Options{})
	ctx := context.Background()

	ages := []time.Duration{36 * time.Hour, 23 * time.Hour, 3 * time.Hour, 90 * time.Minute, 10 * time.Minute}
	for i, age := range ages {
		require.NoError(t, store.Append(ctx, models.Reading{
			Timestamp:         fixedNow.Add(-age),
			EnergyAvailableKW: float64(i),
			BatteryCapacityKW: 10,
			BatteryLevel:      float64(i) * 10,
		}))
	}

	day, err := svc.History(ctx, "1d")
	require.NoError(t, err)
	require.Len(t, day, 4)
	for _, r := range day {
		assert.False(t, r.Timestamp.Before(fixedNow.Add(-24*time.Hour)))
	}
	assert.Equal(t, 1.0, day[0].EnergyAvailableKW)

	twoHours, err := svc.History(ctx, "2h")
	require.NoError(t, err)
	require.Len(t, twoHours, 2)
	assert.Equal(t, 3.0, twoHours[0].EnergyAvailableKW)

	minutes, err := svc.History(ctx, "30m")
	require.NoError(t, err)
	require.Len(t, minutes, 1)

	none, err := svc.History(ctx, "1m")
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestHistoryErrors(t *testing.T) {
	svc, store := newTestService(t, Options{})
	ctx := context.Background()

	_, err := svc.History(ctx, "1d")
	var nf *NotFoundError
	require.ErrorAs(t, err, &nf)
	assert.Equal(t, MsgNoValidData, nf.Message)

	require.NoError(t, store.Append(ctx, models.Reading{Timestamp: fixedNow, BatteryCapacityKW: 10}))
	for _, delta := range []string{"abc", "", "1w", "1dx", "-1d", "h"} {
		_, err := svc.History(ctx, delta)
		var verr *ValidationError
		require.ErrorAs(t, err, &verr, delta)
		assert.Equal(t, MsgInvalidDelta, verr.Message)
	}
	assert.Equal(t, 1, storeLen(t, store))
}

func writeFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "battery_data.csv")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadFromSourceDerivesEnergy(t *testing.T) {
	path := writeFile(t, "Timestamp,Battery_Level,Battery_Capacity_kW\n"+
		"2024-05-01 00:00:00,50,10\n"+
		"2024-05-01 00:01:00,62.5,8\n")
	pub := &fakePublisher{}
	cache := &fakeCache{}
	svc, store := newTestService(t, Options{Source: NewCSVSource(path, time.Local), Publisher: pub, Cache: cache})

	n, err := svc.LoadFromSource(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, 2, storeLen(t, store))

	readings, err := store.Since(context.Background(), time.Time{})
	require.NoError(t, err)
	assert.InDelta(t, 5.0, readings[0].EnergyAvailableKW, 1e-9)
	assert.InDelta(t, 5.0, readings[1].EnergyAvailableKW, 1e-9)
	assert.True(t, time.Date(2024, 5, 1, 0, 1, 0, 0, time.Local).Equal(readings[1].Timestamp))
	assert.Equal(t, []int{2}, pub.loads)
	assert.Equal(t, 62.5, cache.reading.BatteryLevel)
}

func TestLoadFromSourceDerivesEnergyForShortRows(t *testing.T) {
	path := writeFile(t, "Timestamp,Battery_Level,Battery_Capacity_kW,Energy_Available_kW\n"+
		"2024-05-01 00:00:00,50,10,4.9\n"+
		"2024-05-01 00:01:00,40,10\n")
	svc, store := newTestService(t, Options{Source: NewCSVSource(path, time.Local)})

	n, err := svc.LoadFromSource(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	readings, err := store.Since(context.Background(), time.Time{})
	require.NoError(t, err)
	assert.Equal(t, 4.9, readings[0].EnergyAvailableKW)
	assert.InDelta(t, 4.0, readings[1].EnergyAvailableKW, 1e-9)
}

func TestLoadFromSourceKeepsEnergyColumnAndExtras(t *testing.T) {
	path := writeFile(t, "Timestamp,Battery_Level,Battery_Capacity_kW,Energy_Available_kW,Site,Temp\n"+
		"2024-05-01 00:00:00.000000,50,10,4.9,roof,21.5\n"+
		"2024-05-01 00:01:00.000000,50,10,,roof,\n")
	svc, store := newTestService(t, Options{Source: NewCSVSource(path, time.Local)})

	_, err := svc.LoadFromSource(context.Background())
	require.NoError(t, err)

	readings, err := store.Since(context.Background(), time.Time{})
	require.NoError(t, err)
	require.Len(t, readings, 2)
	assert.Equal(t, 4.9, readings[0].EnergyAvailableKW)
	assert.Equal(t, 5.0, readings[1].EnergyAvailableKW)
	assert.Equal(t, map[string]any{"Site": "roof", "Temp": 21.5}, readings[0].Extra)
	assert.Nil(t, readings[1].Extra["Temp"])
}

func TestLoadFromSourceMissingColumnAppendsNothing(t *testing.T) {
	path := writeFile(t, "Timestamp,Battery_Level\n2024-05-01 00:00:00,50\n")
	svc, store := newTestService(t, Options{Source: NewCSVSource(path, time.Local)})

	_, err := svc.LoadFromSource(context.Background())
	var serr *SourceFormatError
	require.ErrorAs(t, err, &serr)
	assert.Equal(t, MsgMissingColumns, serr.Message)
	assert.Zero(t, storeLen(t, store))
}

func TestLoadFromSourceBadRowAppendsNothing(t *testing.T) {
	path := writeFile(t, "Timestamp,Battery_Level,Battery_Capacity_kW\n"+
		"2024-05-01 00:00:00,50,10\n"+
		"2024-05-01 00:01:00,full,10\n")
	svc, store := newTestService(t, Options{Source: NewCSVSource(path, time.Local)})

	_, err := svc.LoadFromSource(context.Background())
	require.Error(t, err)
	assert.Equal(t, KindSourceFormat, ErrorKind(err))
	assert.Contains(t, err.Error(), "line 3")
	assert.Zero(t, storeLen(t, store))
}

func TestLoadFromSourceMissingFileAndEmptyFile(t *testing.T) {
	svc, _ := newTestService(t, Options{Source: NewCSVSource(filepath.Join(t.TempDir(), "absent.csv"), time.Local)})
	_, err := svc.LoadFromSource(context.Background())
	require.Error(t, err)
	assert.Equal(t, KindInternal, ErrorKind(err))

	svc, _ = newTestService(t, Options{Source: NewCSVSource(writeFile(t, ""), time.Local)})
	_, err = svc.LoadFromSource(context.Background())
	assert.Equal(t, KindSourceFormat, ErrorKind(err))

	svc, store := newTestService(t, Options{Source: NewCSVSource(writeFile(t, "Timestamp,Battery_Level,Battery_Capacity_kW\n"), time.Local)})
	n, err := svc.LoadFromSource(context.Background())
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.Zero(t, storeLen(t, store))
}
