package redisstore

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"batterypower/backend/services/battery-service/internal/models"
)

const latestKey = "battery:current"

// LatestCache keeps the most recent reading in redis so the current endpoint does not
// have to touch the reading log.
type LatestCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewLatestCache returns redis-backed cache.
func NewLatestCache(client *redis.Client, ttl time.Duration) *LatestCache {
	return &LatestCache{client: client, ttl: ttl}
}

// Set stores the reading as the latest one.
func (c *LatestCache) Set(ctx context.Context, reading models.Reading) error {
	data, err := json.Marshal(reading)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, latestKey, data, c.ttl).Err()
}

// Fill stores the reading only if no reading is cached, so a reading read from the log
// cannot replace one cached by a newer append.
func (c *LatestCache) Fill(ctx context.Context, reading models.Reading) (bool, error) {
	data, err := json.Marshal(reading)
	if err != nil {
		return false, err
	}
	return c.client.SetNX(ctx, latestKey, data, c.ttl).Result()
}

// Get returns the cached reading; false on a cache miss.
func (c *LatestCache) Get(ctx context.Context) (models.Reading, bool, error) {
	result, err := c.client.Get(ctx, latestKey).Bytes()
	if errors.Is(err, redis.Nil) {
		return models.Reading{}, false, nil
	}
	if err != nil {
		return models.Reading{}, false, err
	}
	var reading models.Reading
	if err := json.Unmarshal(result, &reading); err != nil {
		return models.Reading{}, false, err
	}
	return reading, true, nil
}

// Clear drops the cached reading.
func (c *LatestCache) Clear(ctx context.Context) error {
	return c.client.Del(ctx, latestKey).Err()
}
