package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"roomstay/internal/domain/booking"
	"roomstay/internal/pkg/config"
	"roomstay/internal/usecase/queries"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// AvailabilityCache stores availability results in Redis keyed by room,
// stay range and a per-room generation counter. Booking writes bump the
// generation, which orphans every cached entry for that room without
// scanning keys. Orphans age out via TTL.
type AvailabilityCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewAvailabilityCache(client *redis.Client, ttl time.Duration) *AvailabilityCache {
	return &AvailabilityCache{client: client, ttl: ttl}
}

func NewRedisClient(cfg config.RedisConfig) (*redis.Client, func(), error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, nil, err
	}

	cleanup := func() {
		if err := client.Close(); err != nil {
			slog.Warn("failed to close redis client", "error", err.Error())
		}
	}
	return client, cleanup, nil
}

func (c *AvailabilityCache) Get(ctx context.Context, roomID uuid.UUID, stay booking.StayRange) (*queries.AvailabilityResult, queries.CacheGeneration, bool) {
	gen, err := c.generation(ctx, roomID)
	if err != nil {
		return nil, 0, false
	}

	raw, err := c.client.Get(ctx, c.resultKey(roomID, stay, gen)).Bytes()
	if err != nil {
		if err != redis.Nil {
			slog.Warn("availability cache read failed", "room_id", roomID, "error", err.Error())
		}
		return nil, gen, false
	}

	var result queries.AvailabilityResult
	if err := json.Unmarshal(raw, &result); err != nil {
		slog.Warn("availability cache entry corrupt", "room_id", roomID, "error", err.Error())
		return nil, gen, false
	}
	return &result, gen, true
}

// Set stores under the generation captured by the matching Get. A bump
// that lands between the two leaves the entry orphaned under the old
// generation, where it ages out via TTL, instead of being served as
// fresh under the new one.
func (c *AvailabilityCache) Set(ctx context.Context, roomID uuid.UUID, stay booking.StayRange, gen queries.CacheGeneration, result *queries.AvailabilityResult) {
	raw, err := json.Marshal(result)
	if err != nil {
		return
	}

	if err := c.client.Set(ctx, c.resultKey(roomID, stay, gen), raw, c.ttl).Err(); err != nil {
		slog.Warn("availability cache write failed", "room_id", roomID, "error", err.Error())
	}
}

// Invalidate bumps the room's generation so stale entries stop resolving.
// Cache failures here only cost freshness, never correctness, because
// every booking decision re-checks the database inside its transaction.
func (c *AvailabilityCache) Invalidate(ctx context.Context, roomID uuid.UUID) {
	if err := c.client.Incr(ctx, c.generationKey(roomID)).Err(); err != nil {
		slog.Warn("availability cache invalidation failed", "room_id", roomID, "error", err.Error())
	}
}

func (c *AvailabilityCache) generation(ctx context.Context, roomID uuid.UUID) (queries.CacheGeneration, error) {
	gen, err := c.client.Get(ctx, c.generationKey(roomID)).Int64()
	if err == redis.Nil {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return queries.CacheGeneration(gen), nil
}

func (c *AvailabilityCache) generationKey(roomID uuid.UUID) string {
	return fmt.Sprintf("availability:gen:%s", roomID)
}

func (c *AvailabilityCache) resultKey(roomID uuid.UUID, stay booking.StayRange, gen queries.CacheGeneration) string {
	return fmt.Sprintf("availability:%s:%d:%s", roomID, gen, stay)
}
