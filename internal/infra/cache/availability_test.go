//go:build unit

package cache_test

import (
	"context"
	"testing"
	"time"

	"roomstay/internal/domain/booking"
	"roomstay/internal/infra/cache"
	"roomstay/internal/usecase/queries"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCache(t *testing.T) (*cache.AvailabilityCache, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	return cache.NewAvailabilityCache(client, 5*time.Minute), mr
}

func mustStay(t *testing.T, in, out string) booking.StayRange {
	t.Helper()

	checkIn, err := time.Parse(time.DateOnly, in)
	require.NoError(t, err)
	checkOut, err := time.Parse(time.DateOnly, out)
	require.NoError(t, err)

	stay, err := booking.NewStayRange(checkIn, checkOut)
	require.NoError(t, err)
	return stay
}

// store runs the read-miss-then-write sequence a caller performs.
func store(ctx context.Context, c *cache.AvailabilityCache, roomID uuid.UUID, stay booking.StayRange, result *queries.AvailabilityResult) {
	_, gen, _ := c.Get(ctx, roomID, stay)
	c.Set(ctx, roomID, stay, gen, result)
}

func TestAvailabilityCache_GetSet(t *testing.T) {
	ctx := context.Background()
	c, _ := newTestCache(t)

	roomID := uuid.New()
	stay := mustStay(t, "2025-03-10", "2025-03-14")

	t.Run("miss on empty cache", func(t *testing.T) {
		result, _, ok := c.Get(ctx, roomID, stay)
		assert.False(t, ok)
		assert.Nil(t, result)
	})

	t.Run("hit after set round-trips the result", func(t *testing.T) {
		stored := &queries.AvailabilityResult{
			Available: true,
			Pricing: &queries.PricingSummary{
				BasePriceCents: 12000,
				Nights:         4,
				HasAdjustments: true,
			},
		}
		store(ctx, c, roomID, stay, stored)

		result, _, ok := c.Get(ctx, roomID, stay)
		require.True(t, ok)
		assert.True(t, result.Available)
		require.NotNil(t, result.Pricing)
		assert.Equal(t, int64(12000), result.Pricing.BasePriceCents)
		assert.Equal(t, int32(4), result.Pricing.Nights)
		assert.True(t, result.Pricing.HasAdjustments)
	})

	t.Run("different stay range misses", func(t *testing.T) {
		other := mustStay(t, "2025-03-14", "2025-03-16")
		_, _, ok := c.Get(ctx, roomID, other)
		assert.False(t, ok)
	})
}

func TestAvailabilityCache_Invalidate(t *testing.T) {
	ctx := context.Background()
	c, _ := newTestCache(t)

	roomID := uuid.New()
	otherRoomID := uuid.New()
	stay := mustStay(t, "2025-03-10", "2025-03-14")

	store(ctx, c, roomID, stay, &queries.AvailabilityResult{Available: true})
	store(ctx, c, otherRoomID, stay, &queries.AvailabilityResult{Available: true})

	c.Invalidate(ctx, roomID)

	t.Run("invalidated room misses", func(t *testing.T) {
		_, _, ok := c.Get(ctx, roomID, stay)
		assert.False(t, ok)
	})

	t.Run("other rooms keep their entries", func(t *testing.T) {
		result, _, ok := c.Get(ctx, otherRoomID, stay)
		require.True(t, ok)
		assert.True(t, result.Available)
	})

	t.Run("set after invalidation is visible again", func(t *testing.T) {
		store(ctx, c, roomID, stay, &queries.AvailabilityResult{Available: false, Message: "room is blocked"})

		result, _, ok := c.Get(ctx, roomID, stay)
		require.True(t, ok)
		assert.False(t, result.Available)
		assert.Equal(t, "room is blocked", result.Message)
	})

	t.Run("bump between read and write orphans the entry", func(t *testing.T) {
		// A booking commits while the availability query is between its
		// cache miss and its write-back. The write must land under the
		// generation captured at read time, never the bumped one.
		racedRoomID := uuid.New()
		_, gen, ok := c.Get(ctx, racedRoomID, stay)
		require.False(t, ok)

		c.Invalidate(ctx, racedRoomID)

		c.Set(ctx, racedRoomID, stay, gen, &queries.AvailabilityResult{Available: true})

		_, _, ok = c.Get(ctx, racedRoomID, stay)
		assert.False(t, ok, "stale result must not resolve under the new generation")
	})
}

func TestAvailabilityCache_RedisDown(t *testing.T) {
	ctx := context.Background()
	c, mr := newTestCache(t)

	roomID := uuid.New()
	stay := mustStay(t, "2025-03-10", "2025-03-14")

	store(ctx, c, roomID, stay, &queries.AvailabilityResult{Available: true})
	mr.Close()

	t.Run("get degrades to a miss", func(t *testing.T) {
		_, _, ok := c.Get(ctx, roomID, stay)
		assert.False(t, ok)
	})

	t.Run("set and invalidate do not panic", func(t *testing.T) {
		assert.NotPanics(t, func() {
			c.Set(ctx, roomID, stay, 0, &queries.AvailabilityResult{Available: true})
			c.Invalidate(ctx, roomID)
		})
	})
}
