package schedule

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/cliniqueselma/booking-server/pkg/logging"
)

// CachedStore fronts blocked-date lookups with a short-TTL Redis cache.
// Cache errors fall through to the database; only database errors make
// the availability check fail.
type CachedStore struct {
	store  *Store
	redis  *redis.Client
	ttl    time.Duration
	logger *logging.Logger
}

// NewCachedStore wraps a store with a Redis read-through cache.
func NewCachedStore(store *Store, client *redis.Client, ttl time.Duration, logger *logging.Logger) *CachedStore {
	if logger == nil {
		logger = logging.Default()
	}
	if ttl <= 0 {
		ttl = time.Minute
	}
	return &CachedStore{store: store, redis: client, ttl: ttl, logger: logger}
}

func cacheKey(date string) string {
	return "selma:blocked:" + date
}

// IsBlocked checks the cache, then the store, and caches the answer.
func (c *CachedStore) IsBlocked(ctx context.Context, date string) (bool, error) {
	if c.redis != nil {
		val, err := c.redis.Get(ctx, cacheKey(date)).Result()
		switch {
		case err == nil:
			return val == "1", nil
		case err != redis.Nil:
			c.logger.Warn("blocked-date cache read failed", "error", err, "date", date)
		}
	}

	blocked, err := c.store.IsBlocked(ctx, date)
	if err != nil {
		return false, err
	}

	if c.redis != nil {
		val := "0"
		if blocked {
			val = "1"
		}
		if err := c.redis.Set(ctx, cacheKey(date), val, c.ttl).Err(); err != nil {
			c.logger.Warn("blocked-date cache write failed", "error", err, "date", date)
		}
	}
	return blocked, nil
}

// List delegates to the store.
func (c *CachedStore) List(ctx context.Context) ([]BlockedDate, error) {
	return c.store.List(ctx)
}

// Add blocks a date and invalidates its cache entry.
func (c *CachedStore) Add(ctx context.Context, date, reason string) error {
	if err := c.store.Add(ctx, date, reason); err != nil {
		return err
	}
	c.invalidate(ctx, date)
	return nil
}

// Remove unblocks a date and invalidates its cache entry.
func (c *CachedStore) Remove(ctx context.Context, date string) error {
	if err := c.store.Remove(ctx, date); err != nil {
		return err
	}
	c.invalidate(ctx, date)
	return nil
}

func (c *CachedStore) invalidate(ctx context.Context, date string) {
	if c.redis == nil {
		return
	}
	if err := c.redis.Del(ctx, cacheKey(date)).Err(); err != nil {
		c.logger.Warn("blocked-date cache invalidation failed", "error", err, "date", date)
	}
}
