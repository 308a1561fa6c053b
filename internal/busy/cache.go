package busy

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"slotwise/backend/internal/domain"
)

const DefaultCacheTTL = 2 * time.Minute

// Cache keeps recent busy lookups in Redis. Redis errors never fail a lookup: the call
// falls through to the wrapped source. Errors from the source are not cached.
type Cache struct {
	next   Source
	rdb    redis.Cmdable
	ttl    time.Duration
	prefix string
	log    *slog.Logger
}

func NewCache(next Source, rdb redis.Cmdable, ttl time.Duration, logger *slog.Logger) *Cache {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Cache{
		next:   next,
		rdb:    rdb,
		ttl:    ttl,
		prefix: "slotwise:busy",
		log:    logger.With(slog.String("component", "busy_cache")),
	}
}

func (c *Cache) key(userID string, windowStart, windowEnd time.Time) string {
	return fmt.Sprintf("%s:%s:%d:%d", c.prefix, userID, windowStart.Unix(), windowEnd.Unix())
}

func (c *Cache) BusyIntervals(ctx context.Context, userID string, windowStart, windowEnd time.Time) ([]domain.BusyInterval, error) {
	key := c.key(userID, windowStart, windowEnd)

	raw, err := c.rdb.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		var cached []domain.BusyInterval
		if err := json.Unmarshal(raw, &cached); err == nil {
			return cached, nil
		}
		c.log.Warn("discarding unreadable cache entry", slog.String("key", key))
	case !errors.Is(err, redis.Nil):
		c.log.Warn("busy cache read failed", slog.Any("err", err), slog.String("key", key))
	}

	intervals, err := c.next.BusyIntervals(ctx, userID, windowStart, windowEnd)
	if err != nil {
		return nil, err
	}

	encoded, err := json.Marshal(intervals)
	if err != nil {
		return intervals, nil
	}
	if err := c.rdb.Set(ctx, key, encoded, c.ttl).Err(); err != nil {
		c.log.Warn("busy cache write failed", slog.Any("err", err), slog.String("key", key))
	}
	return intervals, nil
}
