// Package ratelimit implements a fixed-window counter on Redis. The first
// increment of a key sets its TTL; later hits within the window never extend
// it, so windows expire on schedule regardless of traffic.
package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

type Limiter struct {
	redis redis.UniversalClient
}

func New(client redis.UniversalClient) *Limiter {
	return &Limiter{redis: client}
}

// Allow increments the counter for key and reports whether it is within limit
// for the window. When the limit is exceeded, the second return value is the
// remaining window as a retry-after hint.
func (l *Limiter) Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, time.Duration, error) {
	count, err := l.redis.Incr(ctx, key).Result()
	if err != nil {
		return false, 0, fmt.Errorf("rate limiter increment: %w", err)
	}

	if count == 1 {
		if err := l.redis.Expire(ctx, key, window).Err(); err != nil {
			return false, 0, fmt.Errorf("rate limiter expire: %w", err)
		}
	}

	if count > int64(limit) {
		retryAfter, err := l.redis.TTL(ctx, key).Result()
		if err != nil || retryAfter < 0 {
			retryAfter = window
		}

		return false, retryAfter, nil
	}

	return true, 0, nil
}
