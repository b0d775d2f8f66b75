package throttle

import (
	"context"
	"log"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisLimiter shares throttle state through Redis so several instances can
// apply the same spacing to one session. Redis errors fail open: admission
// control is best-effort, not a correctness guarantee.
type RedisLimiter struct {
	client *redis.Client
	window time.Duration
}

func NewRedisLimiter(client *redis.Client, window time.Duration) *RedisLimiter {
	return &RedisLimiter{client: client, window: window}
}

func (l *RedisLimiter) Allow(ctx context.Context, sessionID string, now time.Time) (bool, time.Duration) {
	key := "throttle:" + sessionID

	ok, err := l.client.SetNX(ctx, key, now.UnixMilli(), l.window).Result()
	if err != nil {
		log.Printf("throttle redis error: %v", err)
		return true, 0
	}
	if ok {
		return true, 0
	}

	ttl, err := l.client.PTTL(ctx, key).Result()
	if err != nil || ttl < 0 {
		return false, l.window
	}
	return false, ttl
}
