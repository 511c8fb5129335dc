// Package dedupe remembers dispatched (event, rule) pairs.
package dedupe

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisDeduper claims keys with SET NX and a TTL.
type RedisDeduper struct {
	rdb    redis.Cmdable
	ttl    time.Duration
	prefix string
}

// NewRedisDeduper defaults the TTL to 24 hours.
func NewRedisDeduper(rdb redis.Cmdable, ttl time.Duration) *RedisDeduper {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &RedisDeduper{rdb: rdb, ttl: ttl, prefix: "shop:"}
}

func (d *RedisDeduper) Claim(ctx context.Context, key string) (bool, error) {
	return d.rdb.SetNX(ctx, d.prefix+key, "1", d.ttl).Result()
}

func (d *RedisDeduper) Release(ctx context.Context, key string) error {
	return d.rdb.Del(ctx, d.prefix+key).Err()
}
