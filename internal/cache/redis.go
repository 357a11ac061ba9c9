package cache

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisTier is the shared cache tier backed by Redis.
type RedisTier struct {
	rdb *redis.Client
}

// NewRedisTier wraps an existing Redis client.
func NewRedisTier(rdb *redis.Client) *RedisTier {
	return &RedisTier{rdb: rdb}
}

func (t *RedisTier) Get(ctx context.Context, key string) (string, bool, error) {
	value, err := t.rdb.Get(ctx, "respcache:"+key).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return value, true, nil
}

func (t *RedisTier) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	return t.rdb.Set(ctx, "respcache:"+key, value, ttl).Err()
}
