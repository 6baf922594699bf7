package realtime

import (
	"context"
	"errors"
	"time"

	"github.com/go-redis/redis/v8"
)

var ErrMiss = errors.New("cache miss")

// KV is the subset of Redis the realtime store needs.
type KV interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value string, ttl time.Duration) error
	// Append pushes value onto the list at key, keeping at most max newest entries.
	Append(ctx context.Context, key string, value string, max int64) error
	// Tail returns up to n newest list entries, oldest first.
	Tail(ctx context.Context, key string, n int64) ([]string, error)
}

type RedisKV struct {
	c *redis.Client
}

func NewRedisKV(c *redis.Client) *RedisKV { return &RedisKV{c: c} }

func (r *RedisKV) Get(ctx context.Context, key string) (string, error) {
	val, err := r.c.Get(ctx, key).Result()
	if err != nil {
		if err == redis.Nil {
			return "", ErrMiss
		}
		return "", err
	}
	return val, nil
}

func (r *RedisKV) Set(ctx context.Context, key string, value string, ttl time.Duration) error {
	return r.c.Set(ctx, key, value, ttl).Err()
}

func (r *RedisKV) Append(ctx context.Context, key string, value string, max int64) error {
	pipe := r.c.TxPipeline()
	pipe.RPush(ctx, key, value)
	pipe.LTrim(ctx, key, -max, -1)
	_, err := pipe.Exec(ctx)
	return err
}

func (r *RedisKV) Tail(ctx context.Context, key string, n int64) ([]string, error) {
	return r.c.LRange(ctx, key, -n, -1).Result()
}
