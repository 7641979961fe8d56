package util

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/sdp-tech/SASM-BE-sub000/internal/config"

	"github.com/redis/go-redis/v9"
)

var ErrCacheMiss = errors.New("cache miss")

// RedisClient wraps go-redis with the small surface the repositories use.
// A nil *RedisClient is valid and behaves as an always-empty cache.
type RedisClient struct {
	client *redis.Client
	ctx    context.Context
}

func NewRedisClient(cfg *config.Config) (*RedisClient, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%s", cfg.RedisHost, cfg.RedisPort),
		Password: cfg.RedisPassword,
		DB:       0,
	})

	return newRedisClient(rdb)
}

// NewRedisClientFromOptions is used by tests that point at a throwaway server.
func NewRedisClientFromOptions(opts *redis.Options) (*RedisClient, error) {
	return newRedisClient(redis.NewClient(opts))
}

func newRedisClient(rdb *redis.Client) (*RedisClient, error) {
	ctx := context.Background()
	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}
	return &RedisClient{client: rdb, ctx: ctx}, nil
}

// Get retrieves a raw string value.
func (r *RedisClient) Get(key string) (string, error) {
	if r == nil {
		return "", ErrCacheMiss
	}
	val, err := r.client.Get(r.ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return "", ErrCacheMiss
	}
	return val, err
}

// GetJSON decodes a cached JSON value into dest. It reports whether dest was filled.
func (r *RedisClient) GetJSON(key string, dest interface{}) bool {
	raw, err := r.Get(key)
	if err != nil {
		return false
	}
	return json.Unmarshal([]byte(raw), dest) == nil
}

// Set stores strings as-is and anything else as JSON.
func (r *RedisClient) Set(key string, value interface{}, expiration time.Duration) error {
	if r == nil {
		return nil
	}

	var val string
	switch v := value.(type) {
	case string:
		val = v
	default:
		b, err := json.Marshal(value)
		if err != nil {
			return fmt.Errorf("failed to marshal value: %w", err)
		}
		val = string(b)
	}

	return r.client.Set(r.ctx, key, val, expiration).Err()
}

func (r *RedisClient) Delete(keys ...string) error {
	if r == nil || len(keys) == 0 {
		return nil
	}
	return r.client.Del(r.ctx, keys...).Err()
}

// DeletePattern removes every key matching pattern, walking the keyspace with SCAN.
func (r *RedisClient) DeletePattern(pattern string) error {
	if r == nil {
		return nil
	}

	iter := r.client.Scan(r.ctx, 0, pattern, 200).Iterator()
	var batch []string
	for iter.Next(r.ctx) {
		batch = append(batch, iter.Val())
		if len(batch) == 200 {
			if err := r.client.Del(r.ctx, batch...).Err(); err != nil {
				return err
			}
			batch = batch[:0]
		}
	}
	if err := iter.Err(); err != nil {
		return err
	}
	if len(batch) > 0 {
		return r.client.Del(r.ctx, batch...).Err()
	}
	return nil
}

func (r *RedisClient) Close() error {
	if r == nil {
		return nil
	}
	return r.client.Close()
}

// ZAdd sets the score of member in a sorted set.
func (r *RedisClient) ZAdd(key string, score float64, member string) error {
	if r == nil {
		return nil
	}
	return r.client.ZAdd(r.ctx, key, redis.Z{Score: score, Member: member}).Err()
}

// ZRevRange returns members by rank, highest score first.
func (r *RedisClient) ZRevRange(key string, start, stop int64) ([]string, error) {
	if r == nil {
		return nil, ErrCacheMiss
	}
	return r.client.ZRevRange(r.ctx, key, start, stop).Result()
}

func (r *RedisClient) ZRem(key string, member string) error {
	if r == nil {
		return nil
	}
	return r.client.ZRem(r.ctx, key, member).Err()
}

// ZCard returns the number of members in a sorted set.
func (r *RedisClient) ZCard(key string) (int64, error) {
	if r == nil {
		return 0, ErrCacheMiss
	}
	return r.client.ZCard(r.ctx, key).Result()
}
