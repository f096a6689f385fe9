package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"marketpulse/internal/core"
)

const (
	redisKeyPrefix = "marketpulse:result:"
	redisIndexKey  = "marketpulse:results"
)

// RedisCache is the shared cache backend. Entries expire through Redis TTLs;
// a sorted set indexes them by insertion time for Stats and Clear.
type RedisCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisCache connects using redisURL when set, otherwise addr.
func NewRedisCache(redisURL, addr string, ttl time.Duration) (*RedisCache, error) {
	var opts *redis.Options
	switch {
	case redisURL != "":
		parsed, err := redis.ParseURL(redisURL)
		if err != nil {
			return nil, fmt.Errorf("invalid redis url: %w", err)
		}
		opts = parsed
	case addr != "":
		opts = &redis.Options{Addr: addr}
	default:
		return nil, fmt.Errorf("redis cache needs an address or url")
	}
	return NewRedisCacheFromClient(redis.NewClient(opts), ttl), nil
}

// NewRedisCacheFromClient wraps an existing client.
func NewRedisCacheFromClient(client *redis.Client, ttl time.Duration) *RedisCache {
	return &RedisCache{client: client, ttl: ttl}
}

// Get retrieves a cached result
func (r *RedisCache) Get(ctx context.Context, url string) (*core.AnalysisResult, bool, error) {
	payload, err := r.client.Get(ctx, redisKeyPrefix+url).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("redis get: %w", err)
	}

	var e entry
	if err := json.Unmarshal(payload, &e); err != nil {
		return nil, false, fmt.Errorf("failed to decode cached result: %w", err)
	}
	return &e.Result, true, nil
}

// Put stores a result with the configured TTL
func (r *RedisCache) Put(ctx context.Context, url string, result core.AnalysisResult) error {
	now := time.Now().UTC()
	payload, err := json.Marshal(entry{Result: result, CachedAt: now})
	if err != nil {
		return fmt.Errorf("failed to encode result: %w", err)
	}

	pipe := r.client.TxPipeline()
	pipe.Set(ctx, redisKeyPrefix+url, payload, r.ttl)
	pipe.ZAdd(ctx, redisIndexKey, redis.Z{Score: float64(now.UnixMilli()), Member: url})
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("redis put: %w", err)
	}
	return nil
}

// Stats prunes expired index members and reports the live ones
func (r *RedisCache) Stats(ctx context.Context) (*core.CacheStats, error) {
	if r.ttl > 0 {
		cutoff := time.Now().UTC().Add(-r.ttl).UnixMilli()
		if err := r.client.ZRemRangeByScore(ctx, redisIndexKey, "-inf", fmt.Sprintf("%d", cutoff)).Err(); err != nil {
			return nil, fmt.Errorf("redis prune: %w", err)
		}
	}

	members, err := r.client.ZRangeWithScores(ctx, redisIndexKey, 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("redis stats: %w", err)
	}

	stats := &core.CacheStats{Backend: string(BackendRedis), Entries: len(members)}
	if len(members) > 0 {
		stats.OldestEntry = time.UnixMilli(int64(members[0].Score)).UTC()
		stats.NewestEntry = time.UnixMilli(int64(members[len(members)-1].Score)).UTC()
	}
	return stats, nil
}

// Clear removes every indexed result and the index
func (r *RedisCache) Clear(ctx context.Context) error {
	urls, err := r.client.ZRange(ctx, redisIndexKey, 0, -1).Result()
	if err != nil {
		return fmt.Errorf("redis clear: %w", err)
	}

	keys := make([]string, 0, len(urls)+1)
	for _, u := range urls {
		keys = append(keys, redisKeyPrefix+u)
	}
	keys = append(keys, redisIndexKey)
	if err := r.client.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("redis clear: %w", err)
	}
	return nil
}

// Close closes the client
func (r *RedisCache) Close() error {
	return r.client.Close()
}
