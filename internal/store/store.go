// Package store caches finished article analyses by URL.
package store

import (
	"context"
	"fmt"
	"strings"
	"time"

	"marketpulse/internal/core"
)

// Backend names a cache implementation.
type Backend string

const (
	BackendNone   Backend = "none"
	BackendSQLite Backend = "sqlite"
	BackendRedis  Backend = "redis"
)

// Cache stores successful AnalysisResults under the pipeline cache key: the
// article URL qualified by the settings that shape a result.
type Cache interface {
	Get(ctx context.Context, url string) (*core.AnalysisResult, bool, error)
	Put(ctx context.Context, url string, result core.AnalysisResult) error
	Stats(ctx context.Context) (*core.CacheStats, error)
	Clear(ctx context.Context) error
	Close() error
}

// Options selects and configures a cache backend.
type Options struct {
	Backend   Backend
	Directory string        // SQLite data directory
	RedisURL  string        // redis:// URL, preferred over RedisAddr
	RedisAddr string        // host:port
	TTL       time.Duration // Entry lifetime; zero keeps entries forever
}

// Open returns the configured cache, or nil for BackendNone.
func Open(opts Options) (Cache, error) {
	switch Backend(strings.ToLower(string(opts.Backend))) {
	case BackendNone, "":
		return nil, nil
	case BackendSQLite:
		c, err := NewSQLiteCache(opts.Directory, opts.TTL)
		if err != nil {
			return nil, err
		}
		return c, nil
	case BackendRedis:
		c, err := NewRedisCache(opts.RedisURL, opts.RedisAddr, opts.TTL)
		if err != nil {
			return nil, err
		}
		return c, nil
	default:
		return nil, fmt.Errorf("unsupported cache backend %q", opts.Backend)
	}
}

// entry is the serialized form shared by every backend.
type entry struct {
	Result   core.AnalysisResult `json:"result"`
	CachedAt time.Time           `json:"cached_at"`
}
