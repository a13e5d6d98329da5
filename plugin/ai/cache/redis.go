package cache

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisConfig holds the Redis connection configuration.
type RedisConfig struct {
	Addr       string
	Password   string
	DB         int
	KeyPrefix  string        // default: "wabot:"
	DefaultTTL time.Duration // default: 5 minutes
}

// RedisService implements CacheService on a shared Redis instance, so that
// several bot instances see the same session cache.
type RedisService struct {
	rdb        *redis.Client
	keyPrefix  string
	defaultTTL time.Duration
}

var _ CacheService = (*RedisService)(nil)

// NewRedisService connects to Redis and verifies the connection.
func NewRedisService(cfg RedisConfig) (*RedisService, error) {
	if cfg.KeyPrefix == "" {
		cfg.KeyPrefix = "wabot:"
	}
	if cfg.DefaultTTL <= 0 {
		cfg.DefaultTTL = 5 * time.Minute
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}

	slog.Info("redis cache connected", slog.String("addr", cfg.Addr))
	return &RedisService{
		rdb:        rdb,
		keyPrefix:  cfg.KeyPrefix,
		defaultTTL: cfg.DefaultTTL,
	}, nil
}

// Get treats any Redis error as a miss; the caller falls back to the database.
func (r *RedisService) Get(ctx context.Context, key string) ([]byte, bool) {
	data, err := r.rdb.Get(ctx, r.keyPrefix+key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			slog.Warn("redis get failed", slog.String("key", key), slog.String("error", err.Error()))
		}
		return nil, false
	}
	return data, true
}

func (r *RedisService) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = r.defaultTTL
	}
	if err := r.rdb.Set(ctx, r.keyPrefix+key, value, ttl).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", key, err)
	}
	return nil
}

func (r *RedisService) Invalidate(ctx context.Context, pattern string) error {
	prefix, wildcard := strings.CutSuffix(pattern, "*")
	if !wildcard {
		if err := r.rdb.Del(ctx, r.keyPrefix+pattern).Err(); err != nil {
			return fmt.Errorf("redis del %s: %w", pattern, err)
		}
		return nil
	}

	iter := r.rdb.Scan(ctx, 0, r.keyPrefix+prefix+"*", 100).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return fmt.Errorf("redis scan %s: %w", pattern, err)
	}
	if len(keys) == 0 {
		return nil
	}
	if err := r.rdb.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("redis del %s: %w", pattern, err)
	}
	return nil
}

// Close closes the Redis connection pool.
func (r *RedisService) Close() error {
	return r.rdb.Close()
}
