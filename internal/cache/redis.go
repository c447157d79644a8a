// Package cache stores predictions and the rebuild lock in Redis.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/shownfy/kansai-mansion-analytics/internal/config"
	"github.com/shownfy/kansai-mansion-analytics/internal/predict"
)

const (
	predictionPrefix = "mansion:prediction:"
	lockPrefix       = "mansion:lock:"
)

// unlockScript deletes the lock only when this instance still holds it.
const unlockScript = `
if redis.call("get", KEYS[1]) == ARGV[1] then
	return redis.call("del", KEYS[1])
else
	return 0
end
`

// RedisCache implements predict.Cache. Redis errors are logged and
// treated as misses; the cache never fails a prediction.
type RedisCache struct {
	client     *redis.Client
	ttl        time.Duration
	instanceID string
}

// NewRedisCache connects and pings the server.
func NewRedisCache(cfg config.RedisConfig) (*RedisCache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		PoolSize:     10,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	slog.Info("Cache: redis connected", "host", cfg.Host, "port", cfg.Port, "db", cfg.DB)
	return NewRedisCacheFromClient(client, time.Duration(cfg.TTLSeconds)*time.Second), nil
}

// NewRedisCacheFromClient wraps an existing client.
func NewRedisCacheFromClient(client *redis.Client, ttl time.Duration) *RedisCache {
	hostname, _ := os.Hostname()
	return &RedisCache{
		client:     client,
		ttl:        ttl,
		instanceID: fmt.Sprintf("%s:%d", hostname, os.Getpid()),
	}
}

// Close closes the client.
func (c *RedisCache) Close() error {
	return c.client.Close()
}

// Get returns a cached prediction.
func (c *RedisCache) Get(ctx context.Context, key string) (*predict.Prediction, bool) {
	data, err := c.client.Get(ctx, predictionPrefix+key).Bytes()
	if err == redis.Nil {
		return nil, false
	}
	if err != nil {
		slog.Warn("Cache: get failed", "error", err)
		return nil, false
	}

	var p predict.Prediction
	if err := json.Unmarshal(data, &p); err != nil {
		slog.Warn("Cache: corrupt entry", "key", key, "error", err)
		return nil, false
	}
	return &p, true
}

// Set stores a prediction with the configured TTL.
func (c *RedisCache) Set(ctx context.Context, key string, p *predict.Prediction) {
	data, err := json.Marshal(p)
	if err != nil {
		return
	}
	if err := c.client.Set(ctx, predictionPrefix+key, data, c.ttl).Err(); err != nil {
		slog.Warn("Cache: set failed", "error", err)
	}
}

// TryLock takes a named lock with SET NX. It returns false when another
// instance holds it.
func (c *RedisCache) TryLock(ctx context.Context, name string, ttl time.Duration) (bool, error) {
	ok, err := c.client.SetNX(ctx, lockPrefix+name, c.instanceID, ttl).Result()
	if err != nil {
		return false, fmt.Errorf("failed to acquire lock %s: %w", name, err)
	}
	return ok, nil
}

// Unlock releases a lock held by this instance.
func (c *RedisCache) Unlock(ctx context.Context, name string) error {
	res, err := c.client.Eval(ctx, unlockScript, []string{lockPrefix + name}, c.instanceID).Int64()
	if err != nil {
		return fmt.Errorf("failed to release lock %s: %w", name, err)
	}
	if res == 0 {
		slog.Warn("Cache: lock not held by this instance", "name", name, "instance", c.instanceID)
	}
	return nil
}
