package cache

import (
	"context"
	"fmt"
	"log"
	"sync/atomic"
	"time"

	"payhook/internal/config"

	"github.com/redis/go-redis/v9"
)

const requestKeyPrefix = "webhook:request:"

func NewRedisClient(cfg config.RedisConfig) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%s", cfg.Host, cfg.Port),
		Password: cfg.Password,
		DB:       cfg.DB,
	})
}

// RedisCache shares request ids between replicas. Entries expire after ttl.
type RedisCache struct {
	client *redis.Client
	ttl    time.Duration
	hits   int64
	misses int64
}

func NewRedisCache(client *redis.Client, ttl time.Duration) *RedisCache {
	return &RedisCache{client: client, ttl: ttl}
}

func (c *RedisCache) Contains(ctx context.Context, requestID string) bool {
	if requestID == "" {
		return false
	}
	n, err := c.client.Exists(ctx, requestKey(requestID)).Result()
	if err != nil {
		log.Printf("⚠️ Redis lookup for request %s failed: %v", requestID, err)
		return false
	}
	if n > 0 {
		atomic.AddInt64(&c.hits, 1)
		return true
	}
	atomic.AddInt64(&c.misses, 1)
	return false
}

func (c *RedisCache) Add(ctx context.Context, requestID string) {
	if requestID == "" {
		return
	}
	if err := c.client.Set(ctx, requestKey(requestID), 1, c.ttl).Err(); err != nil {
		log.Printf("⚠️ Redis store for request %s failed: %v", requestID, err)
	}
}

// HealthCheck pings the server.
func (c *RedisCache) HealthCheck(ctx context.Context) error {
	if err := c.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis connection failed: %w", err)
	}
	return nil
}

// MonitorPool periodically logs pool statistics and the hit ratio until ctx
// is done.
func (c *RedisCache) MonitorPool(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			stats := c.client.PoolStats()
			hits := atomic.LoadInt64(&c.hits)
			misses := atomic.LoadInt64(&c.misses)
			ratio := 0.0
			if total := hits + misses; total > 0 {
				ratio = float64(hits) / float64(total) * 100
			}
			log.Printf("Redis Pool Stats - Hits: %d, Misses: %d, Timeouts: %d, TotalConns: %d, IdleConns: %d, StaleConns: %d",
				stats.Hits, stats.Misses, stats.Timeouts, stats.TotalConns, stats.IdleConns, stats.StaleConns)
			log.Printf("Request cache hit ratio: %.2f%% (%d duplicates)", ratio, hits)
		}
	}
}

func (c *RedisCache) Close() error {
	return c.client.Close()
}

func requestKey(requestID string) string {
	return requestKeyPrefix + requestID
}
