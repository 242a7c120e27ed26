// Package redis provides an optional Redis-backed candle series cache
// for backtests. A tripped breaker degrades every lookup to a miss, so
// a down Redis only costs refetches.
package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	goredis "github.com/go-redis/redis/v8"

	"github.com/anil-lina/techbot/internal/model"
)

// CacheConfig configures the series cache.
type CacheConfig struct {
	Addr     string
	Password string
	DB       int
	TTL      time.Duration // default 1h
}

// Cache stores candle series as JSON values with a TTL. Implements the
// backtester's SeriesCache.
type Cache struct {
	client  *goredis.Client
	ttl     time.Duration
	breaker *breaker
	log     *slog.Logger
}

// NewCache connects and pings the Redis server.
func NewCache(cfg CacheConfig, log *slog.Logger) (*Cache, error) {
	if log == nil {
		log = slog.Default()
	}
	client := goredis.NewClient(&goredis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis ping %s: %w", cfg.Addr, err)
	}

	ttl := cfg.TTL
	if ttl == 0 {
		ttl = time.Hour
	}
	log.Info("series cache connected", "addr", cfg.Addr, "ttl", ttl)
	return &Cache{
		client:  client,
		ttl:     ttl,
		breaker: newBreaker(5, 10*time.Second),
		log:     log.With(slog.String("component", "redis-cache")),
	}, nil
}

// Get returns the cached series for key, or false on a miss. Redis
// failures count toward the breaker and read as misses.
func (c *Cache) Get(ctx context.Context, key string) ([]model.Candle, bool) {
	if !c.breaker.allow() {
		return nil, false
	}

	data, err := c.client.Get(ctx, key).Result()
	if err != nil {
		if err != goredis.Nil {
			c.breaker.record(err)
			c.log.Warn("cache get failed", "key", key, "err", err)
		}
		return nil, false
	}
	c.breaker.record(nil)

	var candles []model.Candle
	if err := json.Unmarshal([]byte(data), &candles); err != nil {
		c.log.Warn("cache entry corrupt, dropping", "key", key, "err", err)
		c.client.Del(ctx, key)
		return nil, false
	}
	return candles, true
}

// Put stores a series under key. Best effort; failures only cost a
// refetch next time.
func (c *Cache) Put(ctx context.Context, key string, candles []model.Candle) {
	if !c.breaker.allow() {
		return
	}

	data, err := json.Marshal(candles)
	if err != nil {
		return
	}
	if err := c.client.Set(ctx, key, data, c.ttl).Err(); err != nil {
		c.breaker.record(err)
		c.log.Warn("cache put failed", "key", key, "err", err)
		return
	}
	c.breaker.record(nil)
}

// Close closes the Redis client.
func (c *Cache) Close() error {
	return c.client.Close()
}
