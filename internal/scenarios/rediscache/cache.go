// Package rediscache keeps recently read projection bundles in Redis in front
// of the durable bundle store.
package rediscache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"forecast/internal/scenarios"
)

const (
	DefaultTTL       = 10 * time.Minute
	DefaultKeyPrefix = "forecast:bundle:"
)

// Client is the subset of *redis.Client the cache uses.
type Client interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value any, expiration time.Duration) *redis.StatusCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
}

// Bundles is the store being cached.
type Bundles interface {
	scenarios.ProjectionWriter
	scenarios.ProjectionReader
}

// BundleCache reads through Redis and writes through to the store. Redis
// failures degrade to store reads and never fail a call.
type BundleCache struct {
	next   Bundles
	client Client
	ttl    time.Duration
	prefix string
}

var _ Bundles = (*BundleCache)(nil)

// New wraps next. A non-positive ttl uses DefaultTTL.
func New(next Bundles, client Client, ttl time.Duration) *BundleCache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &BundleCache{
		next:   next,
		client: client,
		ttl:    ttl,
		prefix: DefaultKeyPrefix,
	}
}

func (c *BundleCache) key(scenarioID int) string {
	return c.prefix + strconv.Itoa(scenarioID)
}

// GetProjectionBundle implements scenarios.ProjectionReader
func (c *BundleCache) GetProjectionBundle(ctx context.Context, scenarioID int) (scenarios.Bundle, error) {
	key := c.key(scenarioID)

	cached, err := c.client.Get(ctx, key).Result()
	switch {
	case err == nil:
		var b scenarios.Bundle
		if err := json.Unmarshal([]byte(cached), &b); err == nil {
			slog.DebugContext(ctx, "Projection bundle cache hit", "scenario_id", scenarioID)
			return b, nil
		}
		slog.WarnContext(ctx, "Dropping undecodable cached bundle", "scenario_id", scenarioID, "key", key)
		c.client.Del(ctx, key)
	case !errors.Is(err, redis.Nil):
		slog.WarnContext(ctx, "Redis read failed, using store", "scenario_id", scenarioID, "error", err)
	}

	b, err := c.next.GetProjectionBundle(ctx, scenarioID)
	if err != nil {
		return scenarios.Bundle{}, err
	}
	c.store(ctx, scenarioID, b)
	return b, nil
}

// SaveProjectionBundle implements scenarios.ProjectionWriter
func (c *BundleCache) SaveProjectionBundle(ctx context.Context, scenarioID int, b scenarios.Bundle) error {
	if err := c.next.SaveProjectionBundle(ctx, scenarioID, b); err != nil {
		return err
	}
	c.store(ctx, scenarioID, b)
	return nil
}

// store caches b. If that fails the old entry is removed so readers fall
// back to the store instead of seeing a stale bundle.
func (c *BundleCache) store(ctx context.Context, scenarioID int, b scenarios.Bundle) {
	key := c.key(scenarioID)
	data, err := json.Marshal(b)
	if err == nil {
		err = c.client.Set(ctx, key, data, c.ttl).Err()
	}
	if err == nil {
		return
	}

	slog.WarnContext(ctx, "Failed to cache projection bundle", "scenario_id", scenarioID, "error", err)
	if err := c.client.Del(ctx, key).Err(); err != nil {
		slog.WarnContext(ctx, "Failed to evict projection bundle", "scenario_id", scenarioID, "error", err)
	}
}

// NewClient connects to redisURL, which may be a redis:// URL or a bare
// host:port, and pings it.
func NewClient(ctx context.Context, redisURL string) (*redis.Client, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		opt = &redis.Options{Addr: redisURL}
	}
	client := redis.NewClient(opt)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("connect to redis at %s: %w", opt.Addr, err)
	}
	return client, nil
}
