// Package cache keeps completed workflow results in Redis so repeated result
// lookups skip the Temporal round trip.
package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	DefaultPrefix = "temporal-sandbox:"
	DefaultTTL    = time.Hour
)

// ResultCache stores workflow results keyed by workflow ID.
//
//	<prefix>result:<workflowID> => result string
type ResultCache struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

// NewResultCache wraps client. An empty prefix or non-positive ttl falls
// back to the defaults.
func NewResultCache(client *redis.Client, prefix string, ttl time.Duration) *ResultCache {
	if prefix == "" {
		prefix = DefaultPrefix
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &ResultCache{client: client, prefix: prefix, ttl: ttl}
}

// Connect dials addr and verifies the server answers PING.
func Connect(ctx context.Context, addr string, ttl time.Duration) (*ResultCache, error) {
	client := redis.NewClient(&redis.Options{Addr: addr})
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("ping redis %s: %w", addr, err)
	}
	return NewResultCache(client, DefaultPrefix, ttl), nil
}

func (c *ResultCache) keyResult(workflowID string) string {
	return c.prefix + "result:" + workflowID
}

// Get returns the cached result. ok is false on a miss.
func (c *ResultCache) Get(ctx context.Context, workflowID string) (result string, ok bool, err error) {
	result, err = c.client.Get(ctx, c.keyResult(workflowID)).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("get cached result: %w", err)
	}
	return result, true, nil
}

// Set caches result for the configured TTL.
func (c *ResultCache) Set(ctx context.Context, workflowID, result string) error {
	if err := c.client.Set(ctx, c.keyResult(workflowID), result, c.ttl).Err(); err != nil {
		return fmt.Errorf("set cached result: %w", err)
	}
	return nil
}

// Close closes the underlying client.
func (c *ResultCache) Close() error {
	return c.client.Close()
}
