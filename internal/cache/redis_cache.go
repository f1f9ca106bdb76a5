// Package cache keeps fetched record sets in Redis between widget loads.
package cache

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	json "github.com/goccy/go-json"
	"github.com/redis/go-redis/v9"

	"multilookup/api/internal/fetch"
)

const defaultTTL = 5 * time.Minute

// entry is the stored form of one record set.
type entry struct {
	Records   []fetch.Record `json:"records"`
	CreatedAt time.Time      `json:"created_at"`
}

// RecordCache wraps a fetch.RecordSource with a Redis read-through cache.
// Source failures are never cached.
type RecordCache struct {
	client *redis.Client
	source fetch.RecordSource
	prefix string
	ttl    time.Duration
}

// NewRedisCache connects to redisURL and wraps source.
func NewRedisCache(redisURL string, source fetch.RecordSource, ttl time.Duration) (*RecordCache, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}

	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("connect to redis: %w", err)
	}

	return NewRedisCacheWithClient(client, source, ttl), nil
}

// NewRedisCacheWithClient builds a cache from an existing client.
func NewRedisCacheWithClient(client *redis.Client, source fetch.RecordSource, ttl time.Duration) *RecordCache {
	if ttl <= 0 {
		ttl = defaultTTL
	}
	return &RecordCache{
		client: client,
		source: source,
		prefix: "lookup:records:",
		ttl:    ttl,
	}
}

func (c *RecordCache) key(q fetch.Query) string {
	return c.prefix + q.Key()
}

// RetrieveMultiple serves q from Redis when present, otherwise from the
// wrapped source. Redis errors degrade to a direct source call.
func (c *RecordCache) RetrieveMultiple(ctx context.Context, q fetch.Query) ([]fetch.Record, error) {
	key := c.key(q)
	raw, err := c.client.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		var cached entry
		if err := json.Unmarshal(raw, &cached); err == nil {
			fetch.CacheLookups.WithLabelValues("hit").Inc()
			return cached.Records, nil
		}
		log.Printf("cache: discarding unreadable entry %s", key)
	case errors.Is(err, redis.Nil):
	default:
		log.Printf("cache: read %s: %v", key, err)
	}
	fetch.CacheLookups.WithLabelValues("miss").Inc()

	records, err := c.source.RetrieveMultiple(ctx, q)
	if err != nil {
		return nil, err
	}

	payload, err := json.Marshal(entry{Records: records, CreatedAt: time.Now()})
	if err != nil {
		return records, nil
	}
	if err := c.client.Set(ctx, key, payload, c.ttl).Err(); err != nil {
		log.Printf("cache: write %s: %v", key, err)
	}
	return records, nil
}

// Invalidate drops the cached record set for q.
func (c *RecordCache) Invalidate(ctx context.Context, q fetch.Query) error {
	if err := c.client.Del(ctx, c.key(q)).Err(); err != nil {
		return fmt.Errorf("invalidate %s: %w", q.Key(), err)
	}
	return nil
}

// Close closes the Redis connection.
func (c *RecordCache) Close() error {
	return c.client.Close()
}

// Ping checks if Redis is reachable.
func (c *RecordCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}
