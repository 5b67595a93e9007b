// Package redisstore holds the Redis-backed stores: the poll listing cache
// and the refresh token store.
package redisstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/ndarenkov/pollwise/internal/entity"
	"github.com/redis/go-redis/v9"
)

const listingKey = "polls:listing"

// ListingCache caches the anonymous poll listing (polls, options, counts).
// Invalidation policy is "mark stale and refetch on next read": a confirmed
// vote deletes the key, nothing is pushed.
type ListingCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewListingCache(client *redis.Client, ttl time.Duration) *ListingCache {
	return &ListingCache{client: client, ttl: ttl}
}

// Get returns the cached listing; ok is false on a miss.
func (c *ListingCache) Get(ctx context.Context) ([]entity.PollView, bool, error) {
	const op = "redisstore.ListingCache.Get"

	payload, err := c.client.Get(ctx, listingKey).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("%s: %w", op, err)
	}

	var views []entity.PollView
	if err := json.Unmarshal(payload, &views); err != nil {
		// Corrupt payload behaves like a miss; a fresh read will overwrite it.
		return nil, false, nil
	}
	return views, true, nil
}

func (c *ListingCache) Set(ctx context.Context, views []entity.PollView) error {
	const op = "redisstore.ListingCache.Set"

	payload, err := json.Marshal(views)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if err := c.client.Set(ctx, listingKey, payload, c.ttl).Err(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// Invalidate drops the cached listing so the next read hits Postgres.
func (c *ListingCache) Invalidate(ctx context.Context) error {
	const op = "redisstore.ListingCache.Invalidate"

	if err := c.client.Del(ctx, listingKey).Err(); err != nil && !errors.Is(err, redis.Nil) {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}
