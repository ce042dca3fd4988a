// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// response.go provides a Valkey-backed JSON response cache for the public
// catalog endpoints. List and detail responses are stored after the first
// render so subsequent storefront requests skip the DB entirely; any
// dashboard mutation invalidates the affected kind wholesale.
package cache

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	// responseKeyPrefix is the Valkey key prefix for cached responses.
	responseKeyPrefix = "catalog:"

	// DefaultResponseTTL is how long a cached response stays fresh
	// without an explicit invalidation.
	DefaultResponseTTL = 5 * time.Minute
)

// ResponseCache manages serialized catalog responses in Valkey.
type ResponseCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewResponseCache creates a response cache backed by the given Valkey client.
func NewResponseCache(client *redis.Client, ttl time.Duration) *ResponseCache {
	if ttl == 0 {
		ttl = DefaultResponseTTL
	}
	return &ResponseCache{client: client, ttl: ttl}
}

// Get retrieves a cached response body. Returns false on miss, and treats
// any Valkey error as a miss so the storefront never fails on cache trouble.
func (rc *ResponseCache) Get(ctx context.Context, key string) ([]byte, bool) {
	val, err := rc.client.Get(ctx, responseKeyPrefix+key).Bytes()
	if err == redis.Nil {
		return nil, false
	}
	if err != nil {
		slog.Warn("response cache get error", "key", key, "error", err)
		return nil, false
	}
	slog.Debug("response cache hit", "key", key)
	return val, true
}

// Set stores a response body with the configured TTL.
func (rc *ResponseCache) Set(ctx context.Context, key string, body []byte) {
	if err := rc.client.Set(ctx, responseKeyPrefix+key, body, rc.ttl).Err(); err != nil {
		slog.Warn("response cache set error", "key", key, "error", err)
	}
}

// InvalidateKind removes every cached response for a kind by scanning for
// its prefix. Mutations are rare next to storefront reads, so a full sweep
// per save is cheaper than tracking which filters a change affects.
func (rc *ResponseCache) InvalidateKind(ctx context.Context, kind string) {
	rc.invalidatePattern(ctx, responseKeyPrefix+kind+":*")
}

// InvalidateAll removes all cached catalog responses. Used when categories
// change, since any listing could name the affected category.
func (rc *ResponseCache) InvalidateAll(ctx context.Context) {
	rc.invalidatePattern(ctx, responseKeyPrefix+"*")
}

func (rc *ResponseCache) invalidatePattern(ctx context.Context, pattern string) {
	var cursor uint64
	var deleted int
	for {
		keys, nextCursor, err := rc.client.Scan(ctx, cursor, pattern, 100).Result()
		if err != nil {
			slog.Warn("response cache scan error", "pattern", pattern, "error", err)
			return
		}
		if len(keys) > 0 {
			if err := rc.client.Del(ctx, keys...).Err(); err != nil {
				slog.Warn("response cache bulk delete error", "error", err)
			}
			deleted += len(keys)
		}
		cursor = nextCursor
		if cursor == 0 {
			break
		}
	}
	if deleted > 0 {
		slog.Debug("response cache invalidated", "pattern", pattern, "deleted", deleted)
	}
}

// ListKey returns the cache key for a filtered list view of a kind.
func ListKey(kind, category, query string, page int) string {
	if page <= 0 {
		page = 1
	}
	return fmt.Sprintf("%s:list:%s:%s:%d", kind, category, query, page)
}

// DetailKey returns the cache key for an entry detail view.
func DetailKey(kind, id string) string {
	return kind + ":detail:" + id
}
