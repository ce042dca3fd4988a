// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package cache

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
)

// testValkeyClient returns a Redis client for tests.
// Skips if Valkey is unavailable.
func testValkeyClient(t *testing.T) *redis.Client {
	t.Helper()

	host := envOr("VALKEY_HOST", "localhost")
	port := envOr("VALKEY_PORT", "6379")
	password := os.Getenv("VALKEY_PASSWORD")

	client := redis.NewClient(&redis.Options{
		Addr:     host + ":" + port,
		Password: password,
		DB:       15, // Use DB 15 for tests.
	})

	ctx := context.Background()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		t.Skipf("skipping integration test: Valkey not reachable: %v", err)
	}

	t.Cleanup(func() {
		keys, _ := client.Keys(ctx, responseKeyPrefix+"*").Result()
		if len(keys) > 0 {
			client.Del(ctx, keys...)
		}
		client.Close()
	})

	return client
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func TestConnectValkey(t *testing.T) {
	host := envOr("VALKEY_HOST", "localhost")
	port := envOr("VALKEY_PORT", "6379")

	client, err := ConnectValkey(host, port, "")
	if err != nil {
		t.Skipf("skipping: Valkey not available: %v", err)
	}
	defer client.Close()

	pong, err := client.Ping(context.Background()).Result()
	if err != nil {
		t.Fatalf("Ping: %v", err)
	}
	if pong != "PONG" {
		t.Errorf("expected PONG, got %q", pong)
	}
}

func TestResponseCacheSetAndGet(t *testing.T) {
	client := testValkeyClient(t)
	rc := NewResponseCache(client, 1*time.Minute)

	ctx := context.Background()
	key := ListKey("design", "", "", 1)

	// Miss.
	data, ok := rc.Get(ctx, key)
	if ok {
		t.Error("expected cache miss")
	}
	if data != nil {
		t.Error("expected nil data on miss")
	}

	// Set, then hit.
	body := []byte(`{"items":[],"total":0}`)
	rc.Set(ctx, key, body)

	data, ok = rc.Get(ctx, key)
	if !ok {
		t.Error("expected cache hit")
	}
	if string(data) != string(body) {
		t.Errorf("data mismatch: got %q, want %q", data, body)
	}
}

func TestResponseCacheInvalidateKind(t *testing.T) {
	client := testValkeyClient(t)
	rc := NewResponseCache(client, 1*time.Minute)

	ctx := context.Background()
	designKey := ListKey("design", "miniatures", "", 2)
	bundleKey := ListKey("bundle", "", "", 1)

	rc.Set(ctx, designKey, []byte("designs"))
	rc.Set(ctx, bundleKey, []byte("bundles"))

	rc.InvalidateKind(ctx, "design")

	if _, ok := rc.Get(ctx, designKey); ok {
		t.Error("expected miss for invalidated kind")
	}
	if _, ok := rc.Get(ctx, bundleKey); !ok {
		t.Error("invalidation of one kind evicted another")
	}
}

func TestResponseCacheInvalidateAll(t *testing.T) {
	client := testValkeyClient(t)
	rc := NewResponseCache(client, 1*time.Minute)

	ctx := context.Background()
	keys := []string{
		ListKey("design", "", "", 1),
		ListKey("bundle", "", "dragon", 1),
		DetailKey("design", "some-id"),
	}
	for _, k := range keys {
		rc.Set(ctx, k, []byte("x"))
	}

	rc.InvalidateAll(ctx)

	for _, k := range keys {
		if _, ok := rc.Get(ctx, k); ok {
			t.Errorf("expected miss for %q after InvalidateAll", k)
		}
	}
}

func TestListKey(t *testing.T) {
	if got := ListKey("design", "miniatures", "dragon", 3); got != "design:list:miniatures:dragon:3" {
		t.Errorf("ListKey: got %q", got)
	}
	if got := ListKey("bundle", "", "", 0); got != "bundle:list:::1" {
		t.Errorf("ListKey page clamp: got %q", got)
	}
}

func TestNewResponseCacheDefaultTTL(t *testing.T) {
	rc := NewResponseCache(nil, 0)
	if rc.ttl != DefaultResponseTTL {
		t.Errorf("expected DefaultResponseTTL (%v), got %v", DefaultResponseTTL, rc.ttl)
	}
}
