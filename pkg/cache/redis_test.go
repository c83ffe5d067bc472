package cache

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/ghuser/ghshop/pkg/config"
)

func newTestConfig(url string) *config.Config {
	return &config.Config{RedisURL: url, RedisPoolSize: 4}
}

func TestNewRedisClient_InvalidURL(t *testing.T) {
	_, err := NewRedisClient(newTestConfig("not-a-valid-url"))
	if err == nil {
		t.Fatal("expected error for invalid URL, got nil")
	}
}

func TestNewRedisClient_UnreachableHost(t *testing.T) {
	_, err := NewRedisClient(newTestConfig("redis://localhost:19999"))
	if err == nil {
		t.Fatal("expected error when Redis is unreachable, got nil")
	}
}

func sampleCachedItem() *CachedItem {
	return &CachedItem{
		ID:            uuid.New(),
		Kind:          "B",
		Name:          "JPA1 BOOK",
		Price:         10000,
		StockQuantity: 99,
		Author:        "kim",
		ISBN:          "1111",
		CreatedAt:     time.Date(2024, 1, 15, 10, 30, 0, 123, time.UTC),
	}
}

func TestItemCodec(t *testing.T) {
	item := sampleCachedItem()

	fields := encodeItem(item)
	if len(fields)%2 != 0 {
		t.Fatalf("expected key/value pairs, got %d values", len(fields))
	}
	vals := make(map[string]string, len(fields)/2)
	for i := 0; i < len(fields); i += 2 {
		vals[fields[i].(string)] = fields[i+1].(string)
	}

	got, err := decodeItem(vals)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if *got != *item {
		t.Fatalf("expected %+v, got %+v", item, got)
	}
}

func TestDecodeItem_RejectsCorruptEntries(t *testing.T) {
	valid := func() map[string]string {
		fields := encodeItem(sampleCachedItem())
		vals := make(map[string]string)
		for i := 0; i < len(fields); i += 2 {
			vals[fields[i].(string)] = fields[i+1].(string)
		}
		return vals
	}

	for _, field := range []string{"id", "price", "stock_quantity", "created_at"} {
		t.Run(field, func(t *testing.T) {
			vals := valid()
			vals[field] = "garbage"
			if _, err := decodeItem(vals); err == nil {
				t.Fatalf("expected error for corrupt %s", field)
			}
		})
	}
}

func TestItemKey(t *testing.T) {
	id := uuid.MustParse("123e4567-e89b-12d3-a456-426614174000")
	if got := itemKey(id); got != "item:123e4567-e89b-12d3-a456-426614174000" {
		t.Fatalf("unexpected key %q", got)
	}
}

func TestNewItemCache_DefaultTTL(t *testing.T) {
	if c := NewItemCache(nil, 0); c.ttl != DefaultItemCacheTTL {
		t.Fatalf("expected default ttl, got %v", c.ttl)
	}
	if c := NewItemCache(nil, time.Minute); c.ttl != time.Minute {
		t.Fatalf("expected 1m ttl, got %v", c.ttl)
	}
}

// Integration tests: skipped unless REDIS_URL is set.
func TestRedisIntegration(t *testing.T) {
	redisURL := os.Getenv("REDIS_URL")
	if redisURL == "" {
		t.Skip("REDIS_URL not set; skipping integration tests")
	}

	rc, err := NewRedisClient(newTestConfig(redisURL))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer rc.Close() //nolint:errcheck

	t.Run("Ping_Success", func(t *testing.T) {
		if err := rc.Ping(context.Background()); err != nil {
			t.Fatalf("Ping failed: %v", err)
		}
	})

	t.Run("ItemCache_RoundTrip", func(t *testing.T) {
		ctx := context.Background()
		c := NewItemCache(rc, time.Minute)
		item := sampleCachedItem()

		if _, err := c.Get(ctx, item.ID); !errors.Is(err, redis.Nil) {
			t.Fatalf("expected redis.Nil before Set, got %v", err)
		}
		if err := c.Set(ctx, item); err != nil {
			t.Fatalf("Set: %v", err)
		}
		got, err := c.Get(ctx, item.ID)
		if err != nil {
			t.Fatalf("Get: %v", err)
		}
		if *got != *item {
			t.Fatalf("expected %+v, got %+v", item, got)
		}
		if err := c.Delete(ctx, item.ID); err != nil {
			t.Fatalf("Delete: %v", err)
		}
		if _, err := c.Get(ctx, item.ID); !errors.Is(err, redis.Nil) {
			t.Fatalf("expected redis.Nil after Delete, got %v", err)
		}
	})
}
