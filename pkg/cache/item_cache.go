package cache

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const (
	// DefaultItemCacheTTL is used when NewItemCache is given a non-positive TTL.
	DefaultItemCacheTTL = 10 * time.Minute

	itemCacheKeyPrefix = "item"
)

// CachedItem is the catalog read model stored in Redis as a hash. Variant
// columns not used by Kind are empty.
type CachedItem struct {
	ID            uuid.UUID `json:"id"`
	Kind          string    `json:"kind"`
	Name          string    `json:"name"`
	Price         int       `json:"price"`
	StockQuantity int       `json:"stock_quantity"`
	Author        string    `json:"author,omitempty"`
	ISBN          string    `json:"isbn,omitempty"`
	Artist        string    `json:"artist,omitempty"`
	Etc           string    `json:"etc,omitempty"`
	Director      string    `json:"director,omitempty"`
	Actor         string    `json:"actor,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
}

// ItemCache reads and writes item entries.
// Key format: "item:{itemID}"
type ItemCache struct {
	client *RedisClient
	ttl    time.Duration
}

// NewItemCache creates an ItemCache whose entries expire after ttl.
func NewItemCache(r *RedisClient, ttl time.Duration) *ItemCache {
	if ttl <= 0 {
		ttl = DefaultItemCacheTTL
	}
	return &ItemCache{client: r, ttl: ttl}
}

// Get retrieves a cached item.
// Returns redis.Nil when the key does not exist or has expired.
func (c *ItemCache) Get(ctx context.Context, itemID uuid.UUID) (*CachedItem, error) {
	vals, err := c.client.Client().HGetAll(ctx, itemKey(itemID)).Result()
	if err != nil {
		return nil, fmt.Errorf("cache get: %w", err)
	}
	if len(vals) == 0 {
		return nil, redis.Nil
	}
	return decodeItem(vals)
}

// Set writes the hash and its TTL in one pipeline.
func (c *ItemCache) Set(ctx context.Context, item *CachedItem) error {
	key := itemKey(item.ID)
	pipe := c.client.Client().Pipeline()
	pipe.HSet(ctx, key, encodeItem(item)...)
	pipe.Expire(ctx, key, c.ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("cache set: %w", err)
	}
	return nil
}

// Delete evicts the given items. Stock changes from orders call it with
// every item an order touched.
func (c *ItemCache) Delete(ctx context.Context, itemIDs ...uuid.UUID) error {
	if len(itemIDs) == 0 {
		return nil
	}
	keys := make([]string, len(itemIDs))
	for i, id := range itemIDs {
		keys[i] = itemKey(id)
	}
	if err := c.client.Client().Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("cache delete: %w", err)
	}
	return nil
}

func itemKey(itemID uuid.UUID) string {
	return fmt.Sprintf("%s:%s", itemCacheKeyPrefix, itemID)
}

func encodeItem(item *CachedItem) []any {
	return []any{
		"id", item.ID.String(),
		"kind", item.Kind,
		"name", item.Name,
		"price", strconv.Itoa(item.Price),
		"stock_quantity", strconv.Itoa(item.StockQuantity),
		"author", item.Author,
		"isbn", item.ISBN,
		"artist", item.Artist,
		"etc", item.Etc,
		"director", item.Director,
		"actor", item.Actor,
		"created_at", item.CreatedAt.UTC().Format(time.RFC3339Nano),
	}
}

func decodeItem(vals map[string]string) (*CachedItem, error) {
	id, err := uuid.Parse(vals["id"])
	if err != nil {
		return nil, fmt.Errorf("cache parse id: %w", err)
	}
	price, err := strconv.Atoi(vals["price"])
	if err != nil {
		return nil, fmt.Errorf("cache parse price: %w", err)
	}
	stock, err := strconv.Atoi(vals["stock_quantity"])
	if err != nil {
		return nil, fmt.Errorf("cache parse stock_quantity: %w", err)
	}
	createdAt, err := time.Parse(time.RFC3339Nano, vals["created_at"])
	if err != nil {
		return nil, fmt.Errorf("cache parse created_at: %w", err)
	}
	return &CachedItem{
		ID:            id,
		Kind:          vals["kind"],
		Name:          vals["name"],
		Price:         price,
		StockQuantity: stock,
		Author:        vals["author"],
		ISBN:          vals["isbn"],
		Artist:        vals["artist"],
		Etc:           vals["etc"],
		Director:      vals["director"],
		Actor:         vals["actor"],
		CreatedAt:     createdAt,
	}, nil
}
