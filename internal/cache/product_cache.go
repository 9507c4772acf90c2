package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"storefront-service/internal/models"
)

// ProductCache handles caching of product details in Redis
type ProductCache struct {
	client *redis.Client
	ttl    time.Duration
	prefix string
}

// NewProductCache creates a product cache on top of client. A nil client, or
// one that fails to answer a ping, yields a cache that never hits.
func NewProductCache(client *redis.Client, ttl time.Duration) *ProductCache {
	if client != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := client.Ping(ctx).Err(); err != nil {
			client = nil
		}
	}

	return &ProductCache{
		client: client,
		ttl:    ttl,
		prefix: "storefront:product",
	}
}

// cacheKey generates the cache key for a product
func (c *ProductCache) cacheKey(productID string) string {
	return fmt.Sprintf("%s:%s", c.prefix, productID)
}

// Get retrieves a cached product. Returns nil, nil on a miss.
func (c *ProductCache) Get(ctx context.Context, productID string) (*models.Product, error) {
	if c.client == nil {
		return nil, nil
	}

	data, err := c.client.Get(ctx, c.cacheKey(productID)).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var product models.Product
	if err := json.Unmarshal(data, &product); err != nil {
		return nil, err
	}
	return &product, nil
}

// Set caches a product
func (c *ProductCache) Set(ctx context.Context, product *models.Product) error {
	if c.client == nil || product == nil || product.ID == "" {
		return nil
	}

	data, err := json.Marshal(product)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, c.cacheKey(product.ID), data, c.ttl).Err()
}

// Invalidate removes a cached product
func (c *ProductCache) Invalidate(ctx context.Context, productID string) error {
	if c.client == nil {
		return nil
	}
	return c.client.Del(ctx, c.cacheKey(productID)).Err()
}

// InvalidateAll removes every cached product
func (c *ProductCache) InvalidateAll(ctx context.Context) error {
	if c.client == nil {
		return nil
	}

	iter := c.client.Scan(ctx, 0, c.prefix+":*", 100).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return err
	}

	if len(keys) > 0 {
		return c.client.Del(ctx, keys...).Err()
	}
	return nil
}

// IsAvailable returns true if the cache is backed by a live Redis connection
func (c *ProductCache) IsAvailable() bool {
	return c.client != nil
}
