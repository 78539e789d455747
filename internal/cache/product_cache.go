package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"kantin-kiosk/internal/domain"
)

const (
	availableProductsKey = "products:available"
	allProductsKey       = "products:all"
)

// ProductCache caches product listings in Redis with a short TTL. Cache
// failures degrade to a store read, never to an error for the caller.
type ProductCache struct {
	client *redis.Client
	ttl    time.Duration
	logger *zap.Logger
}

// NewProductCache creates a product listing cache
func NewProductCache(client *redis.Client, ttl time.Duration, logger *zap.Logger) *ProductCache {
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	return &ProductCache{
		client: client,
		ttl:    ttl,
		logger: logger,
	}
}

func listingKey(availableOnly bool) string {
	if availableOnly {
		return availableProductsKey
	}
	return allProductsKey
}

// GetListing returns the cached listing, or nil on a miss
func (c *ProductCache) GetListing(ctx context.Context, availableOnly bool) []*domain.Product {
	val, err := c.client.Get(ctx, listingKey(availableOnly)).Result()
	if err != nil {
		if err != redis.Nil {
			c.logger.Warn("Product cache read failed", zap.Error(err))
		}
		return nil
	}

	var products []*domain.Product
	if err := json.Unmarshal([]byte(val), &products); err != nil {
		c.logger.Warn("Product cache entry malformed, dropping", zap.Error(err))
		c.client.Del(ctx, listingKey(availableOnly))
		return nil
	}

	return products
}

// SetListing stores a listing under the configured TTL
func (c *ProductCache) SetListing(ctx context.Context, availableOnly bool, products []*domain.Product) {
	data, err := json.Marshal(products)
	if err != nil {
		c.logger.Warn("Failed to marshal products for cache", zap.Error(err))
		return
	}

	if err := c.client.Set(ctx, listingKey(availableOnly), data, c.ttl).Err(); err != nil {
		c.logger.Warn("Product cache write failed", zap.Error(err))
	}
}

// InvalidateProducts drops both listings. Called after catalog writes and
// after every checkout commit so the next shopper sees updated stock.
func (c *ProductCache) InvalidateProducts(ctx context.Context) {
	if err := c.client.Del(ctx, availableProductsKey, allProductsKey).Err(); err != nil {
		c.logger.Warn(fmt.Sprintf("Failed to invalidate product cache: %v", err))
	}
}
