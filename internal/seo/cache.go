package seo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const sitemapCacheKey = "sf_sitemap_xml"

// The worker rebuilds on schedule; the TTL only guards against a dead worker
// serving a stale map forever.
const sitemapCacheTTL = 48 * time.Hour

// Cache stores the rendered sitemap so requests don't re-render it.
type Cache struct {
	client *redis.Client
}

// NewCache creates a sitemap cache on the given Redis address.
func NewCache(addr string) *Cache {
	return &Cache{client: redis.NewClient(&redis.Options{Addr: addr})}
}

// NewCacheFromClient wraps an existing client.
func NewCacheFromClient(client *redis.Client) *Cache {
	return &Cache{client: client}
}

// Get returns the cached sitemap XML, ok=false on a miss.
func (c *Cache) Get(ctx context.Context) (string, bool, error) {
	val, err := c.client.Get(ctx, sitemapCacheKey).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to read sitemap cache: %w", err)
	}
	return val, true, nil
}

// Set stores the rendered sitemap XML.
func (c *Cache) Set(ctx context.Context, xml string) error {
	if err := c.client.Set(ctx, sitemapCacheKey, xml, sitemapCacheTTL).Err(); err != nil {
		return fmt.Errorf("failed to write sitemap cache: %w", err)
	}
	return nil
}

// Close releases the underlying Redis connection.
func (c *Cache) Close() error {
	return c.client.Close()
}
