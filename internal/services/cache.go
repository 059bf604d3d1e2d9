package services

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/align-alt-therapy/align-backend/internal/database"
)

const (
	// CacheKeyPrefix is the Redis key prefix for cached data
	CacheKeyPrefix = "cache:"
	// DefaultCacheTTL for public content (banners, playlists)
	DefaultCacheTTL = 15 * time.Minute
	// MaxCacheTTL caps custom TTLs
	MaxCacheTTL = 6 * time.Hour
)

// CacheService caches public content responses (hero banners, playlists) so
// the browse endpoints don't hit Postgres on every request.
type CacheService struct{}

// Get retrieves a value from cache into dest. A miss is not an error.
func (c *CacheService) Get(key string, dest interface{}) (bool, error) {
	ctx := context.Background()

	val, err := database.RedisClient.Get(ctx, CacheKeyPrefix+key).Result()
	if err != nil {
		return false, nil // Cache miss
	}

	if err := json.Unmarshal([]byte(val), dest); err != nil {
		return false, err
	}

	return true, nil
}

// Set stores a value in cache with the default TTL.
func (c *CacheService) Set(key string, value interface{}) error {
	return c.SetWithTTL(key, value, DefaultCacheTTL)
}

// SetWithTTL stores a value in cache with a custom TTL (capped at MaxCacheTTL).
func (c *CacheService) SetWithTTL(key string, value interface{}, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	if ttl > MaxCacheTTL {
		ttl = MaxCacheTTL
	}

	jsonData, err := json.Marshal(value)
	if err != nil {
		return err
	}

	ctx := context.Background()
	return database.RedisClient.Set(ctx, CacheKeyPrefix+key, jsonData, ttl).Err()
}

// Delete removes a value from cache. Called after admin writes so public
// endpoints never serve stale content past the next read.
func (c *CacheService) Delete(keys ...string) error {
	ctx := context.Background()
	for _, key := range keys {
		if err := database.RedisClient.Del(ctx, CacheKeyPrefix+key).Err(); err != nil {
			return err
		}
	}
	return nil
}

// CacheKey generates a cache key for a specific resource
func CacheKey(resource string, identifier string) string {
	return fmt.Sprintf("%s:%s", resource, identifier)
}

// Global cache service instance
var Cache = &CacheService{}
