package cache

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/jobshare/sharetrack/internal/storage"
)

// blobKeyPrefix namespaces share-tracking blobs inside a shared Redis.
const blobKeyPrefix = "sharetrack:blob:"

// BlobKey returns the Redis key used for a storage key.
func BlobKey(key string) string {
	return blobKeyPrefix + key
}

// Load retrieves a blob. Returns storage.ErrNotFound if absent.
func (c *Cache) Load(ctx context.Context, key string) ([]byte, error) {
	value, err := c.client.Get(ctx, BlobKey(key)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("redis get failed: %w", err)
	}
	return value, nil
}

// Save overwrites a blob, refreshing its TTL when one is configured.
func (c *Cache) Save(ctx context.Context, key string, value []byte) error {
	if err := c.client.Set(ctx, BlobKey(key), value, c.ttl).Err(); err != nil {
		return fmt.Errorf("failed to save blob: %w", err)
	}
	return nil
}

// Delete removes blobs in one round trip.
func (c *Cache) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}

	pipe := c.client.Pipeline()
	for _, key := range keys {
		pipe.Del(ctx, BlobKey(key))
	}

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to delete blobs: %w", err)
	}
	return nil
}

var _ storage.BlobStore = (*Cache)(nil)
