package redis

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// DedupeCache implements usecase.DedupeCache. Each key holds the
// content hash of the record the audit store accepted for that
// transaction ID. It is a fast path only: the audit store's unique
// index stays authoritative.
type DedupeCache struct {
	client *redis.Client
	prefix string
}

// NewDedupeCache creates a new DedupeCache.
func NewDedupeCache(client *redis.Client) *DedupeCache {
	return &DedupeCache{
		client: client,
		prefix: "audit:seen:",
	}
}

// Seen reports whether the transaction ID was cached with the same
// content hash. A missing key or a different hash reports false.
func (c *DedupeCache) Seen(ctx context.Context, transactionID, contentHash string) (bool, error) {
	stored, err := c.client.Get(ctx, c.prefix+transactionID).Result()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return stored == contentHash, nil
}

// MarkSeen caches the content hash of a durably persisted record.
func (c *DedupeCache) MarkSeen(ctx context.Context, transactionID, contentHash string, ttl time.Duration) error {
	return c.client.Set(ctx, c.prefix+transactionID, contentHash, ttl).Err()
}
