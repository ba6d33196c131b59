package cache

import (
	"context"
	"time"
)

// Store is the byte-level storage behind a Cache.
// Implementations must be safe for concurrent use.
type Store interface {
	// Get returns the value stored under key. Expired entries are reported as absent.
	Get(ctx context.Context, key string) ([]byte, bool, error)
	// Set stores data under key for ttl. A ttl <= 0 means the entry is expired
	// on arrival: any value already stored under key is removed.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	// DeletePrefix removes every key starting with prefix and returns how many were removed.
	DeletePrefix(ctx context.Context, prefix string) (int, error)
	Close() error
}
