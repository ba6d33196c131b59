package cache

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/vmihailenco/msgpack/v5"
)

// Cache is an explicitly constructed cache instance: a Store plus a default TTL.
// Values are msgpack encoded.
type Cache struct {
	store      Store
	defaultTTL time.Duration
}

// New wraps store. A defaultTTL <= 0 falls back to DefaultTTL.
func New(store Store, defaultTTL time.Duration) *Cache {
	if defaultTTL <= 0 {
		defaultTTL = DefaultTTL
	}
	return &Cache{store: store, defaultTTL: defaultTTL}
}

// Open builds the store selected by cfg.Driver.
func Open(ctx context.Context, cfg Config) (*Cache, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Driver)) {
	case "", DriverMemory:
		return New(NewMemoryStore(cfg.CleanupInterval), cfg.DefaultTTL), nil
	case DriverRedis:
		r, err := Init(ctx, cfg)
		if err != nil {
			return nil, fmt.Errorf("init redis cache: %w", err)
		}
		return New(NewRedisStore(r.Client, cfg.Prefix), cfg.DefaultTTL), nil
	default:
		return nil, fmt.Errorf("unknown cache driver %q", cfg.Driver)
	}
}

func (c *Cache) DefaultTTL() time.Duration {
	return c.defaultTTL
}

// Get decodes the value stored under key into dst.
func (c *Cache) Get(ctx context.Context, key string, dst any) (bool, error) {
	b, ok, err := c.store.Get(ctx, key)
	if err != nil || !ok {
		return false, err
	}
	if err := msgpack.Unmarshal(b, dst); err != nil {
		return false, fmt.Errorf("decode %q: %w", key, err)
	}
	return true, nil
}

// Set encodes v and stores it under key. A ttl <= 0 expires the key immediately.
func (c *Cache) Set(ctx context.Context, key string, v any, ttl time.Duration) error {
	if ttl <= 0 {
		return c.store.Delete(ctx, key)
	}
	b, err := msgpack.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %q: %w", key, err)
	}
	return c.store.Set(ctx, key, b, ttl)
}

func (c *Cache) Delete(ctx context.Context, key string) error {
	return c.store.Delete(ctx, key)
}

// Clear removes every entry whose key starts with prefix.
func (c *Cache) Clear(ctx context.Context, prefix string) (int, error) {
	return c.store.DeletePrefix(ctx, prefix)
}

func (c *Cache) Close() error {
	return c.store.Close()
}
