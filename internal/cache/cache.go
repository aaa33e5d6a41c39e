// Package cache provides the small key value caches used in front of slow analyzers
package cache

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// Cache stores string values with a time to live
type Cache interface {
	// Get returns the value and whether it was found
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string, ttl time.Duration) error
}

var (
	_ Cache = (*Memory)(nil)
	_ Cache = (*Redis)(nil)
)

type memoryEntry struct {
	value   string
	expires time.Time
}

// Memory is an in-process cache. Expired entries are dropped on read.
type Memory struct {
	mu    sync.Mutex
	items map[string]memoryEntry
	now   func() time.Time
}

// NewMemory creates an empty in-process cache
func NewMemory() *Memory {
	return &Memory{items: map[string]memoryEntry{}, now: time.Now}
}

// Get implements Cache
func (m *Memory) Get(_ context.Context, key string) (string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.items[key]
	if !ok {
		return "", false, nil
	}
	if !e.expires.IsZero() && !m.now().Before(e.expires) {
		delete(m.items, key)
		return "", false, nil
	}
	return e.value, true, nil
}

// Set implements Cache. A non positive ttl never expires.
func (m *Memory) Set(_ context.Context, key, value string, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	e := memoryEntry{value: value}
	if ttl > 0 {
		e.expires = m.now().Add(ttl)
	}
	m.items[key] = e
	return nil
}

// Len returns the number of stored entries, expired or not
func (m *Memory) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.items)
}

// Redis stores values in Redis under a key prefix
type Redis struct {
	client *redis.Client
	prefix string
}

// NewRedis connects a Redis-backed cache
func NewRedis(addr, prefix string) *Redis {
	return NewRedisWithClient(redis.NewClient(&redis.Options{Addr: addr}), prefix)
}

// NewRedisWithClient builds a cache over an existing client (tests)
func NewRedisWithClient(client *redis.Client, prefix string) *Redis {
	return &Redis{client: client, prefix: prefix}
}

// Close closes the Redis client
func (r *Redis) Close() error {
	return r.client.Close()
}

// Get implements Cache
func (r *Redis) Get(ctx context.Context, key string) (string, bool, error) {
	val, err := r.client.Get(ctx, r.prefix+key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", false, nil
		}
		return "", false, err
	}
	return val, true, nil
}

// Set implements Cache
func (r *Redis) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	if ttl < 0 {
		ttl = 0
	}
	return r.client.Set(ctx, r.prefix+key, value, ttl).Err()
}
