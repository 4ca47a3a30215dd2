// Package cache holds the last good dashboard aggregate between refreshes.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// Snapshots stores JSON snapshots by key with a time to live.
type Snapshots interface {
	Get(ctx context.Context, key string, out any) (bool, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
}

type memorySnapshot struct {
	raw       []byte
	expiresAt time.Time
}

type MemorySnapshots struct {
	mu    sync.Mutex
	now   func() time.Time
	items map[string]memorySnapshot
}

func NewMemorySnapshots() *MemorySnapshots {
	return &MemorySnapshots{now: time.Now, items: map[string]memorySnapshot{}}
}

func (m *MemorySnapshots) Get(_ context.Context, key string, out any) (bool, error) {
	m.mu.Lock()
	item, ok := m.items[key]
	m.mu.Unlock()
	if !ok || (!item.expiresAt.IsZero() && !m.now().Before(item.expiresAt)) {
		return false, nil
	}
	if err := json.Unmarshal(item.raw, out); err != nil {
		return false, fmt.Errorf("decode snapshot %s: %w", key, err)
	}
	return true, nil
}

func (m *MemorySnapshots) Set(_ context.Context, key string, value any, ttl time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encode snapshot %s: %w", key, err)
	}
	item := memorySnapshot{raw: raw}
	if ttl > 0 {
		item.expiresAt = m.now().Add(ttl)
	}
	m.mu.Lock()
	m.items[key] = item
	m.mu.Unlock()
	return nil
}

const redisPrefix = "ems-console:snapshot:"

type RedisSnapshots struct {
	client *redis.Client
}

func NewRedisSnapshots(client *redis.Client) *RedisSnapshots {
	return &RedisSnapshots{client: client}
}

func (r *RedisSnapshots) Get(ctx context.Context, key string, out any) (bool, error) {
	raw, err := r.client.Get(ctx, redisPrefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("redis get snapshot %s: %w", key, err)
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return false, fmt.Errorf("decode snapshot %s: %w", key, err)
	}
	return true, nil
}

func (r *RedisSnapshots) Set(ctx context.Context, key string, value any, ttl time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encode snapshot %s: %w", key, err)
	}
	if err := r.client.Set(ctx, redisPrefix+key, raw, ttl).Err(); err != nil {
		return fmt.Errorf("redis set snapshot %s: %w", key, err)
	}
	return nil
}
