// Package cache stores rendered maps so repeated requests skip classification and projection.
package cache

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rotisserie/eris"

	"kuanb/scout-choropleth/geom"
)

// DefaultTTL bounds how stale a cached map can be
const DefaultTTL = 10 * time.Minute

// DefaultMaxEntries caps the in-process cache
const DefaultMaxEntries = 1024

const keyPrefix = "scout:map:"

// Cache is a byte store keyed by Key
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte) error
}

// Key derives the cache key of a rendered map. regions is the lower-cased,
// comma joined filter (empty for the full snapshot).
func Key(kind string, metric geom.Metric, width, height float64, regions string) string {
	var b strings.Builder
	b.WriteString(keyPrefix)
	b.WriteString(kind)
	b.WriteByte(':')
	b.WriteString(string(metric))
	b.WriteByte(':')
	b.WriteString(strconv.FormatFloat(width, 'f', -1, 64))
	b.WriteByte('x')
	b.WriteString(strconv.FormatFloat(height, 'f', -1, 64))
	if regions != "" {
		b.WriteByte(':')
		b.WriteString(regions)
	}
	return b.String()
}

// Redis caches values in a Redis database with a fixed TTL
type Redis struct {
	client *redis.Client
	ttl    time.Duration
}

// OpenRedis returns nil when addr is empty so callers can run without a cache
func OpenRedis(addr, password string, db int, ttl time.Duration) *Redis {
	if addr == "" {
		return nil
	}
	return NewRedis(redis.NewClient(&redis.Options{Addr: addr, Password: password, DB: db}), ttl)
}

// NewRedis wraps an existing client
func NewRedis(client *redis.Client, ttl time.Duration) *Redis {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Redis{client: client, ttl: ttl}
}

// Get returns the stored value; a missing key is a miss, not an error
func (r *Redis) Get(ctx context.Context, key string) ([]byte, bool, error) {
	b, err := r.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, eris.Wrapf(err, "cache: get %s", key)
	}
	return b, true, nil
}

// Set stores value with the configured TTL
func (r *Redis) Set(ctx context.Context, key string, value []byte) error {
	if err := r.client.Set(ctx, key, value, r.ttl).Err(); err != nil {
		return eris.Wrapf(err, "cache: set %s", key)
	}
	return nil
}

// Ping checks the connection
func (r *Redis) Ping(ctx context.Context) error {
	if err := r.client.Ping(ctx).Err(); err != nil {
		return eris.Wrap(err, "cache: ping redis")
	}
	return nil
}

// Close releases the client
func (r *Redis) Close() error {
	return r.client.Close()
}

type entry struct {
	value   []byte
	expires time.Time
}

// Memory is an in-process Cache used when no Redis is configured.
// It holds at most max entries: a Set on a full cache first drops expired
// entries, then the entry closest to expiry.
type Memory struct {
	mu      sync.Mutex
	entries map[string]entry
	ttl     time.Duration
	max     int
	now     func() time.Time
}

// NewMemory returns an empty in-process cache. Non-positive arguments select
// DefaultTTL and DefaultMaxEntries.
func NewMemory(ttl time.Duration, maxEntries int) *Memory {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if maxEntries <= 0 {
		maxEntries = DefaultMaxEntries
	}
	return &Memory{entries: make(map[string]entry), ttl: ttl, max: maxEntries, now: time.Now}
}

// Get returns the cached value; expired entries are misses
func (m *Memory) Get(_ context.Context, key string) ([]byte, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.entries[key]
	if !ok {
		return nil, false, nil
	}
	if m.now().After(e.expires) {
		delete(m.entries, key)
		return nil, false, nil
	}
	return e.value, true, nil
}

// Set stores a copy of value for the cache TTL
func (m *Memory) Set(_ context.Context, key string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := m.now()
	if _, exists := m.entries[key]; !exists && len(m.entries) >= m.max {
		m.evict(now)
	}
	m.entries[key] = entry{value: append([]byte(nil), value...), expires: now.Add(m.ttl)}
	return nil
}

// Len reports the number of stored entries, expired or not
func (m *Memory) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries)
}

// evict makes room for one entry. Callers hold mu.
func (m *Memory) evict(now time.Time) {
	var oldest string
	var oldestExp time.Time
	for k, e := range m.entries {
		if now.After(e.expires) {
			delete(m.entries, k)
			continue
		}
		if oldest == "" || e.expires.Before(oldestExp) {
			oldest, oldestExp = k, e.expires
		}
	}
	if len(m.entries) >= m.max && oldest != "" {
		delete(m.entries, oldest)
	}
}
