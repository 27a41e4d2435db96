// Package cache provides the time-bounded cache in front of upstream
// fetches.
package cache

import (
	"context"
	"sync"
	"time"

	"github.com/cockroachdb/errors"

	"github.com/fortuna/dugout/internal/platform/logging"
)

// ErrMiss is returned by Store.Get for absent or expired keys.
var ErrMiss = errors.New("cache miss")

// Store is a byte cache with per-entry expiry.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// Loader produces a value on a cache miss.
type Loader func(ctx context.Context) ([]byte, error)

// Fetch returns the cached value for key, or calls load once and caches its
// result for ttl. Concurrent callers that miss each call their own loader.
// A failed cache read or write never fails the fetch.
func Fetch(ctx context.Context, store Store, key string, ttl time.Duration, load Loader) ([]byte, error) {
	return fetch(ctx, store, key, ttl, load, logging.Default())
}

func fetch(ctx context.Context, store Store, key string, ttl time.Duration, load Loader, log *logging.Logger) ([]byte, error) {
	if store == nil || ttl <= 0 {
		return load(ctx)
	}

	data, err := store.Get(ctx, key)
	if err == nil {
		return data, nil
	}
	if !errors.Is(err, ErrMiss) {
		log.Warn("cache read failed", "key", key, "error", err)
	}

	data, err = load(ctx)
	if err != nil {
		return nil, err
	}
	if err := store.Set(ctx, key, data, ttl); err != nil {
		log.Warn("cache write failed", "key", key, "error", err)
	}
	return data, nil
}

type memoryEntry struct {
	value     []byte
	expiresAt time.Time
}

// MemoryCache is an in-process Store keyed by expiry timestamp.
type MemoryCache struct {
	mu      sync.Mutex
	entries map[string]memoryEntry
	now     func() time.Time
}

// NewMemoryCache creates an empty in-memory cache.
func NewMemoryCache() *MemoryCache {
	return &MemoryCache{entries: make(map[string]memoryEntry), now: time.Now}
}

// Get returns a copy of the stored value, or ErrMiss.
func (m *MemoryCache) Get(_ context.Context, key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.entries[key]
	if !ok {
		return nil, ErrMiss
	}
	if !e.expiresAt.IsZero() && !m.now().Before(e.expiresAt) {
		delete(m.entries, key)
		return nil, ErrMiss
	}
	return append([]byte(nil), e.value...), nil
}

// Set stores a copy of value. A non-positive ttl never expires.
func (m *MemoryCache) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	e := memoryEntry{value: append([]byte(nil), value...)}
	if ttl > 0 {
		e.expiresAt = m.now().Add(ttl)
	}
	m.entries[key] = e
	return nil
}

// Len reports the number of entries, expired ones included.
func (m *MemoryCache) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries)
}
