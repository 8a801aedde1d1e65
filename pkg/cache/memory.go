package cache

import (
	"context"
	"slices"
	"sync"
	"time"
)

// DefaultMemoryEntries bounds a memory cache created by NewMemoryCache.
const DefaultMemoryEntries = 10000

// sweepEvery is the minimum time between two expiry sweeps.
const sweepEvery = time.Minute

// MemoryCache is an in-process cache. It is safe for concurrent use.
//
// Expired entries are dropped on read and by a sweep that Set runs at most
// once per minute. When MaxEntries is reached after a sweep, Set evicts an
// arbitrary entry to make room.
type MemoryCache struct {
	// MaxEntries caps the number of stored entries. Zero means no cap.
	MaxEntries int

	mu        sync.RWMutex
	entries   map[string]cacheEntry
	now       func() time.Time
	lastSweep time.Time
}

// NewMemoryCache creates an empty memory cache holding at most
// DefaultMemoryEntries entries.
func NewMemoryCache() *MemoryCache {
	return &MemoryCache{
		MaxEntries: DefaultMemoryEntries,
		entries:    make(map[string]cacheEntry),
		now:        time.Now,
	}
}

// Get returns a copy of the stored value.
func (c *MemoryCache) Get(_ context.Context, key string) ([]byte, bool, error) {
	c.mu.RLock()
	e, ok := c.entries[key]
	c.mu.RUnlock()
	if !ok {
		return nil, false, nil
	}
	if e.expired(c.now()) {
		c.mu.Lock()
		if cur, ok := c.entries[key]; ok && cur.expired(c.now()) {
			delete(c.entries, key)
		}
		c.mu.Unlock()
		return nil, false, nil
	}
	return slices.Clone(e.Data), true, nil
}

// Set stores a copy of data.
func (c *MemoryCache) Set(_ context.Context, key string, data []byte, ttl time.Duration) error {
	now := c.now()
	e := cacheEntry{Data: slices.Clone(data)}
	if ttl > 0 {
		e.ExpiresAt = now.Add(ttl)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	_, replacing := c.entries[key]
	if !replacing {
		full := c.MaxEntries > 0 && len(c.entries) >= c.MaxEntries
		if full || now.Sub(c.lastSweep) >= sweepEvery {
			c.sweep(now)
		}
		if c.MaxEntries > 0 {
			for k := range c.entries {
				if len(c.entries) < c.MaxEntries {
					break
				}
				delete(c.entries, k)
			}
		}
	}
	c.entries[key] = e
	return nil
}

// sweep drops expired entries. The caller holds c.mu.
func (c *MemoryCache) sweep(now time.Time) {
	for k, e := range c.entries {
		if e.expired(now) {
			delete(c.entries, k)
		}
	}
	c.lastSweep = now
}

// Delete removes key.
func (c *MemoryCache) Delete(_ context.Context, key string) error {
	c.mu.Lock()
	delete(c.entries, key)
	c.mu.Unlock()
	return nil
}

// Len returns the number of stored entries, expired ones not yet swept
// included.
func (c *MemoryCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Close drops all entries.
func (c *MemoryCache) Close() error {
	c.mu.Lock()
	clear(c.entries)
	c.mu.Unlock()
	return nil
}

var _ Cache = (*MemoryCache)(nil)
