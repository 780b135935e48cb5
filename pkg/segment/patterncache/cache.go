// Package patterncache memoizes compiled rule patterns for one rule document.
package patterncache

import (
	"sync"
	"sync/atomic"
)

// Key identifies a compiled artefact: what was built (Kind), from which
// ordered rule list (Rules, a content fingerprint) and with which tunable.
type Key struct {
	Kind  string
	Rules [32]byte
	Param int
}

// Stats holds lookup counters.
type Stats struct {
	Hits    int64
	Misses  int64
	Entries int
}

// Cache is a concurrency-safe map with no eviction. Values must be
// immutable or otherwise safe to share between goroutines.
type Cache struct {
	mu      sync.RWMutex
	entries map[Key]any
	hits    atomic.Int64
	misses  atomic.Int64
}

// New creates an empty cache.
func New() *Cache {
	return &Cache{entries: make(map[Key]any)}
}

// Get returns the value stored under key.
func (c *Cache) Get(key Key) (any, bool) {
	c.mu.RLock()
	v, ok := c.entries[key]
	c.mu.RUnlock()

	if ok {
		c.hits.Add(1)
	} else {
		c.misses.Add(1)
	}
	return v, ok
}

// Put stores value under key, replacing any previous value.
func (c *Cache) Put(key Key, value any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = value
}

// GetOrCompute returns the cached value for key, calling compute on a miss.
// Errors are returned and never cached. Two goroutines missing at the same
// time may both compute; the first stored value wins and is returned to both.
func (c *Cache) GetOrCompute(key Key, compute func() (any, error)) (any, error) {
	if v, ok := c.Get(key); ok {
		return v, nil
	}

	v, err := compute()
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if existing, ok := c.entries[key]; ok {
		return existing, nil
	}
	c.entries[key] = v
	return v, nil
}

// Len returns the number of entries.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Stats returns a snapshot of the counters.
func (c *Cache) Stats() Stats {
	return Stats{
		Hits:    c.hits.Load(),
		Misses:  c.misses.Load(),
		Entries: c.Len(),
	}
}
