// Package cache holds recently computed search pages so repeated queries
// skip the tree walk.
package cache

import (
	"sync/atomic"

	"github.com/cespare/xxhash/v2"
	"github.com/elastic/go-freelru"
)

// Cache is an LRU of query results keyed by a 64-bit query hash. It is safe
// for concurrent use. A Cache created with zero capacity stores nothing and
// every Get misses.
type Cache[V any] struct {
	lru *freelru.SyncedLRU[uint64, V]

	// Stats
	hits   atomic.Uint64
	misses atomic.Uint64
	purges atomic.Uint64
}

// New creates a cache holding at most capacity entries.
func New[V any](capacity int) (*Cache[V], error) {
	c := &Cache[V]{}
	if capacity <= 0 {
		return c, nil
	}

	lru, err := freelru.NewSynced[uint64, V](uint32(capacity), hashKey)
	if err != nil {
		return nil, err
	}
	c.lru = lru
	return c, nil
}

// hashKey folds a query hash into the 32 bits freelru buckets by
func hashKey(k uint64) uint32 {
	return uint32(k ^ (k >> 32))
}

// Key hashes the parts of a query into a cache key. Parts are delimited so
// ("ab", "c") and ("a", "bc") differ.
func Key(parts ...string) uint64 {
	d := xxhash.New()
	for _, p := range parts {
		_, _ = d.WriteString(p)
		_, _ = d.Write([]byte{0})
	}
	return d.Sum64()
}

// Get returns the cached value for key.
func (c *Cache[V]) Get(key uint64) (V, bool) {
	if c.lru == nil {
		c.misses.Add(1)
		var zero V
		return zero, false
	}

	v, ok := c.lru.Get(key)
	if ok {
		c.hits.Add(1)
	} else {
		c.misses.Add(1)
	}
	return v, ok
}

// Put stores value under key, evicting the least recently used entry when
// full.
func (c *Cache[V]) Put(key uint64, value V) {
	if c.lru == nil {
		return
	}
	c.lru.Add(key, value)
}

// Purge drops every entry. Called whenever the underlying data changes.
func (c *Cache[V]) Purge() {
	if c.lru == nil {
		return
	}
	c.lru.Purge()
	c.purges.Add(1)
}

// Len returns the number of cached entries
func (c *Cache[V]) Len() int {
	if c.lru == nil {
		return 0
	}
	return c.lru.Len()
}

type Stats struct {
	Hits   uint64
	Misses uint64
	Purges uint64
}

// Stats returns cache statistics
func (c *Cache[V]) Stats() Stats {
	return Stats{
		Hits:   c.hits.Load(),
		Misses: c.misses.Load(),
		Purges: c.purges.Load(),
	}
}

// ClearStats resets the cache's positive incrementing statistics
func (c *Cache[V]) ClearStats() {
	c.hits.Store(0)
	c.misses.Store(0)
	c.purges.Store(0)
}
