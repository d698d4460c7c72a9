// Package memcache holds transient search-result snapshots in process
// memory. Entries expire after a TTL and the cache is bounded: when full,
// the oldest-inserted entry is evicted (insertion order, not LRU).
package memcache

import (
	"encoding/json"
	"strings"
	"sync"
	"time"
)

// Key identifies one cached result page. Query text is case-folded so
// lookups are case-insensitive.
type Key struct {
	Query    string
	Page     int
	PageSize int
}

// NewKey builds a normalized cache key.
func NewKey(query string, page, pageSize int) Key {
	return Key{
		Query:    strings.ToLower(query),
		Page:     page,
		PageSize: pageSize,
	}
}

// Entry is one cached result snapshot.
type Entry struct {
	Items      []json.RawMessage
	TotalItems int
}

type cacheEntry struct {
	Entry
	expiresAt time.Time
}

// Cache is a thread-safe TTL cache bounded to a maximum entry count.
type Cache struct {
	mu      sync.Mutex
	entries map[Key]cacheEntry
	order   []Key
	ttl     time.Duration
	max     int

	// now is swappable for tests.
	now func() time.Time
}

// New creates a cache holding at most max entries, each valid for ttl.
func New(ttl time.Duration, max int) *Cache {
	return &Cache{
		entries: make(map[Key]cacheEntry),
		ttl:     ttl,
		max:     max,
		now:     time.Now,
	}
}

// Get returns the entry for key, removing and missing it once expired. The
// removal also frees the key's queue slot, so a later Put of the same key
// re-enters the queue at the back.
func (c *Cache) Get(key Key) (Entry, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.entries[key]
	if !ok {
		return Entry{}, false
	}
	if c.now().After(entry.expiresAt) {
		delete(c.entries, key)
		c.removeOrder(key)
		return Entry{}, false
	}
	return entry.Entry, true
}

// Put stores a snapshot under key, evicting the oldest-inserted entry first
// when the cache is full. Re-putting an existing key refreshes the entry in
// place and keeps its original insertion position.
func (c *Cache) Put(key Key, items []json.RawMessage, totalItems int) {
	c.mu.Lock()
	defer c.mu.Unlock()

	_, exists := c.entries[key]
	if !exists && len(c.entries) >= c.max {
		c.evictOldest()
	}

	c.entries[key] = cacheEntry{
		Entry:     Entry{Items: items, TotalItems: totalItems},
		expiresAt: c.now().Add(c.ttl),
	}
	if !exists {
		c.order = append(c.order, key)
	}
}

// evictOldest removes the entry at the front of the queue. Every removal
// path keeps entries and order in sync, so the front key is always present.
func (c *Cache) evictOldest() {
	if len(c.order) == 0 {
		return
	}
	key := c.order[0]
	c.order = c.order[1:]
	delete(c.entries, key)
}

func (c *Cache) removeOrder(key Key) {
	for i, k := range c.order {
		if k == key {
			c.order = append(c.order[:i], c.order[i+1:]...)
			return
		}
	}
}

// Len returns the number of live entries.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}
