// Package cache is the shared client-side query cache. Entries are keyed by
// logical query identity and written by whichever resolves first, initial
// fetch or snapshot callback — last-write-wins, because the server is the
// sole source of truth and the cache is a read-through projection of it.
package cache

import "sync"

type Cache struct {
	mu      sync.Mutex
	entries map[string]interface{}
}

func New() *Cache {
	return &Cache{entries: make(map[string]interface{})}
}

// Get returns the cached value for the key, if any.
func (c *Cache) Get(key string) (interface{}, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	value, ok := c.entries[key]
	return value, ok
}

// Set stores a value under the key, replacing any previous value.
func (c *Cache) Set(key string, value interface{}) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = value
}

// Invalidate drops a single entry.
func (c *Cache) Invalidate(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, key)
}

// InvalidateCollection drops every entry whose logical query touches the
// given collection. Keys are "collection" or "collection/suffix".
func (c *Cache) InvalidateCollection(collection string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for key := range c.entries {
		if key == collection || len(key) > len(collection) && key[:len(collection)] == collection && key[len(collection)] == '/' {
			delete(c.entries, key)
		}
	}
}

// Clear drops everything, e.g. on sign-out.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]interface{})
}
