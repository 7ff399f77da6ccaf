// Package store keeps the session state shared between the engine callbacks
// and the trading driver.
package store

import (
	"cmp"
	"slices"
	"sync"
)

// Collection is a keyed map guarded by its own lock. Last write wins.
type Collection[K cmp.Ordered, V any] struct {
	mu    sync.RWMutex
	items map[K]V
}

// NewCollection returns an empty collection.
func NewCollection[K cmp.Ordered, V any]() *Collection[K, V] {
	return &Collection[K, V]{items: make(map[K]V)}
}

// Put inserts or replaces the value for key.
func (c *Collection[K, V]) Put(key K, value V) {
	c.mu.Lock()
	c.items[key] = value
	c.mu.Unlock()
}

// Get returns the value for key.
func (c *Collection[K, V]) Get(key K) (V, bool) {
	c.mu.RLock()
	v, ok := c.items[key]
	c.mu.RUnlock()
	return v, ok
}

// Has reports whether key is present.
func (c *Collection[K, V]) Has(key K) bool {
	_, ok := c.Get(key)
	return ok
}

// Delete removes key. Deleting an absent key is a no-op.
func (c *Collection[K, V]) Delete(key K) {
	c.mu.Lock()
	delete(c.items, key)
	c.mu.Unlock()
}

// Keys returns a sorted point-in-time copy of the keys.
func (c *Collection[K, V]) Keys() []K {
	c.mu.RLock()
	keys := make([]K, 0, len(c.items))
	for k := range c.items {
		keys = append(keys, k)
	}
	c.mu.RUnlock()
	slices.Sort(keys)
	return keys
}

// Values returns a point-in-time copy of the values ordered by key.
func (c *Collection[K, V]) Values() []V {
	c.mu.RLock()
	keys := make([]K, 0, len(c.items))
	for k := range c.items {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	values := make([]V, 0, len(keys))
	for _, k := range keys {
		values = append(values, c.items[k])
	}
	c.mu.RUnlock()
	return values
}

// Len returns the number of entries.
func (c *Collection[K, V]) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.items)
}

// Reset removes every entry.
func (c *Collection[K, V]) Reset() {
	c.mu.Lock()
	clear(c.items)
	c.mu.Unlock()
}
