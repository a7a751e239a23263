package cache

import (
	"sort"
	"sync"
	"time"
)

type entry[V any] struct {
	data      V
	timestamp time.Time
	ttl       time.Duration
}

// TTL is an in-memory cache where every entry carries its own time-to-live.
// Expired entries are evicted when they are looked up or by Sweep.
type TTL[K comparable, V any] struct {
	mu      sync.Mutex
	clock   Clock
	entries map[K]entry[V]
}

func NewTTL[K comparable, V any](clock Clock) *TTL[K, V] {
	if clock == nil {
		clock = SystemClock
	}
	return &TTL[K, V]{clock: clock, entries: make(map[K]entry[V])}
}

// Get returns the value for k while now - timestamp < ttl.
func (c *TTL[K, V]) Get(k K) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[k]
	if !ok {
		var zero V
		return zero, false
	}
	if c.clock.Now().Sub(e.timestamp) < e.ttl {
		return e.data, true
	}
	delete(c.entries, k)
	var zero V
	return zero, false
}

func (c *TTL[K, V]) Set(k K, v V, ttl time.Duration) {
	c.mu.Lock()
	c.entries[k] = entry[V]{data: v, timestamp: c.clock.Now(), ttl: ttl}
	c.mu.Unlock()
}

func (c *TTL[K, V]) Delete(k K) {
	c.mu.Lock()
	delete(c.entries, k)
	c.mu.Unlock()
}

// Sweep evicts every expired entry and returns the evicted values.
func (c *TTL[K, V]) Sweep() []V {
	c.mu.Lock()
	defer c.mu.Unlock()
	now := c.clock.Now()
	var out []V
	for k, e := range c.entries {
		if now.Sub(e.timestamp) >= e.ttl {
			out = append(out, e.data)
			delete(c.entries, k)
		}
	}
	return out
}

// Clear drops every entry regardless of TTL.
func (c *TTL[K, V]) Clear() {
	c.mu.Lock()
	c.entries = make(map[K]entry[V])
	c.mu.Unlock()
}

// Len counts stored entries, including expired ones not yet looked up.
func (c *TTL[K, V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

func (c *TTL[K, V]) Keys() []K {
	c.mu.Lock()
	defer c.mu.Unlock()
	keys := make([]K, 0, len(c.entries))
	for k := range c.entries {
		keys = append(keys, k)
	}
	return keys
}

// SortedKeys is Keys in ascending order for string keys.
func SortedKeys[V any](c *TTL[string, V]) []string {
	keys := c.Keys()
	sort.Strings(keys)
	return keys
}
