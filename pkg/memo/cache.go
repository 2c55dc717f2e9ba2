// Package memo caches the results of niladic remote queries for the
// lifetime of the process. Entries survive until an explicit Reset or
// Forget; there is no expiration.
package memo

import "sync"

type Cache struct {
	mu      sync.Mutex
	entries map[string]any
}

func NewCache() *Cache {
	return &Cache{
		entries: make(map[string]any),
	}
}

// Do returns the cached value for key, computing and storing it on the
// first call. Only successful results are cached: a compute error is
// returned to the caller and the next Do runs compute again.
func Do[T any](c *Cache, key string, compute func() (T, error)) (T, error) {
	c.mu.Lock()
	cached, present := c.entries[key]
	c.mu.Unlock()

	if present {
		return cached.(T), nil
	}

	ret, err := compute()
	if err != nil {
		return ret, err
	}

	c.mu.Lock()
	c.entries[key] = ret
	c.mu.Unlock()

	return ret, nil
}

// Forget drops a single entry so the next Do recomputes it.
func (c *Cache) Forget(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	delete(c.entries, key)
}

// Reset drops every entry. Callers use it to force re-query after a
// state-changing operation, e.g. a VM restart that may have changed
// its IP.
func (c *Cache) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries = make(map[string]any)
}
