package outputs

import (
	"sort"
	"sync"
)

// Cache remembers the outputs written by the last completed emission of a
// target.
type Cache struct {
	mu    sync.Mutex
	paths map[string]struct{}
}

// NewCache returns an empty cache. An empty cache reports any non-empty
// selection as changed.
func NewCache() *Cache {
	return &Cache{paths: make(map[string]struct{})}
}

// Changed reports whether current differs from the cached set.
func (c *Cache) Changed(current []string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	seen := make(map[string]struct{}, len(current))
	for _, p := range current {
		if _, ok := c.paths[p]; !ok {
			return true
		}
		seen[p] = struct{}{}
	}
	return len(seen) != len(c.paths)
}

// Commit adds new paths and removes vanished ones so the cache equals current.
func (c *Cache) Commit(current []string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	next := make(map[string]struct{}, len(current))
	for _, p := range current {
		next[p] = struct{}{}
	}
	for p := range c.paths {
		if _, ok := next[p]; !ok {
			delete(c.paths, p)
		}
	}
	for p := range next {
		c.paths[p] = struct{}{}
	}
}

// Update commits current and reports whether anything was added or removed.
func (c *Cache) Update(current []string) bool {
	changed := c.Changed(current)
	if changed {
		c.Commit(current)
	}
	return changed
}

// Contains reports whether p is cached.
func (c *Cache) Contains(p string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.paths[p]
	return ok
}

// Paths returns the cached paths in sorted order.
func (c *Cache) Paths() []string {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make([]string, 0, len(c.paths))
	for p := range c.paths {
		out = append(out, p)
	}
	sort.Strings(out)
	return out
}

// Len returns the number of cached paths.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.paths)
}
