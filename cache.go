/* SPDX-License-Identifier: BSD-2-Clause */

package httpwindow

import "sync"

// Cache stores fetched windows keyed by their byte range. Implementations
// must be safe for concurrent use so a single cache can be shared across
// stream instances reading the same resource. How and when entries are
// evicted is up to the implementation.
type Cache interface {
	Get(r ByteRange) ([]byte, bool)
	Put(r ByteRange, data []byte)
	Len() int
}

// MemoryCache is an unbounded in-memory Cache. Useful for tests and for
// callers that bound memory elsewhere; most callers want LRUCache instead.
type MemoryCache struct {
	mu sync.Mutex
	m  map[ByteRange][]byte
}

func NewMemoryCache() *MemoryCache {
	return &MemoryCache{m: make(map[ByteRange][]byte)}
}

func (c *MemoryCache) Get(r ByteRange) ([]byte, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.m[r]
	return v, ok
}

func (c *MemoryCache) Put(r ByteRange, data []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.m[r] = data
}

func (c *MemoryCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.m)
}

// Clear drops all cached windows.
func (c *MemoryCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.m = make(map[ByteRange][]byte)
}

// Delete drops a single window.
func (c *MemoryCache) Delete(r ByteRange) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.m, r)
}
