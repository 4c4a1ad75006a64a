/* SPDX-License-Identifier: BSD-2-Clause */

package httpwindow

import (
	"fmt"

	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/sync/singleflight"
)

// LRUCache is a Cache bounded by entry count, evicting the least recently
// used window first. It is safe to share one LRUCache across several streams
// reading the same resource; concurrent misses for the same window collapse
// into a single download.
type LRUCache struct {
	entries *lru.Cache[ByteRange, []byte]
	group   singleflight.Group
}

// NewLRUCache creates a cache holding at most maxEntries windows.
func NewLRUCache(maxEntries int) (*LRUCache, error) {
	if maxEntries <= 0 {
		return nil, fmt.Errorf("httpwindow: cache capacity must be positive, got %d", maxEntries)
	}
	entries, err := lru.New[ByteRange, []byte](maxEntries)
	if err != nil {
		return nil, err
	}
	return &LRUCache{entries: entries}, nil
}

func (c *LRUCache) Get(r ByteRange) ([]byte, bool) {
	return c.entries.Get(r)
}

func (c *LRUCache) Put(r ByteRange, data []byte) {
	c.entries.Add(r, data)
}

func (c *LRUCache) Len() int {
	return c.entries.Len()
}

// Clear drops all cached windows.
func (c *LRUCache) Clear() {
	c.entries.Purge()
}

// fetch fills a miss through download, storing the result. Concurrent calls
// for the same range from streams sharing this cache run download only once.
func (c *LRUCache) fetch(r ByteRange, download func() ([]byte, error)) ([]byte, error) {
	v, err, _ := c.group.Do(r.RequestHeader(), func() (any, error) {
		// A concurrent fetch may have landed the window already.
		if data, ok := c.entries.Get(r); ok {
			return data, nil
		}
		data, err := download()
		if err != nil {
			return nil, err
		}
		c.entries.Add(r, data)
		return data, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]byte), nil
}
