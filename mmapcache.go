//go:build unix

/* SPDX-License-Identifier: BSD-2-Clause */

package httpwindow

import (
	"fmt"
	"os"
	"sync"

	"golang.org/x/sys/unix"
)

// MmapCache is a Cache backed by one anonymous memory mapping sized to hold
// every window of the resource, with a validity bit per window. Get returns
// slices into the mapping, so hits copy nothing. Unlike LRUCache it never
// evicts: it trades address space for keeping the whole working set resident,
// which suits repeated traversal of one resource.
type MmapCache struct {
	mu         sync.RWMutex
	data       []byte
	windowSize int64
	length     int64
	numWindows int64
	valid      *bitset
}

// NewMmapCache creates an mmap-backed cache for a resource of the given
// length, partitioned into windowSize windows. windowSize must match the
// stream's window size or every lookup misses.
func NewMmapCache(length, windowSize int64) (*MmapCache, error) {
	if windowSize <= 0 || length <= 0 {
		return nil, fmt.Errorf("httpwindow: invalid sizes: length=%d window=%d", length, windowSize)
	}
	numWindows := (length + windowSize - 1) / windowSize

	// Round up to whole window slots so the last window has a full slot.
	data, err := unix.Mmap(
		-1, 0,
		int(numWindows*windowSize),
		unix.PROT_READ|unix.PROT_WRITE,
		unix.MAP_ANON|unix.MAP_PRIVATE,
	)
	if err != nil {
		return nil, os.NewSyscallError("mmap", err)
	}

	return &MmapCache{
		data:       data,
		windowSize: windowSize,
		length:     length,
		numWindows: numWindows,
		valid:      newBitset(int(numWindows)),
	}, nil
}

// index maps a window range onto its slot, rejecting ranges that are not
// window-aligned for this cache's geometry.
func (c *MmapCache) index(r ByteRange) (int64, bool) {
	if r.Start < 0 || r.Start >= c.length || r.Start%c.windowSize != 0 {
		return 0, false
	}
	i := r.Start / c.windowSize
	if r != windowRange(i, c.windowSize, c.length) {
		return 0, false
	}
	return i, true
}

func (c *MmapCache) Get(r ByteRange) ([]byte, bool) {
	i, ok := c.index(r)
	if !ok {
		return nil, false
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.data == nil || !c.valid.get(int(i)) {
		return nil, false
	}
	start := i * c.windowSize
	end := start + r.Len()
	return c.data[start:end:end], true
}

func (c *MmapCache) Put(r ByteRange, data []byte) {
	i, ok := c.index(r)
	if !ok {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.data == nil {
		return
	}
	start := i * c.windowSize
	copy(c.data[start:start+c.windowSize], data)
	c.valid.set(int(i))
}

// Len returns the number of valid cached windows.
func (c *MmapCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.valid.count()
}

// Delete invalidates a single window.
func (c *MmapCache) Delete(r ByteRange) {
	i, ok := c.index(r)
	if !ok {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.valid.clear(int(i))
}

// Clear invalidates all cached windows but keeps the mapping.
func (c *MmapCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.valid = newBitset(int(c.numWindows))
}

// Close unmaps the cache memory. The cache must not be used afterwards.
func (c *MmapCache) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.data == nil {
		return nil
	}
	err := unix.Munmap(c.data)
	c.data = nil
	if err != nil {
		return os.NewSyscallError("munmap", err)
	}
	return nil
}

// Size returns the total mapped size in bytes.
func (c *MmapCache) Size() int64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return int64(len(c.data))
}

// Compile-time check
var _ Cache = (*MmapCache)(nil)
