/* SPDX-License-Identifier: BSD-2-Clause */

package httpwindow

import (
	"bytes"
	"io"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

// bounce seeks to pos and reads one byte, forcing a window load whenever pos
// is outside the currently loaded window.
func bounce(t *testing.T, s *Stream, data []byte, pos int64) {
	t.Helper()
	if _, err := s.Seek(pos, io.SeekStart); err != nil {
		t.Fatalf("Seek(%d): %v", pos, err)
	}
	b, err := s.ReadByte()
	if err != nil {
		t.Fatalf("ReadByte at %d: %v", pos, err)
	}
	if b != data[pos] {
		t.Fatalf("byte at %d: got %#02x want %#02x", pos, b, data[pos])
	}
}

func TestCacheHitCounters(t *testing.T) {
	data := testPattern(64)
	rs, srv := newRangeServer(t, data)

	s := mustOpen(t, srv.URL, WithWindowSize(16), WithMaxCacheSize(64))

	// Five loads of two windows: the first load of each downloads, every
	// later one hits.
	for _, pos := range []int64{20, 0, 20, 0, 20} {
		bounce(t, s, data, pos)
	}

	st := s.Stats()
	if st.Downloads != 2 {
		t.Fatalf("expected 2 downloads, got %d", st.Downloads)
	}
	if st.CacheHits != 3 {
		t.Fatalf("expected 3 cache hits, got %d", st.CacheHits)
	}
	if gets := rs.gets(); len(gets) != 2 {
		t.Fatalf("expected 2 GETs, got %v", gets)
	}
}

func TestNoCacheRedownloads(t *testing.T) {
	data := testPattern(64)
	rs, srv := newRangeServer(t, data)

	s := mustOpen(t, srv.URL, WithWindowSize(16))

	for _, pos := range []int64{0, 20, 0} {
		bounce(t, s, data, pos)
	}

	st := s.Stats()
	if st.Downloads != 3 || st.CacheHits != 0 {
		t.Fatalf("expected 3 downloads and 0 hits without a cache, got %+v", st)
	}
	if gets := rs.gets(); len(gets) != 3 {
		t.Fatalf("expected 3 GETs, got %v", gets)
	}
}

func TestMaxCacheSizeSmallerThanWindowDisablesCache(t *testing.T) {
	data := testPattern(64)
	_, srv := newRangeServer(t, data)

	s := mustOpen(t, srv.URL, WithWindowSize(16), WithMaxCacheSize(15))

	for _, pos := range []int64{0, 20, 0} {
		bounce(t, s, data, pos)
	}
	if st := s.Stats(); st.CacheHits != 0 {
		t.Fatalf("cache should be disabled below one window, got %d hits", st.CacheHits)
	}
}

func TestLRUCacheEviction(t *testing.T) {
	data := testPattern(64) // four 16-byte windows
	_, srv := newRangeServer(t, data)

	cache, err := NewLRUCache(2)
	if err != nil {
		t.Fatalf("NewLRUCache: %v", err)
	}
	s := mustOpen(t, srv.URL, WithWindowSize(16), WithCache(cache))

	bounce(t, s, data, 0)  // load w0
	bounce(t, s, data, 20) // load w1
	bounce(t, s, data, 40) // load w2, evicts w0

	if got := cache.Len(); got != 2 {
		t.Fatalf("expected 2 cached windows, got %d", got)
	}

	// w0 was evicted, so returning to it downloads again.
	bounce(t, s, data, 0)
	st := s.Stats()
	if st.Downloads != 4 {
		t.Fatalf("expected 4 downloads after eviction, got %d", st.Downloads)
	}
	if st.CacheHits != 0 {
		t.Fatalf("expected 0 hits in this pattern, got %d", st.CacheHits)
	}
}

func TestSharedCacheAcrossStreams(t *testing.T) {
	data := testPattern(64)
	rs, srv := newRangeServer(t, data)

	cache, err := NewLRUCache(4)
	if err != nil {
		t.Fatalf("NewLRUCache: %v", err)
	}

	a := mustOpen(t, srv.URL, WithWindowSize(16), WithCache(cache))

	b, err := OpenShared(srv.URL, cache, WithWindowSize(16))
	if err != nil {
		t.Fatalf("OpenShared: %v", err)
	}
	t.Cleanup(func() { b.Close() })

	bounce(t, a, data, 0)
	bounce(t, b, data, 0)

	if gets := rs.gets(); len(gets) != 1 {
		t.Fatalf("second stream should hit the shared cache, got GETs %v", gets)
	}
	if st := b.Stats(); st.CacheHits != 1 || st.Downloads != 0 {
		t.Fatalf("expected shared-cache hit on second stream, got %+v", st)
	}
}

func TestLRUCacheFetchUsesCachedEntry(t *testing.T) {
	cache, err := NewLRUCache(2)
	if err != nil {
		t.Fatalf("NewLRUCache: %v", err)
	}
	r := ByteRange{Start: 0, End: 15, Length: 64}
	want := testPattern(16)
	cache.Put(r, want)

	got, err := cache.fetch(r, func() ([]byte, error) {
		t.Fatal("download must not run for a cached window")
		return nil, nil
	})
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if !bytes.Equal(got, want) {
		t.Fatal("fetch returned wrong bytes")
	}
}

func TestLRUCacheFetchCollapsesConcurrentDownloads(t *testing.T) {
	cache, err := NewLRUCache(2)
	if err != nil {
		t.Fatalf("NewLRUCache: %v", err)
	}
	r := ByteRange{Start: 0, End: 15, Length: 64}
	want := testPattern(16)

	var calls atomic.Int64
	entered := make(chan struct{})
	release := make(chan struct{})
	download := func() ([]byte, error) {
		calls.Add(1)
		close(entered)
		<-release
		return want, nil
	}

	var wg sync.WaitGroup
	results := make([][]byte, 2)
	wg.Add(1)
	go func() {
		defer wg.Done()
		results[0], _ = cache.fetch(r, download)
	}()

	// Wait until the first download is in flight, then issue a second
	// fetch for the same window; it must ride on the first.
	<-entered
	wg.Add(1)
	go func() {
		defer wg.Done()
		results[1], _ = cache.fetch(r, func() ([]byte, error) {
			calls.Add(1)
			return want, nil
		})
	}()

	time.Sleep(100 * time.Millisecond)
	close(release)
	wg.Wait()

	if calls.Load() != 1 {
		t.Fatalf("expected 1 download, got %d", calls.Load())
	}
	for i, res := range results {
		if !bytes.Equal(res, want) {
			t.Fatalf("result %d mismatch", i)
		}
	}
}

func TestMemoryCacheBasic(t *testing.T) {
	c := NewMemoryCache()
	r := ByteRange{Start: 0, End: 15, Length: 64}

	if _, ok := c.Get(r); ok {
		t.Fatal("unexpected hit on empty cache")
	}
	c.Put(r, testPattern(16))
	if v, ok := c.Get(r); !ok || !bytes.Equal(v, testPattern(16)) {
		t.Fatal("expected hit with stored bytes")
	}
	if c.Len() != 1 {
		t.Fatalf("expected 1 entry, got %d", c.Len())
	}

	c.Delete(r)
	if _, ok := c.Get(r); ok {
		t.Fatal("expected miss after Delete")
	}

	c.Put(r, testPattern(16))
	c.Clear()
	if c.Len() != 0 {
		t.Fatalf("expected empty cache after Clear, got %d", c.Len())
	}
}
