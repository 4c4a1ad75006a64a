/* SPDX-License-Identifier: BSD-2-Clause */

package httpwindow

import "context"

// Stats are diagnostic counters. No behavior depends on them.
type Stats struct {
	Downloads       int64 // windows fetched over the network
	DownloadedBytes int64 // total bytes fetched
	CacheHits       int64 // windows served from the cache
}

// singleFetchCache is an optional Cache capability: caches that can collapse
// concurrent downloads of the same window expose it, and the fetcher uses it
// on a miss instead of the plain download-then-Put path.
type singleFetchCache interface {
	fetch(r ByteRange, download func() ([]byte, error)) ([]byte, error)
}

// windowFetcher turns byte offsets into window indices and resolves window
// bytes through the cache or the client. It holds the one currently loaded
// window and the diagnostic counters.
type windowFetcher struct {
	client     RangeClient
	cache      Cache
	windowSize int64
	length     int64

	window      []byte
	windowIndex int64

	downloads       int64
	downloadedBytes int64
	hits            int64
}

func newWindowFetcher(client RangeClient, cache Cache, windowSize, length int64) *windowFetcher {
	return &windowFetcher{
		client:      client,
		cache:       cache,
		windowSize:  windowSize,
		length:      length,
		windowIndex: -1,
	}
}

func (f *windowFetcher) windowIndexFor(pos int64) int64 {
	return pos / f.windowSize
}

// prepareWindow ensures the window containing pos is loaded. It reloads only
// when pos has moved into a different window since the last load. A failed
// fetch leaves the previously loaded window in place, so the caller may retry
// the same read.
func (f *windowFetcher) prepareWindow(ctx context.Context, pos int64) error {
	index := f.windowIndexFor(pos)
	if index == f.windowIndex {
		return nil
	}
	data, err := f.resolve(ctx, index)
	if err != nil {
		return err
	}
	f.window = data
	f.windowIndex = index
	return nil
}

// resolve fetches the bytes for a window index, consulting the cache first.
func (f *windowFetcher) resolve(ctx context.Context, index int64) ([]byte, error) {
	r := windowRange(index, f.windowSize, f.length)

	if f.cache == nil {
		return f.download(ctx, r)
	}

	if data, ok := f.cache.Get(r); ok {
		debugf("window cache hit for %s", r)
		f.hits++
		return data, nil
	}

	if sc, ok := f.cache.(singleFetchCache); ok {
		return sc.fetch(r, func() ([]byte, error) {
			return f.download(ctx, r)
		})
	}

	data, err := f.download(ctx, r)
	if err != nil {
		return nil, err
	}
	f.cache.Put(r, data)
	return data, nil
}

func (f *windowFetcher) download(ctx context.Context, r ByteRange) ([]byte, error) {
	debugf("downloading window %s", r)
	data, err := f.client.FetchRange(ctx, r)
	if err != nil {
		return nil, err
	}
	f.downloads++
	f.downloadedBytes += int64(len(data))
	return data, nil
}

func (f *windowFetcher) stats() Stats {
	return Stats{
		Downloads:       f.downloads,
		DownloadedBytes: f.downloadedBytes,
		CacheHits:       f.hits,
	}
}
