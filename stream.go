/* SPDX-License-Identifier: BSD-2-Clause */

package httpwindow

import (
	"context"
	"fmt"
	"io"
	"net/http"
)

// DefaultWindowSize is the window size used unless WithWindowSize overrides
// it. Smaller windows mean more requests; larger windows mean more irrelevant
// bytes fetched and discarded.
const DefaultWindowSize = 1 << 19

const megabyte = 1 << 20

type config struct {
	windowSize   int64
	maxCacheSize int64
	cache        Cache
	httpClient   *http.Client
}

func defaultConfig() config {
	return config{windowSize: DefaultWindowSize}
}

// Option configures a Stream at construction. The configuration is fixed for
// the stream's lifetime.
type Option func(*config)

// WithWindowSize sets the window/chunk size in bytes. Must be positive.
func WithWindowSize(size int64) Option {
	return func(c *config) { c.windowSize = size }
}

// WithMaxCacheSize bounds the per-stream window cache to maxBytes, rounded
// down to a whole number of windows. Zero (the default) disables caching.
func WithMaxCacheSize(maxBytes int64) Option {
	return func(c *config) { c.maxCacheSize = maxBytes }
}

// WithCache injects a window cache, typically to share one cache across
// several streams reading the same resource. Overrides WithMaxCacheSize.
func WithCache(cache Cache) Option {
	return func(c *config) { c.cache = cache }
}

// WithHTTPClient sets the http.Client used by Open and OpenShared.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *config) { c.httpClient = hc }
}

func (c config) buildCache(windowSize int64) (Cache, error) {
	if c.cache != nil {
		return c.cache, nil
	}
	if c.maxCacheSize <= 0 {
		return nil, nil
	}
	entries := c.maxCacheSize / windowSize
	if entries == 0 {
		return nil, nil
	}
	return NewLRUCache(int(entries))
}

// Stream supports random access over a large remote byte resource without
// downloading it in full. The resource is divided into fixed-size windows
// fetched on demand with ranged requests; reads and seeks move a logical
// cursor, and only crossing into a different window costs a network round
// trip. This helps decoders that read small portions of large, selectively
// readable formats, like tiled or multiresolution images.
//
// A Stream is not safe for concurrent use. One logical caller owns the
// cursor; callers needing concurrency should serialize access or give each
// reader its own Stream, optionally sharing a Cache between them.
type Stream struct {
	fetcher *windowFetcher
	length  int64
	pos     int64
	bufOff  int64
	closed  bool
}

// New constructs a Stream by probing the server for range support and the
// resource length. It fails with ErrRangesNotSupported or ErrMetadata if the
// probe response is unusable; no further requests are issued in that case.
func New(client RangeClient, opts ...Option) (*Stream, error) {
	length, err := probeLength(context.Background(), client)
	if err != nil {
		return nil, err
	}
	return NewWithLength(client, length, opts...)
}

// NewWithLength constructs a Stream for a resource of known length, skipping
// the probe.
func NewWithLength(client RangeClient, length int64, opts ...Option) (*Stream, error) {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.windowSize <= 0 {
		return nil, fmt.Errorf("httpwindow: window size must be positive, got %d", cfg.windowSize)
	}
	if length < 0 {
		return nil, fmt.Errorf("httpwindow: negative resource length %d", length)
	}
	cache, err := cfg.buildCache(cfg.windowSize)
	if err != nil {
		return nil, err
	}
	return &Stream{
		fetcher: newWindowFetcher(client, cache, cfg.windowSize, length),
		length:  length,
	}, nil
}

// prepare loads the window containing the cursor if needed and realigns the
// in-window offset.
func (s *Stream) prepare() error {
	if err := s.fetcher.prepareWindow(context.Background(), s.pos); err != nil {
		return err
	}
	s.bufOff = s.pos % s.fetcher.windowSize
	return nil
}

// ReadByte reads the byte at the cursor and advances it. At or past the end
// of the resource it returns io.EOF with no side effects.
func (s *Stream) ReadByte() (byte, error) {
	if s.closed {
		return 0, ErrClosed
	}
	if s.pos >= s.length {
		return 0, io.EOF
	}
	if err := s.prepare(); err != nil {
		return 0, err
	}
	b := s.fetcher.window[s.bufOff]
	s.bufOff++
	s.pos++
	return b, nil
}

// ReadInto copies up to n bytes into dst starting at offset and advances the
// cursor by the number copied. A single call never crosses a window boundary:
// it copies at most the bytes remaining in the current window, and the return
// value tells the caller how far it got so it can loop. Requests reaching
// past the end of the resource are clamped; a cursor at or past the end
// returns io.EOF.
func (s *Stream) ReadInto(dst []byte, offset, n int) (int, error) {
	if s.closed {
		return 0, ErrClosed
	}
	if offset < 0 {
		return 0, fmt.Errorf("%w: negative offset %d", ErrBounds, offset)
	}
	if n < 0 {
		return 0, fmt.Errorf("%w: negative length %d", ErrBounds, n)
	}
	if offset+n > len(dst) {
		return 0, fmt.Errorf("%w: offset %d + length %d exceeds buffer length %d",
			ErrBounds, offset, n, len(dst))
	}
	if s.pos >= s.length {
		return 0, io.EOF
	}

	if remaining := s.length - s.pos; int64(n) > remaining {
		n = int(remaining)
	}

	if err := s.prepare(); err != nil {
		return 0, err
	}

	filled := int64(n)
	if avail := int64(len(s.fetcher.window)) - s.bufOff; filled > avail {
		filled = avail
	}
	copy(dst[offset:offset+int(filled)], s.fetcher.window[s.bufOff:s.bufOff+filled])

	s.bufOff += filled
	s.pos += filled
	return int(filled), nil
}

// Read implements io.Reader. Reads spanning a window boundary return short;
// callers looping per the io.Reader contract see every byte exactly once.
func (s *Stream) Read(p []byte) (int, error) {
	return s.ReadInto(p, 0, len(p))
}

// Seek implements io.Seeker. Seeking is a cursor-only update: the stale
// window is discarded lazily on the next read, so consecutive seeks cost no
// network activity. Seeking past the end of the resource is allowed; reads
// there return io.EOF.
func (s *Stream) Seek(offset int64, whence int) (int64, error) {
	if s.closed {
		return 0, ErrClosed
	}

	var pos int64
	switch whence {
	case io.SeekStart:
		pos = offset
	case io.SeekCurrent:
		pos = s.pos + offset
	case io.SeekEnd:
		pos = s.length + offset
	default:
		return 0, ErrWhence
	}

	if pos < 0 {
		return 0, fmt.Errorf("%w: negative position %d", ErrBounds, pos)
	}
	s.pos = pos
	s.bufOff = pos % s.fetcher.windowSize
	return pos, nil
}

// Length returns the total resource length, constant for the stream's
// lifetime.
func (s *Stream) Length() int64 { return s.length }

// Stats returns a snapshot of the diagnostic counters.
func (s *Stream) Stats() Stats { return s.fetcher.stats() }

// Close releases the window buffer and the client reference and logs a fetch
// summary. Close is idempotent; any other operation after Close returns
// ErrClosed.
func (s *Stream) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true

	st := s.fetcher.stats()
	debugf("close: %d windows fetched (%.2fMB of %.2fMB); %d cache hits",
		st.Downloads,
		float64(st.DownloadedBytes)/megabyte,
		float64(s.length)/megabyte,
		st.CacheHits)

	s.fetcher.window = nil
	s.fetcher.client = nil
	return nil
}
