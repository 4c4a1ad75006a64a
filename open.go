/* SPDX-License-Identifier: BSD-2-Clause */

package httpwindow

import "io"

// Open opens a remote HTTP resource as a seekable stream. It mirrors os.Open
// in spirit: the resource is opened read-only and must be closed when no
// longer needed.
func Open(url string, opts ...Option) (*Stream, error) {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	return New(NewClient(url, cfg.httpClient), opts...)
}

// OpenShared opens a remote HTTP resource with a window cache shared across
// streams, amortizing downloads across readers of the same resource.
func OpenShared(url string, cache Cache, opts ...Option) (*Stream, error) {
	return Open(url, append(opts, WithCache(cache))...)
}

// Compile-time interface satisfaction checks
var (
	_ io.Reader     = (*Stream)(nil)
	_ io.ByteReader = (*Stream)(nil)
	_ io.Seeker     = (*Stream)(nil)
	_ io.ReadSeeker = (*Stream)(nil)
	_ io.Closer     = (*Stream)(nil)
)
