/* SPDX-License-Identifier: BSD-2-Clause */

package httpwindow

import "errors"

var (
	// ErrRangesNotSupported is returned at construction when the server
	// does not advertise byte range support. No further requests are
	// issued after the probe.
	ErrRangesNotSupported = errors.New("httpwindow: server does not support byte range requests")

	// ErrMetadata is returned at construction when the resource length is
	// missing or unparseable in the probe response.
	ErrMetadata = errors.New("httpwindow: missing or invalid resource length")

	// ErrBounds is returned for invalid read/seek arguments: negative
	// offsets or lengths, or a copy that would overflow the destination.
	ErrBounds = errors.New("httpwindow: argument out of bounds")

	// ErrWhence is returned by Seek for an unknown whence value.
	ErrWhence = errors.New("httpwindow: invalid seek whence")

	// ErrClosed is returned by operations on a closed stream.
	ErrClosed = errors.New("httpwindow: stream is closed")
)
