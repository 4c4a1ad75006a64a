/* SPDX-License-Identifier: BSD-2-Clause */

package httpwindow

import (
	"net/http"
	"strconv"
	"strings"
)

// Metadata captures the validators a server hands out for a resource. The
// default Client sends them back as preconditions on every ranged GET, so a
// resource that changes mid-read fails the request instead of serving windows
// from a different version.
type Metadata struct {
	ETag         string
	LastModified string
	Length       int64
}

// metadataFromHeaders reads validators from response headers. Length comes
// from Content-Range when present (206 responses); otherwise it falls back to
// Content-Length.
func metadataFromHeaders(h http.Header) Metadata {
	m := Metadata{
		ETag:         h.Get("ETag"),
		LastModified: h.Get("Last-Modified"),
	}

	if cr := h.Get("Content-Range"); cr != "" {
		// Format: "bytes start-end/total"
		if parts := strings.Split(cr, "/"); len(parts) == 2 {
			if length, err := strconv.ParseInt(parts[1], 10, 64); err == nil {
				m.Length = length
			}
		}
	} else if cl := h.Get("Content-Length"); cl != "" {
		if length, err := strconv.ParseInt(cl, 10, 64); err == nil {
			m.Length = length
		}
	}

	return m
}

// Equal reports whether two metadata values may describe the same resource
// version. Absent validators compare as equal.
func (m Metadata) Equal(other Metadata) bool {
	if m.ETag != "" && other.ETag != "" && m.ETag != other.ETag {
		return false
	}
	if m.LastModified != "" && other.LastModified != "" && m.LastModified != other.LastModified {
		return false
	}
	if m.Length > 0 && other.Length > 0 && m.Length != other.Length {
		return false
	}
	return true
}

// ApplyValidators adds conditional headers to a request.
func (m Metadata) ApplyValidators(h http.Header) {
	if m.ETag != "" {
		h.Set("If-Match", m.ETag)
	}
	if m.LastModified != "" {
		h.Set("If-Unmodified-Since", m.LastModified)
	}
}
