/* SPDX-License-Identifier: BSD-2-Clause */

package httpwindow

import "fmt"

// ByteRange identifies one window of a remote resource as an inclusive
// [Start, End] byte span. Length carries the total resource length at the
// time the range was built, so the final window can be clamped and a range
// can be formatted without extra context. ByteRange is comparable and doubles
// as a cache key.
type ByteRange struct {
	Start  int64
	End    int64
	Length int64
}

// Len returns the number of bytes the range spans.
func (r ByteRange) Len() int64 { return r.End - r.Start + 1 }

func (r ByteRange) String() string {
	return fmt.Sprintf("[%d-%d/%d]", r.Start, r.End, r.Length)
}

// RequestHeader renders the range as a Range request header value.
func (r ByteRange) RequestHeader() string {
	return fmt.Sprintf("bytes=%d-%d", r.Start, r.End)
}

// windowRange returns the span covered by the given window index. Windows
// partition [0, length) into contiguous windowSize-sized spans; the final
// window may be shorter.
func windowRange(index, windowSize, length int64) ByteRange {
	start := index * windowSize
	end := start + windowSize
	if end > length {
		end = length
	}
	return ByteRange{Start: start, End: end - 1, Length: length}
}
