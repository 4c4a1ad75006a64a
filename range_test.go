/* SPDX-License-Identifier: BSD-2-Clause */

package httpwindow

import "testing"

func TestWindowPartition(t *testing.T) {
	tests := []struct {
		name       string
		length     int64
		windowSize int64
	}{
		{"default window size", 1500000, 524288},
		{"exact multiple", 64, 16},
		{"single short window", 5, 16},
		{"one byte", 1, 1},
		{"uneven tail", 100, 7},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lastIndex := (tt.length - 1) / tt.windowSize

			var covered int64
			prevEnd := int64(-1)
			for i := int64(0); i <= lastIndex; i++ {
				r := windowRange(i, tt.windowSize, tt.length)
				if r.Start != prevEnd+1 {
					t.Fatalf("window %d not contiguous: start %d after end %d", i, r.Start, prevEnd)
				}
				if r.Len() <= 0 || r.Len() > tt.windowSize {
					t.Fatalf("window %d has bad length %d", i, r.Len())
				}
				if i < lastIndex && r.Len() != tt.windowSize {
					t.Fatalf("non-final window %d is short: %d", i, r.Len())
				}
				covered += r.Len()
				prevEnd = r.End
			}

			if prevEnd != tt.length-1 {
				t.Fatalf("last window ends at %d, want %d", prevEnd, tt.length-1)
			}
			if covered != tt.length {
				t.Fatalf("windows cover %d bytes, want %d", covered, tt.length)
			}
		})
	}
}

func TestWindowPartitionSpecWindows(t *testing.T) {
	// 1,500,000 bytes at the default window size must partition into
	// [0,524287], [524288,1048575], [1048576,1499999].
	want := []ByteRange{
		{Start: 0, End: 524287, Length: 1500000},
		{Start: 524288, End: 1048575, Length: 1500000},
		{Start: 1048576, End: 1499999, Length: 1500000},
	}
	for i, w := range want {
		if got := windowRange(int64(i), DefaultWindowSize, 1500000); got != w {
			t.Fatalf("window %d: got %v want %v", i, got, w)
		}
	}
}

func TestByteRangeRequestHeader(t *testing.T) {
	r := ByteRange{Start: 524288, End: 1048575, Length: 1500000}
	if got, want := r.RequestHeader(), "bytes=524288-1048575"; got != want {
		t.Fatalf("RequestHeader: got %q want %q", got, want)
	}
	if got := r.Len(); got != 524288 {
		t.Fatalf("Len: got %d want 524288", got)
	}
}
