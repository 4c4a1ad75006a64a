/* SPDX-License-Identifier: BSD-2-Clause */

package httpwindow

// API contract compile-time checks.
var (
	_ RangeClient = (*Client)(nil)
	_ Cache       = (*MemoryCache)(nil)
	_ Cache       = (*LRUCache)(nil)

	_ singleFetchCache = (*LRUCache)(nil)
)
