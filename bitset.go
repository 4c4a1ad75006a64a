/* SPDX-License-Identifier: BSD-2-Clause */

package httpwindow

import "math/bits"

type bitset struct {
	words []uint64
}

func newBitset(n int) *bitset {
	return &bitset{words: make([]uint64, (n+63)/64)}
}

func (b *bitset) set(i int) {
	b.words[i/64] |= 1 << (i % 64)
}

func (b *bitset) clear(i int) {
	b.words[i/64] &^= 1 << (i % 64)
}

func (b *bitset) get(i int) bool {
	return (b.words[i/64]>>(i%64))&1 != 0
}

func (b *bitset) count() int {
	n := 0
	for _, w := range b.words {
		n += bits.OnesCount64(w)
	}
	return n
}
