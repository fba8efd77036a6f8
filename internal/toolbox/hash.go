// Copyright (c) 2024 Arista Networks, Inc.
// Use of this source code is governed by the Apache License 2.0
// that can be found in the COPYING file.

// Package toolbox holds the small set of primitives shared by the cht, epq
// and htw packages: the default byte-hash, integer square root, a spinlock
// and a generic pooling allocator.
package toolbox

// OATHash is the "one-at-a-time" byte-mixing hash used as the default hash
// function for cht.Table when the caller supplies none.
func OATHash(data []byte) uint32 {
	var h uint64
	for _, b := range data {
		h += uint64(b)
		h += h << 10
		h ^= h >> 6
	}

	h += h << 3
	h ^= h >> 11
	h += h << 15

	return uint32(h)
}
