// Copyright (c) 2024 Arista Networks, Inc.
// Use of this source code is governed by the Apache License 2.0
// that can be found in the COPYING file.

package toolbox

import "sync"

// Allocator is the Go analogue of the alloc/free function-pointer pair the
// original C library threads through every constructor. Go has no manual
// memory management, so rather than port malloc/free verbatim this models
// node ownership as a pooled arena. cht, epq and htw each build their own
// PoolAllocator internally; none of them accepts a caller-supplied
// Allocator.
type Allocator[T any] interface {
	Get() *T
	Put(*T)
}

// PoolAllocator is the default Allocator, backed by a sync.Pool. It is
// safe for concurrent use by multiple goroutines, matching the contract
// that allocator hooks, if provided, must be thread-safe.
type PoolAllocator[T any] struct {
	pool sync.Pool
}

// NewPoolAllocator returns an Allocator that hands out zero-valued *T.
func NewPoolAllocator[T any]() *PoolAllocator[T] {
	return &PoolAllocator[T]{
		pool: sync.Pool{New: func() any { return new(T) }},
	}
}

// Get returns a recycled or freshly allocated *T.
func (p *PoolAllocator[T]) Get() *T {
	return p.pool.Get().(*T)
}

// Put returns v to the pool after resetting it to its zero value.
func (p *PoolAllocator[T]) Put(v *T) {
	if v == nil {
		return
	}
	*v = *new(T)
	p.pool.Put(v)
}
