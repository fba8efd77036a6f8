// Copyright (c) 2024 Arista Networks, Inc.
// Use of this source code is governed by the Apache License 2.0
// that can be found in the COPYING file.

// Package epq implements a lock-protected binary min-heap with stable item
// handles, supporting O(log n) insert, remove and reschedule of an
// already-queued item, plus batched expiration by deadline.
//
// Ported from original_source/src/pqueue.c, generalized from void* values
// to a generic V, and built atop container/heap: heap.Interface.Swap
// maintains each Item's idx the same way the C code's swap_items does,
// which is what lets ItemRemove/ItemResched run in O(log n) on an
// already-queued handle.
package epq

import (
	"container/heap"
	"errors"
	"math"
	"sync"

	"github.com/aristanetworks/goarista/internal/toolbox"
	"github.com/aristanetworks/goarista/logger"
)

// ErrInvalidArgument is returned for a nil item handle, and by ItemRemove
// and ItemResched for a handle that is not currently queued.
var ErrInvalidArgument = errors.New("epq: invalid argument")

// ErrClosed is returned by any operation invoked after Close.
var ErrClosed = errors.New("epq: queue closed")

const defaultCapacity = 64

// maxUint64 is used as "now" by Close to expire every remaining item,
// matching the C destroy(q) call to pq_expire_all(q, UINT64_MAX).
const maxUint64 = ^uint64(0)

// Item is a durable handle to a queued element: it stores its own heap
// index, which is what makes ItemRemove and ItemResched O(log n) instead
// of O(n).
type Item[V any] struct {
	expire uint64
	value  V
	idx    int
}

// Value returns the value carried by the handle.
func (it *Item[V]) Value() V {
	return it.value
}

// Expire returns the absolute expiration timestamp carried by the handle.
func (it *Item[V]) Expire() uint64 {
	return it.expire
}

// itemHeap adapts a Queue's backing slice to container/heap.Interface.
type itemHeap[V any] struct {
	items *[]*Item[V]
}

func (h itemHeap[V]) Len() int { return len(*h.items) }

func (h itemHeap[V]) Less(i, j int) bool {
	s := *h.items
	return s[i].expire < s[j].expire
}

func (h itemHeap[V]) Swap(i, j int) {
	s := *h.items
	s[i], s[j] = s[j], s[i]
	s[i].idx = i
	s[j].idx = j
}

func (h itemHeap[V]) Push(x any) {
	it := x.(*Item[V])
	it.idx = len(*h.items)
	*h.items = append(*h.items, it)
}

func (h itemHeap[V]) Pop() any {
	s := *h.items
	n := len(s)
	it := s[n-1]
	s[n-1] = nil
	*h.items = s[:n-1]
	it.idx = -1
	return it
}

// Stats are the diagnostics counters exposed for monitoring.
type Stats struct {
	Inserts            uint64
	Expires            uint64
	Reschedules        uint64
	Removes            uint64
	DoubleSizes        uint64
	DoubleSizeFailures uint64
	Size               int
}

// Option configures a Queue at construction.
type Option[V any] func(*Queue[V])

// WithLogger attaches a logger.Logger for sparse diagnostics.
func WithLogger[V any](log logger.Logger) Option[V] {
	return func(q *Queue[V]) { q.log = log }
}

// Queue is a lock-protected, expiring binary min-heap.
type Queue[V any] struct {
	mu       sync.Mutex
	items    []*Item[V]
	expireCb func(V)
	alloc    toolbox.Allocator[Item[V]]
	log      logger.Logger
	closed   bool

	inserts, expires, rescheds, removes uint64
	doubleSizes, doubleSizeFailures     uint64
}

// New creates a Queue. initialCapacity <= 0 selects a default (64).
// expireCb may be nil.
func New[V any](initialCapacity int, expireCb func(V), opts ...Option[V]) *Queue[V] {
	if initialCapacity <= 0 {
		initialCapacity = defaultCapacity
	}

	q := &Queue[V]{
		items:    make([]*Item[V], 0, initialCapacity),
		expireCb: expireCb,
		alloc:    toolbox.NewPoolAllocator[Item[V]](),
		log:      logger.Nop,
	}
	for _, opt := range opts {
		opt(q)
	}
	return q
}

func (q *Queue[V]) heapif() itemHeap[V] {
	return itemHeap[V]{items: &q.items}
}

// ItemCreate allocates a free-standing handle, not yet owned by the queue.
func (q *Queue[V]) ItemCreate(expire uint64, value V) *Item[V] {
	it := q.alloc.Get()
	*it = Item[V]{expire: expire, value: value, idx: -1}
	return it
}

// ItemDestroy frees a handle that was never inserted (or was removed via
// ItemRemove). It must not be called on an item still owned by the queue.
func (q *Queue[V]) ItemDestroy(it *Item[V]) {
	q.alloc.Put(it)
}

// ItemInsert hands ownership of a free handle to the queue.
func (q *Queue[V]) ItemInsert(it *Item[V]) error {
	if it == nil {
		return ErrInvalidArgument
	}

	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return ErrClosed
	}

	beforeCap := cap(q.items)
	heap.Push(q.heapif(), it)
	if cap(q.items) != beforeCap {
		q.doubleSizes++
	}
	q.inserts++

	return nil
}

// Insert creates and inserts a new item with expiration now+ttl.
func (q *Queue[V]) Insert(now uint64, value V, ttl uint64) error {
	it := q.ItemCreate(now+ttl, value)
	if err := q.ItemInsert(it); err != nil {
		q.ItemDestroy(it)
		return err
	}
	return nil
}

// ItemRemove detaches a still-queued handle and returns ownership to the
// caller in O(log n). The handle is not freed and the callback is not
// invoked.
func (q *Queue[V]) ItemRemove(it *Item[V]) error {
	if it == nil {
		return ErrInvalidArgument
	}

	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return ErrClosed
	}
	if it.idx < 0 || it.idx >= len(q.items) || q.items[it.idx] != it {
		return ErrInvalidArgument
	}

	heap.Remove(q.heapif(), it.idx)
	it.idx = -1
	q.removes++

	return nil
}

// ItemResched is equivalent to remove + set new expiry + insert, applied
// atomically from the caller's perspective.
func (q *Queue[V]) ItemResched(now uint64, it *Item[V], newTTL uint64) error {
	if it == nil {
		return ErrInvalidArgument
	}

	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return ErrClosed
	}
	if it.idx < 0 || it.idx >= len(q.items) || q.items[it.idx] != it {
		return ErrInvalidArgument
	}

	heap.Remove(q.heapif(), it.idx)
	it.expire = now + newTTL
	q.rescheds++

	beforeCap := cap(q.items)
	heap.Push(q.heapif(), it)
	if cap(q.items) != beforeCap {
		q.doubleSizes++
	}
	q.inserts++

	return nil
}

// Expire pops up to max items whose expiration is <= now, in non-decreasing
// expiration order, invoking the callback on each value and freeing the
// handle. It returns the count removed. max <= 0 is a no-op.
func (q *Queue[V]) Expire(now uint64, max int) int {
	if max <= 0 {
		return 0
	}

	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return 0
	}

	count := 0
	for count < max {
		if len(q.items) == 0 {
			break
		}
		top := q.items[0]
		if top.expire > now {
			break
		}

		popped := heap.Pop(q.heapif()).(*Item[V])
		if q.expireCb != nil {
			q.expireCb(popped.value)
		}
		q.alloc.Put(popped)
		count++
	}

	q.expires += uint64(count)
	if q.log.V(9) && count > 0 {
		q.log.Infof("epq: expired %d items", count)
	}

	return count
}

// ExpireAll is equivalent to Expire(now, math.MaxInt).
func (q *Queue[V]) ExpireAll(now uint64) int {
	return q.Expire(now, math.MaxInt)
}

// Stats returns a snapshot of the diagnostics counters.
func (q *Queue[V]) Stats() Stats {
	q.mu.Lock()
	defer q.mu.Unlock()

	return Stats{
		Inserts:            q.inserts,
		Expires:            q.expires,
		Reschedules:        q.rescheds,
		Removes:            q.removes,
		DoubleSizes:        q.doubleSizes,
		DoubleSizeFailures: q.doubleSizeFailures,
		Size:               len(q.items),
	}
}

// Dump renders the queue's diagnostics counters as a stable,
// human-readable key/value list.
func (q *Queue[V]) Dump() string {
	s := q.Stats()
	return toolbox.DumpString([]toolbox.KV{
		{Key: "inserts", Value: s.Inserts},
		{Key: "expires", Value: s.Expires},
		{Key: "reschedules", Value: s.Reschedules},
		{Key: "removes", Value: s.Removes},
		{Key: "doubleSizes", Value: s.DoubleSizes},
		{Key: "doubleSizeFailures", Value: s.DoubleSizeFailures},
		{Key: "size", Value: uint64(s.Size)},
	})
}

// Close expires everything with now = maxUint64 (invoking the callback on
// each), then releases the storage.
func (q *Queue[V]) Close() error {
	q.ExpireAll(maxUint64)

	q.mu.Lock()
	q.closed = true
	q.items = nil
	q.mu.Unlock()

	return nil
}
