// Copyright (c) 2024 Arista Networks, Inc.
// Use of this source code is governed by the Apache License 2.0
// that can be found in the COPYING file.

// Package htw implements a hashed (single-level) timer wheel: a ring of
// slots, each protected by its own mutex, holding a circular doubly-linked
// list of pending timers. A single caller is expected to drive Tick;
// Add may be called concurrently from any number of goroutines.
//
// Ported from original_source/src/timer-wheel.c, generalized from void*
// data to a generic V.
package htw

import (
	"errors"
	"sync"
	"sync/atomic"

	"github.com/aristanetworks/goarista/internal/toolbox"
	"github.com/aristanetworks/goarista/logger"
)

// ErrInvalidArgument is reserved for a nil wheel or malformed arguments;
// no Wheel method returns it.
var ErrInvalidArgument = errors.New("htw: invalid argument")

// ErrClosed is returned by any operation invoked after Close.
var ErrClosed = errors.New("htw: wheel closed")

const (
	defaultSize           = 256
	defaultTickResolution = 1000 // ns
)

// node is one pending timer, held on a circular doubly-linked intrusive
// list rooted at its slot. expiry is an absolute tick-resolution-scaled
// nanosecond timestamp.
type node[V any] struct {
	next, prev *node[V]
	expiry     uint64
	value      V
}

// listAdd inserts n into the circular list rooted at *head.
func listAdd[V any](head **node[V], n *node[V]) {
	if *head == nil {
		n.next, n.prev = n, n
		*head = n
		return
	}
	n.next = *head
	n.prev = (*head).prev
	(*head).prev.next = n
	(*head).prev = n
}

// listRemove detaches n from the circular list rooted at *head.
func listRemove[V any](head **node[V], n *node[V]) {
	if n.next == n {
		*head = nil
	} else {
		n.prev.next = n.next
		n.next.prev = n.prev
		if *head == n {
			*head = n.next
		}
	}
	n.next, n.prev = nil, nil
}

// isPowerOfTwo reports whether n is a nonzero power of two.
func isPowerOfTwo(n uint32) bool {
	return n != 0 && n&(n-1) == 0
}

// nextPowerOfTwo rounds n up to the next power of two.
func nextPowerOfTwo(n uint32) uint32 {
	if n == 0 {
		return 1
	}
	if isPowerOfTwo(n) {
		return n
	}
	n--
	n |= n >> 1
	n |= n >> 2
	n |= n >> 4
	n |= n >> 8
	n |= n >> 16
	return n + 1
}

// Stats are the diagnostics counters exposed for monitoring.
type Stats struct {
	Added      uint64
	Expired    uint64
	TimerLoops uint64
	AddExpired uint64
}

// Option configures a Wheel at construction.
type Option[V any] func(*Wheel[V])

// WithLogger attaches a logger.Logger for sparse diagnostics.
func WithLogger[V any](log logger.Logger) Option[V] {
	return func(w *Wheel[V]) { w.log = log }
}

// Wheel is a hashed timer wheel: size slots, each guarded by its own mutex,
// each holding a circular doubly-linked list of pending timers.
type Wheel[V any] struct {
	slots []*node[V]
	locks []sync.Mutex

	size           uint32
	mask           uint32
	tickResolution uint64
	currentTick    atomic.Uint64
	expireCb       func(V)

	alloc  toolbox.Allocator[node[V]]
	log    logger.Logger
	closed atomic.Bool

	added, expired, addExpired, timerLoops atomic.Uint64
}

// New creates a Wheel. size is rounded up to the next power of two;
// size <= 0 selects the default (256). tickResolutionNs <= 0 selects the
// default (1000ns). cb may be nil, in which case firing timers are simply
// dropped.
func New[V any](size uint32, tickResolutionNs uint64, cb func(V), opts ...Option[V]) *Wheel[V] {
	if size == 0 {
		size = defaultSize
	}
	if tickResolutionNs == 0 {
		tickResolutionNs = defaultTickResolution
	}
	size = nextPowerOfTwo(size)

	w := &Wheel[V]{
		slots:          make([]*node[V], size),
		locks:          make([]sync.Mutex, size),
		size:           size,
		mask:           size - 1,
		tickResolution: tickResolutionNs,
		expireCb:       cb,
		alloc:          toolbox.NewPoolAllocator[node[V]](),
		log:            logger.Nop,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Add schedules value to fire no sooner than delayNs from the wheel's
// current time. delayNs == 0 is a no-op: the original C code treats a
// zero delay as "don't bother scheduling" rather than "fire immediately",
// and this port preserves that.
func (w *Wheel[V]) Add(delayNs uint64, value V) error {
	if w.closed.Load() {
		return ErrClosed
	}

	w.added.Add(1)
	if delayNs == 0 {
		return nil
	}

	ticksDelay := (delayNs + w.tickResolution - 1) / w.tickResolution
	startTick := w.currentTick.Load()
	expiryTick := startTick + ticksDelay

	n := w.alloc.Get()
	*n = node[V]{expiry: expiryTick * w.tickResolution, value: value}

	slot := uint32(expiryTick) & w.mask
	w.locks[slot].Lock()

	// The wheel may have advanced between the load above and acquiring the
	// slot lock. If Tick has already processed expiryTick, this slot will
	// not be visited again until the next revolution although the timer
	// is already due, so fire it inline instead.
	if w.currentTick.Load() > expiryTick {
		w.locks[slot].Unlock()
		if w.expireCb != nil {
			w.expireCb(n.value)
		}
		w.alloc.Put(n)
		w.addExpired.Add(1)
		return nil
	}

	listAdd(&w.slots[slot], n)
	w.locks[slot].Unlock()

	return nil
}

// Tick advances the wheel to currentTimeNs, firing every timer whose
// expiry has passed. A single caller is expected to drive Tick; calling it
// concurrently from multiple goroutines races on currentTick and is not
// supported. Returns the number of timers fired.
func (w *Wheel[V]) Tick(currentTimeNs uint64) (int, error) {
	if w.closed.Load() {
		return 0, ErrClosed
	}

	targetTick := currentTimeNs / w.tickResolution
	tick := w.currentTick.Load()

	// Don't go back in time; a stale or out-of-order call is not an error,
	// it just has nothing to do yet.
	if targetTick < tick {
		return 0, nil
	}

	expired := 0
	for ; tick <= targetTick; tick++ {
		slot := uint32(tick) & w.mask

		w.locks[slot].Lock()
		head := w.slots[slot]
		w.slots[slot] = nil
		w.locks[slot].Unlock()

		for head != nil {
			timer := head
			listRemove(&head, timer)

			if timer.expiry <= currentTimeNs {
				if w.expireCb != nil {
					w.expireCb(timer.value)
				}
				w.alloc.Put(timer)
				expired++
			} else {
				newSlot := uint32(timer.expiry/w.tickResolution) & w.mask
				w.locks[newSlot].Lock()
				listAdd(&w.slots[newSlot], timer)
				w.locks[newSlot].Unlock()
				w.timerLoops.Add(1)
			}
		}

		w.currentTick.Store(tick + 1)
	}

	w.expired.Add(uint64(expired))
	if w.log.V(9) && expired > 0 {
		w.log.Infof("htw: fired %d timers", expired)
	}

	return expired, nil
}

// Stats returns a snapshot of the diagnostics counters.
func (w *Wheel[V]) Stats() Stats {
	return Stats{
		Added:      w.added.Load(),
		Expired:    w.expired.Load(),
		TimerLoops: w.timerLoops.Load(),
		AddExpired: w.addExpired.Load(),
	}
}

// Dump renders the wheel's diagnostics counters as a stable,
// human-readable key/value list.
func (w *Wheel[V]) Dump() string {
	s := w.Stats()
	return toolbox.DumpString([]toolbox.KV{
		{Key: "added", Value: s.Added},
		{Key: "expired", Value: s.Expired},
		{Key: "timerLoops", Value: s.TimerLoops},
		{Key: "addExpired", Value: s.AddExpired},
	})
}

// Close tears the wheel down. If runCallbacks is true, every still-pending
// timer's callback is invoked before being discarded; otherwise pending
// timers are dropped silently.
func (w *Wheel[V]) Close(runCallbacks bool) error {
	if !w.closed.CompareAndSwap(false, true) {
		return ErrClosed
	}

	for i := range w.slots {
		w.locks[i].Lock()
		head := w.slots[i]
		w.slots[i] = nil
		w.locks[i].Unlock()

		for head != nil {
			n := head
			listRemove(&head, n)
			if runCallbacks && w.expireCb != nil {
				w.expireCb(n.value)
			}
			w.alloc.Put(n)
		}
	}

	return nil
}
