// Copyright (c) 2024 Arista Networks, Inc.
// Use of this source code is governed by the Apache License 2.0
// that can be found in the COPYING file.

// Package cht implements a concurrent hash table with lock-per-bucket
// concurrency and an online, non-blocking doubling-rehash that coexists
// with concurrent readers, writers, and cooperative migration performed
// during ordinary operations.
//
// It is a Go port of the sht (simple hash table) design: ported from
// original_source/src/sht.c, generalized from void* keys/values to a
// generic []byte-keyed, V-valued table.
package cht

import (
	"bytes"
	"errors"
	"sync"
	"sync/atomic"

	"github.com/aristanetworks/goarista/internal/toolbox"
	"github.com/aristanetworks/goarista/logger"
)

// ErrInvalidArgument is returned when a key is nil or empty.
var ErrInvalidArgument = errors.New("cht: invalid argument")

// ErrClosed is returned by Insert after Close.
var ErrClosed = errors.New("cht: table closed")

// errTooManyResizes is the internal "too many double-sizes too fast"
// condition: a resize was requested while a migration is still draining.
var errTooManyResizes = errors.New("cht: resize already in progress")

const (
	defaultBucketCount = 64
	// gcStep is the bounded amount of migration work ("default 10 entries")
	// each operation performs cooperatively while a resize is draining.
	gcStep = 10
)

type entry[V any] struct {
	hash  uint32
	key   []byte
	value V
	next  *entry[V]
}

// line is one bucket: a reader/writer lock guarding a singly-linked chain.
type line[V any] struct {
	mu   sync.RWMutex
	head *entry[V]
	len  atomic.Int32
}

// generation is one incarnation of the bucket array. A Table holds the
// current generation and, during migration, a pointer to the old one.
type generation[V any] struct {
	lines []line[V]
	size  uint32
}

// oldGeneration is a generation being drained by cooperative migration.
// gcIndex is only ever touched while spin is held (mutual exclusion is by
// trylock, matching the C old->global_lock).
type oldGeneration[V any] struct {
	gen     *generation[V]
	spin    toolbox.SpinLock
	gcIndex uint32
}

// Stats are the diagnostics counters exposed for monitoring.
type Stats struct {
	Lookups            uint64
	Inserts            uint64
	Removes            uint64
	Collisions         uint64
	DoubleSizes        uint64
	DoubleSizeFailures uint64
	Entries            int64
}

// Option configures a Table at construction.
type Option[V any] func(*Table[V])

// WithHash overrides the default byte hash (the "one-at-a-time" family).
// Callers whose keys are already uniformly distributed may supply a
// cheaper function.
func WithHash[V any](hash func([]byte) uint32) Option[V] {
	return func(t *Table[V]) { t.hash = hash }
}

// WithLogger attaches a logger.Logger for sparse V(9)-gated diagnostics at
// resize and migration points. The default is a no-op logger.
func WithLogger[V any](log logger.Logger) Option[V] {
	return func(t *Table[V]) { t.log = log }
}

// Table is a concurrent, incrementally-resizing hash table keyed by []byte.
type Table[V any] struct {
	gen atomic.Pointer[generation[V]]
	old atomic.Pointer[oldGeneration[V]]

	hash  func([]byte) uint32
	alloc toolbox.Allocator[entry[V]]
	log   logger.Logger

	ref           atomic.Int32
	spin          toolbox.SpinLock
	resizeArmed   atomic.Bool
	maxChainDepth atomic.Int32
	closed        atomic.Bool

	lookups, inserts, removes, collisions atomic.Uint64
	doubleSizes, doubleSizeFailures        atomic.Uint64
}

// New creates a Table. bucketCount <= 0 selects a default (64). Options may
// override the hash function or logger. Entries always come from an
// internal toolbox.PoolAllocator; no option replaces it.
func New[V any](bucketCount int, opts ...Option[V]) *Table[V] {
	if bucketCount <= 0 {
		bucketCount = defaultBucketCount
	}

	t := &Table[V]{
		hash:  toolbox.OATHash,
		alloc: toolbox.NewPoolAllocator[entry[V]](),
		log:   logger.Nop,
	}
	for _, opt := range opts {
		opt(t)
	}

	g := &generation[V]{
		lines: make([]line[V], bucketCount),
		size:  uint32(bucketCount),
	}
	t.gen.Store(g)
	t.maxChainDepth.Store(int32(toolbox.ISqrt(uint64(bucketCount))))
	t.resizeArmed.Store(true)

	return t
}

func (t *Table[V]) acquire() {
	t.spin.Lock()
	t.ref.Add(1)
	t.spin.Unlock()
}

func (t *Table[V]) release() {
	t.ref.Add(-1)
}

func lineLookup[V any](ln *line[V], key []byte, hash uint32) (V, bool) {
	for e := ln.head; e != nil; e = e.next {
		if e.hash != hash {
			continue
		}
		if bytes.Equal(e.key, key) {
			return e.value, true
		}
	}
	var zero V
	return zero, false
}

// prepend inserts node at the head of ln. Caller must hold ln.mu.
func prepend[V any](ln *line[V], node *entry[V]) (collided bool) {
	node.next = ln.head
	collided = ln.head != nil
	ln.head = node
	ln.len.Add(1)
	return collided
}

func bucketFor[V any](g *generation[V], hash uint32) *line[V] {
	return &g.lines[hash%g.size]
}

// Insert copies key and prepends a new entry to its bucket. Duplicate keys
// are not rejected: both remain, and Lookup returns the most recently
// inserted value, because new entries are prepended.
func (t *Table[V]) Insert(key []byte, value V) error {
	if len(key) == 0 {
		return ErrInvalidArgument
	}
	if t.closed.Load() {
		return ErrClosed
	}

	keyCopy := append([]byte(nil), key...)
	hash := t.hash(key)

	t.acquire()
	defer t.release()

	t.gc(gcStep)

	g := t.gen.Load()
	ln := bucketFor(g, hash)
	if ln.len.Load() > t.maxChainDepth.Load() {
		if err := t.tryDoubleSize(); err == nil {
			g = t.gen.Load()
			ln = bucketFor(g, hash)
		} else {
			t.doubleSizeFailures.Add(1)
		}
	}

	node := t.alloc.Get()
	*node = entry[V]{hash: hash, key: keyCopy, value: value}

	ln.mu.Lock()
	collided := prepend(ln, node)
	ln.mu.Unlock()

	t.inserts.Add(1)
	if collided {
		t.collisions.Add(1)
	}

	return nil
}

// Lookup searches the current table first, then the old table if a
// migration is in progress, and on a miss there the current table once
// more, so an entry migrated between the first two reads is still found.
func (t *Table[V]) Lookup(key []byte) (V, bool) {
	var zero V
	if len(key) == 0 {
		return zero, false
	}
	if t.closed.Load() {
		return zero, false
	}

	hash := t.hash(key)

	t.acquire()
	defer t.release()

	t.lookups.Add(1)
	t.gc(gcStep)

	g := t.gen.Load()
	ln := bucketFor(g, hash)
	ln.mu.RLock()
	v, ok := lineLookup(ln, key, hash)
	ln.mu.RUnlock()
	if ok {
		return v, true
	}

	if old := t.old.Load(); old != nil {
		oln := bucketFor(old.gen, hash)
		oln.mu.RLock()
		v, ok = lineLookup(oln, key, hash)
		oln.mu.RUnlock()
		if !ok {
			// gc links a moved entry into ln before unlinking it from
			// oln, so an entry missed by both reads above is in ln now.
			ln.mu.RLock()
			v, ok = lineLookup(ln, key, hash)
			ln.mu.RUnlock()
		}
	}

	return v, ok
}

// LookupInsert is an atomic get-or-create: it returns the existing value if
// present, otherwise it inserts value and returns it. Exactly one caller in
// a race against a competing LookupInsert for the same key sees its own
// value returned; the loser's candidate entry is discarded.
func (t *Table[V]) LookupInsert(key []byte, value V) (V, bool) {
	var zero V
	if len(key) == 0 {
		return zero, false
	}
	if t.closed.Load() {
		return zero, false
	}

	hash := t.hash(key)

	t.acquire()
	defer t.release()

	t.lookups.Add(1)
	t.gc(gcStep)

	g := t.gen.Load()
	ln := bucketFor(g, hash)
	if ln.len.Load() > t.maxChainDepth.Load() {
		if err := t.tryDoubleSize(); err == nil {
			g = t.gen.Load()
			ln = bucketFor(g, hash)
		} else {
			t.doubleSizeFailures.Add(1)
		}
	}

	if old := t.old.Load(); old != nil {
		oln := bucketFor(old.gen, hash)
		oln.mu.RLock()
		v, ok := lineLookup(oln, key, hash)
		oln.mu.RUnlock()
		if ok {
			return v, false
		}
	}

	ln.mu.Lock()
	if v, ok := lineLookup(ln, key, hash); ok {
		ln.mu.Unlock()
		return v, false
	}
	bak := ln.head
	ln.mu.Unlock()

	// Allocating (and copying the key) is expensive: do it unlocked, then
	// verify nothing changed before committing.
	keyCopy := append([]byte(nil), key...)
	node := t.alloc.Get()
	*node = entry[V]{hash: hash, key: keyCopy, value: value}

	ln.mu.Lock()
	for {
		if ln.head != bak {
			if v, ok := lineLookup(ln, key, hash); ok {
				ln.mu.Unlock()
				t.alloc.Put(node)
				return v, false
			}
			bak = ln.head
			continue
		}
		break
	}

	collided := prepend(ln, node)
	ln.mu.Unlock()

	t.inserts.Add(1)
	if collided {
		t.collisions.Add(1)
	}

	return value, true
}

// Remove removes the first matching entry from the current table, else the
// old table, and reports whether a matching key was found.
func (t *Table[V]) Remove(key []byte) bool {
	if len(key) == 0 {
		return false
	}
	if t.closed.Load() {
		return false
	}

	hash := t.hash(key)

	t.acquire()
	defer t.release()

	t.gc(gcStep)

	g := t.gen.Load()
	removed := removeFromLine(bucketFor(g, hash), key, hash, t.alloc)
	if !removed {
		if old := t.old.Load(); old != nil {
			removed = removeFromLine(bucketFor(old.gen, hash), key, hash, t.alloc)
		}
	}

	if removed {
		t.removes.Add(1)
	}
	return removed
}

func removeFromLine[V any](ln *line[V], key []byte, hash uint32, alloc toolbox.Allocator[entry[V]]) bool {
	ln.mu.Lock()
	defer ln.mu.Unlock()

	var prev *entry[V]
	for e := ln.head; e != nil; e = e.next {
		if e.hash == hash && bytes.Equal(e.key, key) {
			if prev == nil {
				ln.head = e.next
			} else {
				prev.next = e.next
			}
			ln.len.Add(-1)
			alloc.Put(e)
			return true
		}
		prev = e
	}
	return false
}

// GC cooperatively migrates up to maxSteps entries from the old generation
// to the current one. It is invoked implicitly on every Lookup, Insert,
// Remove and LookupInsert, and may also be called explicitly.
func (t *Table[V]) GC(maxSteps int) int {
	if t.closed.Load() {
		return 0
	}

	t.acquire()
	defer t.release()
	return t.gc(maxSteps)
}

func (t *Table[V]) gc(maxSteps int) int {
	old := t.old.Load()
	if old == nil {
		return 0
	}
	if !old.spin.TryLock() {
		return 0
	}

	n := 0
	for n < maxSteps {
		if old.gcIndex >= uint32(len(old.gen.lines)) {
			break
		}

		oline := &old.gen.lines[old.gcIndex]
		oline.mu.Lock()
		node := oline.head
		if node == nil {
			oline.mu.Unlock()
			old.gcIndex++
			continue
		}

		// The node must never be unreachable from both generations at
		// once: link it into the new line (still holding oline.mu, so
		// no reader can race in) before unlinking it from the old one,
		// the same overlap _sht_gc in the original C keeps by inserting
		// into the new line before publishing old_line->nodes = tmp.
		rest := node.next
		g := t.gen.Load()
		newLine := bucketFor(g, node.hash)
		newLine.mu.Lock()
		prepend(newLine, node)
		newLine.mu.Unlock()

		oline.head = rest
		oline.len.Add(-1)
		oline.mu.Unlock()

		n++
	}

	if old.gcIndex >= uint32(len(old.gen.lines)) {
		t.spin.Lock()
		for t.ref.Load() > 1 {
			// wait for any other in-flight operation to finish; the
			// resize/migration handoff publishes only at a safe point.
		}
		t.old.Store(nil)
		t.spin.Unlock()
		old.spin.Unlock()
		if t.log.V(9) {
			t.log.Infof("cht: migration complete, %d lines drained", len(old.gen.lines))
		}
	} else {
		old.spin.Unlock()
	}

	return n
}

// tryDoubleSize requests a resize. At most one resize is in progress at a
// time (guarded by resizeArmed under the spinlock).
func (t *Table[V]) tryDoubleSize() error {
	if !t.spin.TryLock() {
		return nil
	}
	armed := t.resizeArmed.Load()
	if armed {
		t.resizeArmed.Store(false)
	}
	t.spin.Unlock()

	if !armed {
		return nil
	}

	if t.old.Load() != nil {
		return errTooManyResizes
	}

	curGen := t.gen.Load()
	newSize := uint32(len(curGen.lines)) * 2
	newLines := make([]line[V], newSize)

	t.spin.Lock()
	for t.ref.Load() > 1 {
		// drain in-flight operations before publishing the new arrays
	}

	old := &oldGeneration[V]{gen: curGen}
	t.gen.Store(&generation[V]{lines: newLines, size: newSize})
	t.maxChainDepth.Store(int32(toolbox.ISqrt(uint64(newSize))))
	t.doubleSizes.Add(1)
	t.old.Store(old)
	t.resizeArmed.Store(true)
	t.spin.Unlock()

	if t.log.V(9) {
		t.log.Infof("cht: doubled to %d buckets", newSize)
	}
	return nil
}

// Stats returns a snapshot of the diagnostics counters.
func (t *Table[V]) Stats() Stats {
	g := t.gen.Load()
	var entries int64
	for i := range g.lines {
		entries += int64(g.lines[i].len.Load())
	}
	if old := t.old.Load(); old != nil {
		for i := range old.gen.lines {
			entries += int64(old.gen.lines[i].len.Load())
		}
	}

	return Stats{
		Lookups:            t.lookups.Load(),
		Inserts:            t.inserts.Load(),
		Removes:            t.removes.Load(),
		Collisions:         t.collisions.Load(),
		DoubleSizes:        t.doubleSizes.Load(),
		DoubleSizeFailures: t.doubleSizeFailures.Load(),
		Entries:            entries,
	}
}

// Dump renders the table's diagnostics counters as a stable,
// human-readable key/value list.
func (t *Table[V]) Dump() string {
	s := t.Stats()
	return toolbox.DumpString([]toolbox.KV{
		{Key: "lookups", Value: s.Lookups},
		{Key: "inserts", Value: s.Inserts},
		{Key: "removes", Value: s.Removes},
		{Key: "collisions", Value: s.Collisions},
		{Key: "doubleSizes", Value: s.DoubleSizes},
		{Key: "doubleSizeFailures", Value: s.DoubleSizeFailures},
		{Key: "entries", Value: uint64(s.Entries)},
	})
}

// Close marks the table closed. Afterwards Insert returns ErrClosed,
// Lookup and LookupInsert report nothing found, Remove reports false and
// GC does no work. Close does not release the stored entries itself, and
// user values are never touched.
func (t *Table[V]) Close() error {
	t.closed.Store(true)
	return nil
}
