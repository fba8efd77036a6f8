// Copyright (c) 2024 Arista Networks, Inc.
// Use of this source code is governed by the Apache License 2.0
// that can be found in the COPYING file.

package epq

import (
	"strings"
	"testing"
)

// TestScenarioA exercises a single insert/expire round trip.
func TestScenarioA(t *testing.T) {
	var fired []int
	q := New[int](0, func(v int) { fired = append(fired, v) })

	q.Insert(0, 42, 0)

	if n := q.Expire(0, 0); n != 0 {
		t.Fatalf("Expire(0,0) = %d; want 0", n)
	}
	if n := q.Expire(1, 1); n != 1 {
		t.Fatalf("Expire(1,1) = %d; want 1", n)
	}
	if len(fired) != 1 || fired[0] != 42 {
		t.Fatalf("fired = %v; want [42]", fired)
	}
	if n := q.Expire(1, 1); n != 0 {
		t.Fatalf("second Expire(1,1) = %d; want 0", n)
	}
}

// TestScenarioB checks that no item expires before its deadline and that
// ExpireAll past every deadline drains all three items.
func TestScenarioB(t *testing.T) {
	q := New[int](0, nil)
	q.Insert(0, 1, 42)
	q.Insert(10, 2, 142)
	q.Insert(20, 3, 8888)

	if n := q.ExpireAll(10); n != 0 {
		t.Fatalf("ExpireAll(10) = %d; want 0", n)
	}
	if n := q.ExpireAll(10000); n != 3 {
		t.Fatalf("ExpireAll(10000) = %d; want 3", n)
	}
}

// TestScenarioC checks that ItemResched moves a queued item's deadline
// (from 10 to 20+20=40).
func TestScenarioC(t *testing.T) {
	q := New[int](0, nil)
	h := q.ItemCreate(10, 0)
	if err := q.ItemInsert(h); err != nil {
		t.Fatalf("ItemInsert: %v", err)
	}
	if err := q.ItemResched(20, h, 20); err != nil {
		t.Fatalf("ItemResched: %v", err)
	}
	if n := q.ExpireAll(30); n != 0 {
		t.Fatalf("ExpireAll(30) = %d; want 0", n)
	}
	if n := q.ExpireAll(50); n != 1 {
		t.Fatalf("ExpireAll(50) = %d; want 1", n)
	}
}

func TestMinAtRoot(t *testing.T) {
	q := New[int](0, nil)
	q.Insert(0, 1, 50)
	q.Insert(0, 2, 10)
	q.Insert(0, 3, 30)

	if q.items[0].expire != 10 {
		t.Fatalf("root expire = %d; want 10 (the minimum)", q.items[0].expire)
	}
}

func TestItemRemoveThenReinsert(t *testing.T) {
	var fired []int
	q := New[int](0, func(v int) { fired = append(fired, v) })

	h := q.ItemCreate(100, 7)
	q.ItemInsert(h)
	if err := q.ItemRemove(h); err != nil {
		t.Fatalf("ItemRemove: %v", err)
	}
	if n := q.ExpireAll(1000); n != 0 {
		t.Fatalf("ExpireAll after remove = %d; want 0 (item was detached)", n)
	}
	q.ItemInsert(h)
	if n := q.ExpireAll(1000); n != 1 {
		t.Fatalf("ExpireAll after reinsert = %d; want 1", n)
	}
	if len(fired) != 1 || fired[0] != 7 {
		t.Fatalf("fired = %v; want [7]", fired)
	}
}

func TestExpireOrderIsNonDecreasing(t *testing.T) {
	var fired []uint64
	q := New[int](0, nil)
	expires := []uint64{50, 10, 30, 20, 40}
	for _, e := range expires {
		h := q.ItemCreate(e, 0)
		q.ItemInsert(h)
	}

	for {
		if len(q.items) == 0 {
			break
		}
		top := q.items[0]
		fired = append(fired, top.expire)
		q.Expire(top.expire, 1)
	}

	for i := 1; i < len(fired); i++ {
		if fired[i] < fired[i-1] {
			t.Fatalf("expire order not non-decreasing: %v", fired)
		}
	}
}

func TestCloseExpiresEverything(t *testing.T) {
	var fired int
	q := New[int](0, func(int) { fired++ })
	q.Insert(0, 1, 1_000_000)
	q.Insert(0, 2, 2_000_000)
	q.Close()
	if fired != 2 {
		t.Fatalf("fired = %d; want 2", fired)
	}
}

func TestDumpContainsCounters(t *testing.T) {
	q := New[int](0, func(int) {})
	q.Insert(0, 1, 1_000_000)
	dump := q.Dump()
	for _, want := range []string{"inserts", "size"} {
		if !strings.Contains(dump, want) {
			t.Fatalf("Dump() = %q, missing %q", dump, want)
		}
	}
}
