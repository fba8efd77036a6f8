// Copyright (c) 2024 Arista Networks, Inc.
// Use of this source code is governed by the Apache License 2.0
// that can be found in the COPYING file.

package pipeline

import (
	"sync"
	"testing"
)

func TestQueueFIFOOrder(t *testing.T) {
	q := NewQueue[int]()
	for i := 0; i < 5; i++ {
		q.Push(i)
	}
	for i := 0; i < 5; i++ {
		v, ok := q.Pop()
		if !ok || v != i {
			t.Fatalf("Pop() = %v, %v; want %v, true", v, ok, i)
		}
	}
	if _, ok := q.Pop(); ok {
		t.Fatalf("Pop() on empty queue returned ok=true")
	}
}

func TestQueueLen(t *testing.T) {
	q := NewQueue[string]()
	q.Push("a")
	q.Push("b")
	if n := q.Len(); n != 2 {
		t.Fatalf("Len() = %d; want 2", n)
	}
	q.Pop()
	if n := q.Len(); n != 1 {
		t.Fatalf("Len() = %d; want 1", n)
	}
}

func TestQueueCompactsAfterDraining(t *testing.T) {
	q := NewQueue[int]()
	for i := 0; i < 200; i++ {
		q.Push(i)
	}
	for i := 0; i < 200; i++ {
		q.Pop()
	}
	q.mu.Lock()
	head := q.head
	q.mu.Unlock()
	if head != 0 {
		t.Fatalf("head = %d after draining and compaction; want 0", head)
	}
}

func TestQueueConcurrentPushPop(t *testing.T) {
	q := NewQueue[int]()
	const n = 1000
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		for i := 0; i < n; i++ {
			q.Push(i)
		}
	}()
	popped := 0
	go func() {
		defer wg.Done()
		for popped < n {
			if _, ok := q.Pop(); ok {
				popped++
			}
		}
	}()
	wg.Wait()
	if popped != n {
		t.Fatalf("popped %d; want %d", popped, n)
	}
}
