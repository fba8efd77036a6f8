// Copyright (c) 2024 Arista Networks, Inc.
// Use of this source code is governed by the Apache License 2.0
// that can be found in the COPYING file.

package toolbox

import (
	"strings"
	"testing"
)

func TestDumpString(t *testing.T) {
	got := DumpString([]KV{{Key: "inserts", Value: 3}, {Key: "removes", Value: 1}})
	want := "{\n\t\"inserts\": 3,\n\t\"removes\": 1\n}"
	if got != want {
		t.Fatalf("DumpString() = %q, want %q", got, want)
	}
}

func TestDumpStringEmpty(t *testing.T) {
	if got := DumpString(nil); got != "{\n\n}" {
		t.Fatalf("DumpString(nil) = %q", got)
	}
}

func TestISqrt(t *testing.T) {
	cases := map[uint64]uint32{0: 0, 1: 1, 4: 2, 15: 3, 16: 4, 1000000: 1000}
	for n, want := range cases {
		if got := ISqrt(n); got != want {
			t.Errorf("ISqrt(%d) = %d, want %d", n, got, want)
		}
	}
}

func TestOATHashDeterministic(t *testing.T) {
	a := OATHash([]byte("hello"))
	b := OATHash([]byte("hello"))
	if a != b {
		t.Fatalf("OATHash not deterministic: %d != %d", a, b)
	}
	if a == OATHash([]byte("world")) {
		t.Fatalf("OATHash collided on distinct short inputs")
	}
}

func TestSpinLockMutualExclusion(t *testing.T) {
	var s SpinLock
	s.Lock()
	if s.TryLock() {
		t.Fatalf("TryLock succeeded while already held")
	}
	s.Unlock()
	if !s.TryLock() {
		t.Fatalf("TryLock failed on unheld lock")
	}
	s.Unlock()
}

func TestPoolAllocator(t *testing.T) {
	p := NewPoolAllocator[strings.Builder]()
	v := p.Get()
	if v == nil {
		t.Fatalf("Get() returned nil")
	}
	p.Put(v)
}
