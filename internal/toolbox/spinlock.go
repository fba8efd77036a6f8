// Copyright (c) 2024 Arista Networks, Inc.
// Use of this source code is governed by the Apache License 2.0
// that can be found in the COPYING file.

package toolbox

import "sync/atomic"

// SpinLock is a busy-wait mutual exclusion lock, the Go analogue of the
// pthread_spinlock_t the original sht.c uses to quarantine operations
// during a resize handoff. It is held for very short, bounded critical
// sections only: registering an in-flight operation, or publishing a new
// bucket array.
type SpinLock struct {
	state atomic.Bool
}

// Lock spins until the lock is acquired.
func (s *SpinLock) Lock() {
	for !s.state.CompareAndSwap(false, true) {
		// busy-wait: critical sections under this lock are O(1)
	}
}

// TryLock attempts to acquire the lock without blocking.
func (s *SpinLock) TryLock() bool {
	return s.state.CompareAndSwap(false, true)
}

// Unlock releases the lock.
func (s *SpinLock) Unlock() {
	s.state.Store(false)
}
