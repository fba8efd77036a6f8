// Copyright (c) 2024 Arista Networks, Inc.
// Use of this source code is governed by the Apache License 2.0
// that can be found in the COPYING file.

package pipeline

// NewDefaultRegistry builds a Registry with the three built-in node kinds
// (dedup, retry-scheduler, session-timeout) registered.
func NewDefaultRegistry() *Registry {
	r := NewRegistry()
	// Factory registration only fails on a duplicate kind, which cannot
	// happen for this fixed, known-distinct set.
	_ = r.Register("dedup", newDedupNode)
	_ = r.Register("retry-scheduler", newRetrySchedulerNode)
	_ = r.Register("session-timeout", newSessionTimeoutNode)
	return r
}
