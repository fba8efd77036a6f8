// Copyright (c) 2024 Arista Networks, Inc.
// Use of this source code is governed by the Apache License 2.0
// that can be found in the COPYING file.

package pipeline

import (
	"github.com/aristanetworks/goarista/cht"
	"github.com/aristanetworks/goarista/epq"
	"github.com/aristanetworks/goarista/htw"
)

// CHTStatser is satisfied by any node backed by a cht.Table, letting a
// caller wire its diagnostics into a metrics.CHTCollector without
// depending on the node's concrete (unexported) type.
type CHTStatser interface {
	Name() string
	Stats() cht.Stats
}

// EPQStatser is satisfied by any node backed by an epq.Queue.
type EPQStatser interface {
	Name() string
	Stats() epq.Stats
}

// HTWStatser is satisfied by any node backed by an htw.Wheel.
type HTWStatser interface {
	Name() string
	Stats() htw.Stats
}

var (
	_ CHTStatser = (*dedupNode)(nil)
	_ EPQStatser = (*retrySchedulerNode)(nil)
	_ HTWStatser = (*sessionTimeoutNode)(nil)
)
