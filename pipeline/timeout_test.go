// Copyright (c) 2024 Arista Networks, Inc.
// Use of this source code is governed by the Apache License 2.0
// that can be found in the COPYING file.

package pipeline

import (
	"testing"

	"github.com/aristanetworks/goarista/logger"
	"github.com/aristanetworks/goarista/pipelinecfg"
)

func TestSessionTimeoutNodeFiresAfterTTL(t *testing.T) {
	node, err := newSessionTimeoutNode(pipelinecfg.NodeConfig{
		Name:             "sessions",
		WheelSize:        16,
		TickResolutionNs: 1_000,
		TTLMillis:        0,
	}, logger.Nop)
	if err != nil {
		t.Fatalf("newSessionTimeoutNode: %v", err)
	}
	n := node.(*sessionTimeoutNode)
	n.ttl = 5_000 // 5000ns, independent of the lifecycle goroutine's ticker

	var fired []string
	n.OnTimeout(func(id string) { fired = append(fired, id) })

	if err := n.Touch("session-1"); err != nil {
		t.Fatalf("Touch: %v", err)
	}

	if count, _ := n.wheel.Tick(4_000); count != 0 {
		t.Fatalf("Tick(4000) fired %d; want 0", count)
	}
	if count, _ := n.wheel.Tick(5_000); count != 1 {
		t.Fatalf("Tick(5000) fired %d; want 1", count)
	}
	if len(fired) != 1 || fired[0] != "session-1" {
		t.Fatalf("fired = %v; want [session-1]", fired)
	}
}
