// Copyright (c) 2024 Arista Networks, Inc.
// Use of this source code is governed by the Apache License 2.0
// that can be found in the COPYING file.

package pipeline

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/aristanetworks/goarista/logger"
)

type countingSweepable struct {
	calls atomic.Int32
}

func (c *countingSweepable) GC(maxSteps int) int {
	c.calls.Add(1)
	return maxSteps
}

func TestSweeperInvokesTargets(t *testing.T) {
	target := &countingSweepable{}
	s := NewSweeper([]Sweepable{target}, 2, 10, logger.Nop)
	s.Start(context.Background())
	defer s.Stop()

	deadline := time.After(time.Second)
	for target.calls.Load() == 0 {
		select {
		case <-deadline:
			t.Fatalf("sweeper never invoked target.GC")
		default:
			time.Sleep(time.Millisecond)
		}
	}
}

func TestSweeperStopIsIdempotentWithoutStart(t *testing.T) {
	s := NewSweeper(nil, 1, 1, logger.Nop)
	s.Stop() // must not panic when Start was never called
}
