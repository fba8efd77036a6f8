// Copyright (c) 2024 Arista Networks, Inc.
// Use of this source code is governed by the Apache License 2.0
// that can be found in the COPYING file.

package pipeline

import (
	"context"
	"time"

	"github.com/aristanetworks/goarista/htw"
	"github.com/aristanetworks/goarista/logger"
	"github.com/aristanetworks/goarista/pipelinecfg"
)

// sessionTimeoutNode fires a callback TTL after each Touch of a session
// key, backed by an htw.Wheel. A later Touch does not cancel or push back
// the timer of an earlier one; every Touch fires once. A single
// background goroutine drives the wheel's Tick, matching the wheel's
// single-ticker-thread design.
type sessionTimeoutNode struct {
	baseNode
	wheel          *htw.Wheel[string]
	ttl            uint64
	tickResolution time.Duration
	onTimeout      func(string)

	cancel context.CancelFunc
	done   chan struct{}
}

func newSessionTimeoutNode(cfg pipelinecfg.NodeConfig, log logger.Logger) (Node, error) {
	n := &sessionTimeoutNode{
		baseNode:       newBaseNode(cfg.Name),
		ttl:            cfg.TTLMillis * uint64(time.Millisecond),
		tickResolution: time.Duration(cfg.TickResolutionNs),
	}
	n.wheel = htw.New[string](cfg.WheelSize, cfg.TickResolutionNs, n.fire, htw.WithLogger[string](log))
	return n, nil
}

// fire is the wheel's expiry callback, invoked synchronously on the
// ticking goroutine; it must not block or re-enter the wheel.
func (n *sessionTimeoutNode) fire(sessionID string) {
	if n.onTimeout != nil {
		n.onTimeout(sessionID)
	}
}

// OnTimeout registers the callback invoked for each expired session. It
// must be set before Start.
func (n *sessionTimeoutNode) OnTimeout(cb func(string)) {
	n.onTimeout = cb
}

func (n *sessionTimeoutNode) Start(ctx context.Context) error {
	if err := n.transition(Created, Running); err != nil {
		return err
	}
	runCtx, cancel := context.WithCancel(ctx)
	n.cancel = cancel
	n.done = make(chan struct{})
	go n.tickLoop(runCtx)
	return nil
}

func (n *sessionTimeoutNode) tickLoop(ctx context.Context) {
	defer close(n.done)
	resolution := n.tickResolution
	if resolution <= 0 {
		resolution = time.Millisecond
	}
	ticker := time.NewTicker(resolution)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n.wheel.Tick(uint64(time.Now().UnixNano()))
		}
	}
}

func (n *sessionTimeoutNode) Stop() error {
	if err := n.transition(Running, Stopped); err != nil {
		return err
	}
	n.cancel()
	<-n.done
	return n.wheel.Close(false)
}

// Touch schedules an additional timeout for the session to fire ttl from
// now. Timeouts scheduled by earlier Touch calls still fire.
func (n *sessionTimeoutNode) Touch(sessionID string) error {
	return n.wheel.Add(n.ttl, sessionID)
}

// Stats exposes the underlying wheel's diagnostics counters.
func (n *sessionTimeoutNode) Stats() htw.Stats {
	return n.wheel.Stats()
}
