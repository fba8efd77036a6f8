// Copyright (c) 2024 Arista Networks, Inc.
// Use of this source code is governed by the Apache License 2.0
// that can be found in the COPYING file.

// Package pipeline wires cht, epq and htw into named, independently
// started/stopped stages, configured from a pipelinecfg.Config. It is a
// thin demonstration harness, not a core module: the interesting
// concurrency and timing logic lives in cht, epq and htw.
package pipeline

import (
	"context"
	"fmt"
	"sync"

	"github.com/aristanetworks/goarista/logger"
	"github.com/aristanetworks/goarista/pipelinecfg"
)

// State is a node's position in its Created -> Running -> Stopped
// lifecycle. A node never moves backwards.
type State int

const (
	// Created is a node's state immediately after construction.
	Created State = iota
	// Running is a node's state after a successful Start.
	Running
	// Stopped is a node's state after Stop, terminal.
	Stopped
)

// String implements fmt.Stringer.
func (s State) String() string {
	switch s {
	case Created:
		return "created"
	case Running:
		return "running"
	case Stopped:
		return "stopped"
	default:
		return "unknown"
	}
}

// Node is one stage of a pipeline.
type Node interface {
	// Name is the node's configured name, unique within its pipeline.
	Name() string
	// State reports the node's current lifecycle state.
	State() State
	// Start transitions the node from Created to Running. Calling Start
	// on a node that isn't Created is an error.
	Start(ctx context.Context) error
	// Stop transitions the node from Running to Stopped, releasing any
	// background goroutines and underlying resources. Calling Stop on a
	// node that isn't Running is an error.
	Stop() error
}

// Factory constructs a Node from its configuration.
type Factory func(cfg pipelinecfg.NodeConfig, log logger.Logger) (Node, error)

// Registry maps a NodeConfig's Kind to the Factory that builds it.
type Registry struct {
	mu        sync.RWMutex
	factories map[string]Factory
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{factories: make(map[string]Factory)}
}

// Register adds a Factory under the given kind. Registering the same kind
// twice is an error.
func (r *Registry) Register(kind string, f Factory) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.factories[kind]; ok {
		return fmt.Errorf("pipeline: kind %q already registered", kind)
	}
	r.factories[kind] = f
	return nil
}

// Build instantiates every node in cfg.Nodes, in order, via their
// registered factories. It does not start them.
func (r *Registry) Build(cfg *pipelinecfg.Config, log logger.Logger) ([]Node, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	nodes := make([]Node, 0, len(cfg.Nodes))
	for _, nc := range cfg.Nodes {
		f, ok := r.factories[nc.Kind]
		if !ok {
			return nil, fmt.Errorf("pipeline: no factory registered for kind %q (node %q)", nc.Kind, nc.Name)
		}
		n, err := f(nc, log)
		if err != nil {
			return nil, fmt.Errorf("pipeline: building node %q: %w", nc.Name, err)
		}
		nodes = append(nodes, n)
	}
	return nodes, nil
}

// baseNode implements the lifecycle bookkeeping (Name/State, and the
// Created->Running->Stopped transition checks) shared by every concrete
// node kind.
type baseNode struct {
	mu    sync.Mutex
	name  string
	state State
}

func newBaseNode(name string) baseNode {
	return baseNode{name: name, state: Created}
}

func (b *baseNode) Name() string {
	return b.name
}

func (b *baseNode) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

// transition moves the node from "from" to "to", returning an error if
// it isn't currently in "from".
func (b *baseNode) transition(from, to State) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.state != from {
		return fmt.Errorf("pipeline: node %q: cannot move from %v to %v", b.name, b.state, to)
	}
	b.state = to
	return nil
}
