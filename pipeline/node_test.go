// Copyright (c) 2024 Arista Networks, Inc.
// Use of this source code is governed by the Apache License 2.0
// that can be found in the COPYING file.

package pipeline

import (
	"context"
	"testing"

	"github.com/aristanetworks/goarista/logger"
	"github.com/aristanetworks/goarista/pipelinecfg"
)

func TestRegistryBuildUnknownKind(t *testing.T) {
	r := NewRegistry()
	cfg := &pipelinecfg.Config{Nodes: []pipelinecfg.NodeConfig{{Name: "x", Kind: "bogus"}}}
	if _, err := r.Build(cfg, logger.Nop); err == nil {
		t.Fatalf("Build succeeded with an unregistered kind")
	}
}

func TestRegistryDuplicateKind(t *testing.T) {
	r := NewRegistry()
	f := func(pipelinecfg.NodeConfig, logger.Logger) (Node, error) { return nil, nil }
	if err := r.Register("dedup", f); err != nil {
		t.Fatalf("Register: %v", err)
	}
	if err := r.Register("dedup", f); err == nil {
		t.Fatalf("Register succeeded on a duplicate kind")
	}
}

func TestDedupNodeLifecycle(t *testing.T) {
	r := NewDefaultRegistry()
	cfg := &pipelinecfg.Config{Nodes: []pipelinecfg.NodeConfig{
		{Name: "dedup1", Kind: "dedup", BucketCount: 16},
	}}
	nodes, err := r.Build(cfg, logger.Nop)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	n := nodes[0]

	if n.State() != Created {
		t.Fatalf("State() = %v; want Created", n.State())
	}
	if err := n.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if n.State() != Running {
		t.Fatalf("State() = %v; want Running", n.State())
	}
	if err := n.Start(context.Background()); err == nil {
		t.Fatalf("second Start succeeded; want error")
	}
	if err := n.Stop(); err != nil {
		t.Fatalf("Stop: %v", err)
	}
	if n.State() != Stopped {
		t.Fatalf("State() = %v; want Stopped", n.State())
	}
	if err := n.Stop(); err == nil {
		t.Fatalf("second Stop succeeded; want error")
	}
}
