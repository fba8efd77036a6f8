// Copyright (c) 2024 Arista Networks, Inc.
// Use of this source code is governed by the Apache License 2.0
// that can be found in the COPYING file.

package pipeline

import (
	"context"

	"github.com/aristanetworks/goarista/cht"
	"github.com/aristanetworks/goarista/logger"
	"github.com/aristanetworks/goarista/pipelinecfg"
)

// dedupNode rejects keys it has already seen, backed directly by a
// cht.Table. It's the simplest possible node: Start/Stop only flip the
// lifecycle state, since the table itself needs no background goroutine.
type dedupNode struct {
	baseNode
	table *cht.Table[struct{}]
}

func newDedupNode(cfg pipelinecfg.NodeConfig, log logger.Logger) (Node, error) {
	return &dedupNode{
		baseNode: newBaseNode(cfg.Name),
		table:    cht.New[struct{}](cfg.BucketCount, cht.WithLogger[struct{}](log)),
	}, nil
}

func (n *dedupNode) Start(ctx context.Context) error {
	return n.transition(Created, Running)
}

func (n *dedupNode) Stop() error {
	if err := n.transition(Running, Stopped); err != nil {
		return err
	}
	return n.table.Close()
}

// Seen reports whether key has already been recorded, recording it if
// not. It returns true only for the second and later observations of a
// given key.
func (n *dedupNode) Seen(key []byte) bool {
	_, inserted := n.table.LookupInsert(key, struct{}{})
	return !inserted
}

// Stats exposes the underlying table's diagnostics counters.
func (n *dedupNode) Stats() cht.Stats {
	return n.table.Stats()
}

// GC drives the table's incremental migration forward by up to maxSteps.
func (n *dedupNode) GC(maxSteps int) int {
	return n.table.GC(maxSteps)
}
