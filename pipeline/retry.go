// Copyright (c) 2024 Arista Networks, Inc.
// Use of this source code is governed by the Apache License 2.0
// that can be found in the COPYING file.

package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/aristanetworks/goarista/epq"
	"github.com/aristanetworks/goarista/logger"
	"github.com/aristanetworks/goarista/pipelinecfg"
)

const retrySchedulerDrainInterval = 20 * time.Millisecond

// retrySchedulerNode holds work items for a configurable TTL before
// forwarding them to a Kafka sink, backed by an epq.Queue. Scheduling a
// retry is Schedule; a scheduled retry cannot be cancelled before it fires.
type retrySchedulerNode struct {
	baseNode
	queue *epq.Queue[[]byte]
	sink  *kafkaSink
	ttl   uint64

	cancel context.CancelFunc
	done   chan struct{}
}

func newRetrySchedulerNode(cfg pipelinecfg.NodeConfig, log logger.Logger) (Node, error) {
	if len(cfg.KafkaAddrs) == 0 || cfg.KafkaTopic == "" {
		return nil, fmt.Errorf("retry-scheduler node %q: kafka-addrs and kafka-topic are required", cfg.Name)
	}

	sink, err := newKafkaSink(cfg.KafkaAddrs, cfg.KafkaTopic, log)
	if err != nil {
		return nil, fmt.Errorf("retry-scheduler node %q: %w", cfg.Name, err)
	}

	n := &retrySchedulerNode{
		baseNode: newBaseNode(cfg.Name),
		sink:     sink,
		ttl:      cfg.TTLMillis * uint64(time.Millisecond),
	}
	n.queue = epq.New[[]byte](cfg.InitialCapacity, n.onExpire, epq.WithLogger[[]byte](log))
	return n, nil
}

func (n *retrySchedulerNode) onExpire(payload []byte) {
	n.sink.send(payload)
}

func (n *retrySchedulerNode) Start(ctx context.Context) error {
	if err := n.transition(Created, Running); err != nil {
		return err
	}
	runCtx, cancel := context.WithCancel(ctx)
	n.cancel = cancel
	n.done = make(chan struct{})
	go n.drain(runCtx)
	return nil
}

func (n *retrySchedulerNode) drain(ctx context.Context) {
	defer close(n.done)
	ticker := time.NewTicker(retrySchedulerDrainInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n.queue.ExpireAll(uint64(time.Now().UnixNano()))
		}
	}
}

func (n *retrySchedulerNode) Stop() error {
	if err := n.transition(Running, Stopped); err != nil {
		return err
	}
	n.cancel()
	<-n.done
	n.queue.Close()
	n.sink.Close()
	return nil
}

// Schedule enqueues payload to fire after this node's configured TTL.
func (n *retrySchedulerNode) Schedule(payload []byte) error {
	return n.queue.Insert(uint64(time.Now().UnixNano()), payload, n.ttl)
}

// Stats exposes the underlying queue's diagnostics counters.
func (n *retrySchedulerNode) Stats() epq.Stats {
	return n.queue.Stats()
}
