// Copyright (c) 2024 Arista Networks, Inc.
// Use of this source code is governed by the Apache License 2.0
// that can be found in the COPYING file.

package pipeline

import (
	"testing"

	"github.com/aristanetworks/goarista/logger"
	"github.com/aristanetworks/goarista/pipelinecfg"
)

func TestNewRetrySchedulerNodeRequiresKafkaConfig(t *testing.T) {
	_, err := newRetrySchedulerNode(pipelinecfg.NodeConfig{Name: "retries", Kind: "retry-scheduler"}, logger.Nop)
	if err == nil {
		t.Fatalf("newRetrySchedulerNode succeeded without kafka-addrs/kafka-topic")
	}
}
