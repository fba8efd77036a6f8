// Copyright (c) 2024 Arista Networks, Inc.
// Use of this source code is governed by the Apache License 2.0
// that can be found in the COPYING file.

package pipelinecfg

import "testing"

func TestParse(t *testing.T) {
	const doc = `
monitor-addr: ":6060"
nodes:
  - name: dedup
    kind: dedup
    bucket-count: 256
  - name: retries
    kind: retry-scheduler
    initial-capacity: 1024
    ttl-millis: 5000
    kafka-addrs: ["localhost:9092"]
    kafka-topic: retries
  - name: sessions
    kind: session-timeout
    wheel-size: 512
    tick-resolution-ns: 1000000
    ttl-millis: 30000
`
	cfg, err := Parse([]byte(doc))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if cfg.MonitorAddr != ":6060" {
		t.Fatalf("MonitorAddr = %q; want :6060", cfg.MonitorAddr)
	}
	if len(cfg.Nodes) != 3 {
		t.Fatalf("len(Nodes) = %d; want 3", len(cfg.Nodes))
	}
	if cfg.Nodes[1].KafkaTopic != "retries" {
		t.Fatalf("Nodes[1].KafkaTopic = %q; want retries", cfg.Nodes[1].KafkaTopic)
	}
}

func TestParseRejectsDuplicateNames(t *testing.T) {
	const doc = `
nodes:
  - name: a
    kind: dedup
  - name: a
    kind: dedup
`
	if _, err := Parse([]byte(doc)); err == nil {
		t.Fatalf("Parse succeeded; want duplicate-name error")
	}
}

func TestParseRejectsEmptyKind(t *testing.T) {
	const doc = `
nodes:
  - name: a
`
	if _, err := Parse([]byte(doc)); err == nil {
		t.Fatalf("Parse succeeded; want empty-kind error")
	}
}
