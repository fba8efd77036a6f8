// Copyright (c) 2024 Arista Networks, Inc.
// Use of this source code is governed by the Apache License 2.0
// that can be found in the COPYING file.

// Package pipelinecfg parses the YAML file that wires together a
// substrate pipeline's nodes, following the same parse-then-validate
// shape as cmd/ocprometheus's Config.
package pipelinecfg

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v2"
)

// Config is the top-level representation of a pipeline's YAML config file.
type Config struct {
	// MonitorAddr is a host:port for a metrics/debug server. cmd/substrate
	// does not read it; its metrics server listens on the -listenaddr flag.
	MonitorAddr string `yaml:"monitor-addr,omitempty"`

	// Nodes are the pipeline stages, in the order they're started.
	Nodes []NodeConfig `yaml:"nodes"`
}

// NodeConfig describes one node to instantiate via a pipeline.Registry.
type NodeConfig struct {
	// Name uniquely identifies this node instance within the pipeline.
	Name string `yaml:"name"`

	// Kind selects the registered factory to use (e.g. "dedup",
	// "retry-scheduler", "session-timeout").
	Kind string `yaml:"kind"`

	// BucketCount sizes a dedup node's underlying cht.Table.
	BucketCount int `yaml:"bucket-count,omitempty"`

	// InitialCapacity sizes a retry-scheduler node's underlying epq.Queue.
	InitialCapacity int `yaml:"initial-capacity,omitempty"`

	// WheelSize sizes a session-timeout node's underlying htw.Wheel.
	WheelSize uint32 `yaml:"wheel-size,omitempty"`

	// TickResolutionNs is a session-timeout node's wheel tick resolution.
	TickResolutionNs uint64 `yaml:"tick-resolution-ns,omitempty"`

	// TTLMillis is the default time-to-live applied by retry-scheduler and
	// session-timeout nodes.
	TTLMillis uint64 `yaml:"ttl-millis,omitempty"`

	// KafkaAddrs lists the brokers a retry-scheduler node forwards
	// expired work items to.
	KafkaAddrs []string `yaml:"kafka-addrs,omitempty"`

	// KafkaTopic is the topic a retry-scheduler node produces to.
	KafkaTopic string `yaml:"kafka-topic,omitempty"`
}

// Load reads and parses a pipeline config file from path.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("pipelinecfg: reading %s: %w", path, err)
	}
	return Parse(data)
}

// Parse parses a pipeline config from raw YAML bytes.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("pipelinecfg: parsing config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	seen := make(map[string]bool, len(c.Nodes))
	for _, n := range c.Nodes {
		if n.Name == "" {
			return fmt.Errorf("pipelinecfg: node with empty name")
		}
		if seen[n.Name] {
			return fmt.Errorf("pipelinecfg: duplicate node name %q", n.Name)
		}
		seen[n.Name] = true
		if n.Kind == "" {
			return fmt.Errorf("pipelinecfg: node %q has empty kind", n.Name)
		}
	}
	return nil
}
