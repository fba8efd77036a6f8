// Copyright (c) 2024 Arista Networks, Inc.
// Use of this source code is governed by the Apache License 2.0
// that can be found in the COPYING file.

// The substrate command loads a pipeline of cht/epq/htw-backed nodes from
// a YAML config, exposes their diagnostics as Prometheus metrics, and
// re-validates the config file when it changes (the running pipeline is
// not rebuilt).
package main

import (
	"context"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/aristanetworks/glog"
	"github.com/aristanetworks/goarista/glogadapter"
	"github.com/aristanetworks/goarista/logger"
	"github.com/aristanetworks/goarista/metrics"
	"github.com/aristanetworks/goarista/pipeline"
	"github.com/aristanetworks/goarista/pipelinecfg"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	configFlag   = flag.String("config", "", "path to the pipeline YAML config")
	listenAddr   = flag.String("listenaddr", ":8080", "address on which to expose metrics")
	metricsURL   = flag.String("url", "/metrics", "URL where to expose the metrics")
	sweepWorkers = flag.Int64("sweep-concurrency", 4, "max concurrent background GC sweeps")
	sweepSteps   = flag.Int("sweep-steps", 10, "migration steps per GC sweep")
)

func main() {
	flag.Parse()
	if *configFlag == "" {
		glog.Fatal("substrate: -config is required")
	}

	var log logger.Logger = &glogadapter.Glog{}

	nodes, sweeper, err := loadPipeline(*configFlag, log)
	if err != nil {
		glog.Fatalf("substrate: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	for _, n := range nodes {
		if err := n.Start(ctx); err != nil {
			glog.Fatalf("substrate: starting node: %v", err)
		}
	}
	sweeper.Start(ctx)

	watcher, err := watchConfig(*configFlag, log, func() {
		// Rebuilding the running pipeline in place (swapping live nodes,
		// re-registering metrics) is out of scope for this demonstration
		// harness; a reload just re-validates the file so a bad push is
		// surfaced immediately instead of at the next restart.
		if _, err := pipelinecfg.Load(*configFlag); err != nil {
			glog.Errorf("substrate: reloaded config is invalid, keeping current pipeline: %v", err)
		}
	})
	if err != nil {
		glog.Fatalf("substrate: watching config: %v", err)
	}
	defer watcher.Close()

	http.Handle(*metricsURL, promhttp.Handler())
	go func() {
		if err := http.ListenAndServe(*listenAddr, nil); err != nil {
			glog.Errorf("substrate: metrics server: %v", err)
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
	<-sig

	sweeper.Stop()
	for _, n := range nodes {
		if err := n.Stop(); err != nil {
			glog.Errorf("substrate: stopping node %s: %v", n.Name(), err)
		}
	}
}

// loadPipeline reads and parses the config at path, builds its nodes
// through the default registry, registers each node's diagnostics with
// the default Prometheus registerer, and assembles a Sweeper over any
// dedup nodes.
func loadPipeline(path string, log logger.Logger) ([]pipeline.Node, *pipeline.Sweeper, error) {
	cfg, err := pipelinecfg.Load(path)
	if err != nil {
		return nil, nil, err
	}

	registry := pipeline.NewDefaultRegistry()
	nodes, err := registry.Build(cfg, log)
	if err != nil {
		return nil, nil, err
	}

	var sweepTargets []pipeline.Sweepable
	for _, n := range nodes {
		registerNodeMetrics(n)
		if s, ok := n.(pipeline.Sweepable); ok {
			sweepTargets = append(sweepTargets, s)
		}
	}

	sweeper := pipeline.NewSweeper(sweepTargets, *sweepWorkers, *sweepSteps, log)
	return nodes, sweeper, nil
}

// registerNodeMetrics wires a node's Stats method into the corresponding
// metrics.*Collector and registers it with the default Prometheus
// registerer, dispatching on the narrow Statser interface the node
// satisfies.
func registerNodeMetrics(n pipeline.Node) {
	if v, ok := n.(pipeline.CHTStatser); ok {
		prometheus.MustRegister(&metrics.CHTCollector{
			Name: v.Name(),
			Stats: func() metrics.CHTStats {
				s := v.Stats()
				return metrics.CHTStats{
					Entries:            s.Entries,
					Lookups:            s.Lookups,
					Inserts:            s.Inserts,
					Removes:            s.Removes,
					Collisions:         s.Collisions,
					DoubleSizes:        s.DoubleSizes,
					DoubleSizeFailures: s.DoubleSizeFailures,
				}
			},
		})
	}
	if v, ok := n.(pipeline.EPQStatser); ok {
		prometheus.MustRegister(&metrics.EPQCollector{
			Name: v.Name(),
			Stats: func() metrics.EPQStats {
				s := v.Stats()
				return metrics.EPQStats{
					Size:               s.Size,
					Inserts:            s.Inserts,
					Expires:            s.Expires,
					Reschedules:        s.Reschedules,
					Removes:            s.Removes,
					DoubleSizes:        s.DoubleSizes,
					DoubleSizeFailures: s.DoubleSizeFailures,
				}
			},
		})
	}
	if v, ok := n.(pipeline.HTWStatser); ok {
		prometheus.MustRegister(&metrics.HTWCollector{
			Name: v.Name(),
			Stats: func() metrics.HTWStats {
				s := v.Stats()
				return metrics.HTWStats{
					Added:      s.Added,
					Expired:    s.Expired,
					TimerLoops: s.TimerLoops,
					AddExpired: s.AddExpired,
				}
			},
		})
	}
}
