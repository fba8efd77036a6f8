// Copyright (c) 2024 Arista Networks, Inc.
// Use of this source code is governed by the Apache License 2.0
// that can be found in the COPYING file.

package pipeline

import (
	"context"
	"time"

	"github.com/aristanetworks/goarista/logger"
	gsemaphore "github.com/aristanetworks/goarista/sync/semaphore"
)

const sweepInterval = 100 * time.Millisecond

// Sweepable is implemented by node kinds whose underlying container needs
// periodic background migration/GC work driven forward (currently just
// dedupNode's cht.Table; epq and htw do their own work inline).
type Sweepable interface {
	GC(maxSteps int) int
}

// Sweeper periodically drives GC on a fixed set of Sweepable nodes,
// bounding how many run concurrently with a weighted semaphore so a
// pipeline with many dedup nodes doesn't spend unbounded goroutines on
// background migration at once.
type Sweeper struct {
	targets  []Sweepable
	sem      *gsemaphore.Weighted
	maxSteps int
	log      logger.Logger

	cancel context.CancelFunc
	done   chan struct{}
}

// NewSweeper creates a Sweeper over targets, running at most
// concurrency GC passes at a time, each advancing migration by at most
// maxSteps entries.
func NewSweeper(targets []Sweepable, concurrency int64, maxSteps int, log logger.Logger) *Sweeper {
	return &Sweeper{
		targets:  targets,
		sem:      gsemaphore.NewWeighted(concurrency),
		maxSteps: maxSteps,
		log:      log,
	}
}

// Start launches the background sweep loop.
func (s *Sweeper) Start(ctx context.Context) {
	runCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.done = make(chan struct{})
	go s.loop(runCtx)
}

func (s *Sweeper) loop(ctx context.Context) {
	defer close(s.done)
	ticker := time.NewTicker(sweepInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.sweepOnce(ctx)
		}
	}
}

func (s *Sweeper) sweepOnce(ctx context.Context) {
	for _, t := range s.targets {
		if err := s.sem.Acquire(ctx, 1); err != nil {
			return
		}
		go func(t Sweepable) {
			defer s.sem.Release(1)
			if n := t.GC(s.maxSteps); n > 0 && s.log.V(9) {
				s.log.Infof("pipeline: swept %d migration steps", n)
			}
		}(t)
	}
}

// Stop halts the sweep loop and waits for the in-flight tick to finish
// dispatching (not for every in-flight GC call to return).
func (s *Sweeper) Stop() {
	if s.cancel == nil {
		return
	}
	s.cancel()
	<-s.done
}
