// Copyright (c) 2024 Arista Networks, Inc.
// Use of this source code is governed by the Apache License 2.0
// that can be found in the COPYING file.

package metrics

import (
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestCHTCollectorExposesEntries(t *testing.T) {
	c := &CHTCollector{
		Name: "sessions",
		Stats: func() CHTStats {
			return CHTStats{Entries: 42, Lookups: 7, Inserts: 3}
		},
	}

	const want = `
# HELP substrate_cht_entries Number of entries currently stored in the table.
# TYPE substrate_cht_entries gauge
substrate_cht_entries{name="sessions"} 42
`
	if err := testutil.CollectAndCompare(c, strings.NewReader(want), "substrate_cht_entries"); err != nil {
		t.Fatalf("unexpected collector output: %v", err)
	}
}

func TestEPQCollectorExposesSize(t *testing.T) {
	c := &EPQCollector{
		Name:  "retries",
		Stats: func() EPQStats { return EPQStats{Size: 5} },
	}

	const want = `
# HELP substrate_epq_size Number of items currently queued.
# TYPE substrate_epq_size gauge
substrate_epq_size{name="retries"} 5
`
	if err := testutil.CollectAndCompare(c, strings.NewReader(want), "substrate_epq_size"); err != nil {
		t.Fatalf("unexpected collector output: %v", err)
	}
}

func TestHTWCollectorExposesAdded(t *testing.T) {
	c := &HTWCollector{
		Name:  "timeouts",
		Stats: func() HTWStats { return HTWStats{Added: 11} },
	}

	const want = `
# HELP substrate_htw_added_total Total number of timers added.
# TYPE substrate_htw_added_total counter
substrate_htw_added_total{name="timeouts"} 11
`
	if err := testutil.CollectAndCompare(c, strings.NewReader(want), "substrate_htw_added_total"); err != nil {
		t.Fatalf("unexpected collector output: %v", err)
	}
}
