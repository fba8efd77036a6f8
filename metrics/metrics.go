// Copyright (c) 2024 Arista Networks, Inc.
// Use of this source code is governed by the Apache License 2.0
// that can be found in the COPYING file.

// Package metrics exposes prometheus.Collector implementations for cht,
// epq and htw, following the Describe/Collect pattern used throughout
// cmd/ocprometheus. Since cht.Table, epq.Queue and htw.Wheel are generic,
// the collectors here take a plain Stats getter closure rather than the
// containers themselves, so a single collector type serves every
// instantiation.
package metrics

import "github.com/prometheus/client_golang/prometheus"

// CHTStats is the subset of cht.Stats a CHTCollector reports. Defined
// locally so this package never needs a type parameter to match cht.Table[V].
type CHTStats struct {
	Entries            int64
	Lookups            uint64
	Inserts            uint64
	Removes            uint64
	Collisions         uint64
	DoubleSizes        uint64
	DoubleSizeFailures uint64
}

var (
	chtEntriesDesc = prometheus.NewDesc(
		"substrate_cht_entries", "Number of entries currently stored in the table.",
		[]string{"name"}, nil)
	chtLookupsDesc = prometheus.NewDesc(
		"substrate_cht_lookups_total", "Total number of Lookup and LookupInsert calls.",
		[]string{"name"}, nil)
	chtInsertsDesc = prometheus.NewDesc(
		"substrate_cht_inserts_total", "Total number of entries inserted by Insert or LookupInsert.",
		[]string{"name"}, nil)
	chtRemovesDesc = prometheus.NewDesc(
		"substrate_cht_removes_total", "Total number of entries removed by Remove.",
		[]string{"name"}, nil)
	chtCollisionsDesc = prometheus.NewDesc(
		"substrate_cht_collisions_total", "Total number of chain collisions observed on insert.",
		[]string{"name"}, nil)
	chtDoubleSizesDesc = prometheus.NewDesc(
		"substrate_cht_double_sizes_total", "Total number of successful bucket-count doublings.",
		[]string{"name"}, nil)
	chtDoubleSizeFailuresDesc = prometheus.NewDesc(
		"substrate_cht_double_size_failures_total", "Total number of doublings skipped because a migration was already in progress.",
		[]string{"name"}, nil)
)

// CHTCollector adapts a cht.Table's Stats method to prometheus.Collector.
type CHTCollector struct {
	Name  string
	Stats func() CHTStats
}

// Describe implements prometheus.Collector.
func (c *CHTCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- chtEntriesDesc
	ch <- chtLookupsDesc
	ch <- chtInsertsDesc
	ch <- chtRemovesDesc
	ch <- chtCollisionsDesc
	ch <- chtDoubleSizesDesc
	ch <- chtDoubleSizeFailuresDesc
}

// Collect implements prometheus.Collector.
func (c *CHTCollector) Collect(ch chan<- prometheus.Metric) {
	s := c.Stats()
	ch <- prometheus.MustNewConstMetric(chtEntriesDesc, prometheus.GaugeValue, float64(s.Entries), c.Name)
	ch <- prometheus.MustNewConstMetric(chtLookupsDesc, prometheus.CounterValue, float64(s.Lookups), c.Name)
	ch <- prometheus.MustNewConstMetric(chtInsertsDesc, prometheus.CounterValue, float64(s.Inserts), c.Name)
	ch <- prometheus.MustNewConstMetric(chtRemovesDesc, prometheus.CounterValue, float64(s.Removes), c.Name)
	ch <- prometheus.MustNewConstMetric(chtCollisionsDesc, prometheus.CounterValue, float64(s.Collisions), c.Name)
	ch <- prometheus.MustNewConstMetric(chtDoubleSizesDesc, prometheus.CounterValue, float64(s.DoubleSizes), c.Name)
	ch <- prometheus.MustNewConstMetric(chtDoubleSizeFailuresDesc, prometheus.CounterValue, float64(s.DoubleSizeFailures), c.Name)
}

// EPQStats is the subset of epq.Stats an EPQCollector reports.
type EPQStats struct {
	Size               int
	Inserts            uint64
	Expires            uint64
	Reschedules        uint64
	Removes            uint64
	DoubleSizes        uint64
	DoubleSizeFailures uint64
}

var (
	epqSizeDesc = prometheus.NewDesc(
		"substrate_epq_size", "Number of items currently queued.",
		[]string{"name"}, nil)
	epqInsertsDesc = prometheus.NewDesc(
		"substrate_epq_inserts_total", "Total number of items inserted.",
		[]string{"name"}, nil)
	epqExpiresDesc = prometheus.NewDesc(
		"substrate_epq_expires_total", "Total number of items expired.",
		[]string{"name"}, nil)
	epqReschedulesDesc = prometheus.NewDesc(
		"substrate_epq_reschedules_total", "Total number of reschedule operations.",
		[]string{"name"}, nil)
	epqRemovesDesc = prometheus.NewDesc(
		"substrate_epq_removes_total", "Total number of explicit removes.",
		[]string{"name"}, nil)
	epqDoubleSizesDesc = prometheus.NewDesc(
		"substrate_epq_double_sizes_total", "Total number of backing-array growths.",
		[]string{"name"}, nil)
	epqDoubleSizeFailuresDesc = prometheus.NewDesc(
		"substrate_epq_double_size_failures_total", "Total number of growth failures.",
		[]string{"name"}, nil)
)

// EPQCollector adapts an epq.Queue's Stats method to prometheus.Collector.
type EPQCollector struct {
	Name  string
	Stats func() EPQStats
}

// Describe implements prometheus.Collector.
func (c *EPQCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- epqSizeDesc
	ch <- epqInsertsDesc
	ch <- epqExpiresDesc
	ch <- epqReschedulesDesc
	ch <- epqRemovesDesc
	ch <- epqDoubleSizesDesc
	ch <- epqDoubleSizeFailuresDesc
}

// Collect implements prometheus.Collector.
func (c *EPQCollector) Collect(ch chan<- prometheus.Metric) {
	s := c.Stats()
	ch <- prometheus.MustNewConstMetric(epqSizeDesc, prometheus.GaugeValue, float64(s.Size), c.Name)
	ch <- prometheus.MustNewConstMetric(epqInsertsDesc, prometheus.CounterValue, float64(s.Inserts), c.Name)
	ch <- prometheus.MustNewConstMetric(epqExpiresDesc, prometheus.CounterValue, float64(s.Expires), c.Name)
	ch <- prometheus.MustNewConstMetric(epqReschedulesDesc, prometheus.CounterValue, float64(s.Reschedules), c.Name)
	ch <- prometheus.MustNewConstMetric(epqRemovesDesc, prometheus.CounterValue, float64(s.Removes), c.Name)
	ch <- prometheus.MustNewConstMetric(epqDoubleSizesDesc, prometheus.CounterValue, float64(s.DoubleSizes), c.Name)
	ch <- prometheus.MustNewConstMetric(epqDoubleSizeFailuresDesc, prometheus.CounterValue, float64(s.DoubleSizeFailures), c.Name)
}

// HTWStats is the subset of htw.Stats an HTWCollector reports.
type HTWStats struct {
	Added      uint64
	Expired    uint64
	TimerLoops uint64
	AddExpired uint64
}

var (
	htwAddedDesc = prometheus.NewDesc(
		"substrate_htw_added_total", "Total number of timers added.",
		[]string{"name"}, nil)
	htwExpiredDesc = prometheus.NewDesc(
		"substrate_htw_expired_total", "Total number of timers fired.",
		[]string{"name"}, nil)
	htwTimerLoopsDesc = prometheus.NewDesc(
		"substrate_htw_timer_loops_total", "Total number of extra-revolution re-insertions.",
		[]string{"name"}, nil)
	htwAddExpiredDesc = prometheus.NewDesc(
		"substrate_htw_add_expired_total", "Total number of timers fired inline at Add time.",
		[]string{"name"}, nil)
)

// HTWCollector adapts an htw.Wheel's Stats method to prometheus.Collector.
type HTWCollector struct {
	Name  string
	Stats func() HTWStats
}

// Describe implements prometheus.Collector.
func (c *HTWCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- htwAddedDesc
	ch <- htwExpiredDesc
	ch <- htwTimerLoopsDesc
	ch <- htwAddExpiredDesc
}

// Collect implements prometheus.Collector.
func (c *HTWCollector) Collect(ch chan<- prometheus.Metric) {
	s := c.Stats()
	ch <- prometheus.MustNewConstMetric(htwAddedDesc, prometheus.CounterValue, float64(s.Added), c.Name)
	ch <- prometheus.MustNewConstMetric(htwExpiredDesc, prometheus.CounterValue, float64(s.Expired), c.Name)
	ch <- prometheus.MustNewConstMetric(htwTimerLoopsDesc, prometheus.CounterValue, float64(s.TimerLoops), c.Name)
	ch <- prometheus.MustNewConstMetric(htwAddExpiredDesc, prometheus.CounterValue, float64(s.AddExpired), c.Name)
}
