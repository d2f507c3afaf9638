// Copyright 2024 The Snapraid-Scan Authors.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package metrics exposes a Prometheus registry of per-disk scan outcomes,
// so a long-running scan daemon can be scraped rather than only read from
// its log lines.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// DiskLabel and OutcomeLabel are the label names every scan counter is
// broken down by.
const (
	DiskLabel    = "disk"
	OutcomeLabel = "outcome"
)

// Outcome label values, one per catalog.ScanCounters field.
const (
	OutcomeEqual      = "equal"
	OutcomeMoved      = "moved"
	OutcomeChanged    = "changed"
	OutcomeRemoved    = "removed"
	OutcomeInserted   = "inserted"
	OutcomeHardlinked = "hardlinked"
	OutcomeEmptiedDirs = "emptied_dirs"
)

// Metrics wraps every collector this package registers: outcome counts,
// scan duration, and the empty-disk gate's trip count.
type Metrics struct {
	entries       *prometheus.CounterVec
	scanDuration  *prometheus.HistogramVec
	emptyDiskTrip *prometheus.CounterVec
}

// New constructs the collectors and registers them against reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		entries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "snapraid_scan",
			Name:      "entries_total",
			Help:      "Count of catalog entries classified by outcome, per disk, across all scans.",
		}, []string{DiskLabel, OutcomeLabel}),

		scanDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "snapraid_scan",
			Name:      "disk_scan_duration_seconds",
			Help:      "Wall-clock time to walk and diff a single disk.",
			Buckets:   prometheus.DefBuckets,
		}, []string{DiskLabel}),

		emptyDiskTrip: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "snapraid_scan",
			Name:      "empty_disk_gate_trips_total",
			Help:      "Count of times the empty-disk safety gate aborted a run for a disk.",
		}, []string{DiskLabel}),
	}

	reg.MustRegister(m.entries, m.scanDuration, m.emptyDiskTrip)
	return m
}

// RecordOutcome adds n to the entries_total counter for disk/outcome. n is
// typically one of catalog.ScanCounters' fields and is skipped when zero,
// since prometheus.CounterVec still materializes a zero-valued series on
// first .Add(0) which would otherwise clutter /metrics with series that
// never incremented.
func (m *Metrics) RecordOutcome(disk, outcome string, n int) {
	if n == 0 {
		return
	}
	m.entries.WithLabelValues(disk, outcome).Add(float64(n))
}

// ObserveScanDuration records how long a single disk's walk+diff pass took.
func (m *Metrics) ObserveScanDuration(disk string, d time.Duration) {
	m.scanDuration.WithLabelValues(disk).Observe(d.Seconds())
}

// RecordEmptyDiskTrip increments the gate-trip counter for disk.
func (m *Metrics) RecordEmptyDiskTrip(disk string) {
	m.emptyDiskTrip.WithLabelValues(disk).Inc()
}
