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

// Package scan orchestrates a full run: per-disk walk, removal sweep,
// deferred insertion, and the cross-disk empty-disk safety gate. It is the
// only package that knows the whole order of operations spec.md §4.5 and
// §5 require.
package scan

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sourcegraph/conc/pool"

	"github.com/multikatt/snapraid/internal/catalog"
	"github.com/multikatt/snapraid/internal/diff"
	"github.com/multikatt/snapraid/internal/fsadapter"
	"github.com/multikatt/snapraid/internal/scanerr"
	"github.com/multikatt/snapraid/internal/walker"
)

// MetricsSink is the narrow metrics surface scanOneDisk reports against.
// *metrics.Metrics satisfies it without this package importing
// internal/metrics directly, the same dependency-inversion this package
// already uses for diff.Hooks and walker.Hooks.
type MetricsSink interface {
	ObserveScanDuration(disk string, d time.Duration)
	RecordEmptyDiskTrip(disk string)
}

// Disk describes one disk to scan: its catalog entry and the live mount
// path the walker should recurse from.
type Disk struct {
	Catalog   *catalog.Disk
	MountPath string
}

// Driver holds the configuration flags of spec.md §6 and the external
// collaborators (filesystem, filter) the walk and diff stages need.
type Driver struct {
	FS     fsadapter.FS
	Filter walker.Filter

	FindByName bool
	ForceZero  bool
	ForceEmpty bool

	Hooks diff.Hooks
	WalkHooks walker.Hooks

	// Metrics is optional: when set, Scan reports per-disk scan duration and
	// empty-disk gate trips through it.
	Metrics MetricsSink
}

// Scan runs the scan across every entry of disks, in order, honoring ctx
// cancellation only between disks: once a disk's walk begins, it always
// finishes (spec.md §5 — the core has no mid-walk suspension points).
func (d *Driver) Scan(ctx context.Context, cat *catalog.Catalog, disks []Disk) (Result, error) {
	result := Result{RunID: uuid.NewString(), PerDisk: make(map[string]catalog.ScanCounters, len(disks))}

	for _, entry := range disks {
		select {
		case <-ctx.Done():
			return result, ctx.Err()
		default:
		}

		counters, err := d.scanOneDisk(cat, entry)
		if err != nil {
			return result, err
		}
		result.PerDisk[entry.Catalog.Name] = counters
		result.Total.Add(counters)
	}

	if err := d.checkEmptyDiskGate(disks, result.PerDisk); err != nil {
		return result, err
	}

	return result, nil
}

// ScanDisks is Scan generalized over a concurrency limit. Concurrency <= 1
// scans sequentially, identically to Scan. A limit above 1 walks and diffs
// up to that many disks at once, using github.com/sourcegraph/conc/pool to
// cap the goroutine count: callers must only do this once they have
// established that the disks being scanned together do not share a
// catalog.Disk (each entry's per-disk file/link/dir state is disjoint, so
// the only shared mutable state is cat's NeedWrite flag, which MarkDirty
// already guards with its own mutex).
func (d *Driver) ScanDisks(ctx context.Context, cat *catalog.Catalog, disks []Disk, concurrency int) (Result, error) {
	if concurrency <= 1 {
		return d.Scan(ctx, cat, disks)
	}

	result := Result{RunID: uuid.NewString(), PerDisk: make(map[string]catalog.ScanCounters, len(disks))}
	var mu sync.Mutex

	p := pool.New().WithMaxGoroutines(concurrency).WithErrors().WithContext(ctx).WithCancelOnError().WithFirstError()
	for _, entry := range disks {
		p.Go(func(ctx context.Context) error {
			counters, err := d.scanOneDisk(cat, entry)
			if err != nil {
				return err
			}
			mu.Lock()
			result.PerDisk[entry.Catalog.Name] = counters
			result.Total.Add(counters)
			mu.Unlock()
			return nil
		})
	}
	if err := p.Wait(); err != nil {
		return result, err
	}

	if err := d.checkEmptyDiskGate(disks, result.PerDisk); err != nil {
		return result, err
	}

	return result, nil
}

// checkEmptyDiskGate implements spec.md §4.5's cross-disk safety check: a
// disk that reported nothing equal or moved but did report removals looks
// like it was found unmounted or empty rather than genuinely emptied by the
// user, and aborts the run unless ForceEmpty overrides it.
func (d *Driver) checkEmptyDiskGate(disks []Disk, perDisk map[string]catalog.ScanCounters) error {
	if d.ForceEmpty {
		return nil
	}

	var empty []string
	for _, entry := range disks {
		c := perDisk[entry.Catalog.Name]
		if c.Equal == 0 && c.Moved == 0 && c.Removed != 0 {
			empty = append(empty, entry.Catalog.Name)
		}
	}
	if len(empty) == 0 {
		return nil
	}

	if d.Metrics != nil {
		for _, name := range empty {
			d.Metrics.RecordEmptyDiskTrip(name)
		}
	}
	return scanerr.New(scanerr.KindEmptyDisk, strings.Join(empty, ", "), "",
		"pass --force-empty, or check for an unmounted disk")
}

func (d *Driver) scanOneDisk(cat *catalog.Catalog, entry Disk) (catalog.ScanCounters, error) {
	disk := entry.Catalog
	bk := newBookkeeping()

	if d.Metrics != nil {
		start := time.Now()
		defer func() { d.Metrics.ObserveScanDuration(disk.Name, time.Since(start)) }()
	}

	engine := &diff.Engine{
		Disk:       disk,
		Catalog:    cat,
		Counters:   &bk.counters,
		Deferred:   bk,
		Hooks:      d.Hooks,
		FindByName: d.FindByName,
		ForceZero:  d.ForceZero,
	}

	if _, err := walker.Walk(d.FS, d.Filter, engine, d.WalkHooks, disk.Name, entry.MountPath, ""); err != nil {
		return bk.counters, fmt.Errorf("scanning disk %s: %w", disk.Name, err)
	}

	sweepRemovals(disk, &bk.counters, cat, d.Hooks)

	for _, f := range bk.fileInserts {
		disk.InsertFile(f)
	}
	for _, l := range bk.linkInserts {
		disk.AddLink(l)
	}
	for _, dd := range bk.dirInserts {
		disk.AddDir(dd)
	}

	return bk.counters, nil
}

// sweepRemovals implements spec.md §4.5 step 3: any entry not marked
// PRESENT after the walk did not survive on disk and is removed. Lists are
// copied before iterating since RemoveFile/RemoveLink/RemoveDir mutate the
// disk's backing slices in place.
func sweepRemovals(disk *catalog.Disk, counters *catalog.ScanCounters, cat *catalog.Catalog, hooks diff.Hooks) {
	for _, f := range append([]*catalog.File(nil), disk.Files()...) {
		if f.Present {
			continue
		}
		counters.Removed++
		notifyRemove(hooks, disk.Name, f.Sub)
		_ = disk.RemoveFile(f)
		cat.MarkDirty()
	}

	for _, l := range append([]*catalog.Link(nil), disk.Links()...) {
		if l.Present {
			continue
		}
		counters.Removed++
		notifyRemove(hooks, disk.Name, l.Sub)
		disk.RemoveLink(l)
		cat.MarkDirty()
	}

	for _, dd := range append([]*catalog.Dir(nil), disk.Dirs()...) {
		if dd.Present {
			continue
		}
		counters.Removed++
		counters.EmptiedDirs++
		notifyRemove(hooks, disk.Name, dd.Sub)
		disk.RemoveDir(dd)
		cat.MarkDirty()
	}
}

func notifyRemove(hooks diff.Hooks, disk, sub string) {
	if hooks.OnRemove != nil {
		hooks.OnRemove(disk, sub)
	}
}
