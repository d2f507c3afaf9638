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

// Package diff compares each live filesystem entry the walker hands it
// against the catalog for the disk being scanned, classifies the outcome
// (equal/move/update/hardlink/insert/remove), and stages the resulting
// mutations. Slot allocation itself is deferred: new and reinserted files
// are handed to a DeferredSink rather than inserted immediately, so the
// scan driver can run every removal for a disk before any insertion, per
// the two-phase discipline spec.md §4.4 depends on.
package diff

import (
	"github.com/multikatt/snapraid/internal/catalog"
	"github.com/multikatt/snapraid/internal/fsadapter"
	"github.com/multikatt/snapraid/internal/scanerr"
)

// DeferredSink receives newly-constructed entries that still need slot
// allocation (files) or simple appending (links, dirs). The scan driver
// drains these only after every removal for the disk has run.
type DeferredSink interface {
	DeferFile(f *catalog.File)
	DeferLink(l *catalog.Link)
	DeferDir(d *catalog.Dir)
}

// Hooks are narrow, optional callbacks mirroring the GUI/output/verbose
// lines spec.md §6 describes ("scan:equal|add|update|move|remove:<disk>:
// <sub>[:<new_sub>]" and the human-readable Add/Remove/Update/Move lines).
// Every callback is handed the disk name the entry belongs to, since a
// Hooks value is shared across every disk a Driver scans. Left nil, they
// are simply skipped.
type Hooks struct {
	OnEqual    func(disk, sub string)
	OnAdd      func(disk, sub string)
	OnUpdate   func(disk, sub string)
	OnMove     func(disk, oldSub, newSub string)
	OnRemove   func(disk, sub string)
	OnHardlink func(disk, sub, target string)
}

func (h Hooks) equal(disk, sub string) {
	if h.OnEqual != nil {
		h.OnEqual(disk, sub)
	}
}
func (h Hooks) add(disk, sub string) {
	if h.OnAdd != nil {
		h.OnAdd(disk, sub)
	}
}
func (h Hooks) update(disk, sub string) {
	if h.OnUpdate != nil {
		h.OnUpdate(disk, sub)
	}
}
func (h Hooks) move(disk, oldSub, newSub string) {
	if h.OnMove != nil {
		h.OnMove(disk, oldSub, newSub)
	}
}
func (h Hooks) remove(disk, sub string) {
	if h.OnRemove != nil {
		h.OnRemove(disk, sub)
	}
}
func (h Hooks) hardlink(disk, sub, target string) {
	if h.OnHardlink != nil {
		h.OnHardlink(disk, sub, target)
	}
}

// Engine is the per-disk diff engine: it holds the disk being compared
// against, the catalog it belongs to (for the dirty flag), the counters
// for this scan, and where to stage deferred insertions.
type Engine struct {
	Disk     *catalog.Disk
	Catalog  *catalog.Catalog
	Counters *catalog.ScanCounters
	Deferred DeferredSink
	Hooks    Hooks

	// FindByName selects path-based identity instead of inode-based
	// identity for regular files (spec.md §4.2 "Lookup").
	FindByName bool
	// ForceZero suppresses the zero-size regression guard.
	ForceZero bool
}

var _ interface {
	File(sub string, st fsadapter.Stat) error
	Link(sub, target string, kind catalog.LinkKind) error
	EmptyDir(sub string) error
} = (*Engine)(nil)

// File implements the regular-file half of spec.md §4.2.
func (e *Engine) File(sub string, st fsadapter.Stat) error {
	var f *catalog.File
	if e.FindByName {
		f = e.Disk.FindFileByPath(sub)
	} else {
		f = e.Disk.FindFileByInode(st.Inode)
	}

	if f == nil {
		e.Counters.Inserted++
		e.Hooks.add(e.Disk.Name, sub)
		return e.insertNewFile(sub, st)
	}

	if f.Present {
		// Case B: the inode has already been matched once this scan; a
		// second live entry sharing it is only legitimate if the kernel
		// agrees it's a hardlink.
		if st.Nlink > 1 {
			return e.Link(sub, f.Sub, catalog.LinkKindHardlink)
		}
		return scanerr.New(scanerr.KindInternalInconsistency, e.Disk.Name, sub,
			"inode seen twice but nlink<=1")
	}

	unchanged := f.Size == st.Size &&
		f.MtimeSec == st.MtimeSec &&
		(f.MtimeNsec == st.MtimeNsec || f.MtimeNsec == catalog.MtimeNsecInvalid)

	if unchanged {
		return e.classifyUnchanged(f, sub, st)
	}

	return e.classifyChanged(f, sub, st)
}

func (e *Engine) classifyUnchanged(f *catalog.File, sub string, st fsadapter.Stat) error {
	f.Present = true
	if f.MtimeNsec == catalog.MtimeNsecInvalid && st.MtimeNsec != catalog.MtimeNsecInvalid {
		f.MtimeNsec = st.MtimeNsec
		e.Catalog.MarkDirty()
	}

	switch {
	case f.Sub == sub && f.Inode == st.Inode:
		e.Counters.Equal++
		e.Hooks.equal(e.Disk.Name, sub)
		return nil

	case f.Sub != sub && f.Inode == st.Inode:
		// renamed, same inode
		old := f.Sub
		e.Disk.ReindexPath(f, sub)
		e.Catalog.MarkDirty()
		e.Counters.Moved++
		e.Hooks.move(e.Disk.Name, old, sub)
		return nil

	case f.Sub == sub && f.Inode != st.Inode:
		// same path, rewritten with identical size+mtime (e.g. restore)
		e.Disk.ReindexInode(f, st.Inode)
		e.Catalog.MarkDirty()
		e.Counters.Moved++
		e.Hooks.move(e.Disk.Name, sub, sub)
		return nil

	default:
		// both differ: unreachable, the lookup key matched on one of them
		return scanerr.New(scanerr.KindInternalInconsistency, e.Disk.Name, sub,
			"lookup matched neither path nor inode")
	}
}

func (e *Engine) classifyChanged(f *catalog.File, sub string, st fsadapter.Stat) error {
	sameName := f.Sub == sub

	if f.Size != 0 && st.Size == 0 && sameName && !e.ForceZero {
		return scanerr.New(scanerr.KindZeroSizeRegression, e.Disk.Name, sub,
			"pass --force-zero, or recover via --filter <sub> fix")
	}

	if sameName {
		e.Counters.Changed++
		e.Hooks.update(e.Disk.Name, sub)
	} else {
		e.Counters.Removed++
		e.Counters.Inserted++
		e.Hooks.remove(e.Disk.Name, f.Sub)
		e.Hooks.add(e.Disk.Name, sub)
	}

	if err := e.Disk.RemoveFile(f); err != nil {
		return err
	}
	e.Catalog.MarkDirty()

	return e.insertNewFile(sub, st)
}

func (e *Engine) insertNewFile(sub string, st fsadapter.Stat) error {
	f := catalog.NewFile(sub, st.Inode, st.Size, st.MtimeSec, st.MtimeNsec, e.Disk.BlockSize)
	f.Present = true
	e.Disk.IndexFile(f)
	e.Catalog.MarkDirty()
	e.Deferred.DeferFile(f)
	return nil
}

// Link implements spec.md §4.3's link half, and is also the target of the
// hardlink delegation from File's Case B.
func (e *Engine) Link(sub, target string, kind catalog.LinkKind) error {
	if kind == catalog.LinkKindHardlink {
		e.Counters.Hardlinked++
		e.Hooks.hardlink(e.Disk.Name, sub, target)
	}

	l := e.Disk.FindLink(sub)
	if l == nil {
		e.Counters.Inserted++
		e.Hooks.add(e.Disk.Name, sub)
		newLink := &catalog.Link{Sub: sub, Target: target, Kind: kind, Present: true}
		e.Catalog.MarkDirty()
		e.Deferred.DeferLink(newLink)
		return nil
	}

	if l.Present {
		return scanerr.New(scanerr.KindInternalInconsistency, e.Disk.Name, sub,
			"duplicate link encountered twice in one scan")
	}
	l.Present = true

	if l.Target == target && l.Kind == kind {
		e.Counters.Equal++
		e.Hooks.equal(e.Disk.Name, sub)
		return nil
	}

	e.Counters.Changed++
	e.Hooks.update(e.Disk.Name, sub)
	l.Target = target
	l.Kind = kind
	e.Catalog.MarkDirty()
	return nil
}

// EmptyDir implements spec.md §4.3's empty-directory half.
func (e *Engine) EmptyDir(sub string) error {
	d := e.Disk.FindDir(sub)
	if d == nil {
		e.Counters.Inserted++
		e.Hooks.add(e.Disk.Name, sub)
		newDir := &catalog.Dir{Sub: sub, Present: true}
		e.Catalog.MarkDirty()
		e.Deferred.DeferDir(newDir)
		return nil
	}

	if d.Present {
		return scanerr.New(scanerr.KindInternalInconsistency, e.Disk.Name, sub,
			"duplicate empty dir encountered twice in one scan")
	}
	d.Present = true
	e.Counters.Equal++
	e.Hooks.equal(e.Disk.Name, sub)
	return nil
}
