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

package scan

import "github.com/multikatt/snapraid/internal/catalog"

// bookkeeping is the per-disk, per-scan transient state the driver
// allocates before walking a disk and discards once the disk's scan
// completes: the outcome counters and the three deferred-insert lists. It
// implements diff.DeferredSink so the diff engine can stage insertions
// without the driver and the diff engine needing to share anything richer.
type bookkeeping struct {
	counters catalog.ScanCounters

	fileInserts []*catalog.File
	linkInserts []*catalog.Link
	dirInserts  []*catalog.Dir
}

func newBookkeeping() *bookkeeping {
	return &bookkeeping{}
}

func (b *bookkeeping) DeferFile(f *catalog.File) { b.fileInserts = append(b.fileInserts, f) }
func (b *bookkeeping) DeferLink(l *catalog.Link) { b.linkInserts = append(b.linkInserts, l) }
func (b *bookkeeping) DeferDir(d *catalog.Dir)   { b.dirInserts = append(b.dirInserts, d) }
