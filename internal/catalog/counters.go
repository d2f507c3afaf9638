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

package catalog

// ScanCounters tallies the outcome of diffing one disk's live tree against
// its catalog entries during a single scan.
type ScanCounters struct {
	Equal      int
	Moved      int
	Changed    int
	Removed    int
	Inserted   int
	Hardlinked int

	// EmptiedDirs counts empty-directory entries removed from the catalog
	// because the walk did not record them as empty again (the directory is
	// gone, excluded, or now has content beneath it); a subset of Removed.
	EmptiedDirs int
}

// Add accumulates another disk's counters into the receiver, used to build
// a cross-disk total for verbose/summary output.
func (c *ScanCounters) Add(o ScanCounters) {
	c.Equal += o.Equal
	c.Moved += o.Moved
	c.Changed += o.Changed
	c.Removed += o.Removed
	c.Inserted += o.Inserted
	c.Hardlinked += o.Hardlinked
	c.EmptiedDirs += o.EmptiedDirs
}

// HasChanges reports whether any mutation occurred (anything besides equal
// counts).
func (c ScanCounters) HasChanges() bool {
	return c.Moved != 0 || c.Changed != 0 || c.Removed != 0 || c.Inserted != 0 || c.Hardlinked != 0 || c.EmptiedDirs != 0
}
