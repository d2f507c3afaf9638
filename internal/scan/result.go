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

// Result is what Driver.Scan returns: a RunID (a random UUID generated for
// each invocation; nothing in this module attaches it to log lines or metric
// samples), the counters for every disk scanned, and their cross-disk total.
type Result struct {
	RunID   string
	PerDisk map[string]catalog.ScanCounters
	Total   catalog.ScanCounters
}
