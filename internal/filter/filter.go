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

// Package filter implements the predicate functions spec.md §6 describes as
// pure, external collaborators of the scan core: include/exclude path and
// directory rules, hidden-file detection, and content-file-path exclusion.
// Evaluating these rules is explicitly out of scope for the scan itself
// (spec.md §1); this package exists only so the repository is runnable end
// to end, and the walker depends on it only through the narrow
// walker.Filter interface.
package filter

import (
	"path/filepath"
	"strings"
)

// Rule is one include/exclude pattern, evaluated shell-glob style against a
// disk-relative sub-path.
type Rule struct {
	Pattern string
	Exclude bool // false = include rule: a match overrides any matching exclude rule
}

// List evaluates a set of path/dir rules plus the fixed set of known
// content-file paths for a run.
type List struct {
	PathRules    []Rule
	DirRules     []Rule
	ContentPaths map[string]bool
}

// New returns a List with no rules: nothing is excluded.
func New() *List {
	return &List{ContentPaths: make(map[string]bool)}
}

func matchAny(rules []Rule, sub string) bool {
	excluded := false
	hasInclude := false
	for _, r := range rules {
		ok, _ := filepath.Match(r.Pattern, sub)
		if !ok {
			// also try matching against the base name, so "*.tmp" excludes
			// regardless of directory depth.
			ok, _ = filepath.Match(r.Pattern, filepath.Base(sub))
		}
		if !ok {
			continue
		}
		if r.Exclude {
			excluded = true
		} else {
			hasInclude = true
		}
	}
	if hasInclude {
		// an explicit include always wins over a prior exclude
		return false
	}
	return excluded
}

// Path reports whether sub is excluded for disk by the path rule set.
// diskName is accepted for interface parity with the original (which scopes
// some rules per-disk); this implementation applies rules globally.
func (l *List) Path(diskName, sub string) bool {
	return matchAny(l.PathRules, sub)
}

// Dir reports whether sub is excluded from recursion by the directory rule
// set.
func (l *List) Dir(diskName, sub string) bool {
	return matchAny(l.DirRules, sub)
}

// Hidden reports whether name (a bare entry name, not a path) is a
// dot-file, the conventional cross-platform definition used here since
// platform-specific hidden-attribute bits are outside this package's remit.
func (l *List) Hidden(name string) bool {
	return strings.HasPrefix(name, ".") && name != "." && name != ".."
}

// Content reports whether fullPath is one of the content-file paths
// configured for this run; content files must never be included in their
// own manifest.
func (l *List) Content(fullPath string) bool {
	return l.ContentPaths[fullPath]
}
