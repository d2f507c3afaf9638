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

// Package walker performs the recursive, depth-first traversal of a
// protected disk's live file tree, dispatching every entry it is not
// filtered out to a Processor and reporting whether anything was found
// underneath a given directory so the caller can record truly empty
// directories.
package walker

import (
	"path"
	"strings"

	"github.com/multikatt/snapraid/internal/catalog"
	"github.com/multikatt/snapraid/internal/fsadapter"
	"github.com/multikatt/snapraid/internal/scanerr"
)

// pathMax mirrors PATH_MAX from spec.md §4.1 step 2/5: names and symlink
// targets beyond it cannot be represented in the content file format.
const pathMax = 4096

// Filter supplies the pure predicate functions spec.md §6 describes as
// external collaborators: zero means "not excluded".
type Filter interface {
	Hidden(name string) bool
	Content(fullPath string) bool
	Path(diskName, sub string) bool
	Dir(diskName, sub string) bool
}

// Processor is the diff engine surface the walker dispatches entries to.
type Processor interface {
	File(sub string, st fsadapter.Stat) error
	Link(sub, target string, kind catalog.LinkKind) error
	EmptyDir(sub string) error
}

// Hooks are narrow, optional callbacks for non-fatal reporting (verbose
// exclusion messages, the "Ignoring special" warning) so the walker does
// not need to import a logger directly.
type Hooks struct {
	// OnExcluded is called with a human label ("hidden", "content", "file",
	// "link", "directory", "special") and the full path, whenever an entry
	// is skipped due to a filter.
	OnExcluded func(reason, fullPath string)
	// OnSpecial is called for a non-regular, non-dir, non-symlink entry
	// that was not excluded: the original logs a warning and skips it.
	OnSpecial func(fullPath string)
}

func (h Hooks) excluded(reason, fullPath string) {
	if h.OnExcluded != nil {
		h.OnExcluded(reason, fullPath)
	}
}

func (h Hooks) special(fullPath string) {
	if h.OnSpecial != nil {
		h.OnSpecial(fullPath)
	}
}

// Walk recurses depth-first from fsDir (a real filesystem path), treating
// subPrefix as the catalog sub-path already accumulated on the way down. It
// returns true if at least one file, link, or subdirectory was processed
// (subject to filtering); a subdirectory counts whether or not anything was
// found beneath it, since one with nothing beneath it is itself recorded as
// an empty directory. The caller is responsible for recording a directory
// as empty when Walk returns false for it.
func Walk(fsys fsadapter.FS, filt Filter, proc Processor, hooks Hooks, diskName, fsDir, subPrefix string) (bool, error) {
	entries, err := fsys.ReadDir(fsDir)
	if err != nil {
		return false, scanerr.Wrap(scanerr.KindIoError, diskName, subPrefix,
			"you can exclude it in the config file with: exclude /"+subPrefix, err)
	}

	processed := false

	for _, entry := range entries {
		name := entry.Name
		if name == "." || name == ".." {
			continue
		}
		if name == "" || strings.Contains(name, "\n") || strings.HasSuffix(name, "\r") {
			return false, scanerr.New(scanerr.KindNameUnsupported, diskName, subPrefix+name, "")
		}

		fullPath := path.Join(fsDir, name)
		sub := subPrefix + name

		if filt.Hidden(name) {
			hooks.excluded("hidden", fullPath)
			continue
		}
		if filt.Content(fullPath) {
			hooks.excluded("content", fullPath)
			continue
		}

		st, err := fsys.Lstat(fullPath)
		if err != nil {
			return false, scanerr.Wrap(scanerr.KindIoError, diskName, sub, "", err)
		}

		switch st.Kind {
		case fsadapter.KindRegular:
			if filt.Path(diskName, sub) {
				hooks.excluded("file", fullPath)
				continue
			}
			// A second, platform-specific stat: under a hardlink-capable
			// filesystem this is where the real size and nlink for the
			// canonical inode are resolved (spec.md §4.1 step 5).
			st, err = fsys.StatInode(fullPath)
			if err != nil {
				return false, scanerr.Wrap(scanerr.KindIoError, diskName, sub, "", err)
			}
			if err := proc.File(sub, st); err != nil {
				return false, err
			}
			processed = true

		case fsadapter.KindSymlink:
			if filt.Path(diskName, sub) {
				hooks.excluded("link", fullPath)
				continue
			}
			target, err := fsys.Readlink(fullPath)
			if err != nil {
				return false, scanerr.Wrap(scanerr.KindIoError, diskName, sub, "", err)
			}
			if len(target) >= pathMax {
				return false, scanerr.New(scanerr.KindSymlinkTooLong, diskName, sub, "")
			}
			if err := proc.Link(sub, target, catalog.LinkKindSymlink); err != nil {
				return false, err
			}
			processed = true

		case fsadapter.KindDir:
			if filt.Dir(diskName, sub) {
				hooks.excluded("directory", fullPath)
				continue
			}
			subDir := sub
			if !strings.HasSuffix(subDir, "/") {
				subDir += "/"
			}
			childProcessed, err := Walk(fsys, filt, proc, hooks, diskName, fullPath, subDir)
			if err != nil {
				return false, err
			}
			if !childProcessed {
				if err := proc.EmptyDir(sub); err != nil {
					return false, err
				}
			}
			processed = true

		default: // block/char device, fifo, socket
			if filt.Path(diskName, sub) {
				hooks.excluded("special", fullPath)
			} else {
				hooks.special(fullPath)
			}
		}
	}

	return processed, nil
}
