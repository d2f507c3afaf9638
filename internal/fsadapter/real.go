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

package fsadapter

import (
	"os"

	"golang.org/x/sys/unix"
)

// RealFS is the production FS implementation, backed by os and
// golang.org/x/sys/unix for the inode/nlink fields os.FileInfo does not
// expose portably.
type RealFS struct{}

var _ FS = RealFS{}

// ReadDir lists dir's children by name only, with no per-entry lstat: the
// caller (the walker) applies its name-only exclusions first and lstats
// only the survivors, per spec.md §4.1 step 3/4.
func (RealFS) ReadDir(dir string) ([]DirEntry, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	out := make([]DirEntry, 0, len(entries))
	for _, e := range entries {
		out = append(out, DirEntry{Name: e.Name()})
	}
	return out, nil
}

// Lstat stats path without following a trailing symlink.
func (RealFS) Lstat(path string) (Stat, error) {
	var raw unix.Stat_t
	if err := unix.Lstat(path, &raw); err != nil {
		return Stat{}, &os.PathError{Op: "lstat", Path: path, Err: err}
	}
	return statFromRaw(raw), nil
}

// StatInode re-lstats path. On Unix this is redundant with Lstat's result
// (inode and nlink are already populated); the method exists because some
// platforms (Windows, notably) need a distinct syscall to resolve the real
// file ID and link count, which the walker calls out for explicitly per
// spec.md §4.1 step 5.
func (RealFS) StatInode(path string) (Stat, error) {
	return RealFS{}.Lstat(path)
}

// Readlink returns path's symlink target.
func (RealFS) Readlink(path string) (string, error) {
	return os.Readlink(path)
}

func statFromRaw(raw unix.Stat_t) Stat {
	kind := KindSpecial
	switch raw.Mode & unix.S_IFMT {
	case unix.S_IFREG:
		kind = KindRegular
	case unix.S_IFDIR:
		kind = KindDir
	case unix.S_IFLNK:
		kind = KindSymlink
	}

	mtime := raw.Mtim

	return Stat{
		Kind:      kind,
		Size:      raw.Size,
		Inode:     raw.Ino,
		Nlink:     uint64(raw.Nlink),
		MtimeSec:  int64(mtime.Sec),
		MtimeNsec: int64(mtime.Nsec),
	}
}
