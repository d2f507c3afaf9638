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

// Package fsadapter isolates the raw filesystem primitives the walker and
// diff engine need (lstat with inode/nlink, readlink, directory iteration)
// behind a narrow interface, so the scan logic itself can be exercised
// against a fake filesystem in tests without touching a real disk.
package fsadapter

import "time"

// FileKind is the dispatch tag the walker uses to decide how to process a
// directory entry.
type FileKind int

const (
	KindRegular FileKind = iota
	KindDir
	KindSymlink
	KindSpecial // block/char device, fifo, socket
)

// Stat is the subset of lstat(2) results the scan core needs. Size is
// populated from a second, platform-specific stat call when the first
// pass was a plain lstat without inode/nlink info (see FS.StatInode).
type Stat struct {
	Kind      FileKind
	Size      int64
	Inode     uint64
	Nlink     uint64
	MtimeSec  int64
	MtimeNsec int64
}

// DirEntry is one bare name returned while iterating a directory.
// Deliberately stat-free: spec.md §4.1 step 3 requires the walker to apply
// its cheap, name-only exclusions (hidden, content-file path) before ever
// touching a stat call, so ReadDir must not pay that cost for entries that
// never survive filtering.
type DirEntry struct {
	Name string
}

// FS is the filesystem surface the walker and diff engine depend on. A real
// implementation (RealFS) wraps os and golang.org/x/sys/unix; tests use a
// fake that has no real filesystem behind it at all.
type FS interface {
	// ReadDir lists the immediate children of dir, in arbitrary order. It
	// must not stat any of them; callers lstat only the entries that
	// survive filtering.
	ReadDir(dir string) ([]DirEntry, error)

	// Lstat stats a single path without following a trailing symlink. The
	// walker calls it for every entry that survives the name-only
	// exclusions, since ReadDir carries no stat info.
	Lstat(path string) (Stat, error)

	// StatInode performs the platform-specific second stat the walker runs
	// on regular files, to read real size/inode info under filesystems
	// where the first Lstat may be a partial view (e.g. Windows, or a
	// hardlink-capable filesystem where the first lstat undercounts nlink).
	StatInode(path string) (Stat, error)

	// Readlink returns a symlink's target. The caller is responsible for
	// rejecting targets that are too long; the adapter itself imposes no
	// length limit.
	Readlink(path string) (string, error)
}

// ModTime reconstructs a time.Time from the seconds/nanoseconds pair a Stat
// carries, for callers that want to log or compare using time.Time instead
// of the raw fields.
func (s Stat) ModTime() time.Time {
	return time.Unix(s.MtimeSec, s.MtimeNsec)
}
