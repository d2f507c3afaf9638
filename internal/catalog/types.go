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

// Package catalog holds the value objects and per-disk indexes that make up
// the on-disk content manifest scan mutates: files, links, empty directories,
// and the parity slot array that ties a file's blocks to parity positions.
package catalog

import "fmt"

// HashSize is the width, in bytes, of the hash carried by a BlockRef.
// SnapRAID itself uses a 16 or 32 byte hash depending on algorithm; this
// package is agnostic to the algorithm and simply carries whatever was
// loaded from the content file.
const HashSize = 32

// MtimeNsecInvalid is the sentinel stored in File.MtimeNsec when a file was
// recorded by a catalog version that predates nanosecond mtime support.
// Comparisons against a live stat result must treat this value as "matches
// anything".
const MtimeNsecInvalid = -1

// BlockState is the lifecycle stage of a parity slot's content.
type BlockState int

const (
	// BlockStateEmpty is not a state ever stored on a BlockRef; it describes
	// a slot in the block array that holds no entry at all.
	BlockStateEmpty BlockState = iota
	// BlockStateBLK means the slot is live and parity-consistent: the block's
	// hash matches what was used to compute the on-disk parity.
	BlockStateBLK
	// BlockStateCHG means the slot is live but the block's hash has changed
	// since parity was last computed for it.
	BlockStateCHG
	// BlockStateNEW means the slot is live and parity has never been
	// computed for it.
	BlockStateNEW
	// BlockStateDeleted marks a tombstone: the slot used to hold a file's
	// block, preserved so a stale parity hash isn't needlessly invalidated.
	BlockStateDeleted
)

func (s BlockState) String() string {
	switch s {
	case BlockStateEmpty:
		return "EMPTY"
	case BlockStateBLK:
		return "BLK"
	case BlockStateCHG:
		return "CHG"
	case BlockStateNEW:
		return "NEW"
	case BlockStateDeleted:
		return "DELETED"
	default:
		return fmt.Sprintf("BlockState(%d)", int(s))
	}
}

// LinkKind distinguishes a true symbolic link from a hardlink alias captured
// as a Link entry pointing at its canonical File.
type LinkKind int

const (
	LinkKindSymlink LinkKind = iota
	LinkKindHardlink
)

func (k LinkKind) String() string {
	switch k {
	case LinkKindSymlink:
		return "SYMLINK"
	case LinkKindHardlink:
		return "HARDLINK"
	default:
		return fmt.Sprintf("LinkKind(%d)", int(k))
	}
}

// BlockRef is one block of a File's data, as represented in the parity slot
// array: the slot it occupies, its lifecycle state, and the hash of its
// content as of the last time that hash was known good.
type BlockRef struct {
	ParitySlot int
	State      BlockState
	Hash       [HashSize]byte
}

// File is a regular file tracked by a disk's catalog, identified by the pair
// (sub-path, inode). Two in-memory Files are considered the same entity
// across a scan only through re-indexing, never by pointer identity beyond a
// single scan.
type File struct {
	Sub   string // disk-local sub-path, e.g. "photos/2020/a.jpg"
	Inode uint64

	Size      int64
	MtimeSec  int64
	MtimeNsec int64 // may be MtimeNsecInvalid

	Blocks []BlockRef

	// Present is a transient per-scan flag: set once the live filesystem
	// entry matching this File has been observed during the current scan.
	// Entries left unset after the walk are removed in the sweep.
	Present bool
}

// BlockMax returns the number of blocks this file occupies, i.e.
// ceil(Size / blockSize).
func BlockMax(size int64, blockSize int64) int {
	if size <= 0 {
		return 0
	}
	n := size / blockSize
	if size%blockSize != 0 {
		n++
	}
	return int(n)
}

// NewFile allocates a File with a block vector sized to hold size bytes at
// blockSize per block. Every block starts as a zero BlockRef; slot
// assignment happens later, in Disk.InsertFile.
func NewFile(sub string, inode uint64, size, mtimeSec, mtimeNsec int64, blockSize int64) *File {
	return &File{
		Sub:       sub,
		Inode:     inode,
		Size:      size,
		MtimeSec:  mtimeSec,
		MtimeNsec: mtimeNsec,
		Blocks:    make([]BlockRef, BlockMax(size, blockSize)),
	}
}

// Link is a symbolic link, or a hardlink alias of a canonical File, keyed
// only by its sub-path.
type Link struct {
	Sub     string
	Target  string
	Kind    LinkKind
	Present bool
}

// Dir records an empty directory: a directory under which the walk
// processed no file, link, or subdirectory, which would otherwise leave no
// trace in the catalog for the tree shape to be recovered from.
type Dir struct {
	Sub     string
	Present bool
}

// DeletedBlock is a tombstone: it owns a BlockRef in state
// BlockStateDeleted, preserving the hash that was live in that slot at the
// moment its owning File was removed, so the slot's on-parity content
// remains interpretable until something else overwrites it.
type DeletedBlock struct {
	Block BlockRef
}
