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

import "fmt"

// slotEntry is whatever a parity slot currently holds: nothing, a live
// File's block, or a DeletedBlock tombstone.
type slotEntry struct {
	block     *BlockRef
	deleted   *DeletedBlock
	ownerFile *File // nil for EMPTY or DELETED slots
}

func (s slotEntry) empty() bool {
	return s.block == nil
}

func (s slotEntry) hasFile() bool {
	return s.ownerFile != nil
}

// Disk is the per-disk container of catalog entries: the three ordered
// entry lists, their path/inode indexes, the deleted-block list, and the
// sparse parity slot array.
type Disk struct {
	Name string

	fileList []*File
	linkList []*Link
	dirList  []*Dir

	pathIndex  map[string]*File   // sub -> canonical live File
	inodeIndex map[uint64]*File   // inode -> canonical live File
	linkIndex  map[string]*Link   // sub -> Link
	dirIndex   map[string]*Dir    // sub -> Dir

	DeletedList []*DeletedBlock

	blockArray []slotEntry

	// FirstFreeBlock is the lowest slot index known to possibly be free. It
	// is a hint, not a guarantee: it is always correct immediately after a
	// scan completes, but may lag mid-scan.
	FirstFreeBlock int

	BlockSize int64
}

// NewDisk returns an empty Disk ready for catalog load or scan population.
func NewDisk(name string, blockSize int64) *Disk {
	return &Disk{
		Name:       name,
		pathIndex:  make(map[string]*File),
		inodeIndex: make(map[uint64]*File),
		linkIndex:  make(map[string]*Link),
		dirIndex:   make(map[string]*Dir),
		BlockSize:  blockSize,
	}
}

// Files returns the disk's live files in insertion order. The returned slice
// must not be mutated by the caller.
func (d *Disk) Files() []*File { return d.fileList }

// Links returns the disk's links in insertion order.
func (d *Disk) Links() []*Link { return d.linkList }

// Dirs returns the disk's empty-directory entries in insertion order.
func (d *Disk) Dirs() []*Dir { return d.dirList }

// BlockArrayLen reports the current size of the parity slot array.
func (d *Disk) BlockArrayLen() int { return len(d.blockArray) }

// SlotState reports the state of slot s: BlockStateEmpty if unoccupied,
// BlockStateDeleted if held by a tombstone, or the live BlockRef's state
// otherwise. Panics if s is out of range, mirroring a programmer error in
// the caller rather than a recoverable condition.
func (d *Disk) SlotState(s int) BlockState {
	e := d.blockArray[s]
	switch {
	case e.empty():
		return BlockStateEmpty
	case e.hasFile():
		return e.block.State
	default:
		return BlockStateDeleted
	}
}

// FindFileByPath looks up a live file by its sub-path.
func (d *Disk) FindFileByPath(sub string) *File { return d.pathIndex[sub] }

// FindFileByInode looks up a live file by its inode. Only the canonical
// file for that inode is indexed; hardlink aliases are Link entries.
func (d *Disk) FindFileByInode(inode uint64) *File { return d.inodeIndex[inode] }

// FindLink looks up a link entry by its sub-path.
func (d *Disk) FindLink(sub string) *Link { return d.linkIndex[sub] }

// FindDir looks up an empty-directory entry by its sub-path.
func (d *Disk) FindDir(sub string) *Dir { return d.dirIndex[sub] }

// IndexFile inserts a brand-new file into the path and inode indexes so a
// later hardlink encountering the same inode can find it. It does not
// append to the ordered file list or touch the block array: both happen
// later via InsertFile, once all of this scan's removals have run.
func (d *Disk) IndexFile(f *File) {
	d.pathIndex[f.Sub] = f
	d.inodeIndex[f.Inode] = f
}

// ReindexPath moves a file to a new sub-path in the path index, e.g. after
// a rename is detected by inode match.
func (d *Disk) ReindexPath(f *File, newSub string) {
	delete(d.pathIndex, f.Sub)
	f.Sub = newSub
	d.pathIndex[newSub] = f
}

// ReindexInode moves a file to a new inode in the inode index, e.g. after a
// same-path rewrite (identical mtime+size, different inode) is detected.
func (d *Disk) ReindexInode(f *File, newInode uint64) {
	delete(d.inodeIndex, f.Inode)
	f.Inode = newInode
	d.inodeIndex[newInode] = f
}

// AddLink appends a new link to the link list and index.
func (d *Disk) AddLink(l *Link) {
	d.linkIndex[l.Sub] = l
	d.linkList = append(d.linkList, l)
}

// AddDir appends a new empty-directory entry to the dir list and index.
func (d *Disk) AddDir(dd *Dir) {
	d.dirIndex[dd.Sub] = dd
	d.dirList = append(d.dirList, dd)
}

// RemoveLink drops a link from the index and ordered list.
func (d *Disk) RemoveLink(l *Link) {
	delete(d.linkIndex, l.Sub)
	d.linkList = removeLink(d.linkList, l)
}

// RemoveDir drops an empty-directory entry from the index and ordered list.
func (d *Disk) RemoveDir(dd *Dir) {
	delete(d.dirIndex, dd.Sub)
	d.dirList = removeDir(d.dirList, dd)
}

func removeLink(list []*Link, target *Link) []*Link {
	out := list[:0]
	for _, l := range list {
		if l != target {
			out = append(out, l)
		}
	}
	return out
}

func removeDir(list []*Dir, target *Dir) []*Dir {
	out := list[:0]
	for _, dd := range list {
		if dd != target {
			out = append(out, dd)
		}
	}
	return out
}

func removeFile(list []*File, target *File) []*File {
	out := list[:0]
	for _, f := range list {
		if f != target {
			out = append(out, f)
		}
	}
	return out
}

// RemoveFile frees every block the file occupies, tombstoning each slot, and
// drops the file from both indexes and the ordered list. See §4.4: BLK
// blocks keep their hash (parity still reflects it); CHG and NEW blocks
// have their hash zeroed, since an aborted sync means parity may or may not
// have caught up with them.
//
// RemoveFile must be called for every removal on a disk before any
// InsertFile call for that disk — the two-phase discipline is what lets
// InsertFile reuse the slots RemoveFile frees.
func (d *Disk) RemoveFile(f *File) error {
	for i := range f.Blocks {
		b := &f.Blocks[i]
		slot := b.ParitySlot

		if d.FirstFreeBlock > slot {
			d.FirstFreeBlock = slot
		}

		tomb := BlockRef{ParitySlot: slot, State: BlockStateDeleted}
		switch b.State {
		case BlockStateBLK:
			tomb.Hash = b.Hash
		case BlockStateCHG, BlockStateNEW:
			// hash left zeroed: indeterminate after an aborted sync
		default:
			return fmt.Errorf("catalog: internal inconsistency removing block %d of %q: unexpected state %s", slot, f.Sub, b.State)
		}

		deleted := &DeletedBlock{Block: tomb}
		d.DeletedList = append(d.DeletedList, deleted)
		d.blockArray[slot] = slotEntry{block: &deleted.Block, deleted: deleted}
	}

	delete(d.pathIndex, f.Sub)
	delete(d.inodeIndex, f.Inode)
	d.fileList = removeFile(d.fileList, f)
	return nil
}

// InsertFile assigns a parity slot to every block of f, starting the scan
// from FirstFreeBlock, growing the block array when no free slot remains,
// and appends f to the file list. Must be called only after every removal
// staged for this disk's current scan has already run through RemoveFile.
func (d *Disk) InsertFile(f *File) {
	pos := d.FirstFreeBlock
	max := len(d.blockArray)

	for i := range f.Blocks {
		for pos < max && d.blockArray[pos].hasFile() {
			pos++
		}
		if pos == max {
			d.blockArray = append(d.blockArray, slotEntry{})
			max++
		}

		f.Blocks[i].ParitySlot = pos

		occupant := d.blockArray[pos]
		if occupant.empty() {
			f.Blocks[i].State = BlockStateNEW
		} else {
			// occupant must be a DELETED tombstone: a live slot can never
			// be reassigned without first being freed by RemoveFile.
			f.Blocks[i].State = BlockStateCHG
			f.Blocks[i].Hash = occupant.block.Hash
		}

		d.blockArray[pos] = slotEntry{block: &f.Blocks[i], ownerFile: f}
		pos++
	}

	if len(f.Blocks) > 0 {
		d.FirstFreeBlock = pos
	}

	d.fileList = append(d.fileList, f)
}
