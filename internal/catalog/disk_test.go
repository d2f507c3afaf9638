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

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testBlockSize = 4096

func hashOf(b byte) [HashSize]byte {
	var h [HashSize]byte
	h[0] = b
	return h
}

func TestBlockMax(t *testing.T) {
	assert.Equal(t, 0, BlockMax(0, testBlockSize))
	assert.Equal(t, 1, BlockMax(1, testBlockSize))
	assert.Equal(t, 1, BlockMax(testBlockSize, testBlockSize))
	assert.Equal(t, 2, BlockMax(testBlockSize+1, testBlockSize))
}

func TestNewFileBlockVectorLength(t *testing.T) {
	f := NewFile("a", 100, 10*testBlockSize+1, 1000, 0, testBlockSize)
	assert.Len(t, f.Blocks, 11)
}

// TestInsertFileStartsNewOnEmptySlots covers the "Hash inheritance" property:
// insertion into a never-before-used slot yields state NEW and a zero hash.
func TestInsertFileStartsNewOnEmptySlots(t *testing.T) {
	d := NewDisk("d1", testBlockSize)
	f := NewFile("a", 1, 2*testBlockSize, 1000, 0, testBlockSize)

	d.InsertFile(f)

	require.Len(t, f.Blocks, 2)
	assert.Equal(t, 0, f.Blocks[0].ParitySlot)
	assert.Equal(t, 1, f.Blocks[1].ParitySlot)
	assert.Equal(t, BlockStateNEW, f.Blocks[0].State)
	assert.Equal(t, BlockStateNEW, f.Blocks[1].State)
	assert.Equal(t, [HashSize]byte{}, f.Blocks[0].Hash)
	assert.Equal(t, 2, d.FirstFreeBlock)
	assert.Equal(t, 2, d.BlockArrayLen())
}

// TestRemoveFilePreservesBLKHash covers "Hash preservation": a BLK block's
// hash survives into its tombstone.
func TestRemoveFilePreservesBLKHash(t *testing.T) {
	d := NewDisk("d1", testBlockSize)
	f := NewFile("a", 1, testBlockSize, 1000, 0, testBlockSize)
	d.InsertFile(f)
	f.Blocks[0].State = BlockStateBLK
	f.Blocks[0].Hash = hashOf(0xAB)

	err := d.RemoveFile(f)
	require.NoError(t, err)

	require.Len(t, d.DeletedList, 1)
	tomb := d.DeletedList[0]
	assert.Equal(t, BlockStateDeleted, tomb.Block.State)
	assert.Equal(t, hashOf(0xAB), tomb.Block.Hash)
	assert.Equal(t, BlockStateDeleted, d.SlotState(0))
}

// TestRemoveFileZeroesCHGAndNEWHash covers the other half of hash
// preservation: CHG/NEW blocks are zeroed on removal since parity may not
// reflect them.
func TestRemoveFileZeroesCHGAndNEWHash(t *testing.T) {
	for _, st := range []BlockState{BlockStateCHG, BlockStateNEW} {
		d := NewDisk("d1", testBlockSize)
		f := NewFile("a", 1, testBlockSize, 1000, 0, testBlockSize)
		d.InsertFile(f)
		f.Blocks[0].State = st
		f.Blocks[0].Hash = hashOf(0xCD)

		require.NoError(t, d.RemoveFile(f))

		assert.Equal(t, [HashSize]byte{}, d.DeletedList[0].Block.Hash)
	}
}

func TestRemoveFileRejectsUnknownState(t *testing.T) {
	d := NewDisk("d1", testBlockSize)
	f := NewFile("a", 1, testBlockSize, 1000, 0, testBlockSize)
	d.InsertFile(f)
	f.Blocks[0].State = BlockStateEmpty // never a valid live-block state

	err := d.RemoveFile(f)
	assert.Error(t, err)
}

// TestInsertFileInheritsTombstoneHash covers "Hash inheritance": landing on
// a DELETED slot yields CHG with the tombstone's hash, not NEW.
func TestInsertFileInheritsTombstoneHash(t *testing.T) {
	d := NewDisk("d1", testBlockSize)
	old := NewFile("a", 1, testBlockSize, 1000, 0, testBlockSize)
	d.InsertFile(old)
	old.Blocks[0].State = BlockStateBLK
	old.Blocks[0].Hash = hashOf(0x42)
	require.NoError(t, d.RemoveFile(old))

	fresh := NewFile("b", 2, testBlockSize, 2000, 0, testBlockSize)
	d.InsertFile(fresh)

	assert.Equal(t, 0, fresh.Blocks[0].ParitySlot)
	assert.Equal(t, BlockStateCHG, fresh.Blocks[0].State)
	assert.Equal(t, hashOf(0x42), fresh.Blocks[0].Hash)
}

// TestTwoPhaseReuse covers property 6: removing files then inserting files
// of identical block count reuses the same slot set.
func TestTwoPhaseReuse(t *testing.T) {
	d := NewDisk("d1", testBlockSize)
	a := NewFile("a", 1, 2*testBlockSize, 1000, 0, testBlockSize)
	b := NewFile("b", 2, testBlockSize, 1000, 0, testBlockSize)
	d.InsertFile(a)
	d.InsertFile(b)

	before := occupiedSlots(d)

	require.NoError(t, d.RemoveFile(a))
	require.NoError(t, d.RemoveFile(b))

	c := NewFile("c", 3, 2*testBlockSize, 2000, 0, testBlockSize)
	e := NewFile("e", 4, testBlockSize, 2000, 0, testBlockSize)
	d.InsertFile(c)
	d.InsertFile(e)

	after := occupiedSlots(d)
	assert.Equal(t, before, after)
}

func occupiedSlots(d *Disk) map[int]bool {
	out := make(map[int]bool)
	for i := 0; i < d.BlockArrayLen(); i++ {
		if d.SlotState(i) != BlockStateEmpty && d.SlotState(i) != BlockStateDeleted {
			out[i] = true
		}
	}
	return out
}

// TestSlotOwnershipInvariant covers property 1 across a mixed sequence of
// inserts and removals.
func TestSlotOwnershipInvariant(t *testing.T) {
	d := NewDisk("d1", testBlockSize)
	f1 := NewFile("a", 1, testBlockSize, 1000, 0, testBlockSize)
	f2 := NewFile("b", 2, testBlockSize, 1000, 0, testBlockSize)
	d.IndexFile(f1)
	d.IndexFile(f2)
	d.InsertFile(f1)
	d.InsertFile(f2)
	require.NoError(t, d.RemoveFile(f1))

	for i := 0; i < d.BlockArrayLen(); i++ {
		switch st := d.SlotState(i); st {
		case BlockStateEmpty, BlockStateDeleted:
			// fine
		default:
			assert.Equal(t, i, d.blockArray[i].ownerFile.Blocks[findBlock(d.blockArray[i].ownerFile, i)].ParitySlot)
		}
	}
}

func findBlock(f *File, slot int) int {
	for i, b := range f.Blocks {
		if b.ParitySlot == slot {
			return i
		}
	}
	return -1
}

func TestUniquePathIndex(t *testing.T) {
	d := NewDisk("d1", testBlockSize)
	f := NewFile("a", 1, testBlockSize, 1000, 0, testBlockSize)
	d.IndexFile(f)
	assert.Same(t, f, d.FindFileByPath("a"))
	assert.Same(t, f, d.FindFileByInode(1))
	assert.Nil(t, d.FindFileByPath("b"))
}

func TestReindexPathAndInode(t *testing.T) {
	d := NewDisk("d1", testBlockSize)
	f := NewFile("a", 1, testBlockSize, 1000, 0, testBlockSize)
	d.IndexFile(f)

	d.ReindexPath(f, "b")
	assert.Nil(t, d.FindFileByPath("a"))
	assert.Same(t, f, d.FindFileByPath("b"))

	d.ReindexInode(f, 2)
	assert.Nil(t, d.FindFileByInode(1))
	assert.Same(t, f, d.FindFileByInode(2))
}
