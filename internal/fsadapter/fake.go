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
	"fmt"
	"path"
	"sort"
)

// FakeNode is one entry of a FakeFS tree, keyed by its full slash-separated
// path relative to the fake filesystem root.
type FakeNode struct {
	Stat     Stat
	Target   string // symlink target, when Stat.Kind == KindSymlink
	children map[string]bool
}

// FakeFS is an in-memory FS used by walker/diff/scan tests so this
// package's core logic can be exercised without touching a real disk.
type FakeFS struct {
	nodes map[string]*FakeNode
}

var _ FS = (*FakeFS)(nil)

// NewFakeFS returns an empty fake rooted at "".
func NewFakeFS() *FakeFS {
	f := &FakeFS{nodes: make(map[string]*FakeNode)}
	f.nodes[""] = &FakeNode{Stat: Stat{Kind: KindDir}, children: map[string]bool{}}
	return f
}

func (f *FakeFS) parent(p string) string {
	d := path.Dir(p)
	if d == "." || d == "/" || d == p {
		return ""
	}
	return d
}

func (f *FakeFS) ensureDir(p string) *FakeNode {
	if n, ok := f.nodes[p]; ok {
		return n
	}
	if p == "" {
		return f.nodes[""]
	}
	parent := f.ensureDir(f.parent(p))
	n := &FakeNode{Stat: Stat{Kind: KindDir}, children: map[string]bool{}}
	f.nodes[p] = n
	parent.children[path.Base(p)] = true
	return n
}

// AddDir registers an (initially empty) directory.
func (f *FakeFS) AddDir(p string) {
	f.ensureDir(p)
}

// AddFile registers a regular file with the given size, inode, nlink and
// mtime.
func (f *FakeFS) AddFile(p string, size int64, inode uint64, nlink uint64, mtimeSec, mtimeNsec int64) {
	parent := f.ensureDir(f.parent(p))
	f.nodes[p] = &FakeNode{Stat: Stat{
		Kind: KindRegular, Size: size, Inode: inode, Nlink: nlink,
		MtimeSec: mtimeSec, MtimeNsec: mtimeNsec,
	}}
	parent.children[path.Base(p)] = true
}

// AddSymlink registers a symlink pointing at target.
func (f *FakeFS) AddSymlink(p, target string) {
	parent := f.ensureDir(f.parent(p))
	f.nodes[p] = &FakeNode{Stat: Stat{Kind: KindSymlink}, Target: target}
	parent.children[path.Base(p)] = true
}

// AddSpecial registers a non-regular, non-dir, non-symlink entry (device,
// fifo, socket).
func (f *FakeFS) AddSpecial(p string) {
	parent := f.ensureDir(f.parent(p))
	f.nodes[p] = &FakeNode{Stat: Stat{Kind: KindSpecial}}
	parent.children[path.Base(p)] = true
}

// Remove deletes the entry at p (non-recursive; p must have no children if
// it is a directory).
func (f *FakeFS) Remove(p string) {
	delete(f.nodes, p)
	if parent, ok := f.nodes[f.parent(p)]; ok {
		delete(parent.children, path.Base(p))
	}
}

func (f *FakeFS) ReadDir(dir string) ([]DirEntry, error) {
	n, ok := f.nodes[dir]
	if !ok {
		return nil, fmt.Errorf("fsadapter: fake: no such directory %q", dir)
	}
	names := make([]string, 0, len(n.children))
	for name := range n.children {
		names = append(names, name)
	}
	sort.Strings(names)

	out := make([]DirEntry, 0, len(names))
	for _, name := range names {
		out = append(out, DirEntry{Name: name})
	}
	return out, nil
}

func (f *FakeFS) Lstat(p string) (Stat, error) {
	n, ok := f.nodes[p]
	if !ok {
		return Stat{}, fmt.Errorf("fsadapter: fake: no such entry %q", p)
	}
	return n.Stat, nil
}

func (f *FakeFS) StatInode(p string) (Stat, error) {
	return f.Lstat(p)
}

func (f *FakeFS) Readlink(p string) (string, error) {
	n, ok := f.nodes[p]
	if !ok {
		return "", fmt.Errorf("fsadapter: fake: no such entry %q", p)
	}
	return n.Target, nil
}
