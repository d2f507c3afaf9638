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

package walker

import (
	"testing"

	"github.com/multikatt/snapraid/internal/catalog"
	"github.com/multikatt/snapraid/internal/fsadapter"
	"github.com/multikatt/snapraid/internal/scanerr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type noopFilter struct{}

func (noopFilter) Hidden(string) bool         { return false }
func (noopFilter) Content(string) bool        { return false }
func (noopFilter) Path(string, string) bool   { return false }
func (noopFilter) Dir(string, string) bool    { return false }

type recordingProcessor struct {
	files    []string
	links    []string
	emptyDir []string
}

func (p *recordingProcessor) File(sub string, st fsadapter.Stat) error {
	p.files = append(p.files, sub)
	return nil
}
func (p *recordingProcessor) Link(sub, target string, kind catalog.LinkKind) error {
	p.links = append(p.links, sub)
	return nil
}
func (p *recordingProcessor) EmptyDir(sub string) error {
	p.emptyDir = append(p.emptyDir, sub)
	return nil
}

func TestWalkFindsFilesAndRecordsEmptyDirs(t *testing.T) {
	fs := fsadapter.NewFakeFS()
	fs.AddFile("/root/a.txt", 10, 1, 1, 1000, 0)
	fs.AddDir("/root/empty")
	fs.AddDir("/root/full")
	fs.AddFile("/root/full/b.txt", 20, 2, 1, 1000, 0)

	proc := &recordingProcessor{}
	processed, err := Walk(fs, noopFilter{}, proc, Hooks{}, "disk1", "/root", "")

	require.NoError(t, err)
	assert.True(t, processed)
	assert.ElementsMatch(t, []string{"a.txt", "full/b.txt"}, proc.files)
	assert.ElementsMatch(t, []string{"empty"}, proc.emptyDir)
}

func TestWalkRejectsNewlineInName(t *testing.T) {
	fs := fsadapter.NewFakeFS()
	fs.AddFile("/root/a\nb", 1, 1, 1, 1000, 0)

	_, err := Walk(fs, noopFilter{}, &recordingProcessor{}, Hooks{}, "disk1", "/root", "")
	require.Error(t, err)
	assert.True(t, scanerr.Is(err, scanerr.KindNameUnsupported))
}

func TestWalkRejectsTrailingCR(t *testing.T) {
	fs := fsadapter.NewFakeFS()
	fs.AddFile("/root/a\r", 1, 1, 1, 1000, 0)

	_, err := Walk(fs, noopFilter{}, &recordingProcessor{}, Hooks{}, "disk1", "/root", "")
	require.Error(t, err)
	assert.True(t, scanerr.Is(err, scanerr.KindNameUnsupported))
}

func TestWalkSkipsHiddenBeforeStat(t *testing.T) {
	fake := fsadapter.NewFakeFS()
	fake.AddFile("/root/.hidden", 1, 1, 1, 1000, 0)
	fs := &lstatCountingFS{FS: fake}

	proc := &recordingProcessor{}
	processed, err := Walk(fs, filterHiddenOnly{}, proc, Hooks{}, "disk1", "/root", "")

	require.NoError(t, err)
	assert.False(t, processed)
	assert.Empty(t, proc.files)
	assert.Zero(t, fs.lstatCalls, "a hidden entry must be excluded before any lstat call")
}

type filterHiddenOnly struct{ noopFilter }

func (filterHiddenOnly) Hidden(name string) bool { return len(name) > 0 && name[0] == '.' }

// lstatCountingFS wraps an FS to count Lstat calls, so tests can assert that
// entries excluded by a name-only filter never reach a stat call.
type lstatCountingFS struct {
	fsadapter.FS
	lstatCalls int
}

func (f *lstatCountingFS) Lstat(path string) (fsadapter.Stat, error) {
	f.lstatCalls++
	return f.FS.Lstat(path)
}

func TestWalkSymlinkTooLong(t *testing.T) {
	fs := fsadapter.NewFakeFS()
	longTarget := make([]byte, 5000)
	for i := range longTarget {
		longTarget[i] = 'x'
	}
	fs.AddSymlink("/root/link", string(longTarget))

	_, err := Walk(fs, noopFilter{}, &recordingProcessor{}, Hooks{}, "disk1", "/root", "")
	require.Error(t, err)
	assert.True(t, scanerr.Is(err, scanerr.KindSymlinkTooLong))
}

func TestWalkSpecialFileIsSkippedNotFatal(t *testing.T) {
	fs := fsadapter.NewFakeFS()
	fs.AddSpecial("/root/dev0")

	var warned string
	proc := &recordingProcessor{}
	_, err := Walk(fs, noopFilter{}, proc, Hooks{OnSpecial: func(p string) { warned = p }}, "disk1", "/root", "")

	require.NoError(t, err)
	assert.Equal(t, "/root/dev0", warned)
}
