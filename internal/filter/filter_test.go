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

package filter

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPathExcludesByGlob(t *testing.T) {
	l := New()
	l.PathRules = append(l.PathRules, Rule{Pattern: "*.tmp", Exclude: true})

	assert.True(t, l.Path("disk1", "a/b/scratch.tmp"))
	assert.False(t, l.Path("disk1", "a/b/keep.txt"))
}

func TestPathIncludeOverridesPriorExclude(t *testing.T) {
	l := New()
	l.PathRules = append(l.PathRules,
		Rule{Pattern: "*.tmp", Exclude: true},
		Rule{Pattern: "keep.tmp", Exclude: false},
	)

	assert.False(t, l.Path("disk1", "keep.tmp"))
	assert.True(t, l.Path("disk1", "other.tmp"))
}

func TestDirExcludesByGlob(t *testing.T) {
	l := New()
	l.DirRules = append(l.DirRules, Rule{Pattern: ".cache", Exclude: true})

	assert.True(t, l.Dir("disk1", "project/.cache"))
	assert.False(t, l.Dir("disk1", "project/src"))
}

func TestHiddenDetectsDotfiles(t *testing.T) {
	l := New()

	assert.True(t, l.Hidden(".bashrc"))
	assert.False(t, l.Hidden("."))
	assert.False(t, l.Hidden(".."))
	assert.False(t, l.Hidden("visible.txt"))
}

func TestContentMatchesConfiguredPaths(t *testing.T) {
	l := New()
	l.ContentPaths["/mnt/disk1/content.bin"] = true

	assert.True(t, l.Content("/mnt/disk1/content.bin"))
	assert.False(t, l.Content("/mnt/disk1/other.bin"))
}

func TestNoRulesExcludesNothing(t *testing.T) {
	l := New()

	assert.False(t, l.Path("disk1", "anything"))
	assert.False(t, l.Dir("disk1", "anything"))
}
