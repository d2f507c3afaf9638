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

package cfg

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestFlagSet(t *testing.T, args []string) *pflag.FlagSet {
	t.Helper()
	viper.Reset()
	setDefaults(viper.GetViper())

	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	require.NoError(t, BindFlags(fs))
	require.NoError(t, fs.Parse(args))
	return fs
}

func TestLoadAppliesFlagOverDefault(t *testing.T) {
	fs := newTestFlagSet(t, []string{
		"--disk", "disk1:/mnt/disk1",
		"--content", "/mnt/disk1/content.bin",
		"--block-size", "65536",
	})

	c, err := Load(fs, "")

	require.NoError(t, err)
	assert.Equal(t, int64(65536), c.Content.BlockSize)
	assert.Equal(t, []string{"/mnt/disk1/content.bin"}, c.Content.Paths)
	require.Len(t, c.Disks, 1)
	assert.Equal(t, "disk1", c.Disks[0].Name)
	assert.Equal(t, "/mnt/disk1", c.Disks[0].MountPath)
}

func TestLoadUsesDefaultBlockSizeWhenUnset(t *testing.T) {
	fs := newTestFlagSet(t, []string{
		"--disk", "disk1:/mnt/disk1",
		"--content", "/mnt/disk1/content.bin",
	})

	c, err := Load(fs, "")

	require.NoError(t, err)
	assert.Equal(t, DefaultBlockSize, c.Content.BlockSize)
	assert.Equal(t, "text", c.Logging.Format)
	assert.Equal(t, "INFO", c.Logging.Severity)
}

func TestLoadMergesConfigFileUnderFlags(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
content:
  paths:
    - /mnt/disk1/content.bin
  block-size: 131072
scan:
  verbose: true
`), 0o644))

	fs := newTestFlagSet(t, []string{"--disk", "disk1:/mnt/disk1"})

	c, err := Load(fs, path)

	require.NoError(t, err)
	assert.Equal(t, int64(131072), c.Content.BlockSize)
	assert.True(t, c.Scan.Verbose)
	assert.Equal(t, []string{"/mnt/disk1/content.bin"}, c.Content.Paths)
}

func TestLoadRejectsNoDisks(t *testing.T) {
	fs := newTestFlagSet(t, []string{"--content", "/mnt/disk1/content.bin"})

	_, err := Load(fs, "")

	require.Error(t, err)
	assert.Contains(t, err.Error(), NoDisksConfiguredError)
}

func TestParseDiskFlagsRejectsMalformed(t *testing.T) {
	_, err := parseDiskFlags([]string{"disk1-no-colon"})
	assert.Error(t, err)
}

func TestValidateRejectsDuplicateDiskNames(t *testing.T) {
	c := &Config{
		Disks:   []DiskConfig{{Name: "d1", MountPath: "/a"}, {Name: "d1", MountPath: "/b"}},
		Content: ContentConfig{Paths: []string{"/x"}, BlockSize: 4096},
		Logging: GetDefaultLoggingConfig(),
	}

	err := Validate(c)

	require.Error(t, err)
	assert.Contains(t, err.Error(), DuplicateDiskNameError)
}
