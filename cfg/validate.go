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

import "fmt"

const (
	NoDisksConfiguredError        = "at least one disk must be configured, via the config file or --disk"
	NoContentPathConfiguredError  = "at least one content catalog path must be configured, via the config file or --content"
	DuplicateDiskNameError        = "disk names must be unique"
	BlockSizeInvalidError         = "content.block-size must be a positive number of bytes"
)

func isValidLogRotateConfig(c *LogRotateConfig) error {
	if c.MaxFileSizeMB <= 0 {
		return fmt.Errorf("logging.log-rotate.max-file-size-mb should be at least 1")
	}
	if c.BackupFileCount < 0 {
		return fmt.Errorf("logging.log-rotate.backup-file-count should be 0 (retain all) or positive")
	}
	return nil
}

// Validate checks invariants Load cannot enforce through viper/pflag alone:
// required fields, uniqueness constraints, and numeric ranges.
func Validate(c *Config) error {
	if len(c.Disks) == 0 {
		return fmt.Errorf(NoDisksConfiguredError)
	}
	if len(c.Content.Paths) == 0 {
		return fmt.Errorf(NoContentPathConfiguredError)
	}
	if c.Content.BlockSize <= 0 {
		return fmt.Errorf(BlockSizeInvalidError)
	}

	seen := make(map[string]bool, len(c.Disks))
	for _, d := range c.Disks {
		if seen[d.Name] {
			return fmt.Errorf("%s: %q", DuplicateDiskNameError, d.Name)
		}
		seen[d.Name] = true
	}

	if c.Logging.FilePath != "" {
		if err := isValidLogRotateConfig(&c.Logging.LogRotate); err != nil {
			return err
		}
	}

	return nil
}
