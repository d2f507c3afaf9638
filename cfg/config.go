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

// Package cfg is the typed configuration this module loads, merging a YAML
// config file (via viper) with CLI flags (via pflag) and built-in defaults.
// Flags always win over the file; the file always wins over defaults.
package cfg

import (
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Config is the full set of knobs the scan driver and its ambient stack
// need at startup.
type Config struct {
	Disks []DiskConfig `yaml:"disks" mapstructure:"disks"`

	Content ContentConfig `yaml:"content" mapstructure:"content"`

	Scan ScanConfig `yaml:"scan" mapstructure:"scan"`

	Logging LoggingConfig `yaml:"logging" mapstructure:"logging"`

	Metrics MetricsConfig `yaml:"metrics" mapstructure:"metrics"`
}

// DiskConfig names one protected disk and where it is mounted.
type DiskConfig struct {
	Name      string `yaml:"name" mapstructure:"name"`
	MountPath string `yaml:"mount-path" mapstructure:"mount-path"`
}

// ContentConfig locates the on-disk catalog files a Loader reads and
// writes. Multiple paths are supported so a catalog can be mirrored onto
// more than one disk, as the original tool does.
type ContentConfig struct {
	Paths     []string `yaml:"paths" mapstructure:"paths"`
	BlockSize int64    `yaml:"block-size" mapstructure:"block-size"`
}

// ScanConfig mirrors the behavior flags spec.md §6 describes.
type ScanConfig struct {
	FindByName bool     `yaml:"find-by-name" mapstructure:"find-by-name"`
	ForceZero  bool     `yaml:"force-zero" mapstructure:"force-zero"`
	ForceEmpty bool     `yaml:"force-empty" mapstructure:"force-empty"`
	Exclude    []string `yaml:"exclude" mapstructure:"exclude"`
	ExcludeDir []string `yaml:"exclude-dir" mapstructure:"exclude-dir"`
	Gui        bool     `yaml:"gui" mapstructure:"gui"`
	Verbose    bool     `yaml:"verbose" mapstructure:"verbose"`
	Output     bool     `yaml:"output" mapstructure:"output"`
}

// LoggingConfig configures the package-level logger.
type LoggingConfig struct {
	FilePath  string          `yaml:"file-path" mapstructure:"file-path"`
	Format    string          `yaml:"format" mapstructure:"format"`
	Severity  string          `yaml:"severity" mapstructure:"severity"`
	LogRotate LogRotateConfig `yaml:"log-rotate" mapstructure:"log-rotate"`
}

// LogRotateConfig configures the lumberjack-backed rotation of the log
// file, when one is configured.
type LogRotateConfig struct {
	MaxFileSizeMB   int  `yaml:"max-file-size-mb" mapstructure:"max-file-size-mb"`
	BackupFileCount int  `yaml:"backup-file-count" mapstructure:"backup-file-count"`
	Compress        bool `yaml:"compress" mapstructure:"compress"`
}

// MetricsConfig controls whether the Prometheus registry is exposed, and
// where.
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled" mapstructure:"enabled"`
	Addr    string `yaml:"addr" mapstructure:"addr"`
}

// BindFlags declares every CLI flag this module accepts except --config,
// which the command declares itself and hands to Load as configPath. Every
// flag except --disk is bound into viper under the matching dotted key, so
// Load can later treat flags, config file, and defaults uniformly; Load
// reads --disk from flagSet directly.
func BindFlags(flagSet *pflag.FlagSet) error {
	var err error

	flagSet.StringSliceP("disk", "d", nil, "Disk to scan, as name:mount-path. Repeatable.")

	flagSet.StringSliceP("content", "", nil, "Path to a content catalog file. Repeatable.")
	err = viper.BindPFlag("content.paths", flagSet.Lookup("content"))
	if err != nil {
		return err
	}

	flagSet.Int64P("block-size", "", 0, "Parity block size in bytes. When not set, the built-in default is used.")
	err = viper.BindPFlag("content.block-size", flagSet.Lookup("block-size"))
	if err != nil {
		return err
	}

	flagSet.BoolP("find-by-name", "", false, "Identify files by sub-path instead of inode.")
	err = viper.BindPFlag("scan.find-by-name", flagSet.Lookup("find-by-name"))
	if err != nil {
		return err
	}

	flagSet.BoolP("force-zero", "", false, "Allow an unexplained zero-size transition instead of failing.")
	err = viper.BindPFlag("scan.force-zero", flagSet.Lookup("force-zero"))
	if err != nil {
		return err
	}

	flagSet.BoolP("force-empty", "", false, "Allow a disk to be emptied in one run instead of failing.")
	err = viper.BindPFlag("scan.force-empty", flagSet.Lookup("force-empty"))
	if err != nil {
		return err
	}

	flagSet.StringSliceP("exclude", "", nil, "Glob pattern to exclude files and links by sub-path. Repeatable.")
	err = viper.BindPFlag("scan.exclude", flagSet.Lookup("exclude"))
	if err != nil {
		return err
	}

	flagSet.StringSliceP("exclude-dir", "", nil, "Glob pattern to exclude whole directories by sub-path. Repeatable.")
	err = viper.BindPFlag("scan.exclude-dir", flagSet.Lookup("exclude-dir"))
	if err != nil {
		return err
	}

	flagSet.BoolP("gui", "", false, "Emit machine-readable scan:<outcome>:<disk>:<sub> lines on stdout.")
	err = viper.BindPFlag("scan.gui", flagSet.Lookup("gui"))
	if err != nil {
		return err
	}

	flagSet.BoolP("verbose", "v", false, "Log the reason each excluded entry is skipped.")
	err = viper.BindPFlag("scan.verbose", flagSet.Lookup("verbose"))
	if err != nil {
		return err
	}

	flagSet.BoolP("output", "", false, "Print human-readable Add/Remove/Update/Move lines.")
	err = viper.BindPFlag("scan.output", flagSet.Lookup("output"))
	if err != nil {
		return err
	}

	flagSet.StringP("log-file", "", "", "Path to a log file. Empty means log to stderr only.")
	err = viper.BindPFlag("logging.file-path", flagSet.Lookup("log-file"))
	if err != nil {
		return err
	}

	flagSet.StringP("log-format", "", "", "Log output format: text or json.")
	err = viper.BindPFlag("logging.format", flagSet.Lookup("log-format"))
	if err != nil {
		return err
	}

	flagSet.StringP("log-severity", "", "", "Minimum log severity: TRACE, DEBUG, INFO, WARNING, ERROR, or OFF.")
	err = viper.BindPFlag("logging.severity", flagSet.Lookup("log-severity"))
	if err != nil {
		return err
	}

	flagSet.BoolP("metrics", "", false, "Serve Prometheus metrics.")
	err = viper.BindPFlag("metrics.enabled", flagSet.Lookup("metrics"))
	if err != nil {
		return err
	}

	flagSet.StringP("metrics-addr", "", ":9102", "Address to serve /metrics on, when --metrics is set.")
	err = viper.BindPFlag("metrics.addr", flagSet.Lookup("metrics-addr"))
	if err != nil {
		return err
	}

	return nil
}
