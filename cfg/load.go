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
	"fmt"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

func init() {
	setDefaults(viper.GetViper())
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("content.block-size", DefaultBlockSize)
	def := GetDefaultLoggingConfig()
	v.SetDefault("logging.format", def.Format)
	v.SetDefault("logging.severity", def.Severity)
	v.SetDefault("logging.log-rotate.max-file-size-mb", def.LogRotate.MaxFileSizeMB)
	v.SetDefault("logging.log-rotate.backup-file-count", def.LogRotate.BackupFileCount)
	v.SetDefault("logging.log-rotate.compress", def.LogRotate.Compress)
	metricsDef := GetDefaultMetricsConfig()
	v.SetDefault("metrics.enabled", metricsDef.Enabled)
	v.SetDefault("metrics.addr", metricsDef.Addr)
}

// Load resolves a Config from, in increasing priority: the defaults set at
// package init, the YAML file at configPath (if non-empty), and whatever
// flags in flagSet were explicitly set. flagSet must already have had
// BindFlags called on it (which binds each flag into the same global viper
// instance this function reads from) and must already be parsed.
func Load(flagSet *pflag.FlagSet, configPath string) (*Config, error) {
	v := viper.GetViper()

	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("cfg: reading %s: %w", configPath, err)
		}
	}

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("cfg: unmarshaling: %w", err)
	}

	if disks, _ := flagSet.GetStringSlice("disk"); len(disks) > 0 {
		parsed, err := parseDiskFlags(disks)
		if err != nil {
			return nil, err
		}
		c.Disks = parsed
	}

	if err := Validate(&c); err != nil {
		return nil, err
	}

	return &c, nil
}

// parseDiskFlags turns "name:mount-path" pairs from repeated --disk flags
// into DiskConfig entries.
func parseDiskFlags(raw []string) ([]DiskConfig, error) {
	disks := make([]DiskConfig, 0, len(raw))
	for _, entry := range raw {
		name, mount, ok := strings.Cut(entry, ":")
		if !ok || name == "" || mount == "" {
			return nil, fmt.Errorf("cfg: --disk %q must be of the form name:mount-path", entry)
		}
		disks = append(disks, DiskConfig{Name: name, MountPath: mount})
	}
	return disks, nil
}
