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

// DefaultBlockSize is the parity block size used when neither the config
// file nor --block-size specifies one: 256 KiB, matching the original
// tool's compiled-in default.
const DefaultBlockSize int64 = 256 * 1024

// GetDefaultLoggingConfig returns the logging configuration used before any
// config file or flags have been applied.
func GetDefaultLoggingConfig() LoggingConfig {
	return LoggingConfig{
		Format:   "text",
		Severity: "INFO",
		LogRotate: LogRotateConfig{
			MaxFileSizeMB:   512,
			BackupFileCount: 10,
			Compress:        true,
		},
	}
}

// GetDefaultMetricsConfig returns the metrics configuration used before any
// config file or flags have been applied.
func GetDefaultMetricsConfig() MetricsConfig {
	return MetricsConfig{
		Enabled: false,
		Addr:    ":9102",
	}
}
