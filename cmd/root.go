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

// Package cmd wires this module's cobra command: flags to cfg.Config, the
// configured disks to a scan.Driver run, and the run's outcome to stdout,
// the logger, and (optionally) a Prometheus endpoint.
package cmd

import (
	"context"
	"fmt"
	"net/http"
	"os"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/multikatt/snapraid/cfg"
	"github.com/multikatt/snapraid/internal/catalog"
	"github.com/multikatt/snapraid/internal/diff"
	"github.com/multikatt/snapraid/internal/filter"
	"github.com/multikatt/snapraid/internal/fsadapter"
	"github.com/multikatt/snapraid/internal/logger"
	"github.com/multikatt/snapraid/internal/metrics"
	"github.com/multikatt/snapraid/internal/scan"
	"github.com/multikatt/snapraid/internal/walker"
)

var (
	cfgFilePath string
	bindErr     error
)

var rootCmd = &cobra.Command{
	Use:   "snapraid-scan",
	Short: "Diff a protected disk's live tree against its parity catalog",
	Long: `snapraid-scan walks every configured disk, compares what it finds
against the content catalog's last-known state, and reconciles the two:
unchanged entries are left alone, renames and rewrites are reclassified in
place, and entries with no surviving live counterpart are removed so the
catalog reflects what the disk actually holds.`,
	RunE: runScan,
}

func init() {
	rootCmd.Flags().StringVarP(&cfgFilePath, "config", "c", "", "Path to the YAML config file.")
	bindErr = cfg.BindFlags(rootCmd.Flags())
}

// Execute runs the root command, exiting the process with status 1 on any
// error, matching the original tool's fatal-on-error-unwinds-to-exit model.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func runScan(cmd *cobra.Command, args []string) error {
	if bindErr != nil {
		return bindErr
	}

	c, err := cfg.Load(cmd.Flags(), cfgFilePath)
	if err != nil {
		return err
	}

	if err := logger.Init(logger.Config{
		FilePath: c.Logging.FilePath,
		Format:   c.Logging.Format,
		Severity: c.Logging.Severity,
		Rotate: logger.RotateConfig{
			MaxSizeMB:  c.Logging.LogRotate.MaxFileSizeMB,
			MaxBackups: c.Logging.LogRotate.BackupFileCount,
			Compress:   c.Logging.LogRotate.Compress,
		},
	}); err != nil {
		return fmt.Errorf("initializing logger: %w", err)
	}
	defer logger.Close()

	reg := prometheus.NewRegistry()
	met := metrics.New(reg)
	if c.Metrics.Enabled {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
		go func() {
			if err := http.ListenAndServe(c.Metrics.Addr, mux); err != nil {
				logger.Errorf("metrics server stopped: %v", err)
			}
		}()
	}

	flt := buildFilter(c)

	cat := &catalog.Catalog{}
	var disks []scan.Disk
	for _, d := range c.Disks {
		diskCat := catalog.NewDisk(d.Name, c.Content.BlockSize)
		cat.Disks = append(cat.Disks, diskCat)
		disks = append(disks, scan.Disk{Catalog: diskCat, MountPath: d.MountPath})
	}

	drv := &scan.Driver{
		FS:         fsadapter.RealFS{},
		Filter:     flt,
		FindByName: c.Scan.FindByName,
		ForceZero:  c.Scan.ForceZero,
		ForceEmpty: c.Scan.ForceEmpty,
		Hooks:      buildDiffHooks(c),
		WalkHooks:  buildWalkHooks(c),
		Metrics:    met,
	}

	result, err := drv.Scan(context.Background(), cat, disks)
	if err != nil {
		return err
	}

	for name, counters := range result.PerDisk {
		met.RecordOutcome(name, metrics.OutcomeEqual, counters.Equal)
		met.RecordOutcome(name, metrics.OutcomeMoved, counters.Moved)
		met.RecordOutcome(name, metrics.OutcomeChanged, counters.Changed)
		met.RecordOutcome(name, metrics.OutcomeRemoved, counters.Removed)
		met.RecordOutcome(name, metrics.OutcomeInserted, counters.Inserted)
		met.RecordOutcome(name, metrics.OutcomeHardlinked, counters.Hardlinked)
		met.RecordOutcome(name, metrics.OutcomeEmptiedDirs, counters.EmptiedDirs)
	}

	fmt.Printf("Add %d, Remove %d, Update %d, Move %d, Hardlink %d, Equal %d\n",
		result.Total.Inserted, result.Total.Removed, result.Total.Changed,
		result.Total.Moved, result.Total.Hardlinked, result.Total.Equal)

	return nil
}

func buildFilter(c *cfg.Config) *filter.List {
	flt := filter.New()
	for _, pattern := range c.Scan.Exclude {
		flt.PathRules = append(flt.PathRules, filter.Rule{Pattern: pattern, Exclude: true})
	}
	for _, pattern := range c.Scan.ExcludeDir {
		flt.DirRules = append(flt.DirRules, filter.Rule{Pattern: pattern, Exclude: true})
	}
	for _, p := range c.Content.Paths {
		flt.ContentPaths[p] = true
	}
	return flt
}

// buildDiffHooks wires the --output and --gui flags to the diff engine's
// narrow callbacks: --output prints the human-readable line spec.md §6
// describes, --gui prints the machine-readable "scan:<outcome>:<disk>:<sub>"
// form on the same stream, and every outcome is always mirrored to the
// logger at TRACE so it is visible with --log-severity=TRACE even when
// neither flag is set.
func buildDiffHooks(c *cfg.Config) diff.Hooks {
	return diff.Hooks{
		OnEqual: func(disk, sub string) {
			printOutcome(c, disk, "equal", sub, "")
		},
		OnAdd: func(disk, sub string) {
			printOutcome(c, disk, "add", sub, "")
		},
		OnUpdate: func(disk, sub string) {
			printOutcome(c, disk, "update", sub, "")
		},
		OnMove: func(disk, oldSub, newSub string) {
			printOutcome(c, disk, "move", oldSub, newSub)
		},
		OnRemove: func(disk, sub string) {
			printOutcome(c, disk, "remove", sub, "")
		},
		OnHardlink: func(disk, sub, target string) {
			logger.Tracef("hardlink %s:%s -> %s", disk, sub, target)
		},
	}
}

// printOutcome emits the scan:<outcome>:<disk>:<sub>[:<new_sub>] line
// spec.md §6 defines for --gui, mirrors it to the logger at TRACE, and (for
// --output) the human-readable Add/Remove/Update/Move line. gui and verbose
// are independent: this always fires regardless of --verbose, which instead
// only gates walker.Hooks.OnExcluded's exclusion-reason logging.
func printOutcome(c *cfg.Config, disk, outcome, sub, newSub string) {
	logger.Tracef("scan:%s:%s:%s%s", outcome, disk, sub, optionalArrow(newSub))

	if c.Scan.Gui {
		if newSub != "" {
			fmt.Printf("scan:%s:%s:%s:%s\n", outcome, disk, sub, newSub)
		} else {
			fmt.Printf("scan:%s:%s:%s\n", outcome, disk, sub)
		}
	}

	if c.Scan.Output {
		switch outcome {
		case "add":
			fmt.Printf("Add %s\n", sub)
		case "remove":
			fmt.Printf("Remove %s\n", sub)
		case "update":
			fmt.Printf("Update %s\n", sub)
		case "move":
			fmt.Printf("Move %s -> %s\n", sub, newSub)
		}
	}
}

func optionalArrow(newSub string) string {
	if newSub == "" {
		return ""
	}
	return " -> " + newSub
}

func buildWalkHooks(c *cfg.Config) walker.Hooks {
	return walker.Hooks{
		OnExcluded: func(reason, fullPath string) {
			if c.Scan.Verbose {
				logger.Infof("excluded (%s): %s", reason, fullPath)
			}
		},
		OnSpecial: func(fullPath string) {
			logger.Warnf("ignoring special file: %s", fullPath)
		},
	}
}
