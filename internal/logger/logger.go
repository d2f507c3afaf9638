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

// Package logger provides the process-wide leveled logger every other
// package in this module writes through: text or JSON output, five
// severities finer than slog's default four, and an optional rotating file
// sink for long-running scan daemons.
package logger

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"gopkg.in/natefinch/lumberjack.v2"
)

// Severity name constants, as accepted by parseLevel and setLoggingLevel and
// written in the config file's logging.severity field.
const (
	SeverityTrace   = "TRACE"
	SeverityDebug   = "DEBUG"
	SeverityInfo    = "INFO"
	SeverityWarning = "WARNING"
	SeverityError   = "ERROR"
	SeverityOff     = "OFF"
)

// Level constants finer than slog's built-in four: TRACE sits below DEBUG,
// and OFF sits above ERROR so nothing at all is emitted.
const (
	LevelTrace = slog.Level(-8)
	LevelDebug = slog.LevelDebug
	LevelInfo  = slog.LevelInfo
	LevelWarn  = slog.LevelWarn
	LevelError = slog.LevelError
	LevelOff   = slog.Level(12)
)

// RotateConfig controls the lumberjack-backed file sink used when FilePath
// is non-empty.
type RotateConfig struct {
	MaxSizeMB  int
	MaxBackups int
	Compress   bool
}

// Config is everything the logger needs at startup: where to write, what
// format, what severity, and (if FilePath is set) how to rotate.
type Config struct {
	FilePath string
	Format   string // "text" or "json"; anything else falls back to json
	Severity string
	Rotate   RotateConfig
}

type loggerFactory struct {
	level     slog.Level
	format    string
	sysWriter io.Writer
	file      io.WriteCloser
	rotateCfg RotateConfig
}

var (
	defaultLoggerFactory = &loggerFactory{level: LevelInfo, format: "json", sysWriter: os.Stderr}
	defaultLogger        = slog.New(defaultLoggerFactory.createHandler(os.Stderr, "", LevelInfo, "json"))
)

// severityAttr renames slog's "level" attribute to "severity" and prints the
// five-value name set (TRACE included) instead of slog's default names.
func severityAttr(groups []string, a slog.Attr) slog.Attr {
	if a.Key == slog.LevelKey {
		level, _ := a.Value.Any().(slog.Level)
		a.Key = "severity"
		a.Value = slog.StringValue(levelName(level))
	}
	if a.Key == slog.TimeKey {
		a.Key = "time"
	}
	return a
}

func levelName(l slog.Level) string {
	switch {
	case l < LevelDebug:
		return SeverityTrace
	case l < LevelInfo:
		return SeverityDebug
	case l < LevelWarn:
		return SeverityInfo
	case l < LevelError:
		return SeverityWarning
	default:
		return SeverityError
	}
}

func parseLevel(severity string) slog.Level {
	switch severity {
	case SeverityTrace:
		return LevelTrace
	case SeverityDebug:
		return LevelDebug
	case SeverityInfo:
		return LevelInfo
	case SeverityWarning:
		return LevelWarn
	case SeverityError:
		return LevelError
	default:
		return LevelOff
	}
}

func (f *loggerFactory) createHandler(w io.Writer, prefix string, level slog.Level, format string) slog.Handler {
	opts := &slog.HandlerOptions{Level: level, ReplaceAttr: severityAttr}
	if format == "text" {
		return &prefixHandler{prefix: prefix, inner: slog.NewTextHandler(w, opts)}
	}
	return &prefixHandler{prefix: prefix, inner: slog.NewJSONHandler(w, opts)}
}

// prefixHandler prepends a fixed string to every record's message when the
// prefix is non-empty. Every handler this package creates passes an empty
// prefix, so messages are currently written unchanged.
type prefixHandler struct {
	prefix string
	inner  slog.Handler
}

func (h *prefixHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.inner.Enabled(ctx, level)
}

func (h *prefixHandler) Handle(ctx context.Context, r slog.Record) error {
	if h.prefix != "" {
		r.Message = h.prefix + r.Message
	}
	return h.inner.Handle(ctx, r)
}

func (h *prefixHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &prefixHandler{prefix: h.prefix, inner: h.inner.WithAttrs(attrs)}
}

func (h *prefixHandler) WithGroup(name string) slog.Handler {
	return &prefixHandler{prefix: h.prefix, inner: h.inner.WithGroup(name)}
}

// Init (re)configures the package-level logger per cfg. Call it once during
// startup, after flags and config files have been merged.
func Init(cfg Config) error {
	level := parseLevel(cfg.Severity)

	var w io.Writer = os.Stderr
	var file io.WriteCloser
	if cfg.FilePath != "" {
		lj := &lumberjack.Logger{
			Filename:   cfg.FilePath,
			MaxSize:    cfg.Rotate.MaxSizeMB,
			MaxBackups: cfg.Rotate.MaxBackups,
			Compress:   cfg.Rotate.Compress,
		}
		file = lj
		w = lj
	}

	defaultLoggerFactory = &loggerFactory{level: level, format: cfg.Format, sysWriter: os.Stderr, file: file, rotateCfg: cfg.Rotate}
	defaultLogger = slog.New(defaultLoggerFactory.createHandler(w, "", level, cfg.Format))
	return nil
}

// SetLogFormat switches the package-level logger's output format at
// runtime, preserving its current level and destination.
func SetLogFormat(format string) {
	defaultLoggerFactory.format = format
	w := defaultLoggerFactory.sysWriter
	if defaultLoggerFactory.file != nil {
		w = defaultLoggerFactory.file
	}
	defaultLogger = slog.New(defaultLoggerFactory.createHandler(w, "", defaultLoggerFactory.level, format))
}

func setLoggingLevel(severity string, level *slog.LevelVar) {
	level.Set(parseLevel(severity))
}

// Close flushes and releases the rotating file sink, if one is active.
func Close() error {
	if defaultLoggerFactory.file != nil {
		return defaultLoggerFactory.file.Close()
	}
	return nil
}

func log(level slog.Level, format string, args ...any) {
	if !defaultLogger.Enabled(context.Background(), level) {
		return
	}
	msg := format
	if len(args) > 0 {
		msg = fmt.Sprintf(format, args...)
	}
	defaultLogger.Log(context.Background(), level, msg)
}

func Tracef(format string, args ...any) { log(LevelTrace, format, args...) }
func Debugf(format string, args ...any) { log(LevelDebug, format, args...) }
func Infof(format string, args ...any)  { log(LevelInfo, format, args...) }
func Warnf(format string, args ...any)  { log(LevelWarn, format, args...) }
func Errorf(format string, args ...any) { log(LevelError, format, args...) }
