// Copyright 2023 Google Inc. All Rights Reserved.
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

// Package logger is a slog-backed logger with TRACE/DEBUG/INFO/WARNING/ERROR
// severities and a pluggable text-or-JSON handler. Since KOMPOFS is loaded
// into a host process rather than invoked from a CLI with its own flags,
// severity and format are read from KOMPOFS_LOG_SEVERITY /
// KOMPOFS_LOG_FORMAT environment variables instead of command-line flags.
package logger

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"
)

// These severities extend slog's built-in levels, which only cover
// Debug/Info/Warn/Error, by adding Trace below the floor.
const (
	LevelTrace   = slog.Level(-8)
	LevelDebug   = slog.LevelDebug
	LevelInfo    = slog.LevelInfo
	LevelWarning = slog.LevelWarn
	LevelError   = slog.LevelError
)

var severityNames = map[slog.Level]string{
	LevelTrace:   "TRACE",
	LevelDebug:   "DEBUG",
	LevelInfo:    "INFO",
	LevelWarning: "WARNING",
	LevelError:   "ERROR",
}

var (
	mu            sync.RWMutex
	defaultLogger *slog.Logger
)

func init() {
	level := parseLevel(os.Getenv("KOMPOFS_LOG_SEVERITY"))
	format := strings.ToLower(os.Getenv("KOMPOFS_LOG_FORMAT"))
	defaultLogger = slog.New(newHandler(os.Stderr, level, format))
}

func parseLevel(s string) slog.Level {
	switch strings.ToUpper(s) {
	case "TRACE":
		return LevelTrace
	case "DEBUG":
		return LevelDebug
	case "INFO":
		return LevelInfo
	case "ERROR":
		return LevelError
	case "WARNING", "":
		return LevelWarning
	default:
		return LevelWarning
	}
}

func newHandler(w io.Writer, level slog.Level, format string) slog.Handler {
	opts := &slog.HandlerOptions{
		Level: level,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			if a.Key == slog.LevelKey {
				lvl := a.Value.Any().(slog.Level)
				if name, ok := severityNames[lvl]; ok {
					a.Value = slog.StringValue(name)
				}
				a.Key = "severity"
			}
			if a.Key == slog.MessageKey {
				a.Key = "message"
			}
			return a
		},
	}
	if format == "json" {
		return slog.NewJSONHandler(w, opts)
	}
	return slog.NewTextHandler(w, opts)
}

// SetOutput redirects the default logger's writer; used by tests and by
// hosts that want KOMPOFS diagnostics folded into their own log stream.
func SetOutput(w io.Writer, format string) {
	mu.Lock()
	defer mu.Unlock()
	defaultLogger = slog.New(newHandler(w, parseLevel(os.Getenv("KOMPOFS_LOG_SEVERITY")), format))
}

func logf(level slog.Level, format string, args ...any) {
	mu.RLock()
	l := defaultLogger
	mu.RUnlock()
	l.Log(context.Background(), level, fmt.Sprintf(format, args...))
}

func Tracef(format string, args ...any)   { logf(LevelTrace, format, args...) }
func Debugf(format string, args ...any)   { logf(LevelDebug, format, args...) }
func Infof(format string, args ...any)    { logf(LevelInfo, format, args...) }
func Warnf(format string, args ...any)    { logf(LevelWarning, format, args...) }
func Errorf(format string, args ...any)   { logf(LevelError, format, args...) }
