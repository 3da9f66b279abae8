// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (C) 2026 aPlane Authors

package util

import (
	"io"
	"log/slog"
	"os"
)

// DebugEnv enables debug logging when set to any non-empty value.
const DebugEnv = "GMKJS_DEBUG"

var Logger = slog.New(slog.NewTextHandler(os.Stderr, nil))

// InitLogger initializes the global logger writing to w.
// Set GMKJS_DEBUG=1 to include debug records (dispatches, registrations).
func InitLogger(w io.Writer) {
	level := slog.LevelInfo
	if os.Getenv(DebugEnv) != "" {
		level = slog.LevelDebug
	}

	handler := slog.NewTextHandler(w, &slog.HandlerOptions{
		Level: level,
		// Timestamps only add noise next to make's own output
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			if a.Key == slog.TimeKey {
				return slog.Attr{}
			}
			return a
		},
	})

	Logger = slog.New(handler)
}

// Debug logs a debug message (only shown when GMKJS_DEBUG is set)
func Debug(msg string, args ...any) {
	Logger.Debug(msg, args...)
}
