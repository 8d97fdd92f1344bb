// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package logging builds the slog logger the gpupanic command hands to the
// engine. Every record carries a run_id so output from one invocation can be
// grepped out of a shared log.
package logging

import (
	"io"
	"log/slog"
	"strings"

	"github.com/google/uuid"
)

// RunIDKey is the attribute key of the per-invocation identifier.
const RunIDKey = "run_id"

// ParseLevel maps a case-insensitive level name to a slog level. Unknown or
// empty names return def.
func ParseLevel(s string, def slog.Level) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return def
	}
}

// New returns a text logger writing to w at the named level (warn when the
// name is not recognized).
func New(w io.Writer, level string) *slog.Logger {
	return NewWithID(w, level, uuid.NewString())
}

// NewWithID is New with a caller-chosen run id.
func NewWithID(w io.Writer, level, runID string) *slog.Logger {
	h := slog.NewTextHandler(w, &slog.HandlerOptions{
		Level: ParseLevel(level, slog.LevelWarn),
	})
	return slog.New(h).With(RunIDKey, runID)
}
