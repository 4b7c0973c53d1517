// SPDX-License-Identifier: BSD-3-Clause

// Package log provides the structured logger used across kilnctl. It fans
// out to a human-readable console writer (zerolog) through the standard
// library's slog, so every package logs through log/slog while operators
// still get readable timestamps at the console.
package log

import (
	"log/slog"
	"os"

	"github.com/rs/zerolog"
	slogmulti "github.com/samber/slog-multi"
	slogzerolog "github.com/samber/slog-zerolog/v2"
)

var global = NewDefaultLogger()

// NewDefaultLogger creates a structured logger that writes to the console
// with timestamps at debug level. Additional handlers (file, syslog, a
// telemetry sink) can be fanned in by callers via slogmulti.
func NewDefaultLogger() *slog.Logger {
	zeroLogger := zerolog.
		New(zerolog.NewConsoleWriter(func(w *zerolog.ConsoleWriter) {
			w.Out = os.Stderr
		})).
		With().
		Timestamp().
		Logger()

	return slog.New(slogmulti.Fanout(
		slogzerolog.Option{Level: slog.LevelDebug, Logger: &zeroLogger}.NewZerologHandler(),
	))
}

// GetGlobalLogger returns the process-wide logger instance.
func GetGlobalLogger() *slog.Logger {
	return global
}

// SetGlobalLogger replaces the process-wide logger instance, primarily for tests.
func SetGlobalLogger(l *slog.Logger) {
	global = l
}
