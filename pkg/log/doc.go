// SPDX-License-Identifier: BSD-3-Clause

// Package log's single responsibility is wiring log/slog to zerolog's
// console writer. Every other package accepts or looks up a *slog.Logger
// and calls .InfoContext/.WarnContext/.ErrorContext with structured
// key-value pairs; none of them know about zerolog directly.
package log
