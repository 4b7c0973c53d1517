// SPDX-License-Identifier: BSD-3-Clause

package log

import (
	"fmt"
	"log/slog"

	"github.com/nats-io/nats-server/v2/server"
)

// NATSLogger adapts a *slog.Logger to the NATS server's own Logger
// interface, so the embedded bus logs through the same structured
// pipeline as the rest of kilnd.
type NATSLogger struct {
	l *slog.Logger
}

func (l *NATSLogger) Fatalf(format string, v ...interface{}) {
	l.l.With("subsystem", "nats", "nats_level", "fatal").Error(fmt.Sprintf(format, v...))
}

func (l *NATSLogger) Errorf(format string, v ...interface{}) {
	l.l.With("subsystem", "nats", "nats_level", "error").Error(fmt.Sprintf(format, v...))
}

func (l *NATSLogger) Warnf(format string, v ...interface{}) {
	l.l.With("subsystem", "nats", "nats_level", "warn").Warn(fmt.Sprintf(format, v...))
}

func (l *NATSLogger) Noticef(format string, v ...interface{}) {
	l.l.With("subsystem", "nats", "nats_level", "info").Info(fmt.Sprintf(format, v...))
}

func (l *NATSLogger) Debugf(format string, v ...interface{}) {
	l.l.With("subsystem", "nats", "nats_level", "debug").Debug(fmt.Sprintf(format, v...))
}

func (l *NATSLogger) Tracef(format string, v ...interface{}) {
	l.l.With("subsystem", "nats", "nats_level", "trace").Debug(fmt.Sprintf(format, v...))
}

// NewNATSLogger wraps l as a server.Logger for the embedded NATS server.
func NewNATSLogger(l *slog.Logger) server.Logger {
	return &NATSLogger{l: l}
}
