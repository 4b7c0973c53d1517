// SPDX-License-Identifier: BSD-3-Clause

package actuator

import (
	"fmt"

	"github.com/kilnctl/kilnctl/pkg/gpio"
)

// Fan drives the cooling fan. It is never interlock-gated: the fan is a
// cooling safety device and is permitted, and commanded, during
// emergency/fault cooldown per spec.md §4.2.
type Fan struct {
	line gpio.Line
	on   bool
}

// NewFan wraps an already-requested output line.
func NewFan(line gpio.Line) *Fan {
	return &Fan{line: line}
}

// Set turns the fan on or off, unconditionally.
func (f *Fan) Set(on bool) error {
	val := 0
	if on {
		val = 1
	}
	if err := f.line.Write(val); err != nil {
		return fmt.Errorf("actuator: set fan line: %w", err)
	}
	f.on = on
	return nil
}

// On reports the fan's last commanded state.
func (f *Fan) On() bool { return f.on }

// Close releases the underlying line.
func (f *Fan) Close() error { return f.line.Close() }
