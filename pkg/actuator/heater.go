// SPDX-License-Identifier: BSD-3-Clause

package actuator

import (
	"fmt"

	"github.com/kilnctl/kilnctl/pkg/gpio"
)

// DutyOnThreshold is the minimum requested duty that energizes the SSR;
// below it the heater is held off, per spec.md §4.2.
const DutyOnThreshold = 5.0

// Heater drives the solid-state relay. The stored duty, not the pin
// level, is authoritative for display and the executor's safety checks.
type Heater struct {
	line gpio.Line
	duty float64
}

// NewHeater wraps an already-requested output line.
func NewHeater(line gpio.Line) *Heater {
	return &Heater{line: line}
}

// SetDuty applies a requested duty in [0, 100], gated by the dominant
// interlock: if emergency or doorOpen holds, the effective duty is
// forced to 0 regardless of what was requested.
func (h *Heater) SetDuty(duty float64, emergency, doorOpen bool) error {
	if duty < 0 {
		duty = 0
	}
	if duty > 100 {
		duty = 100
	}
	if emergency || doorOpen {
		duty = 0
	}

	on := 0
	if duty >= DutyOnThreshold {
		on = 1
	}
	if err := h.line.Write(on); err != nil {
		return fmt.Errorf("actuator: set heater line: %w", err)
	}
	h.duty = duty
	return nil
}

// Duty returns the last applied (post-gating) duty.
func (h *Heater) Duty() float64 { return h.duty }

// Close releases the underlying line.
func (h *Heater) Close() error { return h.line.Close() }
