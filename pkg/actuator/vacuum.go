// SPDX-License-Identifier: BSD-3-Clause

package actuator

import (
	"fmt"

	"github.com/kilnctl/kilnctl/pkg/clock"
	"github.com/kilnctl/kilnctl/pkg/gpio"
	"github.com/kilnctl/kilnctl/pkg/program"
)

// ApproachRateKPaPerSec is how fast the synthesized current vacuum
// asymptotes toward its target (or toward 0 when disabled). The spec
// leaves the exact rate to the implementer; this value brings a typical
// ~80 kPa target within its last 1 kPa in well under a minute, matching
// the multi-minute ramp phases programs actually budget for it in.
const ApproachRateKPaPerSec = 4.0

// Vacuum drives the pump pin and synthesizes the "current vacuum" value
// the real hardware has no sensor for, per spec.md §4.2.
type Vacuum struct {
	line gpio.Line
	clk  clock.Clock

	enabled bool
	target  float64
	current float64
	lastAt  int64 // ms, clock.Clock.NowMs at last Tick
}

// NewVacuum wraps an already-requested output line.
func NewVacuum(line gpio.Line, clk clock.Clock) *Vacuum {
	return &Vacuum{line: line, clk: clk, lastAt: clk.NowMs()}
}

// Enable requests vacuum at targetKPa, gated by the dominant interlock:
// emergency or doorOpen forces the pump pin off regardless of request.
func (v *Vacuum) Enable(targetKPa float64, emergency, doorOpen bool) error {
	if emergency || doorOpen {
		return v.setPin(false)
	}
	v.target = targetKPa
	return v.setPin(true)
}

// Disable turns the pump off; current decays toward 0 on subsequent Ticks.
func (v *Vacuum) Disable() error {
	v.target = 0
	return v.setPin(false)
}

func (v *Vacuum) setPin(on bool) error {
	val := 0
	if on {
		val = 1
	}
	if err := v.line.Write(val); err != nil {
		return fmt.Errorf("actuator: set vacuum line: %w", err)
	}
	v.enabled = on
	return nil
}

// Tick advances the synthesized current-vacuum value toward its target
// (enabled) or toward 0 (disabled) at ApproachRateKPaPerSec, and returns
// the resulting VacuumState for the Snapshot.
func (v *Vacuum) Tick() program.VacuumState {
	now := v.clk.NowMs()
	dtSec := float64(now-v.lastAt) / 1000
	if dtSec < 0 {
		dtSec = 0
	}
	v.lastAt = now

	goal := 0.0
	if v.enabled {
		goal = v.target
	}
	step := ApproachRateKPaPerSec * dtSec
	if v.current < goal {
		v.current += step
		if v.current > goal {
			v.current = goal
		}
	} else if v.current > goal {
		v.current -= step
		if v.current < goal {
			v.current = goal
		}
	}

	return program.VacuumState{On: v.enabled, SetPoint: v.current}
}

// Close releases the underlying line.
func (v *Vacuum) Close() error { return v.line.Close() }
