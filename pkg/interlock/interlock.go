// SPDX-License-Identifier: BSD-3-Clause

package interlock

import (
	"fmt"

	"github.com/kilnctl/kilnctl/pkg/gpio"
)

// debouncer accepts a level change only once the same raw reading has
// been observed on two consecutive samples, per spec.md §4.4.
type debouncer struct {
	line        gpio.Line
	last        int
	initialized bool
	confirmed   bool // active-low: confirmed == true means the input reads 0
}

func newDebouncer(line gpio.Line) *debouncer {
	return &debouncer{line: line}
}

func (d *debouncer) sample() (bool, error) {
	raw, err := d.line.Read()
	if err != nil {
		return d.confirmed, fmt.Errorf("interlock: read line: %w", err)
	}
	if d.initialized && raw == d.last {
		d.confirmed = raw == 0
	}
	d.last = raw
	d.initialized = true
	return d.confirmed, nil
}

// Monitor reads the door and emergency-stop lines each tick and exposes
// their debounced, read-only booleans.
type Monitor struct {
	door      *debouncer
	emergency *debouncer
}

// New requests the door and emergency lines as pulled-up inputs and
// returns a ready Monitor.
func New(chip gpio.Chip, doorOffset, emergencyOffset int) (*Monitor, error) {
	door, err := chip.RequestLine(doorOffset, gpio.DirectionInput, gpio.BiasPullUp)
	if err != nil {
		return nil, fmt.Errorf("interlock: request door line %d: %w", doorOffset, err)
	}
	emergency, err := chip.RequestLine(emergencyOffset, gpio.DirectionInput, gpio.BiasPullUp)
	if err != nil {
		door.Close()
		return nil, fmt.Errorf("interlock: request emergency line %d: %w", emergencyOffset, err)
	}
	return &Monitor{door: newDebouncer(door), emergency: newDebouncer(emergency)}, nil
}

// Sample reads both inputs for this tick, returning (doorOpen, emergency).
// A read error on either line is reported but does not block the other.
func (m *Monitor) Sample() (doorOpen, emergency bool, err error) {
	doorOpen, doorErr := m.door.sample()
	emergency, emergErr := m.emergency.sample()
	if doorErr != nil {
		return doorOpen, emergency, doorErr
	}
	if emergErr != nil {
		return doorOpen, emergency, emergErr
	}
	return doorOpen, emergency, nil
}

// Close releases the door and emergency lines.
func (m *Monitor) Close() error {
	var firstErr error
	if err := m.door.line.Close(); err != nil {
		firstErr = err
	}
	if err := m.emergency.line.Close(); err != nil && firstErr == nil {
		firstErr = err
	}
	return firstErr
}
