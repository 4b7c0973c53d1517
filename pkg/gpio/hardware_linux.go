// SPDX-License-Identifier: BSD-3-Clause

//go:build linux

package gpio

import (
	"errors"
	"fmt"
	"sync"

	"github.com/warthog618/go-gpiocdev"
)

// HardwareChip requests lines against a real Linux GPIO character device.
type HardwareChip struct {
	path string

	mu    sync.Mutex
	lines map[int]*hardwareLine
}

func openHardwareChip(chipPath string) (Chip, error) {
	if err := gpiocdev.IsChip(chipPath); err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrHardwareUnavailable, chipPath, err)
	}
	return &HardwareChip{path: chipPath, lines: make(map[int]*hardwareLine)}, nil
}

func (c *HardwareChip) RequestLine(offset int, dir Direction, bias Bias) (Line, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, busy := c.lines[offset]; busy {
		return nil, fmt.Errorf("%w: offset %d", ErrLineBusy, offset)
	}

	opts := []gpiocdev.LineReqOption{gpiocdev.WithConsumer("kilnctl")}
	opts = append(opts, directionOptions(dir, bias)...)

	raw, err := gpiocdev.RequestLine(c.path, offset, opts...)
	if err != nil {
		return nil, mapGpiocdevError(err, fmt.Sprintf("request line %d on %s", offset, c.path))
	}

	l := &hardwareLine{chip: c, offset: offset, raw: raw}
	c.lines[offset] = l
	return l, nil
}

func (c *HardwareChip) Available() bool { return true }

func (c *HardwareChip) Close() error {
	c.mu.Lock()
	lines := make([]*hardwareLine, 0, len(c.lines))
	for _, l := range c.lines {
		lines = append(lines, l)
	}
	c.mu.Unlock()

	var firstErr error
	for _, l := range lines {
		if err := l.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func (c *HardwareChip) release(offset int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.lines, offset)
}

type hardwareLine struct {
	chip   *HardwareChip
	offset int
	raw    *gpiocdev.Line
}

func directionOptions(dir Direction, bias Bias) []gpiocdev.LineReqOption {
	var opts []gpiocdev.LineReqOption
	switch dir {
	case DirectionOutput:
		opts = append(opts, gpiocdev.AsOutput(0))
	default:
		opts = append(opts, gpiocdev.AsInput)
	}
	switch bias {
	case BiasPullUp:
		opts = append(opts, gpiocdev.WithPullUp)
	case BiasPullDown:
		opts = append(opts, gpiocdev.WithPullDown)
	default:
		opts = append(opts, gpiocdev.WithBiasDisabled)
	}
	return opts
}

func (l *hardwareLine) SetDirection(dir Direction) error {
	var opt gpiocdev.LineConfigOption
	if dir == DirectionOutput {
		opt = gpiocdev.AsOutput(0)
	} else {
		opt = gpiocdev.AsInput
	}
	if err := l.raw.Reconfigure(opt); err != nil {
		return mapGpiocdevError(err, "set direction")
	}
	return nil
}

func (l *hardwareLine) SetBias(bias Bias) error {
	var opt gpiocdev.LineConfigOption
	switch bias {
	case BiasPullUp:
		opt = gpiocdev.WithPullUp
	case BiasPullDown:
		opt = gpiocdev.WithPullDown
	default:
		opt = gpiocdev.WithBiasDisabled
	}
	if err := l.raw.Reconfigure(opt); err != nil {
		return mapGpiocdevError(err, "set bias")
	}
	return nil
}

func (l *hardwareLine) Write(value int) error {
	if value != 0 && value != 1 {
		return ErrInvalidValue
	}
	if err := l.raw.SetValue(value); err != nil {
		return mapGpiocdevError(err, "write value")
	}
	return nil
}

func (l *hardwareLine) Read() (int, error) {
	v, err := l.raw.Value()
	if err != nil {
		return 0, mapGpiocdevError(err, "read value")
	}
	return v, nil
}

func (l *hardwareLine) Close() error {
	l.chip.release(l.offset)
	return l.raw.Close()
}

func mapGpiocdevError(err error, details string) error {
	if err == nil {
		return nil
	}
	switch {
	case errors.Is(err, gpiocdev.ErrNotFound):
		return fmt.Errorf("%w: %s", ErrLineNotFound, details)
	case errors.Is(err, gpiocdev.ErrClosed):
		return fmt.Errorf("%w: %s", ErrLineClosed, details)
	default:
		return fmt.Errorf("%w: %s: %w", ErrOperationFailed, details, err)
	}
}
