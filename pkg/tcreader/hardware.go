// SPDX-License-Identifier: BSD-3-Clause

package tcreader

import (
	"fmt"
	"sync"
	"time"

	"github.com/kilnctl/kilnctl/pkg/gpio"
	"github.com/kilnctl/kilnctl/pkg/program"
)

const (
	csSettle  = 5 * time.Millisecond
	halfCycle = 1 * time.Millisecond
)

// ChannelPins names the CS and DO offsets for one thermocouple channel;
// CLK is shared across both channels (spec.md §4.3).
type ChannelPins struct {
	CS int
	DO int
}

type channel struct {
	cs gpio.Line
	do gpio.Line
}

// HardwareReader bit-bangs two MAX6675-class channels over a shared CLK
// line, serializing access to CLK with mu since the two channels are not
// independent buses.
type HardwareReader struct {
	mu  sync.Mutex
	clk gpio.Line
	ch1 channel
	ch2 channel
}

// NewHardwareReader requests the CLK, CS1/DO1, and CS2/DO2 lines from
// chip and returns a ready HardwareReader.
func NewHardwareReader(chip gpio.Chip, clkOffset int, ch1, ch2 ChannelPins) (*HardwareReader, error) {
	clk, err := chip.RequestLine(clkOffset, gpio.DirectionOutput, gpio.BiasDisabled)
	if err != nil {
		return nil, fmt.Errorf("tcreader: request clk line %d: %w", clkOffset, err)
	}

	c1, err := newChannel(chip, ch1)
	if err != nil {
		clk.Close()
		return nil, err
	}
	c2, err := newChannel(chip, ch2)
	if err != nil {
		clk.Close()
		c1.cs.Close()
		c1.do.Close()
		return nil, err
	}

	return &HardwareReader{clk: clk, ch1: c1, ch2: c2}, nil
}

func newChannel(chip gpio.Chip, pins ChannelPins) (channel, error) {
	cs, err := chip.RequestLine(pins.CS, gpio.DirectionOutput, gpio.BiasDisabled)
	if err != nil {
		return channel{}, fmt.Errorf("tcreader: request cs line %d: %w", pins.CS, err)
	}
	if err := cs.Write(1); err != nil {
		cs.Close()
		return channel{}, fmt.Errorf("tcreader: idle cs line %d: %w", pins.CS, err)
	}
	do, err := chip.RequestLine(pins.DO, gpio.DirectionInput, gpio.BiasDisabled)
	if err != nil {
		cs.Close()
		return channel{}, fmt.Errorf("tcreader: request do line %d: %w", pins.DO, err)
	}
	return channel{cs: cs, do: do}, nil
}

// ReadAll reads TC1 then TC2, serialized over the shared CLK line.
func (r *HardwareReader) ReadAll() (tc1, tc2 program.Sample) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.readChannel(r.ch1), r.readChannel(r.ch2)
}

func (r *HardwareReader) readChannel(c channel) program.Sample {
	if err := c.cs.Write(0); err != nil {
		return program.SampleFaulted(program.FaultBadFrame)
	}
	time.Sleep(csSettle)

	var raw uint16
	for i := 0; i < 16; i++ {
		if err := r.clk.Write(1); err != nil {
			c.cs.Write(1)
			return program.SampleFaulted(program.FaultBadFrame)
		}
		time.Sleep(halfCycle)

		bit, err := c.do.Read()
		if err != nil {
			c.cs.Write(1)
			r.clk.Write(0)
			return program.SampleFaulted(program.FaultBadFrame)
		}
		raw = raw<<1 | uint16(bit&1)

		if err := r.clk.Write(0); err != nil {
			c.cs.Write(1)
			return program.SampleFaulted(program.FaultBadFrame)
		}
		time.Sleep(halfCycle)
	}

	if err := c.cs.Write(1); err != nil {
		return program.SampleFaulted(program.FaultBadFrame)
	}

	return decodeFrame(raw)
}

// Close releases every GPIO line owned by the reader.
func (r *HardwareReader) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	var firstErr error
	for _, l := range []gpio.Line{r.clk, r.ch1.cs, r.ch1.do, r.ch2.cs, r.ch2.do} {
		if err := l.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
