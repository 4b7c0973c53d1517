// SPDX-License-Identifier: BSD-3-Clause

// Package config holds the furnace's pin assignment, tick period, and
// storage paths as a functional-options config struct, the same shape the
// teacher uses for every service/*/config.go.
package config

import (
	"fmt"
	"time"
)

// Default values, per spec.md §6 ("default, Raspberry-Pi-style BCM numbering").
const (
	DefaultGPIOChip = "/dev/gpiochip0"

	DefaultHeaterPin = 17
	DefaultTC1CSPin  = 8
	DefaultTC1CLKPin = 11
	DefaultTC1DOPin  = 9
	DefaultTC2CSPin  = 7
	DefaultTC2DOPin  = 10 // TC2 shares TC1's CLK line
	DefaultVacuumPin = 27
	DefaultFanPin    = 22
	DefaultDoorPin   = 18
	DefaultEmergPin  = 25

	DefaultTickPeriod  = 500 * time.Millisecond
	MinTickPeriod      = 100 * time.Millisecond
	MaxTickPeriod      = 2 * time.Second
	DefaultCatalogPath = "/var/lib/kilnd/catalog.json"
	DefaultHTTPAddr    = ":8080"
	DefaultServiceName = "kilnd"
)

// Config is the furnace controller's pin map and runtime parameters.
type Config struct {
	GPIOChip string

	HeaterPin int
	TC1CSPin  int
	TC1CLKPin int
	TC1DOPin  int
	TC2CSPin  int
	TC2DOPin  int
	VacuumPin int
	FanPin    int
	DoorPin   int
	EmergPin  int

	TickPeriod  time.Duration
	CatalogPath string
	HTTPAddr    string
	ServiceName string

	// Simulate forces the simulated GPIO/thermocouple backend even when
	// the hardware chip is present, for bench testing away from a kiln.
	Simulate bool
}

// New builds a Config from the defaults plus opts.
func New(opts ...Option) *Config {
	c := &Config{
		GPIOChip:    DefaultGPIOChip,
		HeaterPin:   DefaultHeaterPin,
		TC1CSPin:    DefaultTC1CSPin,
		TC1CLKPin:   DefaultTC1CLKPin,
		TC1DOPin:    DefaultTC1DOPin,
		TC2CSPin:    DefaultTC2CSPin,
		TC2DOPin:    DefaultTC2DOPin,
		VacuumPin:   DefaultVacuumPin,
		FanPin:      DefaultFanPin,
		DoorPin:     DefaultDoorPin,
		EmergPin:    DefaultEmergPin,
		TickPeriod:  DefaultTickPeriod,
		CatalogPath: DefaultCatalogPath,
		HTTPAddr:    DefaultHTTPAddr,
		ServiceName: DefaultServiceName,
	}
	for _, opt := range opts {
		opt.apply(c)
	}
	return c
}

// Validate checks the tick period bound spec.md §6 requires; pin
// collisions are the operator's responsibility since some platforms
// legitimately share a CLK line across channels (TC1/TC2 do, by default).
func (c *Config) Validate() error {
	if c.TickPeriod < MinTickPeriod || c.TickPeriod > MaxTickPeriod {
		return fmt.Errorf("%w: tick_period=%v must be within [%v, %v]", ErrInvalidTickPeriod, c.TickPeriod, MinTickPeriod, MaxTickPeriod)
	}
	if c.CatalogPath == "" {
		return ErrInvalidCatalogPath
	}
	return nil
}

// Option configures a Config.
type Option interface {
	apply(*Config)
}

type optionFunc func(*Config)

func (f optionFunc) apply(c *Config) { f(c) }

// WithGPIOChip overrides the GPIO character device path.
func WithGPIOChip(path string) Option {
	return optionFunc(func(c *Config) { c.GPIOChip = path })
}

// WithHeaterPin overrides the heater SSR GPIO line.
func WithHeaterPin(line int) Option {
	return optionFunc(func(c *Config) { c.HeaterPin = line })
}

// WithTC1Pins overrides TC1's CS/CLK/DO lines.
func WithTC1Pins(cs, clk, do int) Option {
	return optionFunc(func(c *Config) { c.TC1CSPin, c.TC1CLKPin, c.TC1DOPin = cs, clk, do })
}

// WithTC2Pins overrides TC2's CS/DO lines (CLK is shared with TC1).
func WithTC2Pins(cs, do int) Option {
	return optionFunc(func(c *Config) { c.TC2CSPin, c.TC2DOPin = cs, do })
}

// WithVacuumPin overrides the vacuum pump relay GPIO line.
func WithVacuumPin(line int) Option {
	return optionFunc(func(c *Config) { c.VacuumPin = line })
}

// WithFanPin overrides the cooling fan GPIO line.
func WithFanPin(line int) Option {
	return optionFunc(func(c *Config) { c.FanPin = line })
}

// WithInterlockPins overrides the door and emergency-stop input lines.
func WithInterlockPins(door, emergency int) Option {
	return optionFunc(func(c *Config) { c.DoorPin, c.EmergPin = door, emergency })
}

// WithTickPeriod overrides the controller loop period.
func WithTickPeriod(d time.Duration) Option {
	return optionFunc(func(c *Config) { c.TickPeriod = d })
}

// WithCatalogPath overrides the program catalog's persisted JSON document path.
func WithCatalogPath(path string) Option {
	return optionFunc(func(c *Config) { c.CatalogPath = path })
}

// WithHTTPAddr overrides the HTTP adapter's listen address.
func WithHTTPAddr(addr string) Option {
	return optionFunc(func(c *Config) { c.HTTPAddr = addr })
}

// WithSimulate forces the simulated GPIO/thermocouple backend.
func WithSimulate(simulate bool) Option {
	return optionFunc(func(c *Config) { c.Simulate = simulate })
}
