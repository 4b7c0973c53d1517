// SPDX-License-Identifier: BSD-3-Clause

package pid

import (
	"math"
	"sync"
	"time"

	"github.com/kilnctl/kilnctl/pkg/program"
)

// MaxHistory bounds the diagnostic sample history per spec.md §4.5.
const MaxHistory = 100

// Config holds the regulator's tunable gains, clamps, and autotune switch.
type Config struct {
	Kp, Ki, Kd float64

	OutputMin, OutputMax     float64
	IntegralMin, IntegralMax float64

	AutotuneEnabled bool
}

// DefaultConfig returns spec.md §4.5's defaults: kp=3.2, ki=0.08, kd=1.5,
// output clamped to [0, 100], integral clamped to [-50, 50],
// autotune disabled (safety-critical deployments should leave it off).
func DefaultConfig() Config {
	return Config{
		Kp: 3.2, Ki: 0.08, Kd: 1.5,
		OutputMin: 0, OutputMax: 100,
		IntegralMin: -50, IntegralMax: 50,
		AutotuneEnabled: false,
	}
}

// Validate checks the config for finiteness and sane limit ordering.
func (c Config) Validate() error {
	for _, g := range []float64{c.Kp, c.Ki, c.Kd} {
		if math.IsNaN(g) || math.IsInf(g, 0) || g < 0 {
			return ErrInvalidGains
		}
	}
	if !(c.OutputMin < c.OutputMax) {
		return ErrInvalidLimits
	}
	if !(c.IntegralMin < c.IntegralMax) {
		return ErrInvalidLimits
	}
	return nil
}

// Sample is one retained diagnostic history entry.
type Sample struct {
	At       time.Time
	Setpoint program.Temperature
	Current  program.Temperature
	Error    float64
	Output   float64
}

// Regulator is the discrete PID controller of spec.md §4.5. All state
// mutation happens through Calculate and Reset; callers provide "now"
// rather than the Regulator reading a clock, so the Controller Loop's
// single pkg/clock.Clock remains the sole time authority (spec.md §3).
type Regulator struct {
	mu sync.Mutex

	cfg Config

	integral  float64
	lastError float64
	lastTick  time.Time

	history []Sample
}

// New constructs a Regulator, validating cfg and priming the reset
// contract (integral/lastError zeroed, lastTick = now).
func New(cfg Config, now time.Time) (*Regulator, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Regulator{cfg: cfg, lastTick: now}, nil
}

// Reset implements spec.md §4.5's reset contract: on program start, stop,
// emergency, or fault, integral and last_error are zeroed and last_tick
// set to now, preventing carry-over kicks between runs.
func (r *Regulator) Reset(now time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.integral = 0
	r.lastError = 0
	r.lastTick = now
}

// Calculate computes the heater duty for setpoint vs current at time now,
// per spec.md §4.5's calculate(setpoint, current) → duty contract.
func (r *Regulator) Calculate(now time.Time, setpoint, current program.Temperature) float64 {
	r.mu.Lock()
	defer r.mu.Unlock()

	dt := now.Sub(r.lastTick).Seconds()
	if dt < 0.001 {
		dt = 0.001
	}

	errVal := float64(setpoint) - float64(current)

	r.integral += errVal * dt
	r.integral = clamp(r.integral, r.cfg.IntegralMin, r.cfg.IntegralMax)

	derivative := (errVal - r.lastError) / dt

	output := r.cfg.Kp*errVal + r.cfg.Ki*r.integral + r.cfg.Kd*derivative
	output = clamp(output, r.cfg.OutputMin, r.cfg.OutputMax)
	output = math.Round(output*10) / 10

	if r.cfg.AutotuneEnabled {
		switch {
		case math.Abs(errVal) > 50:
			r.cfg.Kp = math.Min(r.cfg.Kp*1.01, 5.0)
		case math.Abs(errVal) < 5 && math.Abs(derivative) < 1:
			r.cfg.Kp = math.Max(r.cfg.Kp*0.99, 2.0)
		}
	}

	r.lastError = errVal
	r.lastTick = now

	r.history = append(r.history, Sample{At: now, Setpoint: setpoint, Current: current, Error: errVal, Output: output})
	if len(r.history) > MaxHistory {
		r.history = r.history[len(r.history)-MaxHistory:]
	}

	return output
}

// Tune updates kp/ki/kd live, validating the new gains against the
// existing limits. Used by the TunePID command of spec.md §6.
func (r *Regulator) Tune(kp, ki, kd float64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	next := r.cfg
	next.Kp, next.Ki, next.Kd = kp, ki, kd
	if err := next.Validate(); err != nil {
		return err
	}
	r.cfg = next
	return nil
}

// SetAutotune enables or disables the live proportional autotune.
func (r *Regulator) SetAutotune(enabled bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.cfg.AutotuneEnabled = enabled
}

// State returns a value snapshot of the regulator's gains and internal
// state, suitable for embedding in a program.Snapshot.
func (r *Regulator) State() program.PIDState {
	r.mu.Lock()
	defer r.mu.Unlock()
	return program.PIDState{
		Kp: r.cfg.Kp, Ki: r.cfg.Ki, Kd: r.cfg.Kd,
		Integral:        r.integral,
		LastError:       r.lastError,
		LastTickMs:      r.lastTick.UnixMilli(),
		OutputMin:       r.cfg.OutputMin,
		OutputMax:       r.cfg.OutputMax,
		IntegralMin:     r.cfg.IntegralMin,
		IntegralMax:     r.cfg.IntegralMax,
		AutotuneEnabled: r.cfg.AutotuneEnabled,
	}
}

// History returns a copy of the retained diagnostic samples, oldest first.
func (r *Regulator) History() []Sample {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Sample, len(r.history))
	copy(out, r.history)
	return out
}

func clamp(v, min, max float64) float64 {
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}
