// SPDX-License-Identifier: BSD-3-Clause

package tcreader

import (
	"math/rand"
	"sync"
	"time"

	"github.com/kilnctl/kilnctl/pkg/clock"
	"github.com/kilnctl/kilnctl/pkg/program"
)

// AmbientTemp is the temperature the simulation decays toward when the
// kiln is not running, per spec.md §4.3.
const AmbientTemp program.Temperature = 20

const (
	maxRiseRatePerSec = 0.5 // °C/s at 100% heater duty
	decayRatePerSec   = 0.1 // °C/s toward AmbientTemp
	noiseAmplitude    = 1.0 // ± °C
)

// SimState is the subset of controller state the simulation needs: is a
// program running, and at what target and heater duty.
type SimState struct {
	Running    bool
	TargetTemp program.Temperature
	HeaterDuty float64
}

// StateFunc supplies the current SimState on each read.
type StateFunc func() SimState

// SimulatedReader synthesizes both channels identically per spec.md
// §4.3: while Running and target > current, current rises at up to
// 0.5°C/s × (heater_duty/100) plus ±1°C noise, clamped to target;
// otherwise it decays at 0.1°C/s toward 20°C.
type SimulatedReader struct {
	mu      sync.Mutex
	clk     clock.Clock
	state   StateFunc
	rng     *rand.Rand
	current program.Temperature
	lastAt  time.Time
}

// NewSimulatedReader starts the simulation at startTemp.
func NewSimulatedReader(clk clock.Clock, state StateFunc, startTemp program.Temperature) *SimulatedReader {
	return &SimulatedReader{
		clk:     clk,
		state:   state,
		rng:     rand.New(rand.NewSource(1)),
		current: startTemp,
		lastAt:  clk.Now(),
	}
}

func (r *SimulatedReader) ReadAll() (tc1, tc2 program.Sample) {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.clk.Now()
	dt := now.Sub(r.lastAt).Seconds()
	if dt < 0 {
		dt = 0
	}
	r.lastAt = now

	st := r.state()
	noise := program.Temperature((r.rng.Float64()*2 - 1) * noiseAmplitude)

	if st.Running && st.TargetTemp > r.current {
		rise := program.Temperature(maxRiseRatePerSec * (st.HeaterDuty / 100) * dt)
		r.current += rise + noise
		if r.current > st.TargetTemp {
			r.current = st.TargetTemp
		}
	} else {
		decay := program.Temperature(decayRatePerSec * dt)
		if r.current > AmbientTemp {
			r.current -= decay
			if r.current < AmbientTemp {
				r.current = AmbientTemp
			}
		} else if r.current < AmbientTemp {
			r.current += decay
			if r.current > AmbientTemp {
				r.current = AmbientTemp
			}
		}
	}

	sample := program.SampleOK(r.current.Round())
	return sample, sample
}
