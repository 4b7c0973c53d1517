// SPDX-License-Identifier: BSD-3-Clause

package program

import "time"

// MaxErrorLog bounds the Snapshot error log per spec.md §7 ("last 64
// entries"): oldest entries are dropped once the log reaches this length.
const MaxErrorLog = 64

// ErrorLogEntry is one entry in a Snapshot's bounded error log.
type ErrorLogEntry struct {
	At     time.Time
	Kind   ErrorKind
	Detail string
}

// VacuumState mirrors the vacuum actuator of spec.md §4.2: whether the
// pump is on, and the synthesized current vacuum level, which moves toward
// the target while on and back toward 0 after the pump is switched off.
type VacuumState struct {
	On       bool
	SetPoint float64 // kPa, current synthesized level (non-zero while decaying after Off)
}

// PIDState is the Regulator's published tuning and internal state, per
// spec.md §4.5 and §3. It is a value snapshot, not the live Regulator —
// pkg/pid.Regulator holds the mutable original.
type PIDState struct {
	Kp, Ki, Kd float64

	Integral   float64
	LastError  float64
	LastTickMs int64

	OutputMin, OutputMax     float64
	IntegralMin, IntegralMax float64

	AutotuneEnabled bool
}

// Snapshot is the full controller state published on every tick, per
// spec.md §3 and §7.
type Snapshot struct {
	RunState RunState

	ProgramID  int
	StepIdx    int
	TotalSteps int
	ElapsedS   float64

	TC1 Sample
	TC2 Sample

	CurrentTemp Temperature
	TargetTemp  Temperature
	HeaterDuty  float64 // 0..100

	Vacuum    VacuumState
	FanOn     bool
	DoorOpen  bool
	Emergency bool

	PID PIDState

	Errors []ErrorLogEntry

	TickTimeMs int64
}

// AppendError appends an entry to s.Errors, dropping the oldest entry
// once the log reaches MaxErrorLog per spec.md §7.
func (s *Snapshot) AppendError(entry ErrorLogEntry) {
	s.Errors = append(s.Errors, entry)
	if len(s.Errors) > MaxErrorLog {
		s.Errors = s.Errors[len(s.Errors)-MaxErrorLog:]
	}
}
