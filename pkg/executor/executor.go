// SPDX-License-Identifier: BSD-3-Clause

package executor

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/qmuntal/stateless"

	"github.com/kilnctl/kilnctl/pkg/clock"
	"github.com/kilnctl/kilnctl/pkg/program"
)

const (
	stateIdle     = "idle"
	stateRunning  = "running"
	statePaused   = "paused"
	stateCooldown = "cooldown"
	stateFault    = "fault"
)

const (
	triggerStart        = "start"
	triggerDoorOpen     = "door_open"
	triggerResume       = "resume"
	triggerEmergency    = "emergency"
	triggerStepAdvance  = "step_advance"
	triggerStepsDone    = "steps_done"
	triggerCooldownDone = "cooldown_done"
	triggerStop         = "stop"
	triggerPause        = "pause"
)

// CooldownDuration is how long Cooldown holds before auto-returning to
// Idle, per spec.md §4.6 ("5 min elapsed").
const CooldownDuration = 5 * time.Minute

// Actions collects the one-shot side effects a transition produced;
// the Controller Loop applies them once, immediately after the call
// that returned them. Continuous per-tick actuation (heater/vacuum held
// at zero whenever RunState isn't Running) is not modeled here — it
// falls out of the Controller reading RunState.Kind every tick.
type Actions struct {
	ResetPID bool
	SetFan   *bool // nil: no change requested
}

func (a *Actions) merge(other Actions) {
	if other.ResetPID {
		a.ResetPID = true
	}
	if other.SetFan != nil {
		a.SetFan = other.SetFan
	}
}

func boolPtr(b bool) *bool { return &b }

// Executor is the Program Executor of spec.md §4.6, backed by a
// qmuntal/stateless state machine whose named states mirror RunKind.
type Executor struct {
	mu  sync.Mutex
	sm  *stateless.StateMachine
	clk clock.Clock

	run     program.RunState
	prog    program.Program // borrowed; the executor never mutates it
	pending Actions
}

// New constructs an Executor starting Idle.
func New(clk clock.Clock) *Executor {
	e := &Executor{clk: clk, run: program.Idle()}
	e.sm = stateless.NewStateMachine(stateIdle)
	e.configure()
	return e
}

func (e *Executor) configure() {
	sm := e.sm

	sm.Configure(stateIdle).
		Permit(triggerStart, stateRunning).
		PermitReentry(triggerStop).
		Permit(triggerEmergency, stateFault)

	sm.Configure(stateRunning).
		Permit(triggerDoorOpen, statePaused).
		Permit(triggerPause, statePaused).
		Permit(triggerEmergency, stateFault).
		Permit(triggerStop, stateCooldown).
		PermitReentry(triggerStepAdvance).
		Permit(triggerStepsDone, stateCooldown).
		OnEntryFrom(triggerStart, func(_ context.Context, args ...any) error {
			e.pending.ResetPID = true
			e.run = program.Running(0, args[0].(time.Time))
			return nil
		}).
		OnEntryFrom(triggerResume, func(_ context.Context, args ...any) error {
			e.run = program.Running(e.run.StepIdx, args[0].(time.Time))
			return nil
		}).
		OnEntryFrom(triggerPause, func(_ context.Context, args ...any) error {
			e.run = program.Running(e.run.StepIdx, args[0].(time.Time))
			return nil
		}).
		OnEntryFrom(triggerStepAdvance, func(_ context.Context, args ...any) error {
			e.run = program.Running(e.run.StepIdx+1, args[0].(time.Time))
			return nil
		})

	sm.Configure(statePaused).
		Permit(triggerResume, stateRunning).
		Permit(triggerPause, stateRunning).
		Permit(triggerEmergency, stateFault).
		Permit(triggerStop, stateCooldown).
		OnEntryFrom(triggerDoorOpen, func(_ context.Context, args ...any) error {
			e.run = program.Paused(e.run.StepIdx, args[0].(time.Duration))
			return nil
		}).
		OnEntryFrom(triggerPause, func(_ context.Context, args ...any) error {
			e.run = program.Paused(e.run.StepIdx, args[0].(time.Duration))
			return nil
		})

	sm.Configure(stateCooldown).
		Permit(triggerCooldownDone, stateIdle).
		Permit(triggerStop, stateIdle).
		Permit(triggerEmergency, stateFault).
		OnEntryFrom(triggerStop, func(_ context.Context, args ...any) error {
			e.pending.ResetPID = true
			e.run = program.Cooldown(args[0].(time.Time))
			e.pending.SetFan = boolPtr(true)
			return nil
		}).
		OnEntryFrom(triggerStepsDone, func(_ context.Context, args ...any) error {
			e.run = program.Cooldown(args[0].(time.Time))
			e.pending.SetFan = boolPtr(true)
			return nil
		})

	sm.Configure(stateFault).
		Permit(triggerStop, stateIdle).
		PermitReentry(triggerEmergency).
		OnEntryFrom(triggerEmergency, func(_ context.Context, args ...any) error {
			e.pending.ResetPID = true
			kind := program.ErrorEmergency
			if len(args) > 0 {
				if k, ok := args[0].(program.ErrorKind); ok {
					kind = k
				}
			}
			e.run = program.Fault(kind)
			e.pending.SetFan = boolPtr(true)
			return nil
		})

	sm.Configure(stateIdle).
		OnEntryFrom(triggerStop, func(context.Context, ...any) error {
			e.run = program.Idle()
			e.pending.SetFan = boolPtr(false)
			return nil
		}).
		OnEntryFrom(triggerCooldownDone, func(context.Context, ...any) error {
			e.run = program.Idle()
			e.pending.SetFan = boolPtr(false)
			return nil
		})
}

func (e *Executor) fire(trigger string, args ...any) (Actions, error) {
	e.pending = Actions{}
	if err := e.sm.FireCtx(context.Background(), trigger, args...); err != nil {
		return Actions{}, fmt.Errorf("executor: fire %s from %v: %w", trigger, e.run.Kind, err)
	}
	return e.pending, nil
}

// RunState returns a copy of the current run state.
func (e *Executor) RunState() program.RunState {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.run
}

// ActiveProgram returns the program borrowed by the active (or last) run.
func (e *Executor) ActiveProgram() program.Program {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.prog
}

// Start transitions Idle -> Running(0, now), rejecting with
// ErrInterlockActive if emergency or doorOpen holds.
func (e *Executor) Start(now time.Time, prog program.Program, emergency, doorOpen bool) (Actions, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.run.Kind != program.RunIdle {
		return Actions{}, fmt.Errorf("executor: start rejected: %w", ErrNotRunning)
	}
	if emergency || doorOpen {
		return Actions{}, fmt.Errorf("executor: start rejected: %w", ErrInterlockActive)
	}
	if len(prog.Steps) == 0 {
		return Actions{}, fmt.Errorf("executor: start rejected: %w", ErrNoActiveProgram)
	}

	e.prog = prog
	return e.fire(triggerStart, now)
}

// NoteDoorOpen applies the Running -> Paused transition when the door
// rises. No-op outside Running.
func (e *Executor) NoteDoorOpen(now time.Time, elapsedInStep time.Duration) (Actions, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.run.Kind != program.RunRunning {
		return Actions{}, nil
	}
	return e.fire(triggerDoorOpen, elapsedInStep)
}

// NoteEmergency applies the dominant Fault(Emergency) transition from
// Running or Paused (automatic interlock escalation), or is a no-op
// from Idle/Cooldown/Fault.
func (e *Executor) NoteEmergency(now time.Time) (Actions, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.run.Kind != program.RunRunning && e.run.Kind != program.RunPaused {
		return Actions{}, nil
	}
	return e.fire(triggerEmergency, program.ErrorEmergency)
}

// EmergencyStop applies the Fault(Emergency) transition from any state,
// per spec.md §4.6's "any | emergency_stop command | Fault(Emergency)".
func (e *Executor) EmergencyStop(now time.Time) (Actions, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.fire(triggerEmergency, program.ErrorEmergency)
}

// NoteSensorLost applies the dominant Fault(SensorLost) transition from
// any state, per spec.md §4.3's "three consecutive ticks without any
// valid sample" escalation. It reuses the emergency trigger's transition
// table since both represent an unconditional escalation to Fault.
func (e *Executor) NoteSensorLost(now time.Time) (Actions, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.fire(triggerEmergency, program.ErrorSensorLost)
}

// Resume applies Paused -> Running(step_idx, now-elapsed_in_step) once
// the door is closed; rejects with ErrInterlockActive while doorOpen
// still holds, since closing the door alone does not auto-resume.
func (e *Executor) Resume(now time.Time, doorOpen bool) (Actions, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.run.Kind != program.RunPaused {
		return Actions{}, fmt.Errorf("executor: resume rejected: %w", ErrNotRunning)
	}
	if doorOpen {
		return Actions{}, fmt.Errorf("executor: resume rejected: %w", ErrInterlockActive)
	}
	adjusted := now.Add(-e.run.ElapsedInStep)
	return e.fire(triggerResume, adjusted)
}

// Pause toggles Running<->Paused on an explicit operator command (the
// POST pause endpoint of spec.md §6), distinct from the automatic
// door-triggered pause.
func (e *Executor) Pause(now time.Time, elapsedInStep time.Duration, doorOpen bool) (Actions, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	switch e.run.Kind {
	case program.RunRunning:
		return e.fire(triggerPause, elapsedInStep)
	case program.RunPaused:
		if doorOpen {
			return Actions{}, fmt.Errorf("executor: resume rejected: %w", ErrInterlockActive)
		}
		adjusted := now.Add(-e.run.ElapsedInStep)
		return e.fire(triggerPause, adjusted)
	default:
		return Actions{}, fmt.Errorf("executor: pause rejected: %w", ErrNotRunning)
	}
}

// Stop applies the "any -> stop" row: Running/Paused go to Cooldown;
// Fault and Cooldown go directly to Idle (no heat to cool from); Idle
// is a no-op.
func (e *Executor) Stop(now time.Time) (Actions, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.fire(triggerStop, now)
}

// StepCheck advances to the next step, or to Cooldown if the completed
// step was the last, once stepElapsed >= the active step's total
// duration. No-op outside Running or before the step completes.
func (e *Executor) StepCheck(now time.Time, stepElapsed time.Duration) (Actions, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.run.Kind != program.RunRunning {
		return Actions{}, nil
	}
	step := e.prog.Steps[e.run.StepIdx]
	if stepElapsed < step.TotalDuration() {
		return Actions{}, nil
	}
	if e.run.StepIdx < len(e.prog.Steps)-1 {
		return e.fire(triggerStepAdvance, now)
	}
	return e.fire(triggerStepsDone, now)
}

// CooldownCheck returns Idle once CooldownDuration has elapsed.
func (e *Executor) CooldownCheck(now time.Time) (Actions, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.run.Kind != program.RunCooldown {
		return Actions{}, nil
	}
	if now.Sub(e.run.CooldownStartedAt) < CooldownDuration {
		return Actions{}, nil
	}
	return e.fire(triggerCooldownDone, now)
}

// TargetTemp returns the active step's target temperature. Only
// meaningful while Running or Paused.
func (e *Executor) TargetTemp() program.Temperature {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.run.StepIdx < 0 || e.run.StepIdx >= len(e.prog.Steps) {
		return 0
	}
	return e.prog.Steps[e.run.StepIdx].TargetTemp
}

// TotalSteps returns the active program's step count.
func (e *Executor) TotalSteps() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.prog.Steps)
}
