package executor_test

import (
	"errors"
	"testing"
	"time"

	"github.com/kilnctl/kilnctl/pkg/clock"
	"github.com/kilnctl/kilnctl/pkg/executor"
	"github.com/kilnctl/kilnctl/pkg/program"
)

func testProgram() program.Program {
	return program.Program{
		ID:   1,
		Name: "Test",
		Steps: []program.Step{
			{TargetTemp: 600, RampMin: 1, DurationMin: 0, HoldMin: 0},
			{TargetTemp: 800, RampMin: 1, DurationMin: 0, HoldMin: 0},
		},
	}
}

// TestStepTotalDurationConversion pins spec.md §4.6's
// total_duration = (ramp+duration+hold)×60s conversion to a literal
// value, independent of the progression tests below that drive the
// clock by TotalDuration() itself and would not notice a dropped ×60.
func TestStepTotalDurationConversion(t *testing.T) {
	step := program.Step{RampMin: 25, DurationMin: 0, HoldMin: 5}
	if got, want := step.TotalDuration(), 1800*time.Second; got != want {
		t.Fatalf("TotalDuration() = %v, want %v", got, want)
	}
}

func TestStartRejectsWhenInterlockActive(t *testing.T) {
	clk := clock.NewSimulated(time.Unix(0, 0))
	e := executor.New(clk)
	if _, err := e.Start(clk.Now(), testProgram(), true, false); !errors.Is(err, executor.ErrInterlockActive) {
		t.Fatalf("Start with emergency held: err = %v, want ErrInterlockActive", err)
	}
	if _, err := e.Start(clk.Now(), testProgram(), false, true); !errors.Is(err, executor.ErrInterlockActive) {
		t.Fatalf("Start with door open: err = %v, want ErrInterlockActive", err)
	}
	if e.RunState().Kind != program.RunIdle {
		t.Fatalf("RunState.Kind = %v, want RunIdle", e.RunState().Kind)
	}
}

func TestStartRejectsEmptyProgram(t *testing.T) {
	clk := clock.NewSimulated(time.Unix(0, 0))
	e := executor.New(clk)
	if _, err := e.Start(clk.Now(), program.Program{}, false, false); !errors.Is(err, executor.ErrNoActiveProgram) {
		t.Fatalf("Start with empty program: err = %v, want ErrNoActiveProgram", err)
	}
}

func TestStartEntersRunningAndResetsPID(t *testing.T) {
	clk := clock.NewSimulated(time.Unix(0, 0))
	e := executor.New(clk)
	actions, err := e.Start(clk.Now(), testProgram(), false, false)
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	if !actions.ResetPID {
		t.Fatal("Start actions.ResetPID = false, want true")
	}
	run := e.RunState()
	if run.Kind != program.RunRunning || run.StepIdx != 0 {
		t.Fatalf("RunState = %+v, want Running step 0", run)
	}
}

func TestDoorOpenPausesRunningOnly(t *testing.T) {
	clk := clock.NewSimulated(time.Unix(0, 0))
	e := executor.New(clk)
	if _, err := e.NoteDoorOpen(clk.Now(), time.Minute); err != nil {
		t.Fatalf("NoteDoorOpen from Idle: %v", err)
	}
	if e.RunState().Kind != program.RunIdle {
		t.Fatalf("door_open from Idle must be a no-op, got %v", e.RunState().Kind)
	}

	if _, err := e.Start(clk.Now(), testProgram(), false, false); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if _, err := e.NoteDoorOpen(clk.Now(), 30*time.Second); err != nil {
		t.Fatalf("NoteDoorOpen: %v", err)
	}
	run := e.RunState()
	if run.Kind != program.RunPaused {
		t.Fatalf("RunState.Kind = %v, want RunPaused", run.Kind)
	}
	if run.ElapsedInStep != 30*time.Second {
		t.Fatalf("ElapsedInStep = %v, want 30s", run.ElapsedInStep)
	}
}

func TestResumeRejectedWhileDoorOpen(t *testing.T) {
	clk := clock.NewSimulated(time.Unix(0, 0))
	e := executor.New(clk)
	if _, err := e.Start(clk.Now(), testProgram(), false, false); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if _, err := e.NoteDoorOpen(clk.Now(), 0); err != nil {
		t.Fatalf("NoteDoorOpen: %v", err)
	}
	if _, err := e.Resume(clk.Now(), true); !errors.Is(err, executor.ErrInterlockActive) {
		t.Fatalf("Resume with door still open: err = %v, want ErrInterlockActive", err)
	}
	if e.RunState().Kind != program.RunPaused {
		t.Fatal("rejected Resume must not change state")
	}
}

func TestResumeReturnsToRunningWithDoorClosed(t *testing.T) {
	clk := clock.NewSimulated(time.Unix(0, 0))
	e := executor.New(clk)
	if _, err := e.Start(clk.Now(), testProgram(), false, false); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if _, err := e.NoteDoorOpen(clk.Now(), 10*time.Second); err != nil {
		t.Fatalf("NoteDoorOpen: %v", err)
	}
	clk.Advance(time.Minute)
	if _, err := e.Resume(clk.Now(), false); err != nil {
		t.Fatalf("Resume: %v", err)
	}
	run := e.RunState()
	if run.Kind != program.RunRunning || run.StepIdx != 0 {
		t.Fatalf("RunState = %+v, want Running step 0", run)
	}
}

func TestEmergencyFromRunningAndPausedGoesToFault(t *testing.T) {
	clk := clock.NewSimulated(time.Unix(0, 0))
	e := executor.New(clk)
	if _, err := e.Start(clk.Now(), testProgram(), false, false); err != nil {
		t.Fatalf("Start: %v", err)
	}
	actions, err := e.NoteEmergency(clk.Now())
	if err != nil {
		t.Fatalf("NoteEmergency: %v", err)
	}
	if !actions.ResetPID || actions.SetFan == nil || !*actions.SetFan {
		t.Fatalf("NoteEmergency actions = %+v, want ResetPID=true, SetFan=true", actions)
	}
	run := e.RunState()
	if run.Kind != program.RunFault || run.FaultKind != program.ErrorEmergency {
		t.Fatalf("RunState = %+v, want Fault(ErrorEmergency)", run)
	}
}

func TestEmergencyIsNoOpFromIdle(t *testing.T) {
	clk := clock.NewSimulated(time.Unix(0, 0))
	e := executor.New(clk)
	if _, err := e.NoteEmergency(clk.Now()); err != nil {
		t.Fatalf("NoteEmergency from Idle: %v", err)
	}
	if e.RunState().Kind != program.RunIdle {
		t.Fatalf("NoteEmergency from Idle must be a no-op, got %v", e.RunState().Kind)
	}
}

func TestEmergencyStopWorksFromAnyState(t *testing.T) {
	clk := clock.NewSimulated(time.Unix(0, 0))
	e := executor.New(clk)
	if _, err := e.EmergencyStop(clk.Now()); err != nil {
		t.Fatalf("EmergencyStop from Idle: %v", err)
	}
	if e.RunState().Kind != program.RunFault {
		t.Fatalf("RunState.Kind = %v, want RunFault", e.RunState().Kind)
	}
	// Fault -> Fault reentry must also succeed (dominant fault absorbs).
	if _, err := e.EmergencyStop(clk.Now()); err != nil {
		t.Fatalf("EmergencyStop from Fault: %v", err)
	}
}

func TestFaultAbsorbsUntilStopReturnsToIdle(t *testing.T) {
	clk := clock.NewSimulated(time.Unix(0, 0))
	e := executor.New(clk)
	if _, err := e.Start(clk.Now(), testProgram(), false, false); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if _, err := e.NoteEmergency(clk.Now()); err != nil {
		t.Fatalf("NoteEmergency: %v", err)
	}

	// While in Fault, Start must be rejected: no heater/vacuum actuation
	// can resume without an explicit Stop returning to Idle first.
	if _, err := e.Start(clk.Now(), testProgram(), false, false); err == nil {
		t.Fatal("Start while Fault must be rejected")
	}
	if e.RunState().Kind != program.RunFault {
		t.Fatal("rejected Start must not leave Fault")
	}

	actions, err := e.Stop(clk.Now())
	if err != nil {
		t.Fatalf("Stop: %v", err)
	}
	if actions.SetFan == nil || *actions.SetFan {
		t.Fatalf("Stop-from-Fault actions = %+v, want SetFan=false", actions)
	}
	if e.RunState().Kind != program.RunIdle {
		t.Fatalf("RunState.Kind after Stop = %v, want RunIdle", e.RunState().Kind)
	}
}

func TestStepCheckAdvancesThenReachesCooldown(t *testing.T) {
	clk := clock.NewSimulated(time.Unix(0, 0))
	e := executor.New(clk)
	prog := testProgram()
	if _, err := e.Start(clk.Now(), prog, false, false); err != nil {
		t.Fatalf("Start: %v", err)
	}

	step0 := prog.Steps[0].TotalDuration()
	if _, err := e.StepCheck(clk.Now(), step0-time.Second); err != nil {
		t.Fatalf("StepCheck before step complete: %v", err)
	}
	if e.RunState().StepIdx != 0 {
		t.Fatal("StepCheck fired early must not advance")
	}

	if _, err := e.StepCheck(clk.Now(), step0); err != nil {
		t.Fatalf("StepCheck at step boundary: %v", err)
	}
	run := e.RunState()
	if run.Kind != program.RunRunning || run.StepIdx != 1 {
		t.Fatalf("RunState = %+v, want Running step 1", run)
	}

	step1 := prog.Steps[1].TotalDuration()
	actions, err := e.StepCheck(clk.Now(), step1)
	if err != nil {
		t.Fatalf("StepCheck at final step boundary: %v", err)
	}
	if actions.SetFan == nil || !*actions.SetFan {
		t.Fatalf("steps_done actions = %+v, want SetFan=true", actions)
	}
	if e.RunState().Kind != program.RunCooldown {
		t.Fatalf("RunState.Kind = %v, want RunCooldown", e.RunState().Kind)
	}
}

func TestProgramReachesCooldownAfterTotalDurationNotBefore(t *testing.T) {
	clk := clock.NewSimulated(time.Unix(0, 0))
	e := executor.New(clk)
	prog := testProgram()
	if _, err := e.Start(clk.Now(), prog, false, false); err != nil {
		t.Fatalf("Start: %v", err)
	}

	elapsed := time.Duration(0)
	for i, step := range prog.Steps {
		stepDur := step.TotalDuration()
		if _, err := e.StepCheck(clk.Now(), stepDur-time.Second); err != nil {
			t.Fatalf("StepCheck step %d early: %v", i, err)
		}
		if e.RunState().Kind != program.RunRunning {
			t.Fatalf("program ended before total duration elapsed (step %d)", i)
		}
		if _, err := e.StepCheck(clk.Now(), stepDur); err != nil {
			t.Fatalf("StepCheck step %d boundary: %v", i, err)
		}
		elapsed += stepDur
	}
	if e.RunState().Kind != program.RunCooldown {
		t.Fatalf("RunState.Kind = %v, want RunCooldown after total duration %v elapsed", e.RunState().Kind, elapsed)
	}
}

func TestCooldownReturnsToIdleAfterCooldownDuration(t *testing.T) {
	clk := clock.NewSimulated(time.Unix(0, 0))
	e := executor.New(clk)
	if _, err := e.Start(clk.Now(), testProgram(), false, false); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if _, err := e.Stop(clk.Now()); err != nil {
		t.Fatalf("Stop: %v", err)
	}
	if e.RunState().Kind != program.RunCooldown {
		t.Fatalf("RunState.Kind = %v, want RunCooldown", e.RunState().Kind)
	}

	clk.Advance(executor.CooldownDuration - time.Second)
	if _, err := e.CooldownCheck(clk.Now()); err != nil {
		t.Fatalf("CooldownCheck before duration elapsed: %v", err)
	}
	if e.RunState().Kind != program.RunCooldown {
		t.Fatal("CooldownCheck fired early must not advance to Idle")
	}

	clk.Advance(time.Second)
	if _, err := e.CooldownCheck(clk.Now()); err != nil {
		t.Fatalf("CooldownCheck at duration boundary: %v", err)
	}
	if e.RunState().Kind != program.RunIdle {
		t.Fatalf("RunState.Kind = %v, want RunIdle", e.RunState().Kind)
	}
}

func TestStopFromIdleIsNoOp(t *testing.T) {
	clk := clock.NewSimulated(time.Unix(0, 0))
	e := executor.New(clk)
	if _, err := e.Stop(clk.Now()); err != nil {
		t.Fatalf("Stop from Idle: %v", err)
	}
	if e.RunState().Kind != program.RunIdle {
		t.Fatalf("RunState.Kind = %v, want RunIdle", e.RunState().Kind)
	}
}

func TestPauseTogglesRunningAndPaused(t *testing.T) {
	clk := clock.NewSimulated(time.Unix(0, 0))
	e := executor.New(clk)
	if _, err := e.Start(clk.Now(), testProgram(), false, false); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if _, err := e.Pause(clk.Now(), 5*time.Second, false); err != nil {
		t.Fatalf("Pause: %v", err)
	}
	if e.RunState().Kind != program.RunPaused {
		t.Fatalf("RunState.Kind = %v, want RunPaused", e.RunState().Kind)
	}
	if _, err := e.Pause(clk.Now(), 0, false); err != nil {
		t.Fatalf("Pause (toggle back): %v", err)
	}
	if e.RunState().Kind != program.RunRunning {
		t.Fatalf("RunState.Kind = %v, want RunRunning", e.RunState().Kind)
	}
}

func TestPauseRejectedWhileDoorOpenOnResumeSide(t *testing.T) {
	clk := clock.NewSimulated(time.Unix(0, 0))
	e := executor.New(clk)
	if _, err := e.Start(clk.Now(), testProgram(), false, false); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if _, err := e.Pause(clk.Now(), 0, false); err != nil {
		t.Fatalf("Pause: %v", err)
	}
	if _, err := e.Pause(clk.Now(), 0, true); !errors.Is(err, executor.ErrInterlockActive) {
		t.Fatalf("Pause-toggle-to-Running with door open: err = %v, want ErrInterlockActive", err)
	}
}

func TestPauseRejectedOutsideRunningOrPaused(t *testing.T) {
	clk := clock.NewSimulated(time.Unix(0, 0))
	e := executor.New(clk)
	if _, err := e.Pause(clk.Now(), 0, false); !errors.Is(err, executor.ErrNotRunning) {
		t.Fatalf("Pause from Idle: err = %v, want ErrNotRunning", err)
	}
}

func TestStopFromRunningGoesToCooldownNotIdle(t *testing.T) {
	clk := clock.NewSimulated(time.Unix(0, 0))
	e := executor.New(clk)
	if _, err := e.Start(clk.Now(), testProgram(), false, false); err != nil {
		t.Fatalf("Start: %v", err)
	}
	actions, err := e.Stop(clk.Now())
	if err != nil {
		t.Fatalf("Stop: %v", err)
	}
	if !actions.ResetPID {
		t.Fatal("Stop-from-Running actions.ResetPID = false, want true")
	}
	if e.RunState().Kind != program.RunCooldown {
		t.Fatalf("RunState.Kind = %v, want RunCooldown", e.RunState().Kind)
	}
}

func TestTargetTempAndTotalSteps(t *testing.T) {
	clk := clock.NewSimulated(time.Unix(0, 0))
	e := executor.New(clk)
	prog := testProgram()
	if _, err := e.Start(clk.Now(), prog, false, false); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if got := e.TotalSteps(); got != 2 {
		t.Fatalf("TotalSteps() = %d, want 2", got)
	}
	if got := e.TargetTemp(); got != 600 {
		t.Fatalf("TargetTemp() = %v, want 600", got)
	}
}
