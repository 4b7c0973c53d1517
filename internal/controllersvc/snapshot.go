// SPDX-License-Identifier: BSD-3-Clause

package controllersvc

import (
	"encoding/json"
	"time"

	"github.com/kilnctl/kilnctl/internal/ipc"
	"github.com/kilnctl/kilnctl/pkg/program"
)

// publish assembles this tick's Snapshot, stores it for handleStatus and
// the fusion fallback, and broadcasts it on ipc.SubjectSnapshot. A marshal
// or publish failure is logged but never blocks the tick loop — a missed
// broadcast is recovered by the next tick, one tick period later.
func (c *Controller) publish(now time.Time, tc1, tc2 program.Sample, currentTemp program.Temperature, heaterDuty float64, vac program.VacuumState, doorOpen, emergency bool) {
	run := c.exec.RunState()

	c.snapMu.Lock()
	c.snapshot.RunState = run
	c.snapshot.ProgramID = c.exec.ActiveProgram().ID
	c.snapshot.StepIdx = run.StepIdx
	c.snapshot.TotalSteps = c.exec.TotalSteps()
	if run.Kind == program.RunRunning {
		c.snapshot.ElapsedS = now.Sub(run.StepStartedAt).Seconds()
	} else if run.Kind == program.RunPaused {
		c.snapshot.ElapsedS = run.ElapsedInStep.Seconds()
	}
	c.snapshot.TC1 = tc1
	c.snapshot.TC2 = tc2
	c.snapshot.CurrentTemp = currentTemp
	if run.Kind == program.RunRunning {
		c.snapshot.TargetTemp = c.exec.TargetTemp()
	}
	c.snapshot.HeaterDuty = heaterDuty
	c.snapshot.Vacuum = vac
	c.snapshot.FanOn = c.fan.On()
	c.snapshot.DoorOpen = doorOpen
	c.snapshot.Emergency = emergency
	c.snapshot.PID = c.pidReg.State()
	c.snapshot.TickTimeMs = now.UnixMilli()
	snap := c.snapshot
	c.snapMu.Unlock()

	data, err := json.Marshal(snap)
	if err != nil {
		c.logger.Warn("marshal snapshot failed", "error", err)
		return
	}
	if c.nc != nil {
		if err := c.nc.Publish(ipc.SubjectSnapshot, data); err != nil {
			c.logger.Warn("publish snapshot failed", "error", err)
		}
	}
}
