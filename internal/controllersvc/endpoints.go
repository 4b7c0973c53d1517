// SPDX-License-Identifier: BSD-3-Clause

package controllersvc

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go/micro"

	"github.com/kilnctl/kilnctl/internal/ipc"
	"github.com/kilnctl/kilnctl/pkg/catalog"
	"github.com/kilnctl/kilnctl/pkg/program"
)

// registerEndpoints wires one micro.Service endpoint per spec.md §6
// command onto the shared bus, plus the kiln.status pull endpoint. All
// payloads are plain JSON (SPEC_FULL.md drops the protobuf toolchain the
// teacher's service endpoints use — there is no generated schema package
// in this module, and the spec's Non-goals exclude exact wire encoding).
func (c *Controller) registerEndpoints() error {
	svc, err := micro.AddService(c.nc, micro.Config{
		Name:        c.cfg.ServiceName,
		Description: "dental furnace controller command surface",
		Version:     "1.0.0",
	})
	if err != nil {
		return fmt.Errorf("controllersvc: add micro service: %w", err)
	}
	c.micro = svc

	endpoints := []struct {
		subject string
		handler micro.HandlerFunc
	}{
		{ipc.SubjectStatus, c.handleStatus},
		{ipc.SubjectCmdPrograms, c.handlePrograms},
		{ipc.SubjectCmdStart, c.handleStart},
		{ipc.SubjectCmdStop, c.handleStop},
		{ipc.SubjectCmdPause, c.handlePause},
		{ipc.SubjectCmdEmergency, c.handleEmergency},
		{ipc.SubjectCmdTunePID, c.handleTunePID},
		{ipc.SubjectCmdSaveProgram, c.handleSaveProgram},
		{ipc.SubjectCmdDeleteProgram, c.handleDeleteProgram},
		{ipc.SubjectCmdClearErrors, c.handleClearErrors},
		{ipc.SubjectCmdTest, c.handleTest},
	}
	for _, ep := range endpoints {
		if err := svc.AddEndpoint(ep.subject, ep.handler); err != nil {
			return fmt.Errorf("controllersvc: add endpoint %s: %w", ep.subject, err)
		}
	}
	return nil
}

func respondJSON(req micro.Request, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		respondErr(req, err)
		return
	}
	_ = req.Respond(data)
}

// respondErr replies with an ipc.ErrorResponse body rather than
// micro's header-based Error mechanism, so the HTTP adapter can tell
// success from failure by looking at the JSON body alone. NotFound is
// set when err wraps catalog.ErrNotFound, so the HTTP adapter can
// return 404 rather than 400 for a missing program id.
func respondErr(req micro.Request, err error) {
	resp := ipc.ErrorResponse{Error: err.Error(), NotFound: errors.Is(err, catalog.ErrNotFound)}
	data, marshalErr := json.Marshal(resp)
	if marshalErr != nil {
		_ = req.Respond([]byte(`{"error":"internal error"}`))
		return
	}
	_ = req.Respond(data)
}

func decode[T any](req micro.Request) (T, error) {
	var v T
	if len(req.Data()) == 0 {
		return v, nil
	}
	if err := json.Unmarshal(req.Data(), &v); err != nil {
		return v, fmt.Errorf("controllersvc: decode request: %w", err)
	}
	return v, nil
}

func (c *Controller) handleStatus(req micro.Request) {
	c.snapMu.RLock()
	snap := c.snapshot
	c.snapMu.RUnlock()
	respondJSON(req, ipc.StatusResponse{
		Snapshot:      snap,
		GPIOAvailable: c.gpioAvailable,
		NowMs:         c.clk.NowMs(),
	})
}

func (c *Controller) handlePrograms(req micro.Request) {
	progs := c.cat.List()
	docs := make([]ipc.ProgramDoc, len(progs))
	for i, p := range progs {
		docs[i] = ipc.ProgramToDoc(p)
	}
	respondJSON(req, docs)
}

func (c *Controller) handleStart(req micro.Request) {
	reqID := uuid.NewString()
	r, err := decode[ipc.StartRequest](req)
	if err != nil {
		respondErr(req, err)
		return
	}
	data, err := c.submit(command{kind: cmdStart, programID: r.ProgramID})
	if err != nil {
		respondErr(req, err)
		return
	}
	prog := data.(program.Program)
	c.logger.Info("program started", "request_id", reqID, "program_id", prog.ID, "program_name", prog.Name)
	respondJSON(req, ipc.StartResponse{
		RequestID:   ipc.RequestID{RequestID: reqID},
		Started:     true,
		ProgramName: prog.Name,
		TotalSteps:  len(prog.Steps),
		FirstTarget: prog.Steps[0].TargetTemp,
	})
}

func (c *Controller) handleStop(req micro.Request) {
	reqID := uuid.NewString()
	if _, err := c.submit(command{kind: cmdStop}); err != nil {
		respondErr(req, err)
		return
	}
	c.logger.Info("program stopped", "request_id", reqID)
	respondJSON(req, ipc.StopResponse{RequestID: ipc.RequestID{RequestID: reqID}, Stopped: true})
}

func (c *Controller) handlePause(req micro.Request) {
	reqID := uuid.NewString()
	data, err := c.submit(command{kind: cmdPause})
	if err != nil {
		respondErr(req, err)
		return
	}
	c.logger.Info("run paused", "request_id", reqID, "run_state", data.(string))
	respondJSON(req, ipc.PauseResponse{RequestID: ipc.RequestID{RequestID: reqID}, RunState: data.(string)})
}

func (c *Controller) handleEmergency(req micro.Request) {
	reqID := uuid.NewString()
	if _, err := c.submit(command{kind: cmdEmergency}); err != nil {
		respondErr(req, err)
		return
	}
	c.logger.Warn("emergency stop requested", "request_id", reqID)
	respondJSON(req, ipc.EmergencyResponse{RequestID: ipc.RequestID{RequestID: reqID}, EmergencyStopped: true})
}

func (c *Controller) handleTunePID(req micro.Request) {
	reqID := uuid.NewString()
	r, err := decode[ipc.TunePIDRequest](req)
	if err != nil {
		respondErr(req, err)
		return
	}
	if _, err := c.submit(command{kind: cmdTunePID, kp: r.Kp, ki: r.Ki, kd: r.Kd}); err != nil {
		respondErr(req, err)
		return
	}
	c.logger.Info("pid retuned", "request_id", reqID, "kp", r.Kp, "ki", r.Ki, "kd", r.Kd)
	respondJSON(req, ipc.TunePIDResponse{RequestID: ipc.RequestID{RequestID: reqID}, Kp: r.Kp, Ki: r.Ki, Kd: r.Kd})
}

func (c *Controller) handleSaveProgram(req micro.Request) {
	reqID := uuid.NewString()
	r, err := decode[ipc.SaveProgramRequest](req)
	if err != nil {
		respondErr(req, err)
		return
	}
	data, err := c.submit(command{kind: cmdSaveProgram, saveName: r.Name, saveSteps: ipc.StepsFromDocs(r.Steps)})
	if err != nil {
		respondErr(req, err)
		return
	}
	p := data.(program.Program)
	c.logger.Info("program saved", "request_id", reqID, "program_id", p.ID)
	respondJSON(req, ipc.SaveProgramResponse{RequestID: ipc.RequestID{RequestID: reqID}, ID: p.ID, Program: ipc.ProgramToDoc(p)})
}

func (c *Controller) handleDeleteProgram(req micro.Request) {
	reqID := uuid.NewString()
	r, err := decode[ipc.DeleteProgramRequest](req)
	if err != nil {
		respondErr(req, err)
		return
	}
	if _, err := c.submit(command{kind: cmdDeleteProgram, deleteID: r.ID}); err != nil {
		respondErr(req, err)
		return
	}
	c.logger.Info("program deleted", "request_id", reqID, "program_id", r.ID)
	respondJSON(req, ipc.DeleteProgramResponse{RequestID: ipc.RequestID{RequestID: reqID}, Deleted: true})
}

func (c *Controller) handleClearErrors(req micro.Request) {
	reqID := uuid.NewString()
	if _, err := c.submit(command{kind: cmdClearErrors}); err != nil {
		respondErr(req, err)
		return
	}
	c.logger.Info("error log cleared", "request_id", reqID)
	respondJSON(req, ipc.ClearErrorsResponse{RequestID: ipc.RequestID{RequestID: reqID}, OK: true})
}

// testRequest is a one-shot hardware test applied synchronously within a
// tick, rather than through the command mailbox, since it pulses an
// actuator directly rather than changing executor state.
type testRequest struct {
	target string
	reply  chan testRequestResult
}

type testRequestResult struct {
	ok     bool
	detail string
	err    error
}

func (c *Controller) handleTest(req micro.Request) {
	reqID := uuid.NewString()
	r, err := decode[ipc.TestRequest](req)
	if err != nil {
		respondErr(req, err)
		return
	}
	reply := make(chan testRequestResult, 1)
	select {
	case c.testReq <- testRequest{target: r.Target, reply: reply}:
	default:
		respondErr(req, ErrMailboxFull)
		return
	}
	res := <-reply
	if res.err != nil {
		respondErr(req, res.err)
		return
	}
	c.logger.Info("hardware test run", "request_id", reqID, "target", r.Target, "ok", res.ok)
	respondJSON(req, ipc.TestResponse{RequestID: ipc.RequestID{RequestID: reqID}, Target: r.Target, OK: res.ok, Detail: res.detail})
}

// drainTestRequests applies every queued hardware test within the
// current tick, after actuation but before publish. Each pulse is
// switched back off before runTest returns, so the Snapshot this tick
// produces does not show it.
func (c *Controller) drainTestRequests(now time.Time, emergency, doorOpen bool) {
	_ = now
	for {
		select {
		case req := <-c.testReq:
			req.reply <- c.runTest(req.target, emergency, doorOpen)
		default:
			return
		}
	}
}

func (c *Controller) runTest(target string, emergency, doorOpen bool) testRequestResult {
	if c.exec.RunState().Kind == program.RunRunning {
		return testRequestResult{err: ErrNotRunningForTest}
	}
	switch target {
	case "heater":
		if err := c.heater.SetDuty(100, emergency, doorOpen); err != nil {
			return testRequestResult{err: err}
		}
		defer c.heater.SetDuty(0, emergency, doorOpen) //nolint:errcheck
		return testRequestResult{ok: true, detail: "pulsed heater SSR"}
	case "vacuum":
		if err := c.vacuum.Enable(50, emergency, doorOpen); err != nil {
			return testRequestResult{err: err}
		}
		defer c.vacuum.Disable() //nolint:errcheck
		return testRequestResult{ok: true, detail: "pulsed vacuum pump"}
	case "fan":
		if err := c.fan.Set(true); err != nil {
			return testRequestResult{err: err}
		}
		defer c.fan.Set(false) //nolint:errcheck
		return testRequestResult{ok: true, detail: "pulsed cooling fan"}
	case "sensors":
		tc1, tc2 := c.tcr.ReadAll()
		if !tc1.Valid() && !tc2.Valid() {
			return testRequestResult{err: errors.New("controllersvc: both thermocouple channels faulted")}
		}
		return testRequestResult{ok: true, detail: fmt.Sprintf("tc1=%v tc2=%v", tc1, tc2)}
	default:
		return testRequestResult{err: ErrUnknownTestTarget}
	}
}
