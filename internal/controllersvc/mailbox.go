// SPDX-License-Identifier: BSD-3-Clause

package controllersvc

import (
	"fmt"
	"time"

	"github.com/kilnctl/kilnctl/pkg/program"
)

type cmdKind int

const (
	cmdStart cmdKind = iota
	cmdStop
	cmdPause
	cmdEmergency
	cmdTunePID
	cmdSaveProgram
	cmdDeleteProgram
	cmdClearErrors
)

// command is one operator request queued on the mailbox. Exactly one
// of its payload fields is meaningful, selected by kind. reply carries
// the outcome back to the submitting endpoint goroutine; it is always
// buffered by 1 so a tick that processes it never blocks on a caller
// that gave up waiting.
type command struct {
	kind cmdKind

	programID  int
	kp, ki, kd float64
	saveName   string
	saveSteps  []program.Step
	deleteID   int

	reply chan commandResult
}

// commandResult is the outcome of one applied command.
type commandResult struct {
	err  error
	data any
}

// submit enqueues cmd and blocks until the next tick drains and applies
// it, returning whatever data that command produces.
func (c *Controller) submit(cmd command) (any, error) {
	cmd.reply = make(chan commandResult, 1)
	select {
	case c.mailbox <- cmd:
	default:
		return nil, ErrMailboxFull
	}
	res := <-cmd.reply
	return res.data, res.err
}

// drainMailbox applies every command queued since the previous tick, in
// FIFO order, per spec.md §5: commands never mutate state mid-tick, only
// at the start of the next one. doorOpen/emergency are this tick's single
// interlock sample, taken once by the caller so a command drained here
// never causes a second, tick-internal sample of the debounced inputs
// (spec.md §4.4's single-tick-glitch rejection depends on exactly one
// sample per tick).
func (c *Controller) drainMailbox(now time.Time, doorOpen, emergency bool) {
	for {
		select {
		case cmd := <-c.mailbox:
			cmd.reply <- c.apply(now, cmd, doorOpen, emergency)
		default:
			return
		}
	}
}

func (c *Controller) apply(now time.Time, cmd command, doorOpen, emergency bool) commandResult {
	switch cmd.kind {
	case cmdStart:
		return c.applyStart(now, cmd.programID, doorOpen, emergency)
	case cmdStop:
		actions, err := c.exec.Stop(now)
		if err != nil {
			return commandResult{err: err}
		}
		c.applyActions(actions)
		return commandResult{data: true}
	case cmdPause:
		var elapsed time.Duration
		if run := c.exec.RunState(); run.Kind == program.RunRunning {
			elapsed = now.Sub(run.StepStartedAt)
		}
		actions, err := c.exec.Pause(now, elapsed, doorOpen || emergency)
		if err != nil {
			return commandResult{err: err}
		}
		c.applyActions(actions)
		return commandResult{data: c.exec.RunState().Kind.String()}
	case cmdEmergency:
		actions, err := c.exec.EmergencyStop(now)
		if err != nil {
			return commandResult{err: err}
		}
		c.applyActions(actions)
		return commandResult{data: true}
	case cmdTunePID:
		if err := c.pidReg.Tune(cmd.kp, cmd.ki, cmd.kd); err != nil {
			return commandResult{err: err}
		}
		return commandResult{data: c.pidReg.State()}
	case cmdSaveProgram:
		p, err := c.cat.SaveUser(cmd.saveName, cmd.saveSteps)
		if err != nil {
			return commandResult{err: err}
		}
		return commandResult{data: p}
	case cmdDeleteProgram:
		if err := c.cat.DeleteUser(cmd.deleteID); err != nil {
			return commandResult{err: err}
		}
		return commandResult{data: true}
	case cmdClearErrors:
		c.snapMu.Lock()
		c.snapshot.Errors = nil
		c.snapMu.Unlock()
		return commandResult{data: true}
	default:
		return commandResult{err: fmt.Errorf("controllersvc: unknown command kind %d", cmd.kind)}
	}
}

func (c *Controller) applyStart(now time.Time, programID int, doorOpen, emergency bool) commandResult {
	prog, err := c.cat.Get(programID)
	if err != nil {
		return commandResult{err: err}
	}
	actions, err := c.exec.Start(now, prog, emergency, doorOpen)
	if err != nil {
		return commandResult{err: err}
	}
	c.applyActions(actions)
	return commandResult{data: prog}
}
