// SPDX-License-Identifier: BSD-3-Clause

package controllersvc

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/micro"

	"github.com/kilnctl/kilnctl/internal/config"
	"github.com/kilnctl/kilnctl/internal/service"
	"github.com/kilnctl/kilnctl/pkg/actuator"
	"github.com/kilnctl/kilnctl/pkg/catalog"
	"github.com/kilnctl/kilnctl/pkg/clock"
	"github.com/kilnctl/kilnctl/pkg/executor"
	"github.com/kilnctl/kilnctl/pkg/gpio"
	"github.com/kilnctl/kilnctl/pkg/interlock"
	"github.com/kilnctl/kilnctl/pkg/log"
	"github.com/kilnctl/kilnctl/pkg/pid"
	"github.com/kilnctl/kilnctl/pkg/program"
	"github.com/kilnctl/kilnctl/pkg/tcreader"
)

var _ service.Service = (*Controller)(nil)

// sensorLossThreshold is spec.md §4.3's "three consecutive ticks without
// any valid sample" escalation to Fault(SensorLost).
const sensorLossThreshold = 3

// Controller is the Controller Loop of spec.md §4.7. It is the only
// writer of actuator, PID, and executor state; every other goroutine
// (command endpoints, HTTP adapter) reaches it through submit or reads
// its published Snapshot.
type Controller struct {
	cfg    *config.Config
	clk    clock.Clock
	logger *slog.Logger

	gpioChip      gpio.Chip
	gpioAvailable bool

	heater    *actuator.Heater
	vacuum    *actuator.Vacuum
	fan       *actuator.Fan
	interlock *interlock.Monitor
	tcr       tcreader.Reader
	pidReg    *pid.Regulator
	exec      *executor.Executor
	cat       *catalog.Catalog

	mailbox chan command

	snapMu   sync.RWMutex
	snapshot program.Snapshot

	prevDoor      bool
	prevEmergency bool
	sensorLossRun int

	nc      *nats.Conn
	micro   micro.Service
	testReq chan testRequest

	tel *telemetry
}

// New assembles a Controller from cfg, opening the GPIO chip (falling
// back to simulation per spec.md §7 if hardware is unavailable) and
// wiring every actuator/sensor/executor/catalog component against it.
func New(cfg *config.Config, clk clock.Clock, logger *slog.Logger) (*Controller, error) {
	if logger == nil {
		logger = log.GetGlobalLogger()
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidConfiguration, err)
	}

	chip, available := openChip(cfg, logger)

	heaterLine, err := chip.RequestLine(cfg.HeaterPin, gpio.DirectionOutput, gpio.BiasDisabled)
	if err != nil {
		return nil, fmt.Errorf("controllersvc: request heater line: %w", err)
	}
	vacuumLine, err := chip.RequestLine(cfg.VacuumPin, gpio.DirectionOutput, gpio.BiasDisabled)
	if err != nil {
		return nil, fmt.Errorf("controllersvc: request vacuum line: %w", err)
	}
	fanLine, err := chip.RequestLine(cfg.FanPin, gpio.DirectionOutput, gpio.BiasDisabled)
	if err != nil {
		return nil, fmt.Errorf("controllersvc: request fan line: %w", err)
	}

	mon, err := interlock.New(chip, cfg.DoorPin, cfg.EmergPin)
	if err != nil {
		return nil, fmt.Errorf("controllersvc: interlock monitor: %w", err)
	}

	cat, err := catalog.New(cfg.CatalogPath, logger)
	if err != nil {
		return nil, fmt.Errorf("controllersvc: catalog: %w", err)
	}

	pidReg, err := pid.New(pid.DefaultConfig(), clk.Now())
	if err != nil {
		return nil, fmt.Errorf("controllersvc: pid regulator: %w", err)
	}

	tel, err := newTelemetry(cfg.ServiceName)
	if err != nil {
		return nil, fmt.Errorf("controllersvc: telemetry: %w", err)
	}

	c := &Controller{
		cfg:           cfg,
		clk:           clk,
		logger:        logger.With("service", cfg.ServiceName),
		gpioChip:      chip,
		gpioAvailable: available,
		heater:        actuator.NewHeater(heaterLine),
		vacuum:        actuator.NewVacuum(vacuumLine, clk),
		fan:           actuator.NewFan(fanLine),
		interlock:     mon,
		pidReg:        pidReg,
		exec:          executor.New(clk),
		cat:           cat,
		mailbox:       make(chan command, 16),
		testReq:       make(chan testRequest, 4),
		tel:           tel,
	}

	c.tcr = newReader(cfg, chip, clk, c.simState)
	c.snapshot = program.Snapshot{RunState: program.Idle()}

	return c, nil
}

func openChip(cfg *config.Config, logger *slog.Logger) (gpio.Chip, bool) {
	if cfg.Simulate {
		logger.Info("gpio simulation forced by configuration")
		return gpio.NewSimulatedChip(), false
	}
	chip, err := gpio.Open(cfg.GPIOChip)
	if err != nil {
		if errors.Is(err, gpio.ErrHardwareUnavailable) {
			logger.Warn("gpio hardware unavailable, degrading to simulation", "error", err)
			return gpio.NewSimulatedChip(), false
		}
		logger.Warn("gpio open failed, degrading to simulation", "error", err)
		return gpio.NewSimulatedChip(), false
	}
	return chip, chip.Available()
}

func newReader(cfg *config.Config, chip gpio.Chip, clk clock.Clock, state tcreader.StateFunc) tcreader.Reader {
	if chip.Available() {
		ch1 := tcreader.ChannelPins{CS: cfg.TC1CSPin, DO: cfg.TC1DOPin}
		ch2 := tcreader.ChannelPins{CS: cfg.TC2CSPin, DO: cfg.TC2DOPin}
		r, err := tcreader.NewHardwareReader(chip, cfg.TC1CLKPin, ch1, ch2)
		if err == nil {
			return r
		}
	}
	return tcreader.NewSimulatedReader(clk, state, tcreader.AmbientTemp)
}

// simState supplies the simulated thermocouple reader with the current
// run state, read without taking the tick's own lock (it is only ever
// called from within a tick, which already owns the single-writer state).
func (c *Controller) simState() tcreader.SimState {
	run := c.exec.RunState()
	target := c.exec.TargetTemp()
	return tcreader.SimState{
		Running:    run.Kind == program.RunRunning,
		TargetTemp: target,
		HeaterDuty: c.heater.Duty(),
	}
}

// Name implements service.Service.
func (c *Controller) Name() string { return c.cfg.ServiceName }

// Run connects to the shared bus, registers the command endpoints, and
// drives the tick loop until ctx is canceled, at which point it executes
// spec.md §5's shutdown sequence.
func (c *Controller) Run(ctx context.Context, ipcConn nats.InProcessConnProvider) error {
	nc, err := nats.Connect("", nats.InProcessServer(ipcConn))
	if err != nil {
		return fmt.Errorf("controllersvc: connect to bus: %w", err)
	}
	c.nc = nc
	defer nc.Drain() //nolint:errcheck

	if err := c.registerEndpoints(); err != nil {
		return fmt.Errorf("controllersvc: register endpoints: %w", err)
	}
	defer func() {
		if c.micro != nil {
			_ = c.micro.Stop()
		}
	}()

	c.logger.InfoContext(ctx, "controller loop starting",
		"tick_period", c.cfg.TickPeriod, "gpio_available", c.gpioAvailable)

	ticker := time.NewTicker(c.cfg.TickPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			c.shutdown(context.WithoutCancel(ctx))
			return ctx.Err()
		case <-ticker.C:
			c.tick(ctx, c.clk.Now())
		}
	}
}

// tick runs the 8-step sequence of spec.md §4.7: the interlocks are
// sampled once, then queued commands are drained (applied "at the start
// of the next tick"), then sense, decide, actuate, advance, publish.
func (c *Controller) tick(ctx context.Context, now time.Time) {
	ctx, span := c.tel.startTick(ctx)
	defer span.End()
	start := c.clk.Now()
	wasFault := c.exec.RunState().Kind == program.RunFault
	defer func() {
		c.tel.ticksTotal.Add(ctx, 1)
		c.tel.tickDuration.Record(ctx, c.clk.Now().Sub(start).Seconds())
		if !wasFault && c.exec.RunState().Kind == program.RunFault {
			c.tel.faultEntriesTotal.Add(ctx, 1)
		}
	}()

	doorOpen, emergency, err := c.interlock.Sample()
	if err != nil {
		c.logger.Warn("interlock sample error", "error", err)
	}

	c.drainMailbox(now, doorOpen, emergency)

	tc1, tc2 := c.tcr.ReadAll()
	if tc1.Fault != program.FaultNone {
		c.logError(now, program.ErrorSensorFault, fmt.Sprintf("tc1: %s", tc1.Fault))
	}
	if tc2.Fault != program.FaultNone {
		c.logError(now, program.ErrorSensorFault, fmt.Sprintf("tc2: %s", tc2.Fault))
	}
	currentTemp, fused := c.fuse(tc1, tc2)

	emergencyRose := emergency && !c.prevEmergency
	doorRose := doorOpen && !c.prevDoor
	c.prevEmergency = emergency
	c.prevDoor = doorOpen

	if emergencyRose {
		c.applyActions(mustActions(c.exec.NoteEmergency(now)))
		c.logError(now, program.ErrorEmergency, "emergency input asserted")
	} else if doorRose && c.exec.RunState().Kind == program.RunRunning {
		elapsed := now.Sub(c.exec.RunState().StepStartedAt)
		c.applyActions(mustActions(c.exec.NoteDoorOpen(now, elapsed)))
		c.logError(now, program.ErrorDoorOpenedDuringRun, "door opened during run")
	}

	if !fused {
		c.sensorLossRun++
	} else {
		c.sensorLossRun = 0
	}
	if c.sensorLossRun >= sensorLossThreshold && c.exec.RunState().Kind != program.RunFault {
		c.applyActions(mustActions(c.exec.NoteSensorLost(now)))
		c.logError(now, program.ErrorSensorLost, "three consecutive ticks without a valid thermocouple sample")
	}

	run := c.exec.RunState()

	var heaterDuty float64
	switch run.Kind {
	case program.RunRunning:
		target := c.exec.TargetTemp()
		heaterDuty = c.pidReg.Calculate(now, target, currentTemp)
		if err := c.heater.SetDuty(heaterDuty, emergency, doorOpen); err != nil {
			c.logger.Warn("heater set duty failed", "error", err)
		}
		step := c.activeStep()
		if kpa, on := step.VacuumRequested(); on {
			_ = c.vacuum.Enable(kpa, emergency, doorOpen)
		} else {
			_ = c.vacuum.Disable()
		}
	default:
		heaterDuty = 0
		if err := c.heater.SetDuty(0, emergency, doorOpen); err != nil {
			c.logger.Warn("heater set duty failed", "error", err)
		}
		_ = c.vacuum.Disable()
	}
	vacState := c.vacuum.Tick()

	c.applyFanForState(run)

	if run.Kind == program.RunRunning {
		stepElapsed := now.Sub(run.StepStartedAt)
		c.applyActions(mustActions(c.exec.StepCheck(now, stepElapsed)))
	} else if run.Kind == program.RunCooldown {
		c.applyActions(mustActions(c.exec.CooldownCheck(now)))
	}

	c.drainTestRequests(now, emergency, doorOpen)

	c.publish(now, tc1, tc2, currentTemp, heaterDuty, vacState, doorOpen, emergency)
}

// fuse implements spec.md §4.3's fusion policy.
func (c *Controller) fuse(tc1, tc2 program.Sample) (program.Temperature, bool) {
	switch {
	case tc1.Valid() && tc2.Valid():
		return (tc1.Temperature + tc2.Temperature) / 2, true
	case tc1.Valid():
		return tc1.Temperature, true
	case tc2.Valid():
		return tc2.Temperature, true
	default:
		c.snapMu.RLock()
		prev := c.snapshot.CurrentTemp
		c.snapMu.RUnlock()
		return prev, false
	}
}

func (c *Controller) activeStep() program.Step {
	run := c.exec.RunState()
	prog := c.exec.ActiveProgram()
	if run.StepIdx < 0 || run.StepIdx >= len(prog.Steps) {
		return program.Step{}
	}
	return prog.Steps[run.StepIdx]
}

// applyFanForState implements the fan column of spec.md §4.6's state
// table: on throughout Running, Cooldown (which lasts CooldownDuration)
// and Fault (which lasts until a Stop), off in Idle/Paused. Executor-issued Actions.SetFan
// (applied in applyActions) set the edge; this keeps it asserted while
// the run state remains Cooldown or Fault, since the executor only fires
// the one-shot edge on entry.
func (c *Controller) applyFanForState(run program.RunState) {
	switch run.Kind {
	case program.RunRunning, program.RunCooldown, program.RunFault:
		if !c.fan.On() {
			_ = c.fan.Set(true)
		}
	default:
		if c.fan.On() {
			_ = c.fan.Set(false)
		}
	}
}

func (c *Controller) applyActions(actions executor.Actions) {
	if actions.ResetPID {
		c.pidReg.Reset(c.clk.Now())
	}
	if actions.SetFan != nil {
		_ = c.fan.Set(*actions.SetFan)
	}
}

func mustActions(actions executor.Actions, err error) executor.Actions {
	if err != nil {
		return executor.Actions{}
	}
	return actions
}

func (c *Controller) logError(now time.Time, kind program.ErrorKind, detail string) {
	c.snapMu.Lock()
	c.snapshot.AppendError(program.ErrorLogEntry{At: now, Kind: kind, Detail: detail})
	c.snapMu.Unlock()
}

// shutdown implements spec.md §5's graceful-shutdown sequence: stop
// accepting commands, cooldown if running, then force every actuator off
// and release the GPIO chip. There is no path out of shutdown that
// leaves the heater energized.
func (c *Controller) shutdown(ctx context.Context) {
	c.logger.InfoContext(ctx, "controller shutting down")
	if c.exec.RunState().Kind == program.RunRunning || c.exec.RunState().Kind == program.RunPaused {
		c.applyActions(mustActions(c.exec.Stop(c.clk.Now())))
	}
	_ = c.heater.SetDuty(0, true, false)
	_ = c.vacuum.Disable()
	_ = c.fan.Set(false)
	_ = c.heater.Close()
	_ = c.vacuum.Close()
	_ = c.fan.Close()
	_ = c.interlock.Close()
	_ = c.gpioChip.Close()
}
