// SPDX-License-Identifier: BSD-3-Clause

// Package operator builds the supervision tree that runs the embedded
// bus, the Controller, and the HTTP adapter as a fault-tolerant unit:
// any one of them restarting never takes kilnd down, per spec.md §5.
package operator

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"cirello.io/oversight/v2"
	"github.com/arunsworld/nursery"
	"github.com/nats-io/nats.go"

	"github.com/kilnctl/kilnctl/internal/config"
	"github.com/kilnctl/kilnctl/internal/controllersvc"
	"github.com/kilnctl/kilnctl/internal/ipc"
	"github.com/kilnctl/kilnctl/internal/service"
	"github.com/kilnctl/kilnctl/internal/websrv"
	"github.com/kilnctl/kilnctl/pkg/clock"
	"github.com/kilnctl/kilnctl/pkg/log"
	"github.com/kilnctl/kilnctl/pkg/process"
)

var _ service.Service = (*Operator)(nil)

// Operator supervises the Bus, Controller, and WebSrv as children of one
// oversight tree, restarting any that exits unexpectedly.
type Operator struct {
	name    string
	timeout time.Duration

	bus        *ipc.Bus
	controller *controllersvc.Controller
	web        *websrv.WebSrv

	logger *slog.Logger
}

// New assembles the three kilnd services from cfg and wraps them in an
// Operator. clk is threaded through explicitly (rather than defaulting
// to clock.Real internally) so tests can run the whole supervision tree
// against a clock.Simulated.
func New(cfg *config.Config, clk clock.Clock) (*Operator, error) {
	ctrl, err := controllersvc.New(cfg, clk, log.GetGlobalLogger())
	if err != nil {
		return nil, fmt.Errorf("operator: build controller: %w", err)
	}
	return &Operator{
		name:       "kilnd-operator",
		timeout:    10 * time.Second,
		bus:        ipc.New(ipc.WithServiceName("kiln-ipc")),
		controller: ctrl,
		web:        websrv.New(websrv.WithAddr(cfg.HTTPAddr)),
	}, nil
}

// Name implements service.Service.
func (o *Operator) Name() string { return o.name }

// Run starts the bus, then the Controller and WebSrv against it, and
// blocks until ctx is canceled or the tree is irrecoverably broken.
func (o *Operator) Run(ctx context.Context, ipcConn nats.InProcessConnProvider) error {
	o.logger = log.GetGlobalLogger().With("service", o.name)

	tree := oversight.New(
		oversight.NeverHalt(),
		oversight.DefaultRestartStrategy(),
		oversight.WithLogger(log.NewOversightLogger(o.logger)),
	)

	if ipcConn == nil {
		if err := tree.Add(
			process.New(o.bus, nil),
			oversight.Transient(),
			oversight.Timeout(o.timeout),
			o.bus.Name(),
		); err != nil {
			return fmt.Errorf("operator: add %s to tree: %w", o.bus.Name(), err)
		}
	}

	supervise := func(ctx context.Context, c chan error) {
		c <- tree.Start(ctx)
	}

	spawnChildren := func(ctx context.Context, c chan error) {
		conn := ipcConn
		if conn == nil {
			conn = o.bus.GetConnProvider()
		}
		for _, svc := range []service.Service{o.controller, o.web} {
			if err := tree.Add(
				process.New(svc, conn),
				oversight.Transient(),
				oversight.Timeout(o.timeout),
				svc.Name(),
			); err != nil {
				c <- fmt.Errorf("operator: add %s to tree: %w", svc.Name(), err)
				return
			}
		}
	}

	o.logger.InfoContext(ctx, "starting kilnd supervision tree")
	return nursery.RunConcurrentlyWithContext(ctx, supervise, spawnChildren)
}
