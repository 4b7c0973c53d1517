// SPDX-License-Identifier: BSD-3-Clause

package ipc

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/nats-io/nats-server/v2/server"
	"github.com/nats-io/nats.go"

	"github.com/kilnctl/kilnctl/internal/service"
	"github.com/kilnctl/kilnctl/pkg/log"
)

var _ service.Service = (*Bus)(nil)

// Bus is an embedded NATS server other kilnd services dial over an
// in-process transport. It is the central message bus carrying the
// command surface and snapshot broadcast of spec.md §4.9.
type Bus struct {
	config *config
	server *server.Server
	logger *slog.Logger
}

// New constructs a Bus, applying opts over the package defaults.
func New(opts ...Option) *Bus {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt.apply(cfg)
	}
	return &Bus{config: cfg}
}

// Name implements service.Service.
func (b *Bus) Name() string { return b.config.serviceName }

// Run starts the embedded NATS server and blocks until ctx is canceled.
// ipcConn must be nil: the Bus is the provider of in-process connections,
// not a consumer of one.
func (b *Bus) Run(ctx context.Context, ipcConn nats.InProcessConnProvider) error {
	b.logger = log.GetGlobalLogger().With("service", b.config.serviceName)

	if ipcConn != nil {
		return ErrExistingConnProvided
	}
	if err := b.config.Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfiguration, err)
	}

	opts := &server.Options{
		ServerName: b.config.serverName,
		DontListen: true,
		MaxPayload: b.config.maxPayload,
		NoLog:      true,
		NoSigs:     true,
	}
	ns, err := server.NewServer(opts)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrServerCreationFailed, err)
	}
	b.server = ns
	b.server.SetLoggerV2(log.NewNATSLogger(b.logger), false, false, false)

	b.logger.InfoContext(ctx, "starting embedded NATS bus", "server_name", b.config.serverName)
	b.server.Start()

	if !b.server.ReadyForConnections(b.config.startupTimeout) {
		b.server.Shutdown()
		return fmt.Errorf("%w: %v", ErrServerTimeout, b.config.startupTimeout)
	}
	b.logger.InfoContext(ctx, "NATS bus ready", "server_id", b.server.ID())

	<-ctx.Done()

	err = ctx.Err()
	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), b.config.shutdownTimeout)
	defer cancel()
	b.logger.InfoContext(shutdownCtx, "shutting down NATS bus")
	b.server.LameDuckShutdown()
	done := make(chan struct{})
	go func() {
		defer close(done)
		b.server.Shutdown()
	}()
	select {
	case <-done:
	case <-shutdownCtx.Done():
		b.logger.WarnContext(shutdownCtx, "NATS bus shutdown timed out, forcing")
	}
	return err
}

// GetConnProvider returns a ConnProvider other services can dial with
// nats.InProcessServer. It returns immediately; until Run has created the
// server, the provider's InProcessConn fails with ErrConnectionNotAvailable.
func (b *Bus) GetConnProvider() *ConnProvider {
	return &ConnProvider{bus: b}
}
