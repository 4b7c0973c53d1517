// SPDX-License-Identifier: BSD-3-Clause

// Package websrv is the thin HTTP adapter of spec.md §6's command
// surface: every route translates 1:1 into a NATS request against the
// Controller's command endpoints and relays the JSON response back
// unchanged. It holds no domain state of its own.
package websrv

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/rs/cors"

	"github.com/kilnctl/kilnctl/internal/service"
	"github.com/kilnctl/kilnctl/pkg/log"
)

var _ service.Service = (*WebSrv)(nil)

// WebSrv serves spec.md §6's REST surface over HTTP, addressed to the
// Controller purely through the shared bus.
type WebSrv struct {
	addr           string
	requestTimeout time.Duration

	logger *slog.Logger
	nc     *nats.Conn
}

// New constructs a WebSrv listening on addr.
func New(opts ...Option) *WebSrv {
	cfg := &config{
		addr:           ":8080",
		requestTimeout: 2 * time.Second,
	}
	for _, opt := range opts {
		opt.apply(cfg)
	}
	return &WebSrv{addr: cfg.addr, requestTimeout: cfg.requestTimeout}
}

// Name implements service.Service.
func (s *WebSrv) Name() string { return "websrv" }

// Run connects to the shared bus, serves the HTTP router, and shuts
// down cleanly when ctx is canceled.
func (s *WebSrv) Run(ctx context.Context, ipcConn nats.InProcessConnProvider) error {
	s.logger = log.GetGlobalLogger().With("service", s.Name())

	nc, err := nats.Connect("", nats.InProcessServer(ipcConn))
	if err != nil {
		return fmt.Errorf("websrv: connect to bus: %w", err)
	}
	s.nc = nc
	defer nc.Drain() //nolint:errcheck

	handler := cors.New(cors.Options{
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodDelete},
		AllowedHeaders: []string{"Content-Type"},
	}).Handler(s.router())

	srv := &http.Server{
		Addr:              s.addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.InfoContext(ctx, "http server listening", "addr", s.addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
		return ctx.Err()
	case err := <-errCh:
		return fmt.Errorf("websrv: serve: %w", err)
	}
}
