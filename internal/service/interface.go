// SPDX-License-Identifier: BSD-3-Clause

// Package service defines the contract the Operator supervises.
package service

import (
	"context"

	"github.com/nats-io/nats.go"
)

// Service is a long-running process owned by the Operator's supervision
// tree. A Service that returns an error is restarted; one that returns nil
// is done (a oneshot). Name must be unique within the process.
type Service interface {
	// Name returns the unique name of the service.
	Name() string

	// Run starts the service with the provided context and connects to
	// the shared in-process NATS bus via ipcConn.
	Run(ctx context.Context, ipcConn nats.InProcessConnProvider) error
}
