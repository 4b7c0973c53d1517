// SPDX-License-Identifier: BSD-3-Clause

package ipc

import "errors"

var (
	// ErrInvalidConfiguration indicates the bus configuration is invalid.
	ErrInvalidConfiguration = errors.New("ipc: invalid configuration")
	// ErrServerCreationFailed indicates the embedded NATS server could not be created.
	ErrServerCreationFailed = errors.New("ipc: failed to create NATS server")
	// ErrServerTimeout indicates the server did not become ready in time.
	ErrServerTimeout = errors.New("ipc: server not ready in time")
	// ErrConnectionNotAvailable indicates a ConnProvider was used before the server started.
	ErrConnectionNotAvailable = errors.New("ipc: connection not available")
	// ErrServerNotReady indicates the server did not accept connections within the wait window.
	ErrServerNotReady = errors.New("ipc: server not ready for connections")
	// ErrInProcessConnFailed indicates the in-process dial itself failed.
	ErrInProcessConnFailed = errors.New("ipc: in-process connection failed")
	// ErrExistingConnProvided indicates Run was called with a non-nil ipcConn, which the bus itself never accepts.
	ErrExistingConnProvided = errors.New("ipc: bus does not accept an upstream connection provider")
)
