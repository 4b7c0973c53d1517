// SPDX-License-Identifier: BSD-3-Clause

package ipc

import (
	"fmt"
	"net"
	"time"
)

// ConnProvider hands out in-process connections to the Bus's embedded
// NATS server. It blocks briefly if the server has not finished starting.
type ConnProvider struct {
	bus *Bus
}

// InProcessConn implements nats.InProcessConnProvider.
func (p *ConnProvider) InProcessConn() (net.Conn, error) {
	if p.bus == nil || p.bus.server == nil {
		return nil, ErrConnectionNotAvailable
	}
	if !p.bus.server.ReadyForConnections(time.Minute) {
		return nil, ErrServerNotReady
	}
	conn, err := p.bus.server.InProcessConn()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInProcessConnFailed, err)
	}
	return conn, nil
}
