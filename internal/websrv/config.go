// SPDX-License-Identifier: BSD-3-Clause

package websrv

import "time"

type config struct {
	addr           string
	requestTimeout time.Duration
}

// Option configures a WebSrv.
type Option interface {
	apply(*config)
}

type optionFunc func(*config)

func (f optionFunc) apply(c *config) { f(c) }

// WithAddr overrides the HTTP listen address.
func WithAddr(addr string) Option {
	return optionFunc(func(c *config) { c.addr = addr })
}

// WithRequestTimeout overrides how long a route waits for the
// Controller's NATS reply before answering 504.
func WithRequestTimeout(d time.Duration) Option {
	return optionFunc(func(c *config) { c.requestTimeout = d })
}
