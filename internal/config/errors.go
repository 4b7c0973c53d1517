// SPDX-License-Identifier: BSD-3-Clause

package config

import "errors"

var (
	// ErrInvalidTickPeriod indicates the tick period falls outside [100ms, 2s].
	ErrInvalidTickPeriod = errors.New("config: tick period out of range")
	// ErrInvalidCatalogPath indicates an empty catalog persistence path.
	ErrInvalidCatalogPath = errors.New("config: catalog path must not be empty")
)
