// SPDX-License-Identifier: BSD-3-Clause

package pid

import "errors"

var (
	// ErrInvalidGains indicates a non-finite or negative gain was supplied.
	ErrInvalidGains = errors.New("pid: gains must be finite and non-negative")
	// ErrInvalidLimits indicates output or integral limits with min >= max.
	ErrInvalidLimits = errors.New("pid: limits must satisfy min < max")
)
