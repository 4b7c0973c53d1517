// SPDX-License-Identifier: BSD-3-Clause

package controllersvc

import "errors"

var (
	// ErrInvalidConfiguration indicates the controller's config.Config is invalid.
	ErrInvalidConfiguration = errors.New("controllersvc: invalid configuration")
	// ErrMailboxFull indicates a command was dropped because the bounded
	// command mailbox was saturated; the caller should retry.
	ErrMailboxFull = errors.New("controllersvc: command mailbox full")
	// ErrUnknownTestTarget indicates an unrecognized POST test/{target}.
	ErrUnknownTestTarget = errors.New("controllersvc: unknown test target")
	// ErrNotRunningForTest indicates a hardware test was requested while a
	// program is active; spec.md §6 requires "not Running".
	ErrNotRunningForTest = errors.New("controllersvc: test rejected, a program is running")
)
