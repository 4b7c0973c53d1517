// SPDX-License-Identifier: BSD-3-Clause

package executor

import "errors"

var (
	// ErrInterlockActive is returned when Start is rejected because
	// emergency or door_open holds, per spec.md §4.6.
	ErrInterlockActive = errors.New("executor: interlock active")
	// ErrNotRunning is returned when Pause is requested outside Running/Paused.
	ErrNotRunning = errors.New("executor: not running")
	// ErrNoActiveProgram is returned when Start is called with a program that has no steps.
	ErrNoActiveProgram = errors.New("executor: no active program")
)
