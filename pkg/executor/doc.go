// SPDX-License-Identifier: BSD-3-Clause

// Package executor implements the Program Executor state machine of
// spec.md §4.6 on top of github.com/qmuntal/stateless, the same FSM
// library the teacher's pkg/state wraps: named states and guarded
// triggers drive the five RunState kinds (Idle, Running, Paused,
// Cooldown, Fault), with OnEntry actions recording the one-shot side
// effects (PID reset, fan on/off) a tick's caller must apply. Continuous
// per-tick actuation (heater/vacuum forced to zero outside Running) is
// the Controller Loop's responsibility, derived from RunState alone —
// the executor only owns the state and its one-shot transition actions.
package executor
