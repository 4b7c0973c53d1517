// SPDX-License-Identifier: BSD-3-Clause

// Package controllersvc is the Controller Loop of spec.md §4.7: the
// single-writer service.Service that owns every actuator, the PID
// regulator, the thermocouple reader, the interlock monitor, the program
// executor, and the catalog, and drives them all from one periodic tick.
//
// External adapters never touch actuator/executor state directly; they
// submit commands through a bounded mailbox (spec.md §5's "commands are
// applied at the start of the next tick, never mid-tick") and read the
// latest published Snapshot. The mailbox is drained, and the resulting
// Snapshot published, by the same goroutine that runs the tick — there is
// exactly one writer, matching the teacher's own single-owner-per-pin
// GPIO discipline extended to the whole control loop.
package controllersvc
