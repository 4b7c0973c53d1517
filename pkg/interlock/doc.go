// SPDX-License-Identifier: BSD-3-Clause

// Package interlock implements the two active-low, pulled-up safety
// inputs of spec.md §4.4 — door and emergency-stop — each debounced by
// requiring two consecutive identical samples before a state change is
// accepted, rejecting single-tick glitches.
package interlock
