// SPDX-License-Identifier: BSD-3-Clause

// Package actuator implements the three output drivers of spec.md §4.2:
// Heater (duty-gated SSR), Vacuum (synthetic asymptotic approach to a
// target), and Fan (ungated cooling device). Heater and Vacuum accept
// the interlock state on every call and force their output to the safe
// value whenever emergency or door_open holds; Fan is deliberately never
// gated, since it is the cooling safety device commanded during fault
// cooldown.
package actuator
