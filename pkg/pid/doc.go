// SPDX-License-Identifier: BSD-3-Clause

// Package pid implements the clamped PI-D regulator of spec.md §4.5: a
// discrete controller with an anti-windup integral clamp and an optional
// live proportional autotune driven by error magnitude.
//
// This is hand-rolled rather than built on a general-purpose PID library
// because the spec's exact clamp order, autotune thresholds, and reset
// contract are safety-relevant and easiest to audit as a single small
// function against the prose they implement (see DESIGN.md).
package pid
