// SPDX-License-Identifier: BSD-3-Clause

// Package tcreader implements the Thermocouple Reader of spec.md §4.3: a
// bit-banged MAX6675-class protocol over two channels that share a CLK
// line, decoded per the MAX6675 16-bit frame layout without a separate
// driver library (see DESIGN.md), plus a Simulated mode that
// synthesizes plausible readings so the rest of the control plane is
// testable without a kiln attached.
package tcreader
