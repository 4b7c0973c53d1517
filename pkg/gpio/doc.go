// SPDX-License-Identifier: BSD-3-Clause

// Package gpio provides direction/pull/level access to individual pins,
// with a single implementation selected at process startup: HardwareChip
// on Linux against /dev/gpiochipN (github.com/warthog618/go-gpiocdev), or
// SimulatedChip everywhere Open fails. Every other package in kilnctl
// that touches a pin — pkg/actuator, pkg/interlock, pkg/tcreader — is
// written against the Chip/Line interfaces in gpio.go and is oblivious
// to which variant backs it.
package gpio
