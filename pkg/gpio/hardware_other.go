// SPDX-License-Identifier: BSD-3-Clause

//go:build !linux

package gpio

import "fmt"

// openHardwareChip is unavailable on non-Linux build targets; kilnctl
// always falls back to SimulatedChip there.
func openHardwareChip(chipPath string) (Chip, error) {
	return nil, fmt.Errorf("%w: %s: gpio character device driver requires linux", ErrHardwareUnavailable, chipPath)
}
