// SPDX-License-Identifier: BSD-3-Clause

package tcreader

import "github.com/kilnctl/kilnctl/pkg/program"

// Reader reads both thermocouple channels for one tick. Implementations
// are HardwareReader (bit-banged GPIO) and SimulatedReader.
type Reader interface {
	ReadAll() (tc1, tc2 program.Sample)
}
