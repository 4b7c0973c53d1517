// SPDX-License-Identifier: BSD-3-Clause

package tcreader

import "github.com/kilnctl/kilnctl/pkg/program"

// decodeFrame classifies a 16-bit MAX6675-class frame per spec.md §4.3,
// following the same D2-open-circuit-flag and ((raw>>3)&0xFFF)×0.25°C
// layout as scottfeldman-drivers/max6675.Device.Read, generalized from
// 12 bits of magnitude to the spec's explicit fault taxonomy.
func decodeFrame(raw uint16) program.Sample {
	if raw == 0xFFFF || raw == 0x0000 {
		return program.SampleFaulted(program.FaultBusError)
	}
	if raw&0x0004 != 0 {
		return program.SampleFaulted(program.FaultOpenCircuit)
	}

	magnitude := (raw >> 3) & 0x0FFF
	temp := program.Temperature(float64(magnitude) * 0.25)
	if !temp.InRange() {
		return program.SampleFaulted(program.FaultOutOfRange)
	}
	return program.SampleOK(temp)
}
