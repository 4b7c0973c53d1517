package tcreader

import (
	"testing"
	"time"

	"github.com/kilnctl/kilnctl/pkg/clock"
	"github.com/kilnctl/kilnctl/pkg/program"
)

func TestDecodeFrameBusError(t *testing.T) {
	for _, raw := range []uint16{0xFFFF, 0x0000} {
		s := decodeFrame(raw)
		if s.Fault != program.FaultBusError {
			t.Errorf("decodeFrame(%#04x).Fault = %v, want FaultBusError", raw, s.Fault)
		}
	}
}

func TestDecodeFrameOpenCircuit(t *testing.T) {
	s := decodeFrame(0x0004)
	if s.Fault != program.FaultOpenCircuit {
		t.Fatalf("Fault = %v, want FaultOpenCircuit", s.Fault)
	}
}

func TestDecodeFrameValidTemperature(t *testing.T) {
	// magnitude 400 (12 bits) -> 100.0 °C, shifted left 3 with D2 clear.
	raw := uint16(400) << 3
	s := decodeFrame(raw)
	if !s.Valid() {
		t.Fatalf("expected a valid sample, got fault %v", s.Fault)
	}
	if s.Temperature != 100 {
		t.Fatalf("Temperature = %v, want 100", s.Temperature)
	}
}

func TestDecodeFrameMaxMagnitudeStaysInRange(t *testing.T) {
	// The 12-bit magnitude field tops out at 4095*0.25=1023.75°C, always
	// below MaxTemperature, and never below MinTemperature, so no raw
	// MAX6675 frame decodes to OutOfRange.
	raw := uint16(0x0FFF) << 3
	s := decodeFrame(raw)
	if !s.Valid() {
		t.Fatalf("expected the maximum 12-bit magnitude to decode as valid, got fault %v", s.Fault)
	}
	if s.Temperature != 1023.75 {
		t.Fatalf("Temperature = %v, want 1023.75", s.Temperature)
	}
}

func TestSimulatedReaderRisesTowardTarget(t *testing.T) {
	c := clock.NewSimulated(time.Unix(0, 0))
	state := SimState{Running: true, TargetTemp: 500, HeaterDuty: 100}
	r := NewSimulatedReader(c, func() SimState { return state }, 20)

	c.Advance(10 * time.Second)
	tc1, tc2 := r.ReadAll()
	if !tc1.Valid() || !tc2.Valid() {
		t.Fatalf("expected valid samples, got tc1=%v tc2=%v", tc1, tc2)
	}
	if tc1.Temperature <= 20 {
		t.Fatalf("expected temperature to rise above 20, got %v", tc1.Temperature)
	}
	if tc1.Temperature > 500 {
		t.Fatalf("temperature %v exceeded target of 500", tc1.Temperature)
	}
}

func TestSimulatedReaderDecaysTowardAmbientWhenIdle(t *testing.T) {
	c := clock.NewSimulated(time.Unix(0, 0))
	state := SimState{Running: false}
	r := NewSimulatedReader(c, func() SimState { return state }, 200)

	c.Advance(60 * time.Second)
	tc1, _ := r.ReadAll()
	if tc1.Temperature >= 200 {
		t.Fatalf("expected temperature to decay from 200, got %v", tc1.Temperature)
	}
	if tc1.Temperature < AmbientTemp {
		t.Fatalf("temperature %v decayed below ambient %v", tc1.Temperature, AmbientTemp)
	}
}

func TestSimulatedReaderClampsToTarget(t *testing.T) {
	c := clock.NewSimulated(time.Unix(0, 0))
	state := SimState{Running: true, TargetTemp: 30, HeaterDuty: 100}
	r := NewSimulatedReader(c, func() SimState { return state }, 20)

	c.Advance(10 * time.Minute)
	tc1, _ := r.ReadAll()
	if tc1.Temperature > 30 {
		t.Fatalf("temperature %v overshot target of 30", tc1.Temperature)
	}
}
