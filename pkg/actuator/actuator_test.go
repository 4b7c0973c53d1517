package actuator_test

import (
	"testing"
	"time"

	"github.com/kilnctl/kilnctl/pkg/actuator"
	"github.com/kilnctl/kilnctl/pkg/clock"
	"github.com/kilnctl/kilnctl/pkg/gpio"
)

func requestLine(t *testing.T, chip gpio.Chip, offset int) gpio.Line {
	t.Helper()
	l, err := chip.RequestLine(offset, gpio.DirectionOutput, gpio.BiasDisabled)
	if err != nil {
		t.Fatalf("RequestLine: %v", err)
	}
	return l
}

func TestHeaterBelowThresholdHoldsOff(t *testing.T) {
	chip := gpio.NewSimulatedChip()
	line := requestLine(t, chip, 0)
	h := actuator.NewHeater(line)

	if err := h.SetDuty(4.9, false, false); err != nil {
		t.Fatalf("SetDuty: %v", err)
	}
	if h.Duty() != 4.9 {
		t.Fatalf("Duty() = %v, want 4.9", h.Duty())
	}
	if v, _ := line.Read(); v != 0 {
		t.Fatalf("heater line = %d, want 0 below DutyOnThreshold", v)
	}
}

func TestHeaterEmergencyForcesZero(t *testing.T) {
	chip := gpio.NewSimulatedChip()
	h := actuator.NewHeater(requestLine(t, chip, 0))

	if err := h.SetDuty(80, true, false); err != nil {
		t.Fatalf("SetDuty: %v", err)
	}
	if h.Duty() != 0 {
		t.Fatalf("Duty() = %v under emergency, want 0", h.Duty())
	}
}

func TestHeaterDoorOpenForcesZero(t *testing.T) {
	chip := gpio.NewSimulatedChip()
	h := actuator.NewHeater(requestLine(t, chip, 0))

	if err := h.SetDuty(80, false, true); err != nil {
		t.Fatalf("SetDuty: %v", err)
	}
	if h.Duty() != 0 {
		t.Fatalf("Duty() = %v with door open, want 0", h.Duty())
	}
}

func TestVacuumApproachesTargetThenDisables(t *testing.T) {
	chip := gpio.NewSimulatedChip()
	clk := clock.NewSimulated(time.Unix(0, 0))
	v := actuator.NewVacuum(requestLine(t, chip, 1), clk)

	if err := v.Enable(80, false, false); err != nil {
		t.Fatalf("Enable: %v", err)
	}
	clk.Advance(10 * time.Second)
	st := v.Tick()
	if !st.On {
		t.Fatal("expected vacuum On after Enable")
	}
	if st.SetPoint <= 0 || st.SetPoint > 80 {
		t.Fatalf("SetPoint = %v, want in (0, 80]", st.SetPoint)
	}

	if err := v.Disable(); err != nil {
		t.Fatalf("Disable: %v", err)
	}
	clk.Advance(60 * time.Second)
	st = v.Tick()
	if st.On {
		t.Fatal("expected vacuum Off after Disable")
	}
	if st.SetPoint != 0 {
		t.Fatalf("SetPoint = %v after a long decay, want 0", st.SetPoint)
	}
}

func TestVacuumEmergencyForcesOff(t *testing.T) {
	chip := gpio.NewSimulatedChip()
	clk := clock.NewSimulated(time.Unix(0, 0))
	v := actuator.NewVacuum(requestLine(t, chip, 1), clk)

	if err := v.Enable(80, false, false); err != nil {
		t.Fatalf("Enable: %v", err)
	}
	if err := v.Enable(80, true, false); err != nil {
		t.Fatalf("Enable under emergency: %v", err)
	}
	clk.Advance(time.Second)
	st := v.Tick()
	if st.On {
		t.Fatal("expected vacuum forced off under emergency")
	}
}

func TestFanIsNeverGated(t *testing.T) {
	chip := gpio.NewSimulatedChip()
	f := actuator.NewFan(requestLine(t, chip, 2))

	if err := f.Set(true); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if !f.On() {
		t.Fatal("expected fan on")
	}
}
