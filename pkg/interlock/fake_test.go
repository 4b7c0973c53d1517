package interlock

import "github.com/kilnctl/kilnctl/pkg/gpio"

// fakeLine is a minimal gpio.Line test double whose read value is set
// directly by the test rather than through Write, modeling an external
// input the test drives.
type fakeLine struct {
	value int
}

func newFakeLine(initial int) *fakeLine {
	return &fakeLine{value: initial}
}

func (f *fakeLine) set(v int) { f.value = v }

func (f *fakeLine) SetDirection(gpio.Direction) error { return nil }
func (f *fakeLine) SetBias(gpio.Bias) error           { return nil }
func (f *fakeLine) Write(int) error                   { return nil }
func (f *fakeLine) Read() (int, error)                { return f.value, nil }
func (f *fakeLine) Close() error                      { return nil }
