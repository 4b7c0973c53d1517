package interlock

import "testing"

func TestDebouncerRejectsSingleTickGlitch(t *testing.T) {
	chip := newFakeLine(1) // idle high, not open/pressed
	d := newDebouncer(chip)

	mustSample(t, d, false) // first sample: unconfirmed change, stays at zero value
	chip.set(0)
	mustSample(t, d, false) // glitch low for one tick: not yet confirmed
	chip.set(1)
	mustSample(t, d, false) // back high immediately: glitch never got two in a row
}

func TestDebouncerConfirmsTwoConsecutiveSamples(t *testing.T) {
	chip := newFakeLine(1)
	d := newDebouncer(chip)

	mustSample(t, d, false)
	chip.set(0)
	mustSample(t, d, false) // first low sample
	mustSample(t, d, true)  // second consecutive low sample: confirmed active
}

func TestDebouncerReleasesAfterTwoConsecutiveHighs(t *testing.T) {
	chip := newFakeLine(0)
	d := newDebouncer(chip)

	mustSample(t, d, false)
	mustSample(t, d, true) // two consecutive lows: confirmed active

	chip.set(1)
	mustSample(t, d, true)  // first high sample: still confirmed active until a second agrees
	mustSample(t, d, false) // second consecutive high: confirmed inactive
}

func mustSample(t *testing.T, d *debouncer, want bool) {
	t.Helper()
	got, err := d.sample()
	if err != nil {
		t.Fatalf("sample: %v", err)
	}
	if got != want {
		t.Fatalf("sample() = %v, want %v", got, want)
	}
}
