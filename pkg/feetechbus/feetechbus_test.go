package feetechbus

import (
	"math"
	"testing"
	"time"
)

func TestRangePosition(t *testing.T) {
	tests := []struct {
		name     string
		rng      Range
		fraction float64
		want     int
	}{
		{"open endpoint", DefaultRange, 0.0, 1024},
		{"closed endpoint", DefaultRange, 1.0, 3072},
		{"midpoint", DefaultRange, 0.5, 2048},
		{"quarter", Range{Open: 0, Closed: 4000}, 0.25, 1000},
		{"inverted range open", Range{Open: 3000, Closed: 1000}, 0.0, 3000},
		{"inverted range closed", Range{Open: 3000, Closed: 1000}, 1.0, 1000},
		{"inverted range midpoint", Range{Open: 3000, Closed: 1000}, 0.5, 2000},
	}

	for _, tt := range tests {
		if got := tt.rng.position(tt.fraction); got != tt.want {
			t.Errorf("%s: position(%v) = %d, want %d", tt.name, tt.fraction, got, tt.want)
		}
	}
}

func TestRangeFraction(t *testing.T) {
	tests := []struct {
		name string
		rng  Range
		raw  int
		want float64
	}{
		{"open endpoint", DefaultRange, 1024, 0.0},
		{"closed endpoint", DefaultRange, 3072, 1.0},
		{"midpoint", DefaultRange, 2048, 0.5},
		{"inverted range", Range{Open: 3000, Closed: 1000}, 2000, 0.5},
		{"degenerate range", Range{Open: 500, Closed: 500}, 500, 0.0},
	}

	for _, tt := range tests {
		if got := tt.rng.fraction(tt.raw); math.Abs(got-tt.want) > 1e-9 {
			t.Errorf("%s: fraction(%d) = %v, want %v", tt.name, tt.raw, got, tt.want)
		}
	}
}

func TestEmptyRegistryNoOps(t *testing.T) {
	// Before any Register call the servo group does not exist; bulk
	// operations must be no-ops rather than dereferencing it.
	d := &Driver{states: make(map[uint32]*servoState)}

	if err := d.EnableAll(); err != nil {
		t.Errorf("EnableAll on empty registry: %v", err)
	}
	if err := d.DisableAll(); err != nil {
		t.Errorf("DisableAll on empty registry: %v", err)
	}
	if n, err := d.Recv(time.Millisecond); n != 0 || err != nil {
		t.Errorf("Recv on empty registry = (%d, %v), want (0, nil)", n, err)
	}
}

func TestRangeRoundTrip(t *testing.T) {
	rng := DefaultRange
	for _, f := range []float64{0, 0.1, 0.25, 0.5, 0.75, 0.9, 1} {
		back := rng.fraction(rng.position(f))
		if math.Abs(back-f) > 1e-3 {
			t.Errorf("round trip %v -> %v drifted past tick resolution", f, back)
		}
	}
}
