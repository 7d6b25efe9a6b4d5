package units

import "testing"

func TestLookup(t *testing.T) {
	tests := []struct {
		name string
		kB   float64
		ok   bool
	}{
		{"", 1, true},
		{"reduced", 1, true},
		{"Metal", 8.617333262145e-5, true},
		{"cgs", 0, false},
	}

	for _, tt := range tests {
		sys, err := Lookup(tt.name)
		if (err == nil) != tt.ok {
			t.Fatalf("%q: unexpected error state %v", tt.name, err)
		}
		if tt.ok && sys.Boltzmann != tt.kB {
			t.Errorf("%q: expected kB %g, got %g", tt.name, tt.kB, sys.Boltzmann)
		}
	}
}

func TestElementOf(t *testing.T) {
	si, err := ElementOf("Si")
	if err != nil {
		t.Fatalf("lookup failed: %v", err)
	}
	if si.Number != 14 || si.Mass != 28.0855 {
		t.Errorf("unexpected silicon entry %+v", si)
	}

	b, _ := ElementOf("B")
	if b.Mass != 1 {
		t.Errorf("B should be the Lennard-Jones particle, got mass %f", b.Mass)
	}

	if _, err := ElementOf("Xx"); err == nil {
		t.Error("expected error for unknown species")
	}
}
