package metrics

import (
	"math"
	"testing"
)

func TestEnergyMean(t *testing.T) {
	m := NewEnergy()

	m.Observe(Sample{Kinetic: 1, Potential: -3})
	m.Observe(Sample{Kinetic: 2, Potential: -3})

	if math.Abs(m.Value()-(-1.5)) > 1e-12 {
		t.Errorf("expected mean energy -1.5, got %f", m.Value())
	}

	m.Reset()
	if m.Value() != 0 {
		t.Error("expected zero energy after reset")
	}
}

func TestEnergyDrift(t *testing.T) {
	m := NewEnergyDrift()

	m.Observe(Sample{Kinetic: 5, Potential: -15})
	m.Observe(Sample{Kinetic: 5.5, Potential: -15})
	m.Observe(Sample{Kinetic: 5.1, Potential: -15})

	if math.Abs(m.Value()-0.05) > 1e-12 {
		t.Errorf("expected max drift 0.05, got %f", m.Value())
	}
}

func TestEnergyDriftIncludesBath(t *testing.T) {
	m := NewEnergyDrift()

	m.Observe(Sample{Kinetic: 5, Potential: -15, Bath: 0})
	m.Observe(Sample{Kinetic: 4, Potential: -15, Bath: 1})

	if m.Value() != 0 {
		t.Errorf("heat moved into the bath should not count as drift, got %f", m.Value())
	}
}

func TestTemperature(t *testing.T) {
	m := NewTemperature()
	for _, T := range []float64{1, 2, 3} {
		m.Observe(Sample{Temperature: T})
	}

	if m.Value() != 2 {
		t.Errorf("expected mean 2, got %f", m.Value())
	}
	if math.Abs(m.StdDev()-1) > 1e-12 {
		t.Errorf("expected std 1, got %f", m.StdDev())
	}
}

func TestStability(t *testing.T) {
	m := NewStability(10)
	m.Observe(Sample{Temperature: 1})
	m.Observe(Sample{Temperature: 100})
	m.Observe(Sample{Temperature: 1, Potential: math.Inf(1)})
	m.Observe(Sample{Temperature: 2})

	if m.Value() != 0.5 {
		t.Errorf("expected stability 0.5, got %f", m.Value())
	}
}

func TestRebuildRate(t *testing.T) {
	m := NewRebuildRate()
	m.Observe(Sample{Step: 10, Rebuilds: 2})
	m.Observe(Sample{Step: 60, Rebuilds: 4})
	m.Observe(Sample{Step: 110, Rebuilds: 7})

	if math.Abs(m.Value()-0.05) > 1e-12 {
		t.Errorf("expected 0.05 rebuilds per step, got %f", m.Value())
	}
}

func TestSetValues(t *testing.T) {
	set := Default()
	set.Observe(Sample{Step: 1, Kinetic: 1, Potential: -2, Temperature: 1})

	values := set.Values()
	for _, name := range []string{"energy", "energy_drift", "temperature", "stability", "rebuild_rate"} {
		if _, ok := values[name]; !ok {
			t.Errorf("missing metric %s", name)
		}
	}
}
