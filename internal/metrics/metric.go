// Package metrics reduces thermodynamic samples to run summaries and
// exports live counters to Prometheus.
package metrics

// Sample is the thermodynamic state after one integration step.
type Sample struct {
	Step        int64
	Time        float64
	Kinetic     float64
	Potential   float64
	Temperature float64
	// Bath is the thermostat contribution to the conserved energy, zero
	// outside Nose-Hoover runs.
	Bath     float64
	Rebuilds int
}

func (s Sample) Total() float64     { return s.Kinetic + s.Potential }
func (s Sample) Conserved() float64 { return s.Kinetic + s.Potential + s.Bath }

type Metric interface {
	Name() string
	Observe(s Sample)
	Value() float64
	Reset()
}

// Set feeds every sample to a fixed list of metrics.
type Set []Metric

func (ms Set) Observe(s Sample) {
	for _, m := range ms {
		m.Observe(s)
	}
}

func (ms Set) Reset() {
	for _, m := range ms {
		m.Reset()
	}
}

func (ms Set) Values() map[string]float64 {
	out := make(map[string]float64, len(ms))
	for _, m := range ms {
		out[m.Name()] = m.Value()
	}
	return out
}

// Default is the metric set recorded for every run.
func Default() Set {
	return Set{
		NewEnergy(),
		NewEnergyDrift(),
		NewTemperature(),
		NewStability(1e6),
		NewRebuildRate(),
	}
}
