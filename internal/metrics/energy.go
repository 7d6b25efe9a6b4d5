package metrics

import (
	"math"

	"gonum.org/v1/gonum/stat"
)

// Energy is the mean total energy over all samples.
type Energy struct {
	name        string
	samples     int
	totalEnergy float64
}

func NewEnergy() *Energy {
	return &Energy{name: "energy"}
}

func (e *Energy) Name() string { return e.name }

func (e *Energy) Observe(s Sample) {
	e.totalEnergy += s.Total()
	e.samples++
}

func (e *Energy) Value() float64 {
	if e.samples == 0 {
		return 0
	}
	return e.totalEnergy / float64(e.samples)
}

func (e *Energy) Reset() {
	e.totalEnergy = 0
	e.samples = 0
}

// EnergyDrift is the largest relative deviation of the conserved energy
// from its first sample.
type EnergyDrift struct {
	name          string
	initialEnergy float64
	currentEnergy float64
	maxDrift      float64
	samples       int
}

func NewEnergyDrift() *EnergyDrift {
	return &EnergyDrift{name: "energy_drift"}
}

func (e *EnergyDrift) Name() string { return e.name }

func (e *EnergyDrift) Observe(s Sample) {
	energy := s.Conserved()

	if e.samples == 0 {
		e.initialEnergy = energy
	}

	e.currentEnergy = energy
	e.samples++

	if e.initialEnergy != 0 {
		drift := math.Abs(energy-e.initialEnergy) / math.Abs(e.initialEnergy)
		e.maxDrift = math.Max(e.maxDrift, drift)
	}
}

func (e *EnergyDrift) Value() float64 {
	return e.maxDrift
}

func (e *EnergyDrift) Reset() {
	e.initialEnergy = 0
	e.currentEnergy = 0
	e.maxDrift = 0
	e.samples = 0
}

// Temperature tracks the mean and spread of the instantaneous temperature.
type Temperature struct {
	name   string
	values []float64
}

func NewTemperature() *Temperature {
	return &Temperature{name: "temperature"}
}

func (t *Temperature) Name() string { return t.name }

func (t *Temperature) Observe(s Sample) {
	t.values = append(t.values, s.Temperature)
}

func (t *Temperature) Value() float64 {
	if len(t.values) == 0 {
		return 0
	}
	return stat.Mean(t.values, nil)
}

// StdDev is the sample standard deviation, zero below two samples.
func (t *Temperature) StdDev() float64 {
	if len(t.values) < 2 {
		return 0
	}
	_, std := stat.MeanStdDev(t.values, nil)
	return std
}

func (t *Temperature) Reset() {
	t.values = t.values[:0]
}
