package metrics

import "math"

// Stability is the fraction of samples whose energies are finite and whose
// temperature stays below threshold.
type Stability struct {
	name       string
	threshold  float64
	violations int
	samples    int
}

func NewStability(threshold float64) *Stability {
	return &Stability{
		name:      "stability",
		threshold: threshold,
	}
}

func (s *Stability) Name() string {
	return s.name
}

func (s *Stability) Observe(x Sample) {
	s.samples++
	if !finite(x.Kinetic) || !finite(x.Potential) || !finite(x.Temperature) || x.Temperature > s.threshold {
		s.violations++
	}
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

func (s *Stability) Value() float64 {
	if s.samples == 0 {
		return 1.0
	}
	return 1.0 - float64(s.violations)/float64(s.samples)
}

func (s *Stability) Reset() {
	s.violations = 0
	s.samples = 0
}

// RebuildRate is neighbor-list rebuilds per integration step between the
// first and last sample.
type RebuildRate struct {
	name        string
	first, last Sample
	samples     int
}

func NewRebuildRate() *RebuildRate {
	return &RebuildRate{name: "rebuild_rate"}
}

func (r *RebuildRate) Name() string {
	return r.name
}

func (r *RebuildRate) Observe(s Sample) {
	if r.samples == 0 {
		r.first = s
	}
	r.last = s
	r.samples++
}

func (r *RebuildRate) Value() float64 {
	steps := r.last.Step - r.first.Step
	if steps <= 0 {
		return 0
	}
	return float64(r.last.Rebuilds-r.first.Rebuilds) / float64(steps)
}

func (r *RebuildRate) Reset() {
	r.first, r.last = Sample{}, Sample{}
	r.samples = 0
}
