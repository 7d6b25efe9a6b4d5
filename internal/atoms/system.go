// Package atoms holds the per-atom state of a periodic cubic simulation cell.
package atoms

import (
	"fmt"
	"math"
	"math/rand/v2"

	"github.com/eminamitani/MD-edamame/internal/tensor"
	"github.com/eminamitani/MD-edamame/internal/units"
)

// System is an N-atom configuration in a cubic periodic box.
type System struct {
	positions  *tensor.Dense
	velocities *tensor.Dense
	forces     *tensor.Dense
	masses     []float64
	species    []string
	numbers    []int
	box        float64
	potential  float64
	units      units.System
	device     tensor.Device

	accel *tensor.Dense
}

// New builds a system from species labels and (N,3) positions. Velocities
// and forces start at zero.
func New(species []string, positions *tensor.Dense, box float64, u units.System) (*System, error) {
	if box <= 0 {
		return nil, fmt.Errorf("%w: %g", ErrInvalidBox, box)
	}
	n := len(species)
	if err := checkShape(positions, n); err != nil {
		return nil, fmt.Errorf("positions: %w", err)
	}

	dev := positions.Device()
	s := &System{
		positions:  positions.Clone(),
		velocities: tensor.New(dev, n, 3),
		forces:     tensor.New(dev, n, 3),
		box:        box,
		units:      u,
		device:     dev,
	}
	if err := s.SetTypes(species); err != nil {
		return nil, err
	}
	return s, nil
}

func checkShape(d *tensor.Dense, n int) error {
	shape := d.Shape()
	if len(shape) != 2 || shape[0] != n || shape[1] != 3 {
		return fmt.Errorf("%w: got %v, want [%d 3]", ErrShapeMismatch, shape, n)
	}
	return nil
}

func (s *System) Len() int                  { return len(s.species) }
func (s *System) Box() float64              { return s.box }
func (s *System) Units() units.System       { return s.units }
func (s *System) Device() tensor.Device     { return s.device }
func (s *System) Positions() *tensor.Dense  { return s.positions }
func (s *System) Velocities() *tensor.Dense { return s.velocities }
func (s *System) Forces() *tensor.Dense     { return s.forces }
func (s *System) Masses() []float64         { return s.masses }
func (s *System) Species() []string         { return s.species }
func (s *System) AtomicNumbers() []int      { return s.numbers }
func (s *System) PotentialEnergy() float64  { return s.potential }

func (s *System) SetPotentialEnergy(e float64) { s.potential = e }

// SetTypes assigns species labels and resets masses and atomic numbers
// from the element table.
func (s *System) SetTypes(species []string) error {
	if len(species) != s.positions.Rows() {
		return fmt.Errorf("%w: %d species for %d atoms", ErrShapeMismatch, len(species), s.positions.Rows())
	}
	masses := make([]float64, len(species))
	numbers := make([]int, len(species))
	for i, sym := range species {
		el, err := units.ElementOf(sym)
		if err != nil {
			return err
		}
		masses[i] = el.Mass
		numbers[i] = el.Number
	}
	s.species = append([]string(nil), species...)
	s.masses = masses
	s.numbers = numbers
	return nil
}

func (s *System) SetMasses(m []float64) error {
	if len(m) != s.Len() {
		return fmt.Errorf("%w: %d masses for %d atoms", ErrShapeMismatch, len(m), s.Len())
	}
	s.masses = append([]float64(nil), m...)
	return nil
}

func (s *System) SetPositions(p *tensor.Dense) error {
	if err := checkShape(p, s.Len()); err != nil {
		return fmt.Errorf("positions: %w", err)
	}
	s.positions.CopyFrom(p)
	return nil
}

func (s *System) SetVelocities(v *tensor.Dense) error {
	if err := checkShape(v, s.Len()); err != nil {
		return fmt.Errorf("velocities: %w", err)
	}
	s.velocities.CopyFrom(v)
	return nil
}

func (s *System) SetForces(f *tensor.Dense) error {
	if err := checkShape(f, s.Len()); err != nil {
		return fmt.Errorf("forces: %w", err)
	}
	s.forces.CopyFrom(f)
	return nil
}

func (s *System) SetBox(L float64) error {
	if L <= 0 {
		return fmt.Errorf("%w: %g", ErrInvalidBox, L)
	}
	s.box = L
	return nil
}

// ApplyPBC wraps every coordinate into [-L/2, L/2).
func (s *System) ApplyPBC() {
	data := s.positions.Data()
	for i, x := range data {
		data[i] = Wrap(x, s.box)
	}
}

// ApplyPBCImages wraps positions and accumulates the removed box shifts.
func (s *System) ApplyPBCImages(images Images) {
	for i := range images {
		row := s.positions.Row(i)
		for k := 0; k < 3; k++ {
			w, shift := WrapShift(row[k], s.box)
			images[i][k] += shift
			row[k] = w
		}
	}
}

// Unwrapped returns positions with the accumulated box shifts added back.
func (s *System) Unwrapped(images Images) *tensor.Dense {
	out := s.positions.Clone()
	for i := range images {
		row := out.Row(i)
		for k := 0; k < 3; k++ {
			row[k] += float64(images[i][k]) * s.box
		}
	}
	return out
}

// KineticEnergy is sum(m v^2 / 2) in energy units.
func (s *System) KineticEnergy() float64 {
	v2 := s.velocities.RowNormsSquared()
	ke := 0.0
	for i, m := range s.masses {
		ke += 0.5 * m * v2[i]
	}
	return ke / s.units.Conversion
}

// Temperature uses 3N degrees of freedom.
func (s *System) Temperature() float64 {
	n := s.Len()
	if n == 0 {
		return 0
	}
	return 2 * s.KineticEnergy() / (3 * float64(n) * s.units.Boltzmann)
}

// Kick advances velocities by half a step of the current forces.
func (s *System) Kick(dt float64) error {
	for i, m := range s.masses {
		if m == 0 {
			return fmt.Errorf("%w: atom %d", ErrZeroMass, i)
		}
	}
	if s.accel == nil || !s.accel.SameShape(s.forces) {
		s.accel = tensor.New(s.device, s.forces.Shape()...)
	}
	s.accel.CopyFrom(s.forces)
	s.accel.DivRows(s.masses)
	s.velocities.AddScaled(0.5*dt*s.units.Conversion, s.accel)
	return nil
}

// Drift advances positions by a full step and wraps them, recording box
// crossings in images.
func (s *System) Drift(dt float64, images Images) {
	s.positions.AddScaled(dt, s.velocities)
	s.ApplyPBCImages(images)
}

// RemoveDrift subtracts the mean velocity from every atom.
func (s *System) RemoveDrift() {
	if s.Len() == 0 {
		return
	}
	s.velocities.SubRow(s.velocities.ColumnMean())
}

// InitVelocities draws Maxwell-Boltzmann velocities at temperature T and
// removes the net drift.
func (s *System) InitVelocities(T float64, rng *rand.Rand) {
	sigma := make([]float64, s.Len())
	for i, m := range s.masses {
		sigma[i] = math.Sqrt(s.units.Boltzmann * T * s.units.Conversion / m)
	}
	data := s.velocities.Data()
	for i := range data {
		data[i] = rng.NormFloat64()
	}
	s.velocities.MulRows(sigma)
	s.RemoveDrift()
}
