package thermostat

import (
	"fmt"
	"math"

	"github.com/eminamitani/MD-edamame/internal/atoms"
	"github.com/eminamitani/MD-edamame/internal/tensor"
	"github.com/eminamitani/MD-edamame/internal/units"
)

// NoseHooverChain is a chain of M coupled thermostat variables. Link 0
// acts on the particles, link k on link k-1.
type NoseHooverChain struct {
	target float64
	tau    float64
	units  units.System
	dof    float64

	positions  []float64
	velocities []float64
	forces     []float64
	masses     []float64
}

func NewNoseHooverChain(length int, target, tau float64, u units.System) (*NoseHooverChain, error) {
	if length < 1 {
		return nil, fmt.Errorf("%w: got %d", ErrChainLength, length)
	}
	if !(tau > 0) {
		return nil, fmt.Errorf("%w: got %g", ErrTau, tau)
	}
	if target < 0 {
		return nil, fmt.Errorf("%w: got %g", ErrTemperature, target)
	}
	return &NoseHooverChain{
		target:     target,
		tau:        tau,
		units:      u,
		positions:  make([]float64, length),
		velocities: make([]float64, length),
		forces:     make([]float64, length),
		masses:     make([]float64, length),
	}, nil
}

func (c *NoseHooverChain) Name() string    { return "NoseHoover" }
func (c *NoseHooverChain) Scheme() Scheme  { return SchemeSplit }
func (c *NoseHooverChain) Target() float64 { return c.target }
func (c *NoseHooverChain) Len() int        { return len(c.masses) }
func (c *NoseHooverChain) DOF() float64    { return c.dof }

func (c *NoseHooverChain) SetTarget(T float64) { c.target = T }

func (c *NoseHooverChain) Positions() []float64  { return append([]float64(nil), c.positions...) }
func (c *NoseHooverChain) Velocities() []float64 { return append([]float64(nil), c.velocities...) }
func (c *NoseHooverChain) Masses() []float64     { return append([]float64(nil), c.masses...) }

// Setup uses 3N-3 degrees of freedom, the centre-of-mass motion being
// removed separately.
func (c *NoseHooverChain) Setup(sys *atoms.System) {
	c.SetupDOF(float64(3*sys.Len() - 3))
}

// SetupDOF sets every link mass to kB*T*tau^2, the first one scaled by dof.
func (c *NoseHooverChain) SetupDOF(dof float64) {
	c.dof = dof
	q := c.units.Boltzmann * c.target * c.tau * c.tau
	for k := range c.masses {
		c.masses[k] = q
	}
	c.masses[0] *= dof
}

func (c *NoseHooverChain) Update(sys *atoms.System, dt float64) {
	c.Propagate(sys.Velocities(), sys.KineticEnergy(), dt)
}

// Propagate advances the chain by half a step and scales vel accordingly.
// kinetic is the particle kinetic energy matching vel.
func (c *NoseHooverChain) Propagate(vel *tensor.Dense, kinetic, dt float64) {
	akin := 2 * kinetic
	m := len(c.masses)

	for i := m - 1; i >= 0; i-- {
		c.kickLink(i, akin, dt)
	}

	scale := math.Exp(-0.5 * dt * c.velocities[0])
	akin *= math.Exp(-dt * c.velocities[0])

	for k := range c.positions {
		c.positions[k] += 0.5 * dt * c.velocities[k]
	}

	for i := 0; i < m; i++ {
		c.kickLink(i, akin, dt)
	}

	vel.Scale(scale)
}

// kickLink advances link i by a quarter step of its force, damped on both
// sides by an eighth step of link i+1 when that link exists.
func (c *NoseHooverChain) kickLink(i int, akin, dt float64) {
	kT := c.units.Boltzmann * c.target
	damped := i+1 < len(c.masses)

	if damped {
		c.velocities[i] *= math.Exp(-0.125 * dt * c.velocities[i+1])
	}
	if i == 0 {
		c.forces[0] = (akin - c.dof*kT) / c.masses[0]
	} else {
		c.forces[i] = (c.masses[i-1]*c.velocities[i-1]*c.velocities[i-1] - kT) / c.masses[i]
	}
	c.velocities[i] += 0.25 * dt * c.forces[i]
	if damped {
		c.velocities[i] *= math.Exp(-0.125 * dt * c.velocities[i+1])
	}
}

// Energy is the bath contribution to the conserved extended energy.
func (c *NoseHooverChain) Energy() float64 {
	kT := c.units.Boltzmann * c.target
	e := 0.0
	for k, q := range c.masses {
		e += 0.5 * q * c.velocities[k] * c.velocities[k]
		if k == 0 {
			e += c.dof * kT * c.positions[0]
		} else {
			e += kT * c.positions[k]
		}
	}
	return e
}
