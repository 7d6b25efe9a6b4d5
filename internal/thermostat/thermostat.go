// Package thermostat couples atomic velocities to a heat bath.
package thermostat

import (
	"errors"

	"github.com/eminamitani/MD-edamame/internal/atoms"
)

var (
	ErrChainLength = errors.New("thermostat: chain length must be at least 1")
	ErrTau         = errors.New("thermostat: relaxation time must be positive")
	ErrTemperature = errors.New("thermostat: target temperature must be non-negative")
)

// Scheme tells the integrator where the thermostat sits in a step.
type Scheme int

const (
	// SchemeSplit thermostats run a half step before and after the
	// velocity-Verlet step.
	SchemeSplit Scheme = iota
	// SchemePost thermostats run once after the velocity-Verlet step.
	SchemePost
)

type Thermostat interface {
	Name() string
	Scheme() Scheme
	// Setup derives the degrees of freedom and any mass parameters from sys.
	Setup(sys *atoms.System)
	// Update rescales the velocities of sys in place.
	Update(sys *atoms.System, dt float64)
	Target() float64
	SetTarget(T float64)
}
