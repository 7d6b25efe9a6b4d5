package thermostat

import (
	"fmt"
	"math"
	"math/rand/v2"

	"github.com/eminamitani/MD-edamame/internal/atoms"
	"github.com/eminamitani/MD-edamame/internal/tensor"
	"github.com/eminamitani/MD-edamame/internal/units"
)

// Bussi is the stochastic velocity-rescaling thermostat. It keeps no state
// between updates besides its random stream.
type Bussi struct {
	target float64
	tau    float64
	units  units.System
	dof    int
	rng    *rand.Rand
	noise  []float64
}

func NewBussi(target, tau float64, u units.System, rng *rand.Rand) (*Bussi, error) {
	if !(tau > 0) {
		return nil, fmt.Errorf("%w: got %g", ErrTau, tau)
	}
	if target < 0 {
		return nil, fmt.Errorf("%w: got %g", ErrTemperature, target)
	}
	if rng == nil {
		rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	return &Bussi{target: target, tau: tau, units: u, rng: rng}, nil
}

func (b *Bussi) Name() string    { return "Bussi" }
func (b *Bussi) Scheme() Scheme  { return SchemePost }
func (b *Bussi) Target() float64 { return b.target }
func (b *Bussi) DOF() int        { return b.dof }

func (b *Bussi) SetTarget(T float64) { b.target = T }

// Setup uses all 3N degrees of freedom.
func (b *Bussi) Setup(sys *atoms.System) {
	b.SetupDOF(3 * sys.Len())
}

func (b *Bussi) SetupDOF(dof int) {
	b.dof = dof
	b.noise = make([]float64, dof)
}

func (b *Bussi) Update(sys *atoms.System, dt float64) {
	b.Rescale(sys.Velocities(), sys.KineticEnergy(), dt)
}

// Rescale multiplies vel by sqrt(alpha2) drawn so that the kinetic energy
// relaxes towards the canonical distribution with time constant tau.
// A zero kinetic energy yields a non-finite factor.
func (b *Bussi) Rescale(vel *tensor.Dense, kinetic, dt float64) {
	vel.Scale(math.Sqrt(b.Alpha2(kinetic, dt)))
}

// Alpha2 draws the squared scale factor for one update.
func (b *Bussi) Alpha2(kinetic, dt float64) float64 {
	if len(b.noise) != b.dof {
		b.noise = make([]float64, b.dof)
	}
	sum2 := 0.0
	for i := range b.noise {
		r := b.rng.NormFloat64()
		b.noise[i] = r
		sum2 += r * r
	}
	r1 := 0.0
	if b.dof > 0 {
		r1 = b.noise[0]
	}

	dof := float64(b.dof)
	targKE := 0.5 * dof * b.units.Boltzmann * b.target
	f := math.Exp(-dt / b.tau)
	return f +
		targKE*(1-f)*sum2/(dof*kinetic) +
		2*r1*math.Sqrt(targKE*f*(1-f)/(dof*kinetic))
}
