package experiment

import (
	"fmt"
	"math/rand/v2"
	"sort"

	"github.com/eminamitani/MD-edamame/internal/atoms"
	"github.com/eminamitani/MD-edamame/internal/compute"
	"github.com/eminamitani/MD-edamame/internal/config"
	"github.com/eminamitani/MD-edamame/internal/forcefield"
	"github.com/eminamitani/MD-edamame/internal/thermostat"
	"github.com/eminamitani/MD-edamame/internal/units"
)

// fdStep is the displacement used by the finite-difference force fields.
const fdStep = 1e-5

type Registry struct {
	forceFields map[string]func(compute.Backend) (forcefield.ForceField, error)
	thermostats map[string]func(config.ThermostatConfig, units.System, *rand.Rand) (thermostat.Thermostat, error)
	mixes       map[string][]atoms.Fraction
}

func NewRegistry() *Registry {
	r := &Registry{
		forceFields: make(map[string]func(compute.Backend) (forcefield.ForceField, error)),
		thermostats: make(map[string]func(config.ThermostatConfig, units.System, *rand.Rand) (thermostat.Thermostat, error)),
		mixes:       make(map[string][]atoms.Fraction),
	}

	r.forceFields["zero"] = func(b compute.Backend) (forcefield.ForceField, error) {
		return forcefield.NewZero(b.Device()), nil
	}
	r.forceFields["lj"] = func(b compute.Backend) (forcefield.ForceField, error) {
		return singleLJ(b)
	}
	r.forceFields["kob-andersen"] = func(b compute.Backend) (forcefield.ForceField, error) {
		return forcefield.KobAndersen(b), nil
	}
	// Energy-only variants: forces come from finite differences of the
	// pair energy. Slow; meant for checking models without analytic forces.
	r.forceFields["lj-fd"] = func(b compute.Backend) (forcefield.ForceField, error) {
		lj, err := singleLJ(b)
		if err != nil {
			return nil, err
		}
		return forcefield.NewGradient("lj-fd", lj.Energy, fdStep, b.Device())
	}
	r.forceFields["kob-andersen-fd"] = func(b compute.Backend) (forcefield.ForceField, error) {
		return forcefield.NewGradient("kob-andersen-fd", forcefield.KobAndersen(b).Energy, fdStep, b.Device())
	}

	// The target starts at zero; NVT and ANNEAL set it per segment.
	r.thermostats["Bussi"] = func(c config.ThermostatConfig, u units.System, rng *rand.Rand) (thermostat.Thermostat, error) {
		return thermostat.NewBussi(0, c.Tau, u, rng)
	}
	r.thermostats["NoseHoover"] = func(c config.ThermostatConfig, u units.System, _ *rand.Rand) (thermostat.Thermostat, error) {
		return thermostat.NewNoseHooverChain(c.ChainLength, 0, c.Tau, u)
	}

	r.mixes["zero"] = []atoms.Fraction{{Species: "A", Share: 1}}
	r.mixes["lj"] = []atoms.Fraction{{Species: "A", Share: 1}}
	r.mixes["kob-andersen"] = atoms.KobAndersenMix
	r.mixes["lj-fd"] = r.mixes["lj"]
	r.mixes["kob-andersen-fd"] = atoms.KobAndersenMix

	return r
}

// singleLJ is the one-species Lennard-Jones fluid, sigma = epsilon = 1.
func singleLJ(b compute.Backend) (*forcefield.LennardJones, error) {
	return forcefield.NewLennardJones([]string{"A"}, [][]forcefield.PairParams{
		{{Sigma: 1, Epsilon: 1, Cutoff: 2.5}},
	}, b)
}

func (r *Registry) GetForceField(name string, backend compute.Backend) (forcefield.ForceField, error) {
	fn, ok := r.forceFields[name]
	if !ok {
		return nil, fmt.Errorf("unknown force field: %s", name)
	}
	return fn(backend)
}

func (r *Registry) GetThermostat(c config.ThermostatConfig, u units.System, rng *rand.Rand) (thermostat.Thermostat, error) {
	fn, ok := r.thermostats[c.Type]
	if !ok {
		return nil, fmt.Errorf("unknown thermostat: %s", c.Type)
	}
	return fn(c, u, rng)
}

// Mix is the species mixture used when a lattice is generated for the
// named force field.
func (r *Registry) Mix(forceField string) []atoms.Fraction {
	if m, ok := r.mixes[forceField]; ok {
		return m
	}
	return []atoms.Fraction{{Species: "A", Share: 1}}
}

func (r *Registry) ListForceFields() []string {
	names := make([]string, 0, len(r.forceFields))
	for name := range r.forceFields {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (r *Registry) ListThermostats() []string {
	names := make([]string, 0, len(r.thermostats))
	for name := range r.thermostats {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
