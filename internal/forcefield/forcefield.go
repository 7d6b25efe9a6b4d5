// Package forcefield evaluates potential energy and forces for a system
// given its neighbor list.
package forcefield

import (
	"context"
	"errors"

	"github.com/eminamitani/MD-edamame/internal/atoms"
	"github.com/eminamitani/MD-edamame/internal/neighbor"
	"github.com/eminamitani/MD-edamame/internal/tensor"
)

var ErrUnknownSpecies = errors.New("forcefield: species has no parameters")

// Input is everything a force field may read. Edges hold both orderings of
// every neighboring pair.
type Input struct {
	Species   []string
	Positions *tensor.Dense
	Box       float64
	Edges     neighbor.Edges
}

type Result struct {
	Energy float64
	Forces *tensor.Dense
}

// ForceField is a capability object bound to one compute device.
type ForceField interface {
	Name() string
	Device() tensor.Device
	Evaluate(ctx context.Context, in Input) (Result, error)
}

// Ranged force fields report the largest interaction distance they use.
type Ranged interface {
	Cutoff() float64
}

// InputFrom collects the evaluation input for sys.
func InputFrom(sys *atoms.System, edges neighbor.Edges) Input {
	return Input{
		Species:   sys.Species(),
		Positions: sys.Positions(),
		Box:       sys.Box(),
		Edges:     edges,
	}
}

// Apply evaluates ff and stores the energy and forces in sys.
func Apply(ctx context.Context, ff ForceField, sys *atoms.System, edges neighbor.Edges) error {
	res, err := ff.Evaluate(ctx, InputFrom(sys, edges))
	if err != nil {
		return err
	}
	if err := sys.SetForces(res.Forces); err != nil {
		return err
	}
	sys.SetPotentialEnergy(res.Energy)
	return nil
}
