package forcefield

import (
	"context"
	"fmt"

	"github.com/eminamitani/MD-edamame/internal/tensor"
)

// EnergyFunc evaluates potential energy without forces.
type EnergyFunc func(ctx context.Context, in Input) (float64, error)

// Gradient derives forces from an energy-only model by central finite
// differences. It costs 6N energy evaluations per call and should only be
// used to check models that do not provide forces.
type Gradient struct {
	name   string
	energy EnergyFunc
	step   float64
	device tensor.Device
}

func NewGradient(name string, energy EnergyFunc, step float64, device tensor.Device) (*Gradient, error) {
	if energy == nil {
		return nil, fmt.Errorf("forcefield: gradient fallback needs an energy function")
	}
	if !(step > 0) {
		return nil, fmt.Errorf("forcefield: finite difference step must be positive, got %g", step)
	}
	return &Gradient{name: name, energy: energy, step: step, device: device}, nil
}

func (g *Gradient) Name() string          { return g.name }
func (g *Gradient) Device() tensor.Device { return g.device }

func (g *Gradient) Evaluate(ctx context.Context, in Input) (Result, error) {
	e0, err := g.energy(ctx, in)
	if err != nil {
		return Result{}, err
	}

	shifted := in
	shifted.Positions = in.Positions.Clone()
	data := shifted.Positions.Data()
	forces := tensor.New(g.device, in.Positions.Rows(), 3)
	fd := forces.Data()

	for k := range data {
		x := data[k]

		data[k] = x + g.step
		ep, err := g.energy(ctx, shifted)
		if err != nil {
			return Result{}, err
		}
		data[k] = x - g.step
		em, err := g.energy(ctx, shifted)
		if err != nil {
			return Result{}, err
		}
		data[k] = x

		fd[k] = -(ep - em) / (2 * g.step)
	}

	return Result{Energy: e0, Forces: forces}, nil
}
