package forcefield

import (
	"context"

	"github.com/eminamitani/MD-edamame/internal/tensor"
)

// Zero is a force field without interactions.
type Zero struct {
	device tensor.Device
}

func NewZero(device tensor.Device) *Zero { return &Zero{device: device} }

func (z *Zero) Name() string          { return "zero" }
func (z *Zero) Device() tensor.Device { return z.device }

func (z *Zero) Evaluate(ctx context.Context, in Input) (Result, error) {
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}
	return Result{Forces: tensor.New(z.device, in.Positions.Rows(), 3)}, nil
}
