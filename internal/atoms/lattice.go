package atoms

import (
	"fmt"
	"math"
	"math/rand/v2"

	"github.com/eminamitani/MD-edamame/internal/tensor"
	"github.com/eminamitani/MD-edamame/internal/units"
)

// Fraction assigns a share of the atoms to one species.
type Fraction struct {
	Species string
	Share   float64
}

// KobAndersenMix is the 80:20 A:B binary mixture.
var KobAndersenMix = []Fraction{{"A", 0.8}, {"B", 0.2}}

// SimpleCubic places n atoms on a simple-cubic lattice filling a cube of
// density rho. Species are assigned by share and then shuffled.
func SimpleCubic(n int, rho float64, mix []Fraction, u units.System, rng *rand.Rand) (*System, error) {
	if n <= 0 {
		return nil, fmt.Errorf("atoms: lattice needs at least one atom, got %d", n)
	}
	if rho <= 0 {
		return nil, fmt.Errorf("atoms: density must be positive, got %g", rho)
	}
	if len(mix) == 0 {
		return nil, fmt.Errorf("atoms: empty species mix")
	}

	L := math.Cbrt(float64(n) / rho)
	side := int(math.Ceil(math.Cbrt(float64(n))))
	spacing := L / float64(side)

	pos := tensor.New(tensor.CPU, n, 3)
	idx := 0
	for ix := 0; ix < side && idx < n; ix++ {
		for iy := 0; iy < side && idx < n; iy++ {
			for iz := 0; iz < side && idx < n; iz++ {
				row := pos.Row(idx)
				row[0] = (float64(ix)+0.5)*spacing - 0.5*L
				row[1] = (float64(iy)+0.5)*spacing - 0.5*L
				row[2] = (float64(iz)+0.5)*spacing - 0.5*L
				idx++
			}
		}
	}

	species := make([]string, 0, n)
	for k, f := range mix {
		count := int(math.Round(f.Share * float64(n)))
		if k == len(mix)-1 {
			count = n - len(species)
		}
		for j := 0; j < count && len(species) < n; j++ {
			species = append(species, f.Species)
		}
	}
	rng.Shuffle(len(species), func(i, j int) { species[i], species[j] = species[j], species[i] })

	sys, err := New(species, pos, L, u)
	if err != nil {
		return nil, err
	}
	sys.ApplyPBC()
	return sys, nil
}
