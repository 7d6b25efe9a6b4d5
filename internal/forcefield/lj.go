package forcefield

import (
	"context"
	"fmt"
	"math"

	"github.com/eminamitani/MD-edamame/internal/atoms"
	"github.com/eminamitani/MD-edamame/internal/compute"
	"github.com/eminamitani/MD-edamame/internal/tensor"
)

// PairParams describes one species pair. Cutoff is absolute, not in units
// of Sigma.
type PairParams struct {
	Sigma   float64
	Epsilon float64
	Cutoff  float64
}

// LennardJones is a multi-species shifted-force 12-6 potential: both the
// energy and the force go to zero at the pair cutoff.
type LennardJones struct {
	types   map[string]int
	params  [][]PairParams
	backend compute.Backend
	rmax    float64
}

// NewLennardJones takes one label per species and a symmetric table of
// pair parameters indexed in the same order.
func NewLennardJones(labels []string, params [][]PairParams, backend compute.Backend) (*LennardJones, error) {
	n := len(labels)
	if n == 0 || len(params) != n {
		return nil, fmt.Errorf("forcefield: need a %dx%d parameter table", n, n)
	}
	lj := &LennardJones{
		types:   make(map[string]int, n),
		params:  params,
		backend: backend,
	}
	for i, l := range labels {
		lj.types[l] = i
		if len(params[i]) != n {
			return nil, fmt.Errorf("forcefield: parameter row %d has %d entries, want %d", i, len(params[i]), n)
		}
		for j := range params[i] {
			p := params[i][j]
			if p != params[j][i] {
				return nil, fmt.Errorf("forcefield: parameters for %s-%s are not symmetric", labels[i], labels[j])
			}
			if p.Sigma <= 0 || p.Cutoff <= 0 {
				return nil, fmt.Errorf("forcefield: %s-%s needs positive sigma and cutoff", labels[i], labels[j])
			}
			lj.rmax = math.Max(lj.rmax, p.Cutoff)
		}
	}
	if lj.backend == nil {
		lj.backend = compute.GetBackend()
	}
	return lj, nil
}

// KobAndersen is the 80:20 binary glass former with cutoffs of 1.5 between
// like and 2.0 between unlike species.
func KobAndersen(backend compute.Backend) *LennardJones {
	lj, err := NewLennardJones([]string{"A", "B"}, [][]PairParams{
		{{Sigma: 1.0, Epsilon: 1.0, Cutoff: 1.5}, {Sigma: 0.8, Epsilon: 1.5, Cutoff: 2.0}},
		{{Sigma: 0.8, Epsilon: 1.5, Cutoff: 2.0}, {Sigma: 0.88, Epsilon: 0.5, Cutoff: 1.5}},
	}, backend)
	if err != nil {
		panic(err)
	}
	return lj
}

func (lj *LennardJones) Name() string          { return "lj" }
func (lj *LennardJones) Device() tensor.Device { return lj.backend.Device() }
func (lj *LennardJones) Cutoff() float64       { return lj.rmax }

// potential is 4 s^6 (s^6 - r^6) / r^12.
func potential(r, sigma float64) float64 {
	r6 := math.Pow(r, 6)
	s6 := math.Pow(sigma, 6)
	return 4 * s6 * (s6 - r6) / (r6 * r6)
}

// derivative is dV/dr of potential.
func derivative(r, sigma float64) float64 {
	r6 := math.Pow(r, 6)
	s6 := math.Pow(sigma, 6)
	return -24 / r * s6 * (2*s6 - r6) / (r6 * r6)
}

// PairEnergy is the shifted-force pair energy at distance r.
func (p PairParams) PairEnergy(r float64) float64 {
	if r >= p.Cutoff {
		return 0
	}
	rc := p.Cutoff
	return p.Epsilon * (potential(r, p.Sigma) - potential(rc, p.Sigma) - derivative(rc, p.Sigma)*(r-rc))
}

// PairDerivative is dE/dr of PairEnergy.
func (p PairParams) PairDerivative(r float64) float64 {
	if r >= p.Cutoff {
		return 0
	}
	return p.Epsilon * (derivative(r, p.Sigma) - derivative(p.Cutoff, p.Sigma))
}

func (lj *LennardJones) typeIndices(species []string) ([]int, error) {
	idx := make([]int, len(species))
	for i, s := range species {
		t, ok := lj.types[s]
		if !ok {
			return nil, fmt.Errorf("%w: %q", ErrUnknownSpecies, s)
		}
		idx[i] = t
	}
	return idx, nil
}

func (lj *LennardJones) Evaluate(ctx context.Context, in Input) (Result, error) {
	return lj.evaluate(ctx, in, true)
}

// Energy evaluates the potential energy only.
func (lj *LennardJones) Energy(ctx context.Context, in Input) (float64, error) {
	res, err := lj.evaluate(ctx, in, false)
	return res.Energy, err
}

func (lj *LennardJones) evaluate(ctx context.Context, in Input, withForces bool) (Result, error) {
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}
	types, err := lj.typeIndices(in.Species)
	if err != nil {
		return Result{}, err
	}

	n := in.Positions.Rows()
	workers := lj.backend.Workers()
	energies := make([]float64, workers)
	var local []*tensor.Dense
	if withForces {
		local = make([]*tensor.Dense, workers)
		for w := range local {
			local[w] = tensor.New(lj.backend.Device(), n, 3)
		}
	}

	src, dst := in.Edges.Source, in.Edges.Target
	lj.backend.ParallelFor(len(src), 256, func(worker, start, end int) {
		var d [3]float64
		for k := start; k < end; k++ {
			i, j := src[k], dst[k]
			if i >= j {
				continue
			}
			pi, pj := in.Positions.Row(i), in.Positions.Row(j)
			for c := 0; c < 3; c++ {
				d[c] = pi[c] - pj[c]
			}
			atoms.MinimumImage(d[:], in.Box)
			r2 := d[0]*d[0] + d[1]*d[1] + d[2]*d[2]

			p := lj.params[types[i]][types[j]]
			if r2 >= p.Cutoff*p.Cutoff {
				continue
			}
			r := math.Sqrt(r2)
			energies[worker] += p.PairEnergy(r)

			if withForces {
				scale := -p.PairDerivative(r) / r
				fi, fj := local[worker].Row(i), local[worker].Row(j)
				for c := 0; c < 3; c++ {
					fi[c] += scale * d[c]
					fj[c] -= scale * d[c]
				}
			}
		}
	})

	res := Result{}
	for _, e := range energies {
		res.Energy += e
	}
	if withForces {
		res.Forces = local[0]
		for _, f := range local[1:] {
			res.Forces.AddScaled(1, f)
		}
	}
	return res, nil
}
