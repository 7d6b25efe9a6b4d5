// Package neighbor maintains a Verlet neighbor list with a skin margin for
// a cubic periodic box.
package neighbor

import (
	"errors"
	"fmt"
	"math"

	"github.com/eminamitani/MD-edamame/internal/atoms"
	"github.com/eminamitani/MD-edamame/internal/compute"
	"github.com/eminamitani/MD-edamame/internal/tensor"
)

var (
	ErrInvalidCutoff = errors.New("neighbor: cutoff must be positive")
	ErrInvalidMargin = errors.New("neighbor: margin must be positive")
)

// Edges stores ordered pairs (Source[k], Target[k]). Both (i, j) and (j, i)
// are present for every neighboring pair.
type Edges struct {
	Source []int
	Target []int
}

func (e Edges) Len() int { return len(e.Source) }

// List is a Verlet list built at radius cutoff+margin and rebuilt once two
// atoms could have closed the margin since the last build.
type List struct {
	cutoff   float64
	margin   float64
	backend  compute.Backend
	edges    Edges
	snapshot *tensor.Dense
	builds   int
}

type Option func(*List)

// WithBackend runs the pair search on b instead of the active backend.
func WithBackend(b compute.Backend) Option {
	return func(l *List) { l.backend = b }
}

func New(cutoff, margin float64, opts ...Option) (*List, error) {
	if !(cutoff > 0) {
		return nil, fmt.Errorf("%w: got %g", ErrInvalidCutoff, cutoff)
	}
	if !(margin > 0) {
		return nil, fmt.Errorf("%w: got %g", ErrInvalidMargin, margin)
	}
	l := &List{cutoff: cutoff, margin: margin, backend: compute.GetBackend()}
	for _, opt := range opts {
		opt(l)
	}
	return l, nil
}

func (l *List) Cutoff() float64 { return l.cutoff }
func (l *List) Margin() float64 { return l.margin }
func (l *List) Edges() Edges    { return l.edges }

// Rebuilds counts how many times the list has been generated.
func (l *List) Rebuilds() int { return l.builds }

// Generate rebuilds the list from scratch and snapshots the positions.
// Pairs are emitted in row-major order of (source, target).
func (l *List) Generate(sys *atoms.System) {
	pos := sys.Positions()
	n := pos.Rows()
	L := sys.Box()
	rlist := l.cutoff + l.margin
	rlist2 := rlist * rlist

	rows := make([][]int, n)
	l.backend.ParallelFor(n, 32, func(_, start, end int) {
		var d [3]float64
		for i := start; i < end; i++ {
			pi := pos.Row(i)
			var targets []int
			for j := 0; j < n; j++ {
				if j == i {
					continue
				}
				pj := pos.Row(j)
				for k := 0; k < 3; k++ {
					d[k] = pi[k] - pj[k]
				}
				atoms.MinimumImage(d[:], L)
				if d[0]*d[0]+d[1]*d[1]+d[2]*d[2] < rlist2 {
					targets = append(targets, j)
				}
			}
			rows[i] = targets
		}
	})

	total := 0
	for _, r := range rows {
		total += len(r)
	}
	src := make([]int, 0, total)
	dst := make([]int, 0, total)
	for i, r := range rows {
		for _, j := range r {
			src = append(src, i)
			dst = append(dst, j)
		}
	}

	l.edges = Edges{Source: src, Target: dst}
	l.snapshot = pos.Clone()
	l.builds++
}

// Update regenerates the list if the two largest displacements since the
// last build could together exceed the margin. It reports whether a
// rebuild happened.
func (l *List) Update(sys *atoms.System) bool {
	if l.snapshot == nil || l.snapshot.Rows() != sys.Len() {
		l.Generate(sys)
		return true
	}
	d1, d2 := l.largestDisplacements(sys)
	if NeedsRebuild(d1, d2, l.margin) {
		l.Generate(sys)
		return true
	}
	return false
}

// NeedsRebuild applies the rebuild criterion to the two largest squared
// displacements d1 >= d2: sqrt(d1)+sqrt(d2) > margin, written without
// square roots of the individual terms.
func NeedsRebuild(d1, d2, margin float64) bool {
	return d1+d2+2*math.Sqrt(d1*d2) > margin*margin
}

func (l *List) largestDisplacements(sys *atoms.System) (float64, float64) {
	pos := sys.Positions()
	L := sys.Box()
	var d1, d2 float64
	var d [3]float64
	for i := 0; i < pos.Rows(); i++ {
		p := pos.Row(i)
		s := l.snapshot.Row(i)
		for k := 0; k < 3; k++ {
			d[k] = p[k] - s[k]
		}
		atoms.MinimumImage(d[:], L)
		r2 := d[0]*d[0] + d[1]*d[1] + d[2]*d[2]
		switch {
		case r2 > d1:
			d1, d2 = r2, d1
		case r2 > d2:
			d2 = r2
		}
	}
	return d1, d2
}
