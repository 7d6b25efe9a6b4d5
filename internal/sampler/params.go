// Package sampler decides which integration steps are recorded: a dense
// phase, then geometrically spaced anchors each followed by a short burst.
package sampler

import (
	"errors"
	"fmt"
	"math"
)

var (
	ErrInvalidParams = errors.New("sampler: invalid parameters")

	// ErrInfeasible is returned when no dense-phase boundary below
	// MaxSearchCeiling keeps bursts clear of the following anchor.
	ErrInfeasible = errors.New("sampler: no safe dense-phase boundary")
)

// MaxSearchCeiling bounds the t_safe search. Steps above 2^53 are no longer
// exact in float64.
const MaxSearchCeiling int64 = 1 << 53

// roundoff absorbs float error when a*r lands just above an integer.
const roundoff = 1e-9

type Params struct {
	PerDecade int   // anchors per decade of steps
	BurstSize int   // samples per burst, anchor included
	Interval  int64 // steps between burst samples
	MaxStep   int64 // last step of the run
}

func (p Params) Validate() error {
	switch {
	case p.PerDecade < 1:
		return fmt.Errorf("%w: per-decade count must be >= 1, got %d", ErrInvalidParams, p.PerDecade)
	case p.BurstSize < 1:
		return fmt.Errorf("%w: burst size must be >= 1, got %d", ErrInvalidParams, p.BurstSize)
	case p.Interval < 1:
		return fmt.Errorf("%w: burst interval must be >= 1, got %d", ErrInvalidParams, p.Interval)
	case p.MaxStep < 1:
		return fmt.Errorf("%w: max step must be >= 1, got %d", ErrInvalidParams, p.MaxStep)
	}
	return nil
}

// Ratio is the geometric growth factor between anchors, 10^(1/PerDecade).
func (p Params) Ratio() float64 {
	return math.Pow(10, 1/float64(p.PerDecade))
}

// Window is the span a burst occupies after its anchor.
func (p Params) Window() int64 {
	return int64(p.BurstSize-1) * p.Interval
}

// NextAnchor returns ceil(a*r - 1e-9), never less than a+1. ok is false
// when the result would leave the int64 range.
func NextAnchor(a int64, r float64) (next int64, ok bool) {
	x := math.Ceil(float64(a)*r - roundoff)
	if x >= math.MaxInt64 || math.IsInf(x, 0) || math.IsNaN(x) {
		return 0, false
	}
	next = int64(x)
	if next <= a {
		if a == math.MaxInt64 {
			return 0, false
		}
		next = a + 1
	}
	return next, true
}

// IsSafe reports whether every anchor gap, walking from t up to MaxStep,
// strictly exceeds the burst window.
func IsSafe(t int64, p Params) bool {
	r := p.Ratio()
	w := p.Window()
	for a := t; a <= p.MaxStep; {
		next, ok := NextAnchor(a, r)
		if !ok {
			return true
		}
		if next-a <= w {
			return false
		}
		a = next
	}
	return true
}

// FindTSafe returns the smallest t >= 1 for which IsSafe holds. Safety is
// monotone in t, so the boundary is bracketed by doubling and then
// bisected.
func FindTSafe(p Params) (int64, error) {
	if err := p.Validate(); err != nil {
		return 0, err
	}
	if IsSafe(1, p) {
		return 1, nil
	}

	lo, hi := int64(1), int64(2)
	for !IsSafe(hi, p) {
		if hi >= MaxSearchCeiling {
			return 0, fmt.Errorf("%w: per-decade %d, burst %d, interval %d, max step %d",
				ErrInfeasible, p.PerDecade, p.BurstSize, p.Interval, p.MaxStep)
		}
		lo = hi
		hi *= 2
	}

	// lo is unsafe, hi is safe.
	for hi-lo > 1 {
		mid := lo + (hi-lo)/2
		if IsSafe(mid, p) {
			hi = mid
		} else {
			lo = mid
		}
	}
	return hi, nil
}
