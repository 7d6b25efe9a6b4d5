package analysis

import (
	"errors"
	"fmt"
	"sort"
	"strconv"

	"gonum.org/v1/gonum/stat"

	"github.com/eminamitani/MD-edamame/internal/trajectory"
)

var ErrTooFewFrames = errors.New("analysis: need at least two frames")

// Curve is a displacement curve sampled at increasing lag times.
type Curve struct {
	Lag   []float64
	Value []float64
}

func (c Curve) Len() int { return len(c.Lag) }

// selection returns the atom indices with the given species, or every atom
// for an empty species.
func selection(f trajectory.Frame, species string) []int {
	idx := make([]int, 0, f.Len())
	for i, s := range f.Species {
		if species == "" || s == species {
			idx = append(idx, i)
		}
	}
	return idx
}

func frameTime(f trajectory.Frame, fallback float64) float64 {
	if v, ok := f.Get("time"); ok {
		if t, err := strconv.ParseFloat(v, 64); err == nil {
			return t
		}
	}
	return fallback
}

func squaredDisplacement(a, b trajectory.Frame, idx []int) float64 {
	sum := 0.0
	for _, i := range idx {
		ra, rb := a.Positions.Row(i), b.Positions.Row(i)
		for k := 0; k < 3; k++ {
			d := rb[k] - ra[k]
			sum += d * d
		}
	}
	return sum / float64(len(idx))
}

func checkFrames(frames []trajectory.Frame, species string) ([]int, error) {
	if len(frames) < 2 {
		return nil, ErrTooFewFrames
	}
	n := frames[0].Len()
	for i, f := range frames {
		if f.Len() != n {
			return nil, fmt.Errorf("analysis: frame %d has %d atoms, want %d", i, f.Len(), n)
		}
	}
	idx := selection(frames[0], species)
	if len(idx) == 0 {
		return nil, fmt.Errorf("analysis: no atoms of species %q", species)
	}
	return idx, nil
}

// MSD measures every frame against the first one. Lags come from the
// frames' time metadata, or the frame index when it is absent. Frames with
// equal lag (a burst sample landing on a later anchor) are averaged.
// Positions must be unwrapped.
func MSD(frames []trajectory.Frame, species string) (Curve, error) {
	idx, err := checkFrames(frames, species)
	if err != nil {
		return Curve{}, err
	}

	t0 := frameTime(frames[0], 0)
	byLag := make(map[float64][]float64)
	for i, f := range frames[1:] {
		lag := frameTime(f, float64(i+1)) - t0
		byLag[lag] = append(byLag[lag], squaredDisplacement(frames[0], f, idx))
	}

	var c Curve
	for lag := range byLag {
		c.Lag = append(c.Lag, lag)
	}
	sort.Float64s(c.Lag)
	c.Value = make([]float64, len(c.Lag))
	for i, lag := range c.Lag {
		c.Value[i] = stat.Mean(byLag[lag], nil)
	}
	return c, nil
}

// WindowedMSD averages over every time origin of evenly spaced frames, for
// lags of 1..maxLag frames. dt is the time between frames.
func WindowedMSD(frames []trajectory.Frame, species string, dt float64, maxLag int) (Curve, error) {
	idx, err := checkFrames(frames, species)
	if err != nil {
		return Curve{}, err
	}
	if maxLag <= 0 || maxLag >= len(frames) {
		maxLag = len(frames) - 1
	}

	c := Curve{Lag: make([]float64, maxLag), Value: make([]float64, maxLag)}
	for lag := 1; lag <= maxLag; lag++ {
		sum := 0.0
		origins := len(frames) - lag
		for o := 0; o < origins; o++ {
			sum += squaredDisplacement(frames[o], frames[o+lag], idx)
		}
		c.Lag[lag-1] = float64(lag) * dt
		c.Value[lag-1] = sum / float64(origins)
	}
	return c, nil
}

// Diffusion fits MSD = 6*D*t + b over the second half of the curve and
// returns D.
func Diffusion(c Curve) float64 {
	if c.Len() < 2 {
		return 0
	}
	from := c.Len() / 2
	if c.Len()-from < 2 {
		from = 0
	}
	_, slope := stat.LinearRegression(c.Lag[from:], c.Value[from:], nil, false)
	return slope / 6
}
