package analysis

import (
	"math"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eminamitani/MD-edamame/internal/tensor"
	"github.com/eminamitani/MD-edamame/internal/trajectory"
)

// ballistic builds frames where atom A moves at v along x and atom B sits
// still.
func ballistic(times []float64, v float64) []trajectory.Frame {
	frames := make([]trajectory.Frame, len(times))
	for i, t := range times {
		f := trajectory.Frame{
			Species:   []string{"A", "B"},
			Positions: tensor.FromRows(tensor.CPU, [][3]float64{{v * t, 0, 0}, {1, 1, 1}}),
			Box:       10,
		}
		f.Set("time", strconv.FormatFloat(t, 'g', -1, 64))
		frames[i] = f
	}
	return frames
}

func TestMSDBallistic(t *testing.T) {
	frames := ballistic([]float64{0, 1, 2, 4, 8}, 0.5)

	c, err := MSD(frames, "A")
	require.NoError(t, err)
	assert.Equal(t, []float64{1, 2, 4, 8}, c.Lag)
	for i, lag := range c.Lag {
		assert.InDelta(t, 0.25*lag*lag, c.Value[i], 1e-12)
	}

	all, err := MSD(frames, "")
	require.NoError(t, err)
	assert.InDelta(t, c.Value[3]/2, all.Value[3], 1e-12)
}

func TestMSDAveragesRepeatedLags(t *testing.T) {
	frames := ballistic([]float64{0, 2, 2}, 1)
	frames[2].Positions.Set(0, 0, 4)

	c, err := MSD(frames, "A")
	require.NoError(t, err)
	require.Equal(t, 1, c.Len())
	assert.InDelta(t, (4.0+16.0)/2, c.Value[0], 1e-12)
}

func TestMSDErrors(t *testing.T) {
	_, err := MSD(ballistic([]float64{0}, 1), "")
	assert.ErrorIs(t, err, ErrTooFewFrames)

	_, err = MSD(ballistic([]float64{0, 1}, 1), "C")
	assert.Error(t, err)

	frames := ballistic([]float64{0, 1}, 1)
	frames[1].Species = frames[1].Species[:1]
	frames[1].Positions = tensor.FromRows(tensor.CPU, [][3]float64{{0, 0, 0}})
	_, err = MSD(frames, "")
	assert.Error(t, err)
}

func TestWindowedMSDAndDiffusion(t *testing.T) {
	// Constant velocity gives the same displacement from every origin.
	times := make([]float64, 11)
	for i := range times {
		times[i] = float64(i)
	}
	frames := ballistic(times, 1)

	c, err := WindowedMSD(frames, "A", 0.5, 3)
	require.NoError(t, err)
	assert.Equal(t, []float64{0.5, 1, 1.5}, c.Lag)
	assert.Equal(t, []float64{1, 4, 9}, c.Value)

	full, err := WindowedMSD(frames, "A", 1, 0)
	require.NoError(t, err)
	assert.Equal(t, 10, full.Len())
}

func TestDiffusionSlope(t *testing.T) {
	c := Curve{}
	for i := 1; i <= 20; i++ {
		lag := float64(i)
		c.Lag = append(c.Lag, lag)
		c.Value = append(c.Value, 6*0.3*lag+2)
	}
	assert.InDelta(t, 0.3, Diffusion(c), 1e-9)
	assert.Equal(t, 0.0, Diffusion(Curve{}))
}

func TestPowerSpectrum(t *testing.T) {
	const n, dt = 256, 0.1
	series := make([]float64, n)
	for i := range series {
		// 16 full periods across the window, so bin 16 carries the power.
		series[i] = 3 + math.Sin(2*math.Pi*16*float64(i)/n)
	}

	ps := PowerSpectrum(series)
	require.Len(t, ps, n/2+1)
	assert.InDelta(t, 0, ps[0], 1e-9)
	assert.InDelta(t, n/4.0, ps[16], 1e-6)

	assert.InDelta(t, 16/(n*dt), DominantFrequency(series, dt), 1e-12)
	assert.Nil(t, PowerSpectrum(nil))
	assert.Equal(t, 0.0, DominantFrequency([]float64{1}, dt))
}

func TestScatterASCII(t *testing.T) {
	s := NewScatter([]float64{0, 1, 2}, []float64{0, 1, 2, 3})
	require.Len(t, s.Points, 3)

	out := s.ASCII(10, 5)
	lines := strings.Split(strings.TrimSuffix(out, "\n"), "\n")
	require.Len(t, lines, 5)
	assert.Equal(t, 3, strings.Count(out, "•"))
	// Increasing y is drawn from the bottom-left upward.
	assert.True(t, strings.ContainsRune(lines[4], '•'))
	assert.Empty(t, NewScatter(nil, nil).ASCII(10, 5))
}
