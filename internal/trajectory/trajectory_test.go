package trajectory

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eminamitani/MD-edamame/internal/atoms"
	"github.com/eminamitani/MD-edamame/internal/tensor"
	"github.com/eminamitani/MD-edamame/internal/units"
)

func sampleFrame() Frame {
	return Frame{
		Species:   []string{"A", "B"},
		Positions: tensor.FromRows(tensor.CPU, [][3]float64{{0.5, -1.25, 2}, {1e-3, 0, -2.5}}),
		Forces:    tensor.FromRows(tensor.CPU, [][3]float64{{1, 2, 3}, {-1, -2, -3}}),
		Box:       5,
		Energy:    -12.5,
		Meta:      []Field{{"step", "40"}, {"time", "0.2"}, {"kind", "anchor"}},
	}
}

func TestWriteFormat(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, sampleFrame()))

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	require.Len(t, lines, 4)
	assert.Equal(t, "2", lines[0])
	assert.Equal(t, `Lattice="5 0 0 0 5 0 0 0 5" Properties=species:S:1:pos:R:3:force:R:3 energy=-12.5 pbc="T T T" step=40 time=0.2 kind=anchor`, lines[1])
	assert.Equal(t, "A 0.5 -1.25 2 1 2 3", lines[2])
	assert.Equal(t, "B 0.001 0 -2.5 -1 -2 -3", lines[3])
}

func TestWriteWithoutForces(t *testing.T) {
	f := sampleFrame()
	f.Forces = nil

	var buf bytes.Buffer
	require.NoError(t, Write(&buf, f))
	assert.Contains(t, buf.String(), "Properties=species:S:1:pos:R:3 ")
	assert.Contains(t, buf.String(), "A 0.5 -1.25 2\n")
}

func TestRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	first := sampleFrame()
	second := sampleFrame()
	second.Positions.Set(0, 0, 0.75)
	second.Set("step", "41")

	require.NoError(t, Write(&buf, first))
	require.NoError(t, Write(&buf, second))

	r := NewReader(&buf)
	got, err := r.Next()
	require.NoError(t, err)
	assert.Equal(t, first.Species, got.Species)
	assert.Equal(t, first.Positions.Data(), got.Positions.Data())
	assert.Equal(t, first.Forces.Data(), got.Forces.Data())
	assert.Equal(t, 5.0, got.Box)
	assert.Equal(t, -12.5, got.Energy)
	assert.Equal(t, first.Meta, got.Meta)

	got, err = r.Next()
	require.NoError(t, err)
	assert.Equal(t, 0.75, got.Positions.At(0, 0))
	step, ok := got.Get("step")
	assert.True(t, ok)
	assert.Equal(t, "41", step)

	_, err = r.Next()
	assert.Equal(t, io.EOF, err)
}

func TestReadErrors(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  error
	}{
		{"no lattice", "1\nProperties=species:S:1:pos:R:3\nA 0 0 0\n", ErrNoLattice},
		{"bad count", "one\nLattice=\"1 0 0 0 1 0 0 0 1\"\nA 0 0 0\n", ErrMalformed},
		{"short lattice", "1\nLattice=\"1 0 0\"\nA 0 0 0\n", ErrMalformed},
		{"truncated", "2\nLattice=\"1 0 0 0 1 0 0 0 1\"\nA 0 0 0\n", ErrMalformed},
		{"bad coordinate", "1\nLattice=\"1 0 0 0 1 0 0 0 1\"\nA 0 x 0\n", ErrMalformed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewReader(strings.NewReader(tt.input)).Next()
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestPlainXYZPositionsOnly(t *testing.T) {
	input := "\n2\nLattice=\"3 0 0 0 3 0 0 0 3\" pbc=\"T T T\"\nA 0 0 0\nB 1 1 1\n"
	f, err := NewReader(strings.NewReader(input)).Next()
	require.NoError(t, err)
	assert.Nil(t, f.Forces)
	assert.Equal(t, 3.0, f.Box)
	assert.Empty(t, f.Meta)
}

func TestQuotedMetadata(t *testing.T) {
	f := sampleFrame()
	f.Set("note", "two words")

	var buf bytes.Buffer
	require.NoError(t, Write(&buf, f))
	got, err := NewReader(&buf).Next()
	require.NoError(t, err)

	note, ok := got.Get("note")
	require.True(t, ok)
	assert.Equal(t, "two words", note)
}

func TestFromSystemUnwrapped(t *testing.T) {
	sys, err := atoms.New([]string{"A"}, tensor.FromRows(tensor.CPU, [][3]float64{{1, -1, 0}}), 4, units.Reduced)
	require.NoError(t, err)
	images := atoms.NewImages(1)
	images[0] = [3]int{2, -1, 0}

	wrapped := FromSystem(sys, images, false)
	assert.Equal(t, []float64{1, -1, 0}, wrapped.Positions.Data())

	unwrapped := FromSystem(sys, images, true)
	assert.Equal(t, []float64{9, -5, 0}, unwrapped.Positions.Data())
	assert.Equal(t, []float64{1, -1, 0}, sys.Positions().Data(), "system positions must not change")
}

func TestAppenderAndLoadSystem(t *testing.T) {
	path := filepath.Join(t.TempDir(), "traj.xyz")

	app, err := OpenAppender(path)
	require.NoError(t, err)
	for i := 0; i < 3; i++ {
		f := sampleFrame()
		f.Set("step", string(rune('0'+i)))
		require.NoError(t, app.Append(f))
	}
	assert.Equal(t, 3, app.Frames())
	require.NoError(t, app.Close())

	frames, err := ReadAll(path)
	require.NoError(t, err)
	require.Len(t, frames, 3)
	step, _ := frames[2].Get("step")
	assert.Equal(t, "2", step)

	sys, err := LoadSystem(path, units.Reduced)
	require.NoError(t, err)
	assert.Equal(t, 2, sys.Len())
	assert.Equal(t, 5.0, sys.Box())
	assert.Equal(t, -12.5, sys.PotentialEnergy())
	assert.Equal(t, []float64{1, 2, 3, -1, -2, -3}, sys.Forces().Data())
}

func TestWriteFileTruncates(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.xyz")
	require.NoError(t, os.WriteFile(path, []byte("garbage\n"), 0644))
	require.NoError(t, WriteFile(path, sampleFrame()))

	frames, err := ReadAll(path)
	require.NoError(t, err)
	assert.Len(t, frames, 1)
}
