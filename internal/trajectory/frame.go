// Package trajectory reads and writes extended-XYZ structure files.
package trajectory

import (
	"errors"

	"github.com/eminamitani/MD-edamame/internal/atoms"
	"github.com/eminamitani/MD-edamame/internal/tensor"
)

var (
	ErrNoLattice = errors.New("trajectory: comment line has no Lattice entry")
	ErrMalformed = errors.New("trajectory: malformed frame")
)

// Field is one key=value token on the comment line.
type Field struct {
	Key   string
	Value string
}

// Frame is one structure. Forces may be nil.
type Frame struct {
	Species   []string
	Positions *tensor.Dense
	Forces    *tensor.Dense
	Box       float64
	Energy    float64
	Meta      []Field
}

func (f *Frame) Len() int { return len(f.Species) }

// Get returns the metadata value for key.
func (f *Frame) Get(key string) (string, bool) {
	for _, m := range f.Meta {
		if m.Key == key {
			return m.Value, true
		}
	}
	return "", false
}

// Set replaces or appends a metadata token, keeping insertion order.
func (f *Frame) Set(key, value string) {
	for i := range f.Meta {
		if f.Meta[i].Key == key {
			f.Meta[i].Value = value
			return
		}
	}
	f.Meta = append(f.Meta, Field{Key: key, Value: value})
}

// FromSystem snapshots sys. With unwrapped set, each position is shifted by
// its image count times the box edge.
func FromSystem(sys *atoms.System, images atoms.Images, unwrapped bool) Frame {
	pos := sys.Positions().Clone()
	if unwrapped && images != nil {
		pos = sys.Unwrapped(images)
	}
	return Frame{
		Species:   append([]string(nil), sys.Species()...),
		Positions: pos,
		Forces:    sys.Forces().Clone(),
		Box:       sys.Box(),
		Energy:    sys.PotentialEnergy(),
	}
}
