package tensor

import (
	"fmt"
	"strings"

	"gonum.org/v1/gonum/floats"
)

// Device tags where a buffer is expected to live.
type Device int

const (
	CPU Device = iota
	CUDA
)

func (d Device) String() string {
	switch d {
	case CUDA:
		return "cuda"
	default:
		return "cpu"
	}
}

// ParseDevice maps a device name to its tag.
func ParseDevice(name string) (Device, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "cpu":
		return CPU, nil
	case "cuda", "gpu":
		return CUDA, nil
	default:
		return CPU, fmt.Errorf("tensor: unknown device %q", name)
	}
}

// Dense is a row-major float64 array with an explicit shape.
type Dense struct {
	data   []float64
	shape  []int
	device Device
}

// New allocates a zeroed array of the given shape.
func New(device Device, shape ...int) *Dense {
	n := 1
	for _, s := range shape {
		if s < 0 {
			panic(fmt.Sprintf("tensor: negative dimension in shape %v", shape))
		}
		n *= s
	}
	return &Dense{
		data:   make([]float64, n),
		shape:  append([]int(nil), shape...),
		device: device,
	}
}

// FromRows builds an (N,3) array from coordinate rows.
func FromRows(device Device, rows [][3]float64) *Dense {
	d := New(device, len(rows), 3)
	for i, r := range rows {
		copy(d.data[i*3:i*3+3], r[:])
	}
	return d
}

// FromSlice wraps a copy of data with the given shape.
func FromSlice(device Device, data []float64, shape ...int) *Dense {
	d := New(device, shape...)
	if len(data) != len(d.data) {
		panic(fmt.Sprintf("tensor: %d values do not fit shape %v", len(data), shape))
	}
	copy(d.data, data)
	return d
}

func (d *Dense) Shape() []int    { return append([]int(nil), d.shape...) }
func (d *Dense) Device() Device  { return d.device }
func (d *Dense) Len() int        { return len(d.data) }
func (d *Dense) Data() []float64 { return d.data }

func (d *Dense) At(i, j int) float64     { return d.data[i*d.cols()+j] }
func (d *Dense) Set(i, j int, v float64) { d.data[i*d.cols()+j] = v }

// Rows is the leading dimension.
func (d *Dense) Rows() int {
	if len(d.shape) == 0 {
		return 0
	}
	return d.shape[0]
}

func (d *Dense) cols() int {
	if len(d.shape) < 2 {
		return 1
	}
	return d.shape[1]
}

// Row returns a view of row i.
func (d *Dense) Row(i int) []float64 {
	c := d.cols()
	return d.data[i*c : (i+1)*c : (i+1)*c]
}

// SameShape reports whether both arrays have identical shapes.
func (d *Dense) SameShape(o *Dense) bool {
	if len(d.shape) != len(o.shape) {
		return false
	}
	for i := range d.shape {
		if d.shape[i] != o.shape[i] {
			return false
		}
	}
	return true
}

func (d *Dense) Clone() *Dense {
	c := New(d.device, d.shape...)
	copy(c.data, d.data)
	return c
}

// CopyFrom overwrites d with the contents of src.
func (d *Dense) CopyFrom(src *Dense) {
	d.mustMatch(src, "CopyFrom")
	copy(d.data, src.data)
}

func (d *Dense) Fill(v float64) {
	for i := range d.data {
		d.data[i] = v
	}
}

// Scale multiplies every element by s.
func (d *Dense) Scale(s float64) {
	floats.Scale(s, d.data)
}

// AddScaled computes d += alpha*o. Shapes must match exactly.
func (d *Dense) AddScaled(alpha float64, o *Dense) {
	d.mustMatch(o, "AddScaled")
	floats.AddScaled(d.data, alpha, o.data)
}

// MulRows broadcasts a per-row factor across columns: (N,C) * (N,) -> (N,C).
func (d *Dense) MulRows(f []float64) {
	d.mustRows(len(f), "MulRows")
	c := d.cols()
	for i, s := range f {
		floats.Scale(s, d.data[i*c:(i+1)*c])
	}
}

// DivRows broadcasts a per-row divisor across columns: (N,C) / (N,) -> (N,C).
func (d *Dense) DivRows(f []float64) {
	d.mustRows(len(f), "DivRows")
	c := d.cols()
	for i, s := range f {
		row := d.data[i*c : (i+1)*c]
		for j := range row {
			row[j] /= s
		}
	}
}

// ColumnMean reduces over rows: (N,C) -> (C,).
func (d *Dense) ColumnMean() []float64 {
	c := d.cols()
	mean := make([]float64, c)
	n := d.Rows()
	if n == 0 {
		return mean
	}
	for i := 0; i < n; i++ {
		floats.Add(mean, d.data[i*c:(i+1)*c])
	}
	floats.Scale(1/float64(n), mean)
	return mean
}

// SubRow subtracts v from every row: (N,C) - (C,) -> (N,C).
func (d *Dense) SubRow(v []float64) {
	c := d.cols()
	if len(v) != c {
		panic(fmt.Sprintf("tensor: SubRow length %d does not match %d columns", len(v), c))
	}
	for i := 0; i < d.Rows(); i++ {
		floats.Sub(d.data[i*c:(i+1)*c], v)
	}
}

// RowNormsSquared reduces each row to its squared norm: (N,C) -> (N,).
func (d *Dense) RowNormsSquared() []float64 {
	c := d.cols()
	out := make([]float64, d.Rows())
	for i := range out {
		row := d.data[i*c : (i+1)*c]
		out[i] = floats.Dot(row, row)
	}
	return out
}

func (d *Dense) Sum() float64 { return floats.Sum(d.data) }

func (d *Dense) String() string {
	return fmt.Sprintf("Dense%v(%s)", d.shape, d.device)
}

func (d *Dense) mustMatch(o *Dense, op string) {
	if !d.SameShape(o) {
		panic(fmt.Sprintf("tensor: %s shape mismatch %v vs %v", op, d.shape, o.shape))
	}
}

func (d *Dense) mustRows(n int, op string) {
	if n != d.Rows() {
		panic(fmt.Sprintf("tensor: %s expects %d row factors, got %d", op, d.Rows(), n))
	}
}
