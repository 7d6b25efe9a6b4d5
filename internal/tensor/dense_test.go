package tensor

import (
	"math"
	"testing"
)

func TestFromRows(t *testing.T) {
	d := FromRows(CPU, [][3]float64{{1, 2, 3}, {4, 5, 6}})
	if got := d.Shape(); got[0] != 2 || got[1] != 3 {
		t.Fatalf("expected shape [2 3], got %v", got)
	}
	if d.At(1, 2) != 6 {
		t.Errorf("expected 6, got %f", d.At(1, 2))
	}
	d.Row(0)[1] = 9
	if d.At(0, 1) != 9 {
		t.Error("row should be a view")
	}
}

func TestBroadcastOps(t *testing.T) {
	tests := []struct {
		name string
		op   func(d *Dense)
		want []float64
	}{
		{"scale", func(d *Dense) { d.Scale(2) }, []float64{2, 4, 6, 8, 10, 12}},
		{"mul rows", func(d *Dense) { d.MulRows([]float64{1, 10}) }, []float64{1, 2, 3, 40, 50, 60}},
		{"div rows", func(d *Dense) { d.DivRows([]float64{1, 2}) }, []float64{1, 2, 3, 2, 2.5, 3}},
		{"sub row", func(d *Dense) { d.SubRow([]float64{1, 1, 1}) }, []float64{0, 1, 2, 3, 4, 5}},
		{"add scaled", func(d *Dense) { d.AddScaled(-1, d.Clone()) }, []float64{0, 0, 0, 0, 0, 0}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := FromRows(CPU, [][3]float64{{1, 2, 3}, {4, 5, 6}})
			tt.op(d)
			for i, v := range d.Data() {
				if math.Abs(v-tt.want[i]) > 1e-12 {
					t.Fatalf("index %d: expected %f, got %f", i, tt.want[i], v)
				}
			}
		})
	}
}

func TestReductions(t *testing.T) {
	d := FromRows(CPU, [][3]float64{{1, 2, 3}, {3, 4, 5}})

	mean := d.ColumnMean()
	want := []float64{2, 3, 4}
	for i := range want {
		if mean[i] != want[i] {
			t.Errorf("mean[%d]: expected %f, got %f", i, want[i], mean[i])
		}
	}

	norms := d.RowNormsSquared()
	if norms[0] != 14 || norms[1] != 50 {
		t.Errorf("unexpected norms %v", norms)
	}

	if d.Sum() != 18 {
		t.Errorf("expected sum 18, got %f", d.Sum())
	}
}

func TestShapeMismatchPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("expected panic on shape mismatch")
		}
	}()
	a := New(CPU, 2, 3)
	b := New(CPU, 3, 3)
	a.AddScaled(1, b)
}

func TestParseDevice(t *testing.T) {
	if d, err := ParseDevice("CUDA"); err != nil || d != CUDA {
		t.Errorf("expected cuda, got %v (%v)", d, err)
	}
	if d, err := ParseDevice(""); err != nil || d != CPU {
		t.Errorf("expected cpu default, got %v (%v)", d, err)
	}
	if _, err := ParseDevice("tpu"); err == nil {
		t.Error("expected error for unknown device")
	}
}
