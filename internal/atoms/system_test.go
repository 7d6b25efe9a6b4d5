package atoms

import (
	"errors"
	"math"
	"math/rand/v2"
	"testing"

	"github.com/eminamitani/MD-edamame/internal/tensor"
	"github.com/eminamitani/MD-edamame/internal/units"
)

func newPair(t *testing.T) *System {
	t.Helper()
	pos := tensor.FromRows(tensor.CPU, [][3]float64{{0, 0, 0}, {1, 0, 0}})
	sys, err := New([]string{"A", "B"}, pos, 10, units.Reduced)
	if err != nil {
		t.Fatalf("new system: %v", err)
	}
	return sys
}

func TestWrapRangeAndIdempotence(t *testing.T) {
	L := 4.0
	values := []float64{-9.3, -2, -1.999, 0, 1.5, 2, 2.0001, 7.7, 123.4}

	for _, x := range values {
		w := Wrap(x, L)
		if w < -L/2 || w >= L/2 {
			t.Errorf("wrap(%f) = %f outside [-L/2, L/2)", x, w)
		}
		if ww := Wrap(w, L); ww != w {
			t.Errorf("wrap not idempotent for %f: %f then %f", x, w, ww)
		}
		shift := ImageShift(x, L)
		if math.Abs(w+float64(shift)*L-x) > 1e-12 {
			t.Errorf("image shift %d does not reconstruct %f from %f", shift, x, w)
		}
	}
}

func TestWrapAtBoxEdges(t *testing.T) {
	boxes := []float64{1, 4, 7.831029130804476, 12.595308150663262, 0.3, 1e3}

	for _, L := range boxes {
		for k := -4; k <= 4; k++ {
			edge := (float64(k) + 0.5) * L
			x := edge
			for i := 0; i < 4; i++ {
				x = math.Nextafter(x, math.Inf(-1))
			}
			for i := 0; i < 9; i++ {
				w, shift := WrapShift(x, L)
				if w < -L/2 || w >= L/2 {
					t.Fatalf("L=%v x=%v: wrap %v outside [-L/2, L/2)", L, x, w)
				}
				if ww := Wrap(w, L); ww != w {
					t.Fatalf("L=%v x=%v: wrap not idempotent, %v then %v", L, x, w, ww)
				}
				if ImageShift(w, L) != 0 {
					t.Fatalf("L=%v x=%v: wrapped value %v still shifts", L, x, w)
				}
				if math.Abs(w+float64(shift)*L-x) > 1e-12*L*float64(abs(k)+1) {
					t.Fatalf("L=%v x=%v: shift %d does not reconstruct from %v", L, x, shift, w)
				}
				x = math.Nextafter(x, math.Inf(1))
			}
		}
	}

	// Coordinates just inside +L/2 stay put.
	for _, c := range []struct{ x, L float64 }{
		{3.9155145654022374, 7.831029130804476},
		{6.29765407533163, 12.595308150663262},
	} {
		if w := Wrap(c.x, c.L); w != c.x {
			t.Errorf("wrap(%v) with L=%v moved to %v", c.x, c.L, w)
		}
	}
}

func TestApplyPBCImagesAtEdge(t *testing.T) {
	L := 12.595308150663262
	pos := tensor.FromRows(tensor.CPU, [][3]float64{{6.29765407533163, -L / 2, 0}})
	sys, err := New([]string{"A"}, pos, L, units.Reduced)
	if err != nil {
		t.Fatalf("new system: %v", err)
	}
	images := NewImages(1)

	for i := 0; i < 3; i++ {
		sys.ApplyPBCImages(images)
		for k, v := range sys.Positions().Row(0) {
			if v < -L/2 || v >= L/2 {
				t.Fatalf("pass %d: component %d = %v outside the box", i, k, v)
			}
		}
	}
	first := images[0]
	sys.ApplyPBCImages(images)
	if images[0] != first {
		t.Errorf("image counters changed on an already wrapped system: %v -> %v", first, images[0])
	}
	if got := sys.Unwrapped(images).At(0, 0); math.Abs(got-6.29765407533163) > 1e-12 {
		t.Errorf("unwrapped x = %v, want 6.29765407533163", got)
	}
}

func abs(k int) int {
	if k < 0 {
		return -k
	}
	return k
}

func TestApplyPBCImages(t *testing.T) {
	sys := newPair(t)
	images := NewImages(2)

	sys.Positions().Set(0, 0, 12)
	sys.Positions().Set(1, 2, -16)
	sys.ApplyPBCImages(images)

	if images[0][0] != 1 || images[1][2] != -2 {
		t.Errorf("unexpected images %v", images)
	}
	if got := sys.Positions().At(0, 0); math.Abs(got-2) > 1e-12 {
		t.Errorf("expected wrapped x=2, got %f", got)
	}

	unwrapped := sys.Unwrapped(images)
	if unwrapped.At(0, 0) != 12 || unwrapped.At(1, 2) != -16 {
		t.Errorf("unwrapped positions lost: %v", unwrapped.Data())
	}
}

func TestShapeValidation(t *testing.T) {
	sys := newPair(t)

	tests := []struct {
		name string
		set  func() error
	}{
		{"positions", func() error { return sys.SetPositions(tensor.New(tensor.CPU, 3, 3)) }},
		{"velocities", func() error { return sys.SetVelocities(tensor.New(tensor.CPU, 2, 2)) }},
		{"forces", func() error { return sys.SetForces(tensor.New(tensor.CPU, 6)) }},
		{"masses", func() error { return sys.SetMasses([]float64{1}) }},
		{"types", func() error { return sys.SetTypes([]string{"A"}) }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.set(); !errors.Is(err, ErrShapeMismatch) {
				t.Errorf("expected ErrShapeMismatch, got %v", err)
			}
		})
	}

	if err := sys.SetBox(0); !errors.Is(err, ErrInvalidBox) {
		t.Errorf("expected ErrInvalidBox, got %v", err)
	}
}

func TestKineticEnergyAndTemperature(t *testing.T) {
	sys := newPair(t)
	sys.Velocities().Set(0, 0, 1)
	sys.Velocities().Set(1, 1, 2)

	if ke := sys.KineticEnergy(); math.Abs(ke-2.5) > 1e-12 {
		t.Errorf("expected kinetic energy 2.5, got %f", ke)
	}
	if temp := sys.Temperature(); math.Abs(temp-2*2.5/6) > 1e-12 {
		t.Errorf("unexpected temperature %f", temp)
	}
}

func TestKickZeroMass(t *testing.T) {
	sys := newPair(t)
	if err := sys.SetMasses([]float64{1, 0}); err != nil {
		t.Fatal(err)
	}
	if err := sys.Kick(0.01); !errors.Is(err, ErrZeroMass) {
		t.Errorf("expected ErrZeroMass, got %v", err)
	}
}

func TestKickScalesByMass(t *testing.T) {
	sys := newPair(t)
	if err := sys.SetMasses([]float64{2, 4}); err != nil {
		t.Fatal(err)
	}
	f := tensor.FromRows(tensor.CPU, [][3]float64{{4, 0, -2}, {4, 8, 0}})
	if err := sys.SetForces(f); err != nil {
		t.Fatal(err)
	}

	for i := 0; i < 2; i++ {
		if err := sys.Kick(0.5); err != nil {
			t.Fatal(err)
		}
	}

	// Two half kicks of dt=0.5 add 0.5*f/m.
	want := []float64{1, 0, -0.5, 0.5, 1, 0}
	for k, v := range sys.Velocities().Data() {
		if math.Abs(v-want[k]) > 1e-12 {
			t.Errorf("velocity %d: expected %f, got %f", k, want[k], v)
		}
	}
}

func TestRemoveDrift(t *testing.T) {
	sys, err := SimpleCubic(64, 1.2, KobAndersenMix, units.Reduced, rand.New(rand.NewPCG(1, 2)))
	if err != nil {
		t.Fatal(err)
	}
	data := sys.Velocities().Data()
	rng := rand.New(rand.NewPCG(3, 4))
	for i := range data {
		data[i] = rng.Float64() + 0.3
	}

	sys.RemoveDrift()

	for k, m := range sys.Velocities().ColumnMean() {
		if math.Abs(m) > 1e-12 {
			t.Errorf("component %d mean velocity %e after drift removal", k, m)
		}
	}
}

func TestInitVelocities(t *testing.T) {
	sys, err := SimpleCubic(1000, 1.2, KobAndersenMix, units.Reduced, rand.New(rand.NewPCG(5, 6)))
	if err != nil {
		t.Fatal(err)
	}
	sys.InitVelocities(2.0, rand.New(rand.NewPCG(7, 8)))

	if temp := sys.Temperature(); math.Abs(temp-2.0) > 0.2 {
		t.Errorf("expected temperature near 2.0, got %f", temp)
	}
	for k, m := range sys.Velocities().ColumnMean() {
		if math.Abs(m) > 1e-12 {
			t.Errorf("component %d has net drift %e", k, m)
		}
	}
}

func TestSimpleCubic(t *testing.T) {
	sys, err := SimpleCubic(1000, 1.2, KobAndersenMix, units.Reduced, rand.New(rand.NewPCG(1, 1)))
	if err != nil {
		t.Fatal(err)
	}

	wantL := math.Cbrt(1000 / 1.2)
	if math.Abs(sys.Box()-wantL) > 1e-12 {
		t.Errorf("expected box %f, got %f", wantL, sys.Box())
	}

	counts := map[string]int{}
	for _, s := range sys.Species() {
		counts[s]++
	}
	if counts["A"] != 800 || counts["B"] != 200 {
		t.Errorf("unexpected mix %v", counts)
	}

	for _, x := range sys.Positions().Data() {
		if x < -wantL/2 || x >= wantL/2 {
			t.Fatalf("lattice site %f outside box", x)
		}
	}

	if _, err := SimpleCubic(0, 1, KobAndersenMix, units.Reduced, rand.New(rand.NewPCG(1, 1))); err == nil {
		t.Error("expected error for empty lattice")
	}
}
