package atoms

import "math"

// WrapShift maps x into [-L/2, L/2) and returns the number of box lengths
// removed. Near the box edge x/L+0.5 can round onto an integer, so the
// floor-based result is corrected once to land inside the half-open range.
func WrapShift(x, L float64) (float64, int) {
	n := math.Floor(x/L + 0.5)
	w := x - L*n
	half := 0.5 * L
	switch {
	case w >= half:
		w -= L
		n++
	case w < -half:
		w += L
		n--
	}
	return w, int(n)
}

// Wrap maps x into [-L/2, L/2).
func Wrap(x, L float64) float64 {
	w, _ := WrapShift(x, L)
	return w
}

// ImageShift is the number of box lengths Wrap removes from x.
func ImageShift(x, L float64) int {
	_, n := WrapShift(x, L)
	return n
}

// MinimumImage reduces a displacement vector in place.
func MinimumImage(d []float64, L float64) {
	for k := range d {
		d[k] = Wrap(d[k], L)
	}
}

// Images counts how many times each atom has crossed the box in each direction.
type Images [][3]int

func NewImages(n int) Images {
	return make(Images, n)
}

func (im Images) Reset() {
	for i := range im {
		im[i] = [3]int{}
	}
}

func (im Images) Clone() Images {
	return append(Images(nil), im...)
}
