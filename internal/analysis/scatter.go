package analysis

import (
	"strings"
)

type Point struct {
	X, Y float64
}

// Scatter pairs two observables sampled at the same instants.
type Scatter struct {
	Points []Point
}

// NewScatter zips xs and ys, truncating to the shorter one.
func NewScatter(xs, ys []float64) *Scatter {
	n := min(len(xs), len(ys))
	s := &Scatter{Points: make([]Point, n)}
	for i := 0; i < n; i++ {
		s.Points[i] = Point{xs[i], ys[i]}
	}
	return s
}

func (s *Scatter) bounds() (minX, maxX, minY, maxY float64) {
	minX, maxX = s.Points[0].X, s.Points[0].X
	minY, maxY = s.Points[0].Y, s.Points[0].Y
	for _, p := range s.Points {
		minX, maxX = min(minX, p.X), max(maxX, p.X)
		minY, maxY = min(minY, p.Y), max(maxY, p.Y)
	}

	pad := func(lo, hi float64) (float64, float64) {
		r := hi - lo
		if r == 0 {
			r = 1
		}
		return lo - 0.1*r, hi + 0.1*r
	}
	minX, maxX = pad(minX, maxX)
	minY, maxY = pad(minY, maxY)
	return
}

// ASCII renders the points on a width x height character grid.
func (s *Scatter) ASCII(width, height int) string {
	if s == nil || len(s.Points) == 0 || width < 2 || height < 2 {
		return ""
	}
	minX, maxX, minY, maxY := s.bounds()
	rangeX, rangeY := maxX-minX, maxY-minY

	canvas := make([][]rune, height)
	for i := range canvas {
		canvas[i] = []rune(strings.Repeat(" ", width))
	}

	for _, p := range s.Points {
		col := int((p.X - minX) / rangeX * float64(width-1))
		row := height - 1 - int((p.Y-minY)/rangeY*float64(height-1))
		if row >= 0 && row < height && col >= 0 && col < width {
			canvas[row][col] = '•'
		}
	}

	var sb strings.Builder
	for _, row := range canvas {
		sb.WriteString(string(row))
		sb.WriteRune('\n')
	}
	return sb.String()
}
