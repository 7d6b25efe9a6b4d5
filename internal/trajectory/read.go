package trajectory

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/eminamitani/MD-edamame/internal/atoms"
	"github.com/eminamitani/MD-edamame/internal/tensor"
	"github.com/eminamitani/MD-edamame/internal/units"
)

// Reader yields frames from a multi-frame stream.
type Reader struct {
	sc   *bufio.Scanner
	line int
}

func NewReader(r io.Reader) *Reader {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), 16*1024*1024)
	return &Reader{sc: sc}
}

func (r *Reader) scan() (string, bool) {
	for r.sc.Scan() {
		r.line++
		text := strings.TrimSpace(r.sc.Text())
		if text != "" {
			return text, true
		}
	}
	return "", false
}

// Next returns the next frame, or io.EOF once the stream is exhausted.
func (r *Reader) Next() (Frame, error) {
	header, ok := r.scan()
	if !ok {
		if err := r.sc.Err(); err != nil {
			return Frame{}, err
		}
		return Frame{}, io.EOF
	}
	n, err := strconv.Atoi(header)
	if err != nil || n < 0 {
		return Frame{}, fmt.Errorf("%w: line %d: expected atom count, got %q", ErrMalformed, r.line, header)
	}

	if !r.sc.Scan() {
		return Frame{}, fmt.Errorf("%w: missing comment line after line %d", ErrMalformed, r.line)
	}
	r.line++
	f, err := parseComment(r.sc.Text())
	if err != nil {
		return Frame{}, fmt.Errorf("line %d: %w", r.line, err)
	}

	f.Species = make([]string, n)
	f.Positions = tensor.New(tensor.CPU, n, 3)
	var forces *tensor.Dense
	for i := 0; i < n; i++ {
		text, ok := r.scan()
		if !ok {
			return Frame{}, fmt.Errorf("%w: expected %d atoms, got %d", ErrMalformed, n, i)
		}
		cols := strings.Fields(text)
		if len(cols) < 4 {
			return Frame{}, fmt.Errorf("%w: line %d: need species and 3 coordinates", ErrMalformed, r.line)
		}
		f.Species[i] = cols[0]
		if err := parseRow(cols[1:4], f.Positions.Row(i)); err != nil {
			return Frame{}, fmt.Errorf("line %d: %w", r.line, err)
		}
		if len(cols) >= 7 {
			if forces == nil {
				forces = tensor.New(tensor.CPU, n, 3)
			}
			if err := parseRow(cols[4:7], forces.Row(i)); err != nil {
				return Frame{}, fmt.Errorf("line %d: %w", r.line, err)
			}
		}
	}
	f.Forces = forces
	return f, nil
}

func parseRow(cols []string, dst []float64) error {
	for k, c := range cols {
		v, err := strconv.ParseFloat(c, 64)
		if err != nil {
			return fmt.Errorf("%w: %q is not a number", ErrMalformed, c)
		}
		dst[k] = v
	}
	return nil
}

func parseComment(line string) (Frame, error) {
	var f Frame
	haveLattice := false
	for _, tok := range tokenize(line) {
		key, value, found := strings.Cut(tok, "=")
		if !found {
			continue
		}
		value = strings.Trim(value, `"`)
		switch strings.ToLower(key) {
		case "lattice":
			cols := strings.Fields(value)
			if len(cols) != 9 {
				return f, fmt.Errorf("%w: lattice needs 9 components, got %d", ErrMalformed, len(cols))
			}
			L, err := strconv.ParseFloat(cols[0], 64)
			if err != nil {
				return f, fmt.Errorf("%w: lattice %q", ErrMalformed, cols[0])
			}
			f.Box = L
			haveLattice = true
		case "energy":
			e, err := strconv.ParseFloat(value, 64)
			if err != nil {
				return f, fmt.Errorf("%w: energy %q", ErrMalformed, value)
			}
			f.Energy = e
		case "properties", "pbc":
		default:
			f.Meta = append(f.Meta, Field{Key: key, Value: value})
		}
	}
	if !haveLattice {
		return f, ErrNoLattice
	}
	return f, nil
}

// tokenize splits on whitespace outside double quotes.
func tokenize(line string) []string {
	var (
		toks   []string
		cur    strings.Builder
		quoted bool
	)
	for _, r := range line {
		switch {
		case r == '"':
			quoted = !quoted
			cur.WriteRune(r)
		case (r == ' ' || r == '\t') && !quoted:
			if cur.Len() > 0 {
				toks = append(toks, cur.String())
				cur.Reset()
			}
		default:
			cur.WriteRune(r)
		}
	}
	if cur.Len() > 0 {
		toks = append(toks, cur.String())
	}
	return toks
}

// ReadAll returns every frame in path.
func ReadAll(path string) ([]Frame, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer file.Close()

	var frames []Frame
	r := NewReader(file)
	for {
		f, err := r.Next()
		if err == io.EOF {
			return frames, nil
		}
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		frames = append(frames, f)
	}
}

// ReadFile returns the first frame in path.
func ReadFile(path string) (Frame, error) {
	file, err := os.Open(path)
	if err != nil {
		return Frame{}, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer file.Close()

	f, err := NewReader(file).Next()
	if err == io.EOF {
		return Frame{}, fmt.Errorf("%w: %s is empty", ErrMalformed, path)
	}
	if err != nil {
		return Frame{}, fmt.Errorf("%s: %w", path, err)
	}
	return f, nil
}

// LoadSystem builds an atomic system from the first frame in path.
func LoadSystem(path string, u units.System) (*atoms.System, error) {
	f, err := ReadFile(path)
	if err != nil {
		return nil, err
	}
	sys, err := atoms.New(f.Species, f.Positions, f.Box, u)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if f.Forces != nil {
		if err := sys.SetForces(f.Forces); err != nil {
			return nil, err
		}
	}
	sys.SetPotentialEnergy(f.Energy)
	return sys, nil
}
