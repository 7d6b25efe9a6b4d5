package trajectory

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

// Write emits f as one extended-XYZ frame.
func Write(w io.Writer, f Frame) error {
	n := f.Len()
	if f.Positions == nil || f.Positions.Rows() != n {
		return fmt.Errorf("%w: %d species for positions %v", ErrMalformed, n, f.Positions)
	}
	withForces := f.Forces != nil && f.Forces.Rows() == n

	bw := bufio.NewWriter(w)
	fmt.Fprintf(bw, "%d\n", n)

	L := formatFloat(f.Box)
	var b strings.Builder
	fmt.Fprintf(&b, `Lattice="%s 0 0 0 %s 0 0 0 %s" `, L, L, L)
	if withForces {
		b.WriteString("Properties=species:S:1:pos:R:3:force:R:3 ")
	} else {
		b.WriteString("Properties=species:S:1:pos:R:3 ")
	}
	fmt.Fprintf(&b, `energy=%s pbc="T T T"`, formatFloat(f.Energy))
	for _, m := range f.Meta {
		v := m.Value
		if strings.ContainsAny(v, " \t") {
			v = strconv.Quote(v)
		}
		fmt.Fprintf(&b, " %s=%s", m.Key, v)
	}
	bw.WriteString(b.String())
	bw.WriteByte('\n')

	for i := 0; i < n; i++ {
		bw.WriteString(f.Species[i])
		for _, v := range f.Positions.Row(i) {
			bw.WriteByte(' ')
			bw.WriteString(formatFloat(v))
		}
		if withForces {
			for _, v := range f.Forces.Row(i) {
				bw.WriteByte(' ')
				bw.WriteString(formatFloat(v))
			}
		}
		bw.WriteByte('\n')
	}
	return bw.Flush()
}

// WriteFile replaces path with a single frame.
func WriteFile(path string, f Frame) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	if err := Write(file, f); err != nil {
		file.Close()
		return err
	}
	return file.Close()
}

// Appender streams frames onto the end of a trajectory file.
type Appender struct {
	path   string
	file   *os.File
	frames int
}

func OpenAppender(path string) (*Appender, error) {
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to open trajectory %s: %w", path, err)
	}
	return &Appender{path: path, file: file}, nil
}

func (a *Appender) Path() string { return a.path }
func (a *Appender) Frames() int  { return a.frames }

func (a *Appender) Append(f Frame) error {
	if err := Write(a.file, f); err != nil {
		return err
	}
	a.frames++
	return nil
}

func (a *Appender) Close() error {
	return a.file.Close()
}
