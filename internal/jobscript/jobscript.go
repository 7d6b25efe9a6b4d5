// Package jobscript parses the line-oriented run scripts:
//
//	SET dt = 0.005
//	# comment
//	NVT --duration=10 --temp=${T} --output_method=log >> out.xyz
//
// Variables are collected from every SET line before commands are read, so
// a variable may be used above its definition.
package jobscript

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"
)

var (
	ErrMissingArg = errors.New("jobscript: missing argument")
	ErrBadValue   = errors.New("jobscript: invalid argument value")
)

type Command struct {
	Name     string
	Args     map[string]string
	Redirect string
	Line     int
}

type Script struct {
	Variables map[string]string
	Commands  []Command
}

func Parse(r io.Reader) (*Script, error) {
	var lines []string
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		lines = append(lines, sc.Text())
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}

	s := &Script{Variables: make(map[string]string)}
	for _, l := range lines {
		l = strings.TrimSpace(l)
		if !strings.HasPrefix(l, "SET ") {
			continue
		}
		key, val, ok := strings.Cut(l[len("SET "):], "=")
		if !ok {
			continue
		}
		s.Variables[strings.TrimSpace(key)] = strings.TrimSpace(val)
	}

	for i, l := range lines {
		l = strings.TrimSpace(l)
		if l == "" || l[0] == '#' || strings.HasPrefix(l, "SET") {
			continue
		}
		cmd := Command{Args: make(map[string]string), Line: i + 1}
		if before, after, found := strings.Cut(l, ">>"); found {
			l = strings.TrimSpace(before)
			cmd.Redirect = s.Substitute(strings.TrimSpace(after))
		}
		tokens := strings.Fields(l)
		if len(tokens) == 0 {
			return nil, fmt.Errorf("jobscript: line %d: redirect without a command", i+1)
		}
		cmd.Name = tokens[0]
		for _, tok := range tokens[1:] {
			arg, ok := strings.CutPrefix(tok, "--")
			if !ok {
				continue
			}
			key, val, _ := strings.Cut(arg, "=")
			cmd.Args[key] = s.Substitute(val)
		}
		s.Commands = append(s.Commands, cmd)
	}
	return s, nil
}

func ParseFile(path string) (*Script, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open job script: %w", err)
	}
	defer f.Close()
	return Parse(f)
}

// Substitute expands ${name} references to SET variables. Longer names are
// replaced first so ${T} cannot clobber ${T0}.
func (s *Script) Substitute(v string) string {
	if !strings.Contains(v, "${") {
		return v
	}
	keys := make([]string, 0, len(s.Variables))
	for k := range s.Variables {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return len(keys[i]) > len(keys[j]) })
	for _, k := range keys {
		v = strings.ReplaceAll(v, "${"+k+"}", s.Variables[k])
	}
	return v
}

func (c Command) Has(key string) bool {
	_, ok := c.Args[key]
	return ok
}

func (c Command) String(key, def string) string {
	if v, ok := c.Args[key]; ok {
		return v
	}
	return def
}

func (c Command) Float(key string) (float64, error) {
	v, ok := c.Args[key]
	if !ok {
		return 0, fmt.Errorf("%w: %s needs --%s (line %d)", ErrMissingArg, c.Name, key, c.Line)
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: --%s=%q (line %d)", ErrBadValue, key, v, c.Line)
	}
	return f, nil
}

func (c Command) Int(key string) (int, error) {
	v, ok := c.Args[key]
	if !ok {
		return 0, fmt.Errorf("%w: %s needs --%s (line %d)", ErrMissingArg, c.Name, key, c.Line)
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%w: --%s=%q (line %d)", ErrBadValue, key, v, c.Line)
	}
	return n, nil
}

// Bool reads an optional flag; absent means false.
func (c Command) Bool(key string) (bool, error) {
	v, ok := c.Args[key]
	if !ok {
		return false, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("%w: --%s=%q (line %d)", ErrBadValue, key, v, c.Line)
	}
	return b, nil
}
