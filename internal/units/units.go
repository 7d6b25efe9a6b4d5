// Package units holds the unit systems and the element table used to turn
// species labels into masses and atomic numbers.
package units

import (
	"fmt"
	"strings"
)

// System fixes the Boltzmann constant and the factor converting
// force/mass into acceleration (and m v^2 into energy).
type System struct {
	Name       string
	Boltzmann  float64
	Conversion float64
}

var (
	// Reduced is the Lennard-Jones unit system: every constant is one.
	Reduced = System{Name: "reduced", Boltzmann: 1, Conversion: 1}

	// Metal uses eV, Å, fs and atomic mass units.
	// Conversion maps eV/u onto (Å/fs)^2.
	Metal = System{Name: "metal", Boltzmann: 8.617333262145e-5, Conversion: 0.964855e-2}
)

// Lookup returns a unit system by name.
func Lookup(name string) (System, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "reduced", "lj":
		return Reduced, nil
	case "metal":
		return Metal, nil
	default:
		return System{}, fmt.Errorf("units: unknown unit system %q", name)
	}
}
