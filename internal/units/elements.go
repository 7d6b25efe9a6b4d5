package units

import "fmt"

type Element struct {
	Symbol string
	Number int
	Mass   float64
}

// A and B are the two particle types of the binary Lennard-Jones mixture.
// B shadows boron.
var elements = map[string]Element{
	"A":  {"A", 1, 1},
	"B":  {"B", 0, 1},
	"H":  {"H", 1, 1.0080},
	"He": {"He", 2, 4.0026},
	"Li": {"Li", 3, 6.94},
	"Be": {"Be", 4, 9.0122},
	"C":  {"C", 6, 12.011},
	"N":  {"N", 7, 14.007},
	"O":  {"O", 8, 15.999},
	"F":  {"F", 9, 18.998},
	"Ne": {"Ne", 10, 20.180},
	"Na": {"Na", 11, 22.990},
	"Mg": {"Mg", 12, 24.305},
	"Al": {"Al", 13, 26.982},
	"Si": {"Si", 14, 28.0855},
	"P":  {"P", 15, 30.974},
	"S":  {"S", 16, 32.06},
	"Cl": {"Cl", 17, 35.45},
	"Ar": {"Ar", 18, 39.95},
	"K":  {"K", 19, 39.098},
	"Ca": {"Ca", 20, 40.078},
}

// ElementOf looks up a species label.
func ElementOf(symbol string) (Element, error) {
	e, ok := elements[symbol]
	if !ok {
		return Element{}, fmt.Errorf("units: unknown species %q", symbol)
	}
	return e, nil
}
