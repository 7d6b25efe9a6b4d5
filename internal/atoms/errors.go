package atoms

import "errors"

var (
	// ErrShapeMismatch indicates an array whose shape does not fit the system.
	ErrShapeMismatch = errors.New("atoms: array shape does not match atom count")

	// ErrZeroMass indicates a velocity update hit an atom with zero mass.
	ErrZeroMass = errors.New("atoms: zero mass in velocity update")

	// ErrInvalidBox indicates a non-positive box edge.
	ErrInvalidBox = errors.New("atoms: box edge must be positive")
)
