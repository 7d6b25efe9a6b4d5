package md

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidConfig indicates a timestep, radius or schedule parameter
	// outside its valid range.
	ErrInvalidConfig = errors.New("md: invalid configuration")

	// ErrNoThermostat indicates a canonical run without a thermostat.
	ErrNoThermostat = errors.New("md: thermostat required")
)

// SimulationError wraps a failure with the step at which it happened.
type SimulationError struct {
	Step    int64
	Time    float64
	Wrapped error
}

func (e *SimulationError) Error() string {
	return fmt.Sprintf("step %d (t=%.4f): %v", e.Step, e.Time, e.Wrapped)
}

func (e *SimulationError) Unwrap() error {
	return e.Wrapped
}
