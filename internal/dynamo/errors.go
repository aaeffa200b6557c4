package dynamo

import (
	"errors"
	"fmt"
)

// Domain errors for simulation operations.
var (
	// ErrInvalidState indicates a state holding NaN or Inf values.
	ErrInvalidState = errors.New("dynamo: invalid state (NaN or Inf detected)")

	// ErrParameterBounds indicates a parameter value is outside valid range.
	ErrParameterBounds = errors.New("dynamo: parameter out of valid bounds")

	// ErrInvalidDimensions indicates a negative matrix or tensor dimension.
	ErrInvalidDimensions = errors.New("dynamo: dimensions must be >= 0")

	// ErrDimensionMismatch indicates state and interaction tensor disagree on shape.
	ErrDimensionMismatch = errors.New("dynamo: dimension mismatch between state and network")

	// ErrNegativeWeight indicates an interaction weight below zero or not finite.
	ErrNegativeWeight = errors.New("dynamo: interaction weight must be finite and >= 0")
)

// ConfigError reports a rejected configuration value. It is raised before
// any integration step runs.
type ConfigError struct {
	Param  string
	Value  float64
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("dynamo: %s=%g: %s", e.Param, e.Value, e.Reason)
}

func (e *ConfigError) Unwrap() error {
	return ErrParameterBounds
}

// SimulationError wraps an error with simulation context.
type SimulationError struct {
	Step    int
	Time    float64
	Wrapped error
}

func (e *SimulationError) Error() string {
	return fmt.Sprintf("step %d (t=%.4f): %v", e.Step, e.Time, e.Wrapped)
}

func (e *SimulationError) Unwrap() error {
	return e.Wrapped
}
