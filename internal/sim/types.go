package sim

import (
	"fmt"
	"math"

	"github.com/san-kum/pollinet/internal/dynamo"
)

// Status is where a steady-state search ended up.
type Status int

const (
	Running Status = iota
	Converged
	Exhausted
	Diverged
)

func (s Status) String() string {
	switch s {
	case Running:
		return "running"
	case Converged:
		return "converged"
	case Exhausted:
		return "exhausted"
	case Diverged:
		return "diverged"
	default:
		return fmt.Sprintf("status(%d)", int(s))
	}
}

func (s Status) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s *Status) UnmarshalText(b []byte) error {
	for _, c := range []Status{Running, Converged, Exhausted, Diverged} {
		if c.String() == string(b) {
			*s = c
			return nil
		}
	}
	return fmt.Errorf("unknown status %q", b)
}

const (
	DefaultDt            = 0.01
	DefaultTolerance     = 1e-9
	DefaultBurnIn        = 1000
	DefaultMaxIterations = 100000
)

// Config controls the steady-state search.
type Config struct {
	Dt            float64 `yaml:"dt" json:"dt"`
	Tolerance     float64 `yaml:"tolerance" json:"tolerance"`
	BurnIn        int     `yaml:"burn_in" json:"burn_in"`
	MaxIterations int     `yaml:"max_iterations" json:"max_iterations"`
	// ClampNegative zeroes cells that overshoot below zero after a step.
	ClampNegative bool `yaml:"clamp_negative" json:"clamp_negative"`
}

func DefaultConfig() Config {
	return Config{
		Dt:            DefaultDt,
		Tolerance:     DefaultTolerance,
		BurnIn:        DefaultBurnIn,
		MaxIterations: DefaultMaxIterations,
	}
}

func (c Config) Validate() error {
	if c.Dt <= 0 || math.IsNaN(c.Dt) || math.IsInf(c.Dt, 0) {
		return &dynamo.ConfigError{Param: "dt", Value: c.Dt, Reason: "must be positive and finite"}
	}
	if c.Tolerance <= 0 || math.IsNaN(c.Tolerance) {
		return &dynamo.ConfigError{Param: "tolerance", Value: c.Tolerance, Reason: "must be positive"}
	}
	if c.BurnIn < 0 {
		return &dynamo.ConfigError{Param: "burn_in", Value: float64(c.BurnIn), Reason: "must be >= 0"}
	}
	if c.MaxIterations <= 0 {
		return &dynamo.ConfigError{Param: "max_iterations", Value: float64(c.MaxIterations), Reason: "must be positive"}
	}
	return nil
}

// Result summarises one steady-state search.
type Result struct {
	Status     Status  `json:"status"`
	Iterations int     `json:"iterations"`
	Time       float64 `json:"time"`
	MaxDelta   float64 `json:"max_delta"`
}

func (r Result) Converged() bool { return r.Status == Converged }
