package dynamo

import (
	"fmt"
	"math"
)

// State is the abundance of every plant and insect at every patch. P is
// plants×patches, V is insects×patches; both are views over one flat buffer
// so integrators can treat the whole state as a single vector.
type State struct {
	P, V *Matrix
	buf  []float64
}

// NewState allocates a zeroed state.
func NewState(plants, insects, patches int) (State, error) {
	if plants < 0 || insects < 0 || patches < 0 {
		return State{}, fmt.Errorf("state %d plants, %d insects, %d patches: %w",
			plants, insects, patches, ErrInvalidDimensions)
	}
	buf := make([]float64, (plants+insects)*patches)
	return stateOver(buf, plants, insects, patches), nil
}

func stateOver(buf []float64, plants, insects, patches int) State {
	split := plants * patches
	return State{
		P:   &Matrix{rows: plants, cols: patches, data: buf[:split:split]},
		V:   &Matrix{rows: insects, cols: patches, data: buf[split:]},
		buf: buf,
	}
}

func (s State) Plants() int  { return s.P.rows }
func (s State) Insects() int { return s.V.rows }
func (s State) Patches() int { return s.P.cols }

// Vec is the flat backing buffer: plant cells first, then insect cells, each
// in (species, patch) row-major order.
func (s State) Vec() []float64 { return s.buf }

func (s State) Clone() State {
	buf := make([]float64, len(s.buf))
	copy(buf, s.buf)
	return stateOver(buf, s.Plants(), s.Insects(), s.Patches())
}

// CopyFrom overwrites s with src. Shapes must match.
func (s State) CopyFrom(src State) error {
	if !s.SameShape(src) {
		return fmt.Errorf("copy state: %w", ErrDimensionMismatch)
	}
	copy(s.buf, src.buf)
	return nil
}

func (s State) SameShape(o State) bool {
	return s.Plants() == o.Plants() && s.Insects() == o.Insects() && s.Patches() == o.Patches()
}

// MaxDelta is the largest absolute per-cell change between s and prev across
// both guilds.
func (s State) MaxDelta(prev State) float64 {
	maxDelta := 0.0
	for i, v := range s.buf {
		if d := math.Abs(v - prev.buf[i]); d > maxDelta {
			maxDelta = d
		}
	}
	return maxDelta
}

func (s State) IsValid() bool {
	return s.P.IsValid() && s.V.IsValid()
}

// PlantTotal is the abundance of a plant summed over patches.
func (s State) PlantTotal(plant int) float64 { return s.P.RowSum(plant) }

// InsectTotal is the abundance of an insect summed over patches.
func (s State) InsectTotal(insect int) float64 { return s.V.RowSum(insect) }

// RemovePlant zeroes a plant in every patch.
func (s State) RemovePlant(plant int) {
	row := s.P.Row(plant)
	for i := range row {
		row[i] = 0
	}
}

// Fits reports whether the state matches the tensor's dimensions.
func (s State) Fits(g *Tensor) bool {
	return s.Plants() == g.Plants() && s.Insects() == g.Insects() && s.Patches() == g.Patches()
}

// System computes the instantaneous rate of change of every cell. Derive
// reads only x and writes only dx.
type System interface {
	Derive(x, dx State)
}

// Checker is implemented by systems that can only be evaluated on states of
// a particular shape.
type Checker interface {
	Check(x State) error
}

// Integrator advances a state in place by one step of size h.
type Integrator interface {
	Step(sys System, x State, h float64)
}

// Params are the biological constants of the mutualism model. A Params
// value is immutable once validated and is threaded through every call.
type Params struct {
	GrowthRate     float64 `yaml:"growth_rate" json:"growth_rate"`         // r
	PlantCapacity  float64 `yaml:"plant_capacity" json:"plant_capacity"`   // Kp
	InsectCapacity float64 `yaml:"insect_capacity" json:"insect_capacity"` // Kv
	HandlingTime   float64 `yaml:"handling_time" json:"handling_time"`     // ha
	Mortality      float64 `yaml:"mortality" json:"mortality"`             // d
	Dispersal      float64 `yaml:"dispersal" json:"dispersal"`             // D
	Viability      float64 `yaml:"viability" json:"viability"`
}

func DefaultParams() Params {
	return Params{
		GrowthRate:     2.0,
		PlantCapacity:  100,
		InsectCapacity: 1000,
		HandlingTime:   1.0,
		Mortality:      0.3,
		Dispersal:      2.5,
		Viability:      1e-5,
	}
}

// Validate rejects capacities that would divide by zero and negative or
// non-finite rates.
func (p Params) Validate() error {
	checks := []struct {
		name     string
		value    float64
		positive bool
	}{
		{"plant_capacity", p.PlantCapacity, true},
		{"insect_capacity", p.InsectCapacity, true},
		{"growth_rate", p.GrowthRate, false},
		{"handling_time", p.HandlingTime, false},
		{"mortality", p.Mortality, false},
		{"dispersal", p.Dispersal, false},
		{"viability", p.Viability, false},
	}
	for _, c := range checks {
		if math.IsNaN(c.value) || math.IsInf(c.value, 0) {
			return &ConfigError{Param: c.name, Value: c.value, Reason: "must be finite"}
		}
		if c.positive && c.value <= 0 {
			return &ConfigError{Param: c.name, Value: c.value, Reason: "must be > 0"}
		}
		if c.value < 0 {
			return &ConfigError{Param: c.name, Value: c.value, Reason: "must be >= 0"}
		}
	}
	return nil
}

// WithDispersal returns a copy of p with a different dispersal coefficient.
func (p Params) WithDispersal(d float64) Params {
	p.Dispersal = d
	return p
}
