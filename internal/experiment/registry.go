package experiment

import (
	"fmt"
	"log/slog"
	"sort"

	"github.com/san-kum/pollinet/internal/dynamo"
	"github.com/san-kum/pollinet/internal/integrators"
	"github.com/san-kum/pollinet/internal/models"
	"github.com/san-kum/pollinet/internal/sim"
)

type Registry struct {
	integrators map[string]func() dynamo.Integrator
}

func NewRegistry() *Registry {
	r := &Registry{
		integrators: make(map[string]func() dynamo.Integrator),
	}

	r.integrators["rk4"] = func() dynamo.Integrator { return integrators.NewRK4() }
	r.integrators["euler"] = func() dynamo.Integrator { return integrators.NewEuler() }

	return r
}

func (r *Registry) GetIntegrator(name string) (dynamo.Integrator, error) {
	fn, ok := r.integrators[name]
	if !ok {
		return nil, fmt.Errorf("unknown integrator: %s", name)
	}
	return fn(), nil
}

func (r *Registry) ListIntegrators() []string {
	names := make([]string, 0, len(r.integrators))
	for name := range r.integrators {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Setup describes how to assemble a detector for one network.
type Setup struct {
	Gamma      *dynamo.Tensor
	Params     dynamo.Params
	Integrator string
	Sim        sim.Config
	Workers    int
	Logger     *slog.Logger
}

// Detector builds the model, integrator and steady-state detector for s.
// Parameters are validated here, before anything is stepped.
func (r *Registry) Detector(s Setup) (*sim.Detector, *models.Mutualism, error) {
	model, err := models.NewMutualism(s.Gamma, s.Params)
	if err != nil {
		return nil, nil, err
	}
	if s.Workers > 0 {
		model.Workers = s.Workers
	}

	name := s.Integrator
	if name == "" {
		name = "rk4"
	}
	integ, err := r.GetIntegrator(name)
	if err != nil {
		return nil, nil, err
	}

	det, err := sim.New(model, integ, s.Sim, s.Logger)
	if err != nil {
		return nil, nil, err
	}
	return det, model, nil
}
