// Package automation runs scripted batches of extinction experiments.
package automation

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"os"
	"path/filepath"

	"github.com/san-kum/pollinet/internal/config"
	"github.com/san-kum/pollinet/internal/dynamo"
	"github.com/san-kum/pollinet/internal/experiment"
	"github.com/san-kum/pollinet/internal/models"
	"github.com/san-kum/pollinet/internal/network"
	"github.com/san-kum/pollinet/internal/sim"
	"gopkg.in/yaml.v3"
)

// Scenario is a list of experiments to run one after another.
type Scenario struct {
	Name        string         `yaml:"name"`
	Description string         `yaml:"description"`
	Steps       []ScenarioStep `yaml:"steps"`
}

// ScenarioStep overrides the base configuration for one experiment. Zero
// values keep the base setting.
type ScenarioStep struct {
	Name         string   `yaml:"name"`
	Interactions string   `yaml:"interactions"`
	Preset       string   `yaml:"preset"`
	Order        string   `yaml:"order"`
	Seed         int64    `yaml:"seed"`
	Dispersal    *float64 `yaml:"dispersal"`
	Dt           float64  `yaml:"dt"`
	Replicates   int      `yaml:"replicates"`
}

// LoadScenario reads a scenario file. Relative interaction paths are taken
// relative to the scenario file.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var scenario Scenario
	if err := yaml.Unmarshal(data, &scenario); err != nil {
		return nil, err
	}

	dir := filepath.Dir(path)
	for i := range scenario.Steps {
		s := &scenario.Steps[i]
		if s.Interactions != "" && !filepath.IsAbs(s.Interactions) {
			s.Interactions = filepath.Join(dir, s.Interactions)
		}
		if s.Name == "" {
			s.Name = fmt.Sprintf("step-%d", i+1)
		}
	}
	return &scenario, nil
}

// Resolve applies a step on top of base and validates the result.
func (s ScenarioStep) Resolve(base *config.Config) (*config.Config, error) {
	cfg := *base
	if s.Preset != "" {
		preset := config.GetPreset(s.Preset)
		if preset == nil {
			return nil, fmt.Errorf("unknown preset: %s", s.Preset)
		}
		cfg = *preset
		cfg.Interactions = base.Interactions
		cfg.Log = base.Log
	}
	cfg.Sweep.Dispersal = append([]float64(nil), cfg.Sweep.Dispersal...)

	if s.Interactions != "" {
		cfg.Interactions = s.Interactions
	}
	if s.Order != "" {
		cfg.Experiment.Order = s.Order
	}
	if s.Seed != 0 {
		cfg.Seed = s.Seed
	}
	if s.Dispersal != nil {
		cfg.Model.Dispersal = *s.Dispersal
	}
	if s.Dt != 0 {
		cfg.SteadyState.Dt = s.Dt
	}
	if cfg.Interactions == "" {
		return nil, fmt.Errorf("no interaction file")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// ReplicateStats summarises the robustness areas of repeated runs.
type ReplicateStats struct {
	N         int     `json:"n"`
	MeanArea  float64 `json:"mean_area"`
	StdArea   float64 `json:"std_area"`
	MinArea   float64 `json:"min_area"`
	MaxArea   float64 `json:"max_area"`
	Unsettled int     `json:"unsettled"`
}

// StepResult is the outcome of one scenario step.
type StepResult struct {
	Step     ScenarioStep
	Config   *config.Config
	Network  *network.Network
	Baseline sim.Result
	Results  []*experiment.Result
	Stats    ReplicateStats
}

// RunReplicates repeats the experiment on eq n times. Random orders use
// seeds cfg.Seed, cfg.Seed+1, ...; a ranked order is deterministic, so it
// runs once whatever n is.
func RunReplicates(ctx context.Context, det *sim.Detector, eq dynamo.State, cfg experiment.Config, n int, logger *slog.Logger) ([]*experiment.Result, error) {
	if n < 1 || cfg.Order == experiment.Ranked {
		n = 1
	}
	if logger == nil {
		logger = slog.Default()
	}

	results := make([]*experiment.Result, 0, n)
	for i := 0; i < n; i++ {
		rc := cfg
		rc.Seed = cfg.Seed + int64(i)

		res, err := experiment.New(det, rc, logger.With("replicate", i)).Run(ctx, eq)
		if err != nil {
			return results, fmt.Errorf("replicate %d: %w", i, err)
		}
		results = append(results, res)
	}
	return results, nil
}

// Summarize computes area statistics over replicates. StdArea is the
// population standard deviation.
func Summarize(results []*experiment.Result) ReplicateStats {
	stats := ReplicateStats{N: len(results)}
	if len(results) == 0 {
		return stats
	}

	stats.MinArea, stats.MaxArea = math.Inf(1), math.Inf(-1)
	sum := 0.0
	for _, r := range results {
		sum += r.Area
		stats.MinArea = math.Min(stats.MinArea, r.Area)
		stats.MaxArea = math.Max(stats.MaxArea, r.Area)
		stats.Unsettled += r.Unsettled()
	}
	stats.MeanArea = sum / float64(len(results))

	ss := 0.0
	for _, r := range results {
		d := r.Area - stats.MeanArea
		ss += d * d
	}
	stats.StdArea = math.Sqrt(ss / float64(len(results)))
	return stats
}

// RunScenario executes every step: load the network, equilibrate it, then
// run the experiment replicates. onStep, when set, sees each step as it
// finishes.
func RunScenario(ctx context.Context, scenario *Scenario, registry *experiment.Registry, base *config.Config, logger *slog.Logger, onStep func(StepResult)) ([]StepResult, error) {
	if logger == nil {
		logger = slog.Default()
	}
	results := make([]StepResult, 0, len(scenario.Steps))

	for i, step := range scenario.Steps {
		slogger := logger.With("step", step.Name)
		slogger.Info("scenario step started", "index", i+1, "of", len(scenario.Steps))

		cfg, err := step.Resolve(base)
		if err != nil {
			return results, fmt.Errorf("step %s: %w", step.Name, err)
		}

		net, err := network.Load(cfg.Interactions)
		if err != nil {
			return results, fmt.Errorf("step %s: %w", step.Name, err)
		}

		setup := cfg.Setup(net.Gamma)
		setup.Logger = slogger
		det, _, err := registry.Detector(setup)
		if err != nil {
			return results, fmt.Errorf("step %s setup: %w", step.Name, err)
		}

		eq := models.InitialState(net.Gamma, cfg.InitState.Plant, cfg.InitState.Insect)
		baseline, err := det.Run(ctx, eq, 0, sim.Trajectory{})
		if err != nil {
			return results, fmt.Errorf("step %s baseline: %w", step.Name, err)
		}

		expCfg, err := cfg.ExperimentSettings()
		if err != nil {
			return results, fmt.Errorf("step %s: %w", step.Name, err)
		}
		reps, err := RunReplicates(ctx, det, eq, expCfg, step.Replicates, slogger)
		if err != nil {
			return results, fmt.Errorf("step %s: %w", step.Name, err)
		}

		sr := StepResult{
			Step:     step,
			Config:   cfg,
			Network:  net,
			Baseline: baseline,
			Results:  reps,
			Stats:    Summarize(reps),
		}
		results = append(results, sr)
		if onStep != nil {
			onStep(sr)
		}
	}

	return results, nil
}
