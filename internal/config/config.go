package config

import (
	"fmt"
	"os"

	"github.com/san-kum/pollinet/internal/dynamo"
	"github.com/san-kum/pollinet/internal/experiment"
	"github.com/san-kum/pollinet/internal/models"
	"github.com/san-kum/pollinet/internal/sim"
	"gopkg.in/yaml.v3"
)

const (
	DefaultIntegrator = "rk4"
	DefaultOrder      = "ranked"
	DefaultLogLevel   = "info"
)

type Config struct {
	Interactions string           `yaml:"interactions"`
	Integrator   string           `yaml:"integrator"`
	Workers      int              `yaml:"workers"`
	Seed         int64            `yaml:"seed"`
	Model        dynamo.Params    `yaml:"model"`
	SteadyState  sim.Config       `yaml:"steady_state"`
	Experiment   ExperimentConfig `yaml:"experiment"`
	InitState    InitStateConfig  `yaml:"init_state"`
	Sweep        SweepConfig      `yaml:"sweep"`
	Log          LogConfig        `yaml:"log"`
}

type ExperimentConfig struct {
	Order string `yaml:"order"`
}

type InitStateConfig struct {
	Plant  float64 `yaml:"plant"`
	Insect float64 `yaml:"insect"`
}

type SweepConfig struct {
	Dispersal []float64 `yaml:"dispersal"`
	Workers   int       `yaml:"workers"`
}

type LogConfig struct {
	Level string `yaml:"level"`
	File  string `yaml:"file"`
}

func DefaultConfig() *Config {
	return &Config{
		Integrator:  DefaultIntegrator,
		Workers:     1,
		Model:       dynamo.DefaultParams(),
		SteadyState: sim.DefaultConfig(),
		Experiment:  ExperimentConfig{Order: DefaultOrder},
		InitState: InitStateConfig{
			Plant:  models.DefaultPlantAbundance,
			Insect: models.DefaultInsectAbundance,
		},
		Sweep: SweepConfig{
			Dispersal: append([]float64(nil), experiment.DefaultDispersalValues...),
			Workers:   4,
		},
		Log: LogConfig{Level: DefaultLogLevel},
	}
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// Validate checks everything that must hold before a simulation starts.
func (c *Config) Validate() error {
	if err := c.Model.Validate(); err != nil {
		return err
	}
	if err := c.SteadyState.Validate(); err != nil {
		return err
	}
	if _, err := experiment.ParseOrder(c.Experiment.Order); err != nil {
		return err
	}
	if c.InitState.Plant < 0 || c.InitState.Insect < 0 {
		return fmt.Errorf("init_state: abundances must be >= 0: %w", dynamo.ErrParameterBounds)
	}
	return nil
}

// ExperimentSettings converts the file settings into an experiment config.
func (c *Config) ExperimentSettings() (experiment.Config, error) {
	order, err := experiment.ParseOrder(c.Experiment.Order)
	if err != nil {
		return experiment.Config{}, err
	}
	return experiment.Config{
		Order:     order,
		Seed:      c.Seed,
		Viability: c.Model.Viability,
	}, nil
}

// Setup assembles the detector setup for a loaded interaction tensor.
func (c *Config) Setup(gamma *dynamo.Tensor) experiment.Setup {
	return experiment.Setup{
		Gamma:      gamma,
		Params:     c.Model,
		Integrator: c.Integrator,
		Sim:        c.SteadyState,
		Workers:    c.Workers,
	}
}
