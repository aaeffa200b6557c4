package automation

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/san-kum/pollinet/internal/config"
	"github.com/san-kum/pollinet/internal/experiment"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const tinyNetwork = `0 P1 V1 1
0 P2 V1 0.5
0 P3 V2 0.8
1 P1 V2 0.3
`

const scenarioYAML = `name: tiny
description: ranked and random knockouts
steps:
  - name: ranked
    interactions: net.txt
  - name: random
    interactions: net.txt
    order: random
    seed: 3
    replicates: 3
    dispersal: 0
`

func writeScenario(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "net.txt"), []byte(tinyNetwork), 0644))
	path := filepath.Join(dir, "scenario.yaml")
	require.NoError(t, os.WriteFile(path, []byte(scenarioYAML), 0644))
	return path
}

func TestLoadScenario(t *testing.T) {
	path := writeScenario(t)

	sc, err := LoadScenario(path)
	require.NoError(t, err)
	assert.Equal(t, "tiny", sc.Name)
	require.Len(t, sc.Steps, 2)
	assert.Equal(t, filepath.Join(filepath.Dir(path), "net.txt"), sc.Steps[0].Interactions)
	assert.Nil(t, sc.Steps[0].Dispersal)
	require.NotNil(t, sc.Steps[1].Dispersal)
	assert.Equal(t, 0.0, *sc.Steps[1].Dispersal)
	assert.Equal(t, 3, sc.Steps[1].Replicates)
}

func TestLoadScenarioNamesSteps(t *testing.T) {
	path := filepath.Join(t.TempDir(), "s.yaml")
	require.NoError(t, os.WriteFile(path, []byte("steps:\n  - interactions: /abs/net.txt\n"), 0644))

	sc, err := LoadScenario(path)
	require.NoError(t, err)
	assert.Equal(t, "step-1", sc.Steps[0].Name)
	assert.Equal(t, "/abs/net.txt", sc.Steps[0].Interactions)
}

func TestResolve(t *testing.T) {
	base := config.DefaultConfig()
	base.Interactions = "base.txt"
	d := 10.0

	cfg, err := ScenarioStep{Preset: "isolated", Order: "random", Seed: 4, Dispersal: &d, Dt: 0.02}.Resolve(base)
	require.NoError(t, err)
	assert.Equal(t, "base.txt", cfg.Interactions)
	assert.Equal(t, "random", cfg.Experiment.Order)
	assert.Equal(t, int64(4), cfg.Seed)
	assert.Equal(t, 10.0, cfg.Model.Dispersal)
	assert.Equal(t, 0.02, cfg.SteadyState.Dt)
	assert.Equal(t, 2.5, base.Model.Dispersal, "base must not change")

	_, err = ScenarioStep{Preset: "nope"}.Resolve(base)
	assert.Error(t, err)

	_, err = ScenarioStep{}.Resolve(config.DefaultConfig())
	assert.Error(t, err, "a step needs an interaction file")

	_, err = ScenarioStep{Order: "sideways"}.Resolve(base)
	assert.Error(t, err)
}

func TestSummarize(t *testing.T) {
	stats := Summarize([]*experiment.Result{{Area: 0.2}, {Area: 0.4}, {Area: 0.6}})
	assert.Equal(t, 3, stats.N)
	assert.InDelta(t, 0.4, stats.MeanArea, 1e-12)
	assert.InDelta(t, 0.163299316, stats.StdArea, 1e-9)
	assert.Equal(t, 0.2, stats.MinArea)
	assert.Equal(t, 0.6, stats.MaxArea)

	assert.Equal(t, ReplicateStats{}, Summarize(nil))
}

func TestRunScenario(t *testing.T) {
	sc, err := LoadScenario(writeScenario(t))
	require.NoError(t, err)

	var seen []string
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	results, err := RunScenario(context.Background(), sc, experiment.NewRegistry(), config.DefaultConfig(), logger,
		func(sr StepResult) { seen = append(seen, sr.Step.Name) })
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, []string{"ranked", "random"}, seen)

	ranked := results[0]
	assert.Len(t, ranked.Results, 1)
	assert.Len(t, ranked.Network.Plants, 3)
	assert.Len(t, ranked.Results[0].Rows, 4)
	assert.True(t, ranked.Baseline.Converged())

	random := results[1]
	require.Len(t, random.Results, 3)
	for i, r := range random.Results {
		assert.Equal(t, experiment.Random, r.Order)
		assert.Equal(t, int64(3+i), r.Seed)
		assert.Len(t, r.Rows, 4)
	}
	assert.Equal(t, 3, random.Stats.N)
	assert.GreaterOrEqual(t, random.Stats.MeanArea, random.Stats.MinArea)
	assert.LessOrEqual(t, random.Stats.MeanArea, random.Stats.MaxArea)
	assert.Equal(t, 0.0, random.Config.Model.Dispersal)
}
