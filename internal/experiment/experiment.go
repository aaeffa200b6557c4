package experiment

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"math/rand"
	"sort"

	"github.com/san-kum/pollinet/internal/dynamo"
	"github.com/san-kum/pollinet/internal/metrics"
	"github.com/san-kum/pollinet/internal/sim"
)

// Order decides which plant is knocked out next.
type Order int

const (
	// Ranked removes plants from least to most abundant at the baseline.
	Ranked Order = iota
	// Random removes plants in a seeded random permutation.
	Random
)

func (o Order) String() string {
	switch o {
	case Ranked:
		return "ranked"
	case Random:
		return "random"
	default:
		return fmt.Sprintf("order(%d)", int(o))
	}
}

func (o Order) MarshalText() ([]byte, error) { return []byte(o.String()), nil }

func (o *Order) UnmarshalText(b []byte) error {
	parsed, err := ParseOrder(string(b))
	if err != nil {
		return err
	}
	*o = parsed
	return nil
}

func ParseOrder(s string) (Order, error) {
	switch s {
	case "ranked", "":
		return Ranked, nil
	case "random":
		return Random, nil
	}
	return Ranked, fmt.Errorf("unknown knockout order: %s", s)
}

// Config selects the knockout order. Viability is the total abundance a
// species must exceed to count as surviving; zero counts any positive total.
type Config struct {
	Order     Order
	Seed      int64
	Viability float64
}

func (c Config) Validate() error {
	if c.Viability < 0 || math.IsNaN(c.Viability) || math.IsInf(c.Viability, 0) {
		return &dynamo.ConfigError{Param: "viability", Value: c.Viability, Reason: "must be finite and >= 0"}
	}
	switch c.Order {
	case Ranked, Random:
		return nil
	}
	return fmt.Errorf("unknown knockout order %s: %w", c.Order, dynamo.ErrParameterBounds)
}

// Row is the community state after Removed knockouts.
type Row struct {
	Removed            int         `json:"removed"`
	Species            int         `json:"species"`
	Robustness         float64     `json:"robustness"`
	SurvivingPlants    int         `json:"surviving_plants"`
	SurvivingInsects   int         `json:"surviving_insects"`
	PollinationService float64     `json:"pollination_service"`
	PlantBiomass       float64     `json:"plant_biomass"`
	InsectBiomass      float64     `json:"insect_biomass"`
	PlantDiversity     float64     `json:"plant_diversity"`
	InsectDiversity    float64     `json:"insect_diversity"`
	Settle             *sim.Result `json:"settle,omitempty"`
}

type Result struct {
	Order     Order   `json:"order"`
	Seed      int64   `json:"seed"`
	Knockouts []int   `json:"knockouts"`
	Rows      []Row   `json:"rows"`
	Area      float64 `json:"area"`
}

// Robustness returns the robustness column.
func (r *Result) Robustness() []float64 {
	out := make([]float64, len(r.Rows))
	for i, row := range r.Rows {
		out[i] = row.Robustness
	}
	return out
}

// Unsettled counts knockouts whose re-equilibration did not converge.
func (r *Result) Unsettled() int {
	n := 0
	for _, row := range r.Rows {
		if row.Settle != nil && !row.Settle.Converged() {
			n++
		}
	}
	return n
}

type Experiment struct {
	det    *sim.Detector
	cfg    Config
	onRow  func(Row)
	logger *slog.Logger
}

func New(det *sim.Detector, cfg Config, logger *slog.Logger) *Experiment {
	if logger == nil {
		logger = slog.Default()
	}
	return &Experiment{det: det, cfg: cfg, logger: logger}
}

func (e *Experiment) Config() Config { return e.cfg }

// OnRow registers a callback invoked as each row is computed.
func (e *Experiment) OnRow(fn func(Row)) { e.onRow = fn }

// KnockoutOrder lists every plant index in removal order. rng is only used
// by the random order.
func KnockoutOrder(eq dynamo.State, order Order, rng *rand.Rand) []int {
	n := eq.Plants()
	if order == Random {
		return rng.Perm(n)
	}

	type ranked struct {
		abundance float64
		plant     int
	}
	ranking := make([]ranked, n)
	for i := 0; i < n; i++ {
		ranking[i] = ranked{abundance: eq.PlantTotal(i), plant: i}
	}
	sort.Slice(ranking, func(a, b int) bool {
		if ranking[a].abundance != ranking[b].abundance {
			return ranking[a].abundance < ranking[b].abundance
		}
		return ranking[a].plant < ranking[b].plant
	})

	out := make([]int, n)
	for i, r := range ranking {
		out[i] = r.plant
	}
	return out
}

// Run removes every plant of eq one at a time, re-equilibrating after each
// removal, and records the community after 0..plantCount knockouts. eq is
// not modified. The config and the shape of eq are checked before the first
// row is computed.
func (e *Experiment) Run(ctx context.Context, eq dynamo.State) (*Result, error) {
	if err := e.cfg.Validate(); err != nil {
		return nil, err
	}
	if err := e.det.Check(eq); err != nil {
		return nil, fmt.Errorf("equilibrium: %w", err)
	}

	x := eq.Clone()
	order := KnockoutOrder(x, e.cfg.Order, rand.New(rand.NewSource(e.cfg.Seed)))

	res := &Result{
		Order:     e.cfg.Order,
		Seed:      e.cfg.Seed,
		Knockouts: order,
		Rows:      make([]Row, 0, len(order)+1),
	}

	e.logger.Info("extinction experiment started", "order", e.cfg.Order, "plants", x.Plants(), "insects", x.Insects())

	for k := 0; k <= len(order); k++ {
		species := -1
		var settle *sim.Result
		if k > 0 {
			species = order[k-1]
			x.RemovePlant(species)

			r, err := e.det.Run(ctx, x, 0, sim.Trajectory{})
			if err != nil {
				return res, fmt.Errorf("knockout %d (plant %d): %w", k, species, err)
			}
			settle = &r
		}

		row := rowFor(k, species, x, e.cfg.Viability)
		row.Settle = settle
		res.Rows = append(res.Rows, row)
		if e.onRow != nil {
			e.onRow(row)
		}
	}

	res.Area = metrics.Area(res.Robustness())
	e.logger.Info("extinction experiment complete", "rows", len(res.Rows), "area", res.Area, "unsettled", res.Unsettled())
	return res, nil
}

func rowFor(k, species int, x dynamo.State, viability float64) Row {
	snap := metrics.Community(x, viability)
	return Row{
		Removed:            k,
		Species:            species,
		Robustness:         snap.Robustness,
		SurvivingPlants:    snap.Plants.Surviving,
		SurvivingInsects:   snap.Insects.Surviving,
		PollinationService: snap.PollinationService,
		PlantBiomass:       snap.Plants.Biomass,
		InsectBiomass:      snap.Insects.Biomass,
		PlantDiversity:     snap.Plants.Diversity,
		InsectDiversity:    snap.Insects.Diversity,
	}
}
