package experiment

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/san-kum/pollinet/internal/dynamo"
	"github.com/san-kum/pollinet/internal/sim"
	"golang.org/x/sync/errgroup"
)

// DefaultDispersalValues spans isolated patches (0) to very strong mixing.
var DefaultDispersalValues = []float64{0.0, 0.01, 0.05, 0.1, 0.25, 0.5, 1.0, 1.5, 2.5, 5.0, 10.0, 20.0, 50.0, 100.0}

// Point is the outcome of one dispersal value in a sweep.
type Point struct {
	Dispersal float64    `json:"dispersal"`
	Area      float64    `json:"area"`
	Baseline  sim.Result `json:"baseline"`
	Result    *Result    `json:"result"`
}

// Sweep runs the whole pipeline (equilibrate x0, then the extinction
// experiment) once per dispersal value. Runs are independent and execute on
// up to Workers goroutines; points come back in the order of values. The
// first failing value cancels the runs still in flight.
type Sweep struct {
	Setup   Setup
	Config  Config
	Values  []float64
	Workers int
}

func (sw *Sweep) Run(ctx context.Context, reg *Registry, x0 dynamo.State) ([]Point, error) {
	workers := sw.Workers
	if workers < 1 {
		workers = 1
	}
	logger := sw.Setup.Logger
	if logger == nil {
		logger = slog.Default()
	}

	points := make([]Point, len(sw.Values))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	for i, d := range sw.Values {
		g.Go(func() error {
			p, err := sw.runOne(gctx, reg, x0, d, logger.With("dispersal", d))
			if err != nil {
				return fmt.Errorf("dispersal %g: %w", d, err)
			}
			points[i] = p
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return points, nil
}

func (sw *Sweep) runOne(ctx context.Context, reg *Registry, x0 dynamo.State, dispersal float64, logger *slog.Logger) (Point, error) {
	setup := sw.Setup
	setup.Params = setup.Params.WithDispersal(dispersal)
	setup.Logger = logger

	det, _, err := reg.Detector(setup)
	if err != nil {
		return Point{}, err
	}
	if err := det.Check(x0); err != nil {
		return Point{}, err
	}

	x := x0.Clone()
	base, err := det.Run(ctx, x, 0, sim.Trajectory{})
	if err != nil {
		return Point{}, err
	}

	res, err := New(det, sw.Config, logger).Run(ctx, x)
	if err != nil {
		return Point{}, err
	}

	return Point{Dispersal: dispersal, Area: res.Area, Baseline: base, Result: res}, nil
}
