package sim

import (
	"context"
	"errors"
	"log/slog"

	"github.com/san-kum/pollinet/internal/dynamo"
)

// Detector integrates a system until it stops changing. A Detector keeps no
// state between runs, but its integrator holds scratch buffers, so one
// Detector must not run on two goroutines at once.
type Detector struct {
	sys    dynamo.System
	integ  dynamo.Integrator
	cfg    Config
	pool   *StatePool
	logger *slog.Logger
}

func New(sys dynamo.System, integ dynamo.Integrator, cfg Config, logger *slog.Logger) (*Detector, error) {
	if sys == nil || integ == nil {
		return nil, errors.New("sim: system and integrator are required")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Detector{
		sys:    sys,
		integ:  integ,
		cfg:    cfg,
		pool:   NewStatePool(),
		logger: logger,
	}, nil
}

func (d *Detector) Config() Config { return d.cfg }

// Check reports whether x has the shape the system expects. Systems that do
// not implement dynamo.Checker accept any state.
func (d *Detector) Check(x dynamo.State) error {
	if c, ok := d.sys.(dynamo.Checker); ok {
		return c.Check(x)
	}
	return nil
}

// Run steps x in place starting at time t0 until the largest per-cell change
// of a step drops below the tolerance after the burn-in, or the iteration
// ceiling is hit. Every pre-step state is sent to traj, followed by one
// final record of the state the loop stopped at. Hitting the ceiling is not
// an error; errors come only from the sinks or ctx. MaxDelta is the change
// of the last finite step. A state that does not fit the system is rejected
// before anything is emitted.
func (d *Detector) Run(ctx context.Context, x dynamo.State, t0 float64, traj Trajectory) (Result, error) {
	if err := d.Check(x); err != nil {
		return Result{Time: t0}, err
	}
	plants, insects := traj.sinks()

	prev := d.pool.GetAndCopy(x)
	defer d.pool.Put(prev)

	res := Result{Status: Running, Time: t0}

	for res.Iterations < d.cfg.MaxIterations {
		select {
		case <-ctx.Done():
			return res, ctx.Err()
		default:
		}

		if err := emit(plants, insects, res.Time, x); err != nil {
			return res, &dynamo.SimulationError{Step: res.Iterations, Time: res.Time, Wrapped: err}
		}

		copy(prev.Vec(), x.Vec())
		d.integ.Step(d.sys, x, d.cfg.Dt)
		if d.cfg.ClampNegative {
			x.P.ClampNegative()
			x.V.ClampNegative()
		}
		res.Time += d.cfg.Dt
		res.Iterations++

		if !x.IsValid() {
			res.Status = Diverged
			break
		}

		res.MaxDelta = x.MaxDelta(*prev)
		if res.MaxDelta < d.cfg.Tolerance && res.Iterations > d.cfg.BurnIn {
			res.Status = Converged
			break
		}
	}
	if res.Status == Running {
		res.Status = Exhausted
	}

	switch res.Status {
	case Converged:
		d.logger.Info("stationary state", "t", res.Time, "iter", res.Iterations)
	case Exhausted:
		d.logger.Warn("no convergence", "t", res.Time, "iter", res.Iterations, "max_delta", res.MaxDelta)
	case Diverged:
		d.logger.Warn("state diverged", "t", res.Time, "iter", res.Iterations, "error", dynamo.ErrInvalidState)
	}

	if err := emit(plants, insects, res.Time, x); err != nil {
		return res, &dynamo.SimulationError{Step: res.Iterations, Time: res.Time, Wrapped: err}
	}
	return res, nil
}

func emit(plants, insects Sink, t float64, x dynamo.State) error {
	if err := plants.Append(t, x.P.Data()); err != nil {
		return err
	}
	return insects.Append(t, x.V.Data())
}
