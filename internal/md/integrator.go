// Package md advances an atomic system with velocity Verlet, optionally
// coupled to a thermostat.
package md

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"math/rand/v2"
	"time"

	"github.com/eminamitani/MD-edamame/internal/atoms"
	"github.com/eminamitani/MD-edamame/internal/compute"
	"github.com/eminamitani/MD-edamame/internal/forcefield"
	"github.com/eminamitani/MD-edamame/internal/metrics"
	"github.com/eminamitani/MD-edamame/internal/neighbor"
	"github.com/eminamitani/MD-edamame/internal/thermostat"
)

// DriftInterval is the number of steps between centre-of-mass velocity
// removals in thermostatted runs. It must be a power of two.
const DriftInterval = 128

type Config struct {
	Dt     float64
	Cutoff float64
	Margin float64
}

type Integrator struct {
	sys     *atoms.System
	ff      forcefield.ForceField
	nl      *neighbor.List
	dt      float64
	images  atoms.Images
	step    int64
	primed  bool
	logger  *slog.Logger
	metrics *metrics.Collector
	backend compute.Backend
	bath    thermostat.Thermostat
}

type Option func(*Integrator)

func WithLogger(l *slog.Logger) Option {
	return func(in *Integrator) { in.logger = l }
}

func WithMetrics(c *metrics.Collector) Option {
	return func(in *Integrator) { in.metrics = c }
}

// WithBackend sets the backend the neighbor list is built on.
func WithBackend(b compute.Backend) Option {
	return func(in *Integrator) { in.backend = b }
}

// New validates cfg, wraps the positions into the box and builds an empty
// neighbor list. Forces are computed lazily before the first step.
func New(sys *atoms.System, ff forcefield.ForceField, cfg Config, opts ...Option) (*Integrator, error) {
	if !(cfg.Dt > 0) {
		return nil, fmt.Errorf("%w: dt must be positive, got %g", ErrInvalidConfig, cfg.Dt)
	}
	if ff == nil {
		return nil, fmt.Errorf("%w: force field is nil", ErrInvalidConfig)
	}

	in := &Integrator{
		sys:    sys,
		ff:     ff,
		dt:     cfg.Dt,
		images: atoms.NewImages(sys.Len()),
		logger: slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(in)
	}

	var nlOpts []neighbor.Option
	if in.backend != nil {
		nlOpts = append(nlOpts, neighbor.WithBackend(in.backend))
	}
	nl, err := neighbor.New(cfg.Cutoff, cfg.Margin, nlOpts...)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	in.nl = nl

	if r, ok := ff.(forcefield.Ranged); ok && r.Cutoff() > cfg.Cutoff {
		in.logger.Warn("neighbor cutoff shorter than force field range",
			"cutoff", cfg.Cutoff, "range", r.Cutoff(), "forcefield", ff.Name())
	}

	sys.ApplyPBC()
	return in, nil
}

func (in *Integrator) System() *atoms.System             { return in.sys }
func (in *Integrator) Neighbors() *neighbor.List         { return in.nl }
func (in *Integrator) Images() atoms.Images              { return in.images }
func (in *Integrator) Dt() float64                       { return in.dt }
func (in *Integrator) StepCount() int64                  { return in.step }
func (in *Integrator) Time() float64                     { return float64(in.step) * in.dt }
func (in *Integrator) ForceField() forcefield.ForceField { return in.ff }

// ResetStep restarts the step counter; positions and images are kept.
func (in *Integrator) ResetStep() { in.step = 0 }

func (in *Integrator) RemoveDrift() { in.sys.RemoveDrift() }

// InitVelocities draws Maxwell-Boltzmann velocities at temperature T.
func (in *Integrator) InitVelocities(T float64, rng *rand.Rand) {
	in.sys.InitVelocities(T, rng)
}

// Sample reports the thermodynamic state at the current step.
func (in *Integrator) Sample() metrics.Sample {
	s := metrics.Sample{
		Step:        in.step,
		Time:        in.Time(),
		Kinetic:     in.sys.KineticEnergy(),
		Potential:   in.sys.PotentialEnergy(),
		Temperature: in.sys.Temperature(),
		Rebuilds:    in.nl.Rebuilds(),
	}
	if b, ok := in.bath.(interface{ Energy() float64 }); ok {
		s.Bath = b.Energy()
	}
	return s
}

// Prime rebuilds the neighbor list and evaluates forces for the current
// positions.
func (in *Integrator) Prime(ctx context.Context) error {
	in.nl.Generate(in.sys)
	if in.metrics != nil {
		in.metrics.Rebuilt()
	}
	if err := in.evaluate(ctx); err != nil {
		return err
	}
	in.primed = true
	return nil
}

func (in *Integrator) evaluate(ctx context.Context) error {
	start := time.Now()
	err := forcefield.Apply(ctx, in.ff, in.sys, in.nl.Edges())
	if in.metrics != nil {
		in.metrics.ForceEval(time.Since(start))
	}
	return err
}

// Step performs one velocity-Verlet step: half kick, drift with periodic
// wrapping, neighbor update, force evaluation, half kick.
func (in *Integrator) Step(ctx context.Context) error {
	if !in.primed {
		if err := in.Prime(ctx); err != nil {
			return err
		}
	}
	if err := in.sys.Kick(in.dt); err != nil {
		return err
	}
	in.sys.Drift(in.dt, in.images)
	if in.nl.Update(in.sys) {
		in.logger.Debug("neighbor list rebuilt", "step", in.step+1, "pairs", in.nl.Edges().Len())
		if in.metrics != nil {
			in.metrics.Rebuilt()
		}
	}
	if err := in.evaluate(ctx); err != nil {
		return err
	}
	if err := in.sys.Kick(in.dt); err != nil {
		return err
	}
	in.step++
	if in.metrics != nil {
		in.metrics.StepDone()
	}
	return nil
}

func (in *Integrator) stepsFor(duration float64) (int64, error) {
	if duration < 0 || math.IsNaN(duration) {
		return 0, fmt.Errorf("%w: duration must be non-negative, got %g", ErrInvalidConfig, duration)
	}
	return int64(math.Round(duration / in.dt)), nil
}

// RunNVE integrates round(duration/dt) microcanonical steps.
func (in *Integrator) RunNVE(ctx context.Context, duration float64, obs StepObserver) error {
	steps, err := in.stepsFor(duration)
	if err != nil {
		return err
	}
	in.logger.Info("nve", "steps", steps, "dt", in.dt)
	return in.run(ctx, steps, nil, obs, nil)
}

// RunNVT integrates round(duration/dt) canonical steps with th at its
// current target temperature.
func (in *Integrator) RunNVT(ctx context.Context, duration float64, th thermostat.Thermostat, obs StepObserver) error {
	if th == nil {
		return ErrNoThermostat
	}
	steps, err := in.stepsFor(duration)
	if err != nil {
		return err
	}
	in.logger.Info("nvt", "steps", steps, "dt", in.dt, "thermostat", th.Name(), "target", th.Target())
	return in.run(ctx, steps, th, obs, nil)
}

// RunAnneal ramps the thermostat target linearly from start to target at
// coolingRate per unit time. The target is pinned to target on return.
func (in *Integrator) RunAnneal(ctx context.Context, coolingRate, start, target float64, th thermostat.Thermostat, obs StepObserver) error {
	if th == nil {
		return ErrNoThermostat
	}
	if start < 0 || target < 0 {
		return fmt.Errorf("%w: temperatures must be non-negative, got %g -> %g", ErrInvalidConfig, start, target)
	}
	if start == target {
		th.SetTarget(target)
		return nil
	}
	if coolingRate == 0 || math.IsNaN(coolingRate) {
		return fmt.Errorf("%w: cooling rate must be non-zero", ErrInvalidConfig)
	}

	delta := math.Abs(coolingRate) * in.dt
	if target < start {
		delta = -delta
	}
	steps := int64(math.Ceil(math.Abs(target-start) / math.Abs(delta)))

	in.logger.Info("anneal", "steps", steps, "from", start, "to", target, "thermostat", th.Name())

	current := start
	th.SetTarget(current)
	ramp := func() {
		current += delta
		if (delta > 0 && current > target) || (delta < 0 && current < target) {
			current = target
		}
		th.SetTarget(current)
	}

	err := in.run(ctx, steps, th, obs, ramp)
	th.SetTarget(target)
	return err
}

func (in *Integrator) run(ctx context.Context, steps int64, th thermostat.Thermostat, obs StepObserver, afterStep func()) error {
	if err := in.Prime(ctx); err != nil {
		return in.fail(err)
	}
	in.bath = th
	if th != nil {
		th.Setup(in.sys)
	}

	for i := int64(0); i < steps; i++ {
		select {
		case <-ctx.Done():
			return in.fail(ctx.Err())
		default:
		}

		if th != nil && th.Scheme() == thermostat.SchemeSplit {
			th.Update(in.sys, in.dt)
		}
		if err := in.Step(ctx); err != nil {
			return in.fail(err)
		}
		if th != nil {
			th.Update(in.sys, in.dt)
			if in.step&(DriftInterval-1) == 0 {
				in.sys.RemoveDrift()
			}
		}
		if afterStep != nil {
			afterStep()
		}
		if in.metrics != nil && th != nil {
			in.metrics.TargetTemperature(th.Target())
		}
		if obs != nil {
			if err := obs.OnStep(ctx, in.step); err != nil {
				return in.fail(err)
			}
		}
	}

	s := in.Sample()
	in.logger.Info("segment done", "step", s.Step, "time", s.Time, "temp", s.Temperature, "ke", s.Kinetic, "pe", s.Potential, "rebuilds", s.Rebuilds)
	return nil
}

func (in *Integrator) fail(err error) error {
	return &SimulationError{Step: in.step, Time: in.Time(), Wrapped: err}
}
