// Package experiment executes job scripts: it builds the system, force
// field and thermostat from a config and dispatches each script command to
// the integrator.
package experiment

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"math/rand/v2"
	"strconv"

	"github.com/eminamitani/MD-edamame/internal/atoms"
	"github.com/eminamitani/MD-edamame/internal/compute"
	"github.com/eminamitani/MD-edamame/internal/config"
	"github.com/eminamitani/MD-edamame/internal/jobscript"
	"github.com/eminamitani/MD-edamame/internal/md"
	"github.com/eminamitani/MD-edamame/internal/metrics"
	"github.com/eminamitani/MD-edamame/internal/storage"
	"github.com/eminamitani/MD-edamame/internal/thermostat"
	"github.com/eminamitani/MD-edamame/internal/trajectory"
	"github.com/eminamitani/MD-edamame/internal/units"
)

// DefaultSavePath is used by SAVE commands without a target.
const DefaultSavePath = "saved_structure.xyz"

type Experiment struct {
	cfg        *config.Config
	registry   *Registry
	units      units.System
	rng        *rand.Rand
	integrator *md.Integrator
	thermostat thermostat.Thermostat
	logger     *slog.Logger
	collector  *metrics.Collector
	metrics    metrics.Set

	store   *storage.Store
	name    string
	run     *storage.Run
	live    chan<- storage.ThermoRecord
	segment int

	progressEvery int64
}

type Option func(*Experiment)

func WithLogger(l *slog.Logger) Option {
	return func(e *Experiment) { e.logger = l }
}

func WithCollector(c *metrics.Collector) Option {
	return func(e *Experiment) { e.collector = c }
}

func WithRegistry(r *Registry) Option {
	return func(e *Experiment) { e.registry = r }
}

// WithStore records every emitted sample as a run named name.
func WithStore(st *storage.Store, name string) Option {
	return func(e *Experiment) {
		e.store = st
		e.name = name
	}
}

// WithLive forwards emitted samples to ch. Sends never block; samples are
// dropped while the receiver is busy.
func WithLive(ch chan<- storage.ThermoRecord) Option {
	return func(e *Experiment) { e.live = ch }
}

// WithProgress logs the thermodynamic state every n steps at debug level.
func WithProgress(n int64) Option {
	return func(e *Experiment) { e.progressEvery = n }
}

// New builds the initial system and the integrator described by cfg.
func New(cfg *config.Config, opts ...Option) (*Experiment, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	u, err := units.Lookup(cfg.Units)
	if err != nil {
		return nil, err
	}

	e := &Experiment{
		cfg:      cfg,
		registry: NewRegistry(),
		units:    u,
		rng:      rand.New(rand.NewPCG(uint64(cfg.Seed), uint64(cfg.Seed)^0x9e3779b97f4a7c15)),
		logger:   slog.New(slog.DiscardHandler),
		metrics:  metrics.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}

	backend, err := compute.ForDevice(cfg.Device)
	if err != nil {
		return nil, err
	}

	sys, err := e.buildSystem()
	if err != nil {
		return nil, err
	}

	ff, err := e.registry.GetForceField(cfg.ForceField, backend)
	if err != nil {
		return nil, err
	}
	th, err := e.registry.GetThermostat(cfg.Thermostat, u, e.rng)
	if err != nil {
		return nil, err
	}
	e.thermostat = th

	mdOpts := []md.Option{md.WithLogger(e.logger), md.WithBackend(backend)}
	if e.collector != nil {
		mdOpts = append(mdOpts, md.WithMetrics(e.collector))
	}
	e.integrator, err = md.New(sys, ff, md.Config{Dt: cfg.Dt, Cutoff: cfg.Cutoff, Margin: cfg.Margin}, mdOpts...)
	if err != nil {
		return nil, err
	}

	e.logger.Info("system ready",
		"atoms", sys.Len(), "box", sys.Box(), "forcefield", ff.Name(),
		"thermostat", th.Name(), "backend", backend.Name(), "units", u.Name)
	return e, nil
}

func (e *Experiment) buildSystem() (*atoms.System, error) {
	s := e.cfg.Structure
	var (
		sys *atoms.System
		err error
	)
	if s.InitialPath != "" {
		sys, err = trajectory.LoadSystem(s.InitialPath, e.units)
	} else {
		sys, err = atoms.SimpleCubic(s.LatticeAtoms, s.Density, e.registry.Mix(e.cfg.ForceField), e.units, e.rng)
	}
	if err != nil {
		return nil, err
	}
	if s.Temperature > 0 {
		sys.InitVelocities(s.Temperature, e.rng)
	}
	return sys, nil
}

func (e *Experiment) Integrator() *md.Integrator        { return e.integrator }
func (e *Experiment) Thermostat() thermostat.Thermostat { return e.thermostat }
func (e *Experiment) Metrics() metrics.Set              { return e.metrics }

// RunID is empty until a stored run has started.
func (e *Experiment) RunID() string {
	if e.run == nil {
		return ""
	}
	return e.run.ID()
}

// Run executes the commands of script in order. Unknown commands are
// logged and skipped.
func (e *Experiment) Run(ctx context.Context, script *jobscript.Script) (err error) {
	if e.store != nil {
		if err := e.startRun(script); err != nil {
			return err
		}
		defer func() {
			ferr := e.run.Finish(e.integrator.StepCount(), e.metrics.Values())
			err = errors.Join(err, ferr)
		}()
	}

	for _, c := range script.Commands {
		e.logger.Info("command", "name", c.Name, "line", c.Line)
		if err := e.execute(ctx, c); err != nil {
			return fmt.Errorf("%s (line %d): %w", c.Name, c.Line, err)
		}
	}
	return nil
}

func (e *Experiment) startRun(script *jobscript.Script) error {
	names := make([]string, len(script.Commands))
	for i, c := range script.Commands {
		names[i] = c.Name
	}
	run, err := e.store.Create(storage.RunMetadata{
		Name:       e.name,
		Seed:       e.cfg.Seed,
		Units:      e.units.Name,
		ForceField: e.cfg.ForceField,
		Thermostat: e.thermostat.Name(),
		Atoms:      e.integrator.System().Len(),
		Dt:         e.cfg.Dt,
		Cutoff:     e.cfg.Cutoff,
		Margin:     e.cfg.Margin,
		Commands:   names,
		Trajectory: e.cfg.TrajectoryPath,
	})
	if err != nil {
		return fmt.Errorf("failed to create run: %w", err)
	}
	e.run = run
	e.logger.Info("recording run", "id", run.ID(), "dir", run.Dir())
	return nil
}

func (e *Experiment) execute(ctx context.Context, c jobscript.Command) error {
	switch c.Name {
	case "NVE":
		return e.nve(ctx, c)
	case "NVT":
		return e.nvt(ctx, c)
	case "ANNEAL":
		return e.anneal(ctx, c)
	case "SAVE":
		return e.save(c, false)
	case "SAVE_UNWRAPPED":
		return e.save(c, true)
	case "RESET_STEP":
		e.integrator.ResetStep()
		return nil
	case "INIT_VELOCITY":
		T, err := c.Float("temp")
		if err != nil {
			return err
		}
		e.integrator.InitVelocities(T, e.rng)
		return nil
	default:
		e.logger.Warn("unknown command skipped", "name", c.Name, "line", c.Line)
		return nil
	}
}

func (e *Experiment) nve(ctx context.Context, c jobscript.Command) error {
	duration, err := c.Float("duration")
	if err != nil {
		return err
	}
	if c.Has("temp") {
		T, err := c.Float("temp")
		if err != nil {
			return err
		}
		e.integrator.InitVelocities(T, e.rng)
	}
	seg, err := e.openSegment(c, e.stepsFor(duration))
	if err != nil {
		return err
	}
	return seg.close(e.integrator.RunNVE(ctx, duration, e.observe(seg)))
}

func (e *Experiment) nvt(ctx context.Context, c jobscript.Command) error {
	duration, err := c.Float("duration")
	if err != nil {
		return err
	}
	T, err := c.Float("temp")
	if err != nil {
		return err
	}
	e.thermostat.SetTarget(T)
	seg, err := e.openSegment(c, e.stepsFor(duration))
	if err != nil {
		return err
	}
	return seg.close(e.integrator.RunNVT(ctx, duration, e.thermostat, e.observe(seg)))
}

func (e *Experiment) anneal(ctx context.Context, c jobscript.Command) error {
	rate, err := c.Float("cooling_rate")
	if err != nil {
		return err
	}
	start, err := c.Float("initial_temp")
	if err != nil {
		return err
	}
	target, err := c.Float("target_temp")
	if err != nil {
		return err
	}
	steps := int64(1)
	if rate != 0 {
		steps = int64(math.Ceil(math.Abs(target-start) / (math.Abs(rate) * e.cfg.Dt)))
	}
	e.thermostat.SetTarget(start)
	seg, err := e.openSegment(c, steps)
	if err != nil {
		return err
	}
	return seg.close(e.integrator.RunAnneal(ctx, rate, start, target, e.thermostat, e.observe(seg)))
}

func (e *Experiment) stepsFor(duration float64) int64 {
	return int64(math.Round(duration / e.cfg.Dt))
}

func (e *Experiment) save(c jobscript.Command, unwrapped bool) error {
	path := c.Redirect
	if path == "" {
		path = c.String("output", DefaultSavePath)
	}
	f := trajectory.FromSystem(e.integrator.System(), e.integrator.Images(), unwrapped)
	f.Set("step", strconv.FormatInt(e.integrator.StepCount(), 10))
	f.Set("time", strconv.FormatFloat(e.integrator.Time(), 'g', -1, 64))
	if err := trajectory.WriteFile(path, f); err != nil {
		return err
	}
	e.logger.Info("structure saved", "path", path, "unwrapped", unwrapped)
	return nil
}
