package experiment

import (
	"context"
	"fmt"
	"strconv"

	"github.com/eminamitani/MD-edamame/internal/jobscript"
	"github.com/eminamitani/MD-edamame/internal/md"
	"github.com/eminamitani/MD-edamame/internal/sampler"
	"github.com/eminamitani/MD-edamame/internal/storage"
	"github.com/eminamitani/MD-edamame/internal/trajectory"
)

// segment observes one NVE, NVT or ANNEAL command. Schedules see steps
// relative to the start of the segment.
type segment struct {
	e        *Experiment
	index    int
	start    int64
	schedule sampler.Schedule
	traj     *trajectory.Appender
}

func (e *Experiment) openSegment(c jobscript.Command, steps int64) (*segment, error) {
	method, ok := c.Args["output_method"]
	if !ok {
		return nil, fmt.Errorf("%w: %s needs --output_method", jobscript.ErrMissingArg, c.Name)
	}
	sc := e.cfg.Sampler
	sched, err := sampler.ParseSchedule(method, sampler.Params{
		PerDecade: sc.PerDecade,
		BurstSize: sc.BurstSize,
		Interval:  sc.Interval,
		MaxStep:   max(steps, 1),
	})
	if err != nil {
		return nil, err
	}
	if lb, ok := sched.(*sampler.LogBurst); ok {
		e.logger.Info("log sampling", "t_safe", lb.TSafe(), "ratio", lb.Ratio(), "steps", steps)
	}

	s := &segment{
		e:        e,
		index:    e.segment,
		start:    e.integrator.StepCount(),
		schedule: sched,
	}
	e.segment++

	save, err := c.Bool("trajectory")
	if err != nil {
		return nil, err
	}
	if save {
		path := c.Redirect
		if path == "" {
			path = e.cfg.TrajectoryPath
		}
		if s.traj, err = trajectory.OpenAppender(path); err != nil {
			return nil, err
		}
	}
	return s, nil
}

func (s *segment) OnStep(ctx context.Context, step int64) error {
	d := s.schedule.Decide(step - s.start)
	if !d.Emit {
		return nil
	}
	return s.emit(step, d)
}

func (s *segment) emit(step int64, d sampler.Decision) error {
	e := s.e
	sample := e.integrator.Sample()
	e.metrics.Observe(sample)
	if e.collector != nil {
		e.collector.Observe(sample)
		e.collector.Emitted(d.Kind.String())
	}

	rec := storage.ThermoRecord{
		Segment:     s.index,
		Step:        step,
		Time:        sample.Time,
		Kinetic:     sample.Kinetic,
		Potential:   sample.Potential,
		Total:       sample.Total(),
		Temperature: sample.Temperature,
		Target:      e.thermostat.Target(),
		Kind:        d.Kind.String(),
		BurstID:     d.BurstID,
		BurstIndex:  d.BurstIndex,
	}
	e.logger.Debug("sample", "step", step, "time", rec.Time, "ke", rec.Kinetic, "pe", rec.Potential,
		"etot", rec.Total, "temp", rec.Temperature, "kind", rec.Kind)

	if e.run != nil {
		if err := e.run.Record(rec); err != nil {
			return err
		}
	}
	if e.live != nil {
		select {
		case e.live <- rec:
		default:
		}
	}

	if s.traj != nil {
		f := trajectory.FromSystem(e.integrator.System(), e.integrator.Images(), true)
		f.Set("step", strconv.FormatInt(step, 10))
		f.Set("time", strconv.FormatFloat(rec.Time, 'g', -1, 64))
		f.Set("kind", rec.Kind)
		f.Set("burst_id", strconv.Itoa(rec.BurstID))
		f.Set("burst_index", strconv.Itoa(rec.BurstIndex))
		if err := s.traj.Append(f); err != nil {
			return err
		}
	}
	return nil
}

// close releases the trajectory file and returns the run error, if any.
func (s *segment) close(runErr error) error {
	if s.traj != nil {
		if err := s.traj.Close(); err != nil && runErr == nil {
			return err
		}
		s.e.logger.Info("trajectory written", "path", s.traj.Path(), "frames", s.traj.Frames())
	}
	return runErr
}

// observe attaches the progress logger, if enabled, to a segment.
func (e *Experiment) observe(seg *segment) md.StepObserver {
	return md.Observers(seg, e.progress())
}

func (e *Experiment) progress() md.StepObserver {
	if e.progressEvery <= 0 {
		return nil
	}
	return md.ObserverFunc(func(ctx context.Context, step int64) error {
		if step%e.progressEvery != 0 {
			return nil
		}
		s := e.integrator.Sample()
		e.logger.Debug("progress",
			"step", s.Step, "time", s.Time, "temp", s.Temperature,
			"ke", s.Kinetic, "pe", s.Potential, "rebuilds", s.Rebuilds)
		return nil
	})
}
