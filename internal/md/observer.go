package md

import "context"

// StepObserver is notified after every completed integration step.
// Returning an error stops the run.
type StepObserver interface {
	OnStep(ctx context.Context, step int64) error
}

type ObserverFunc func(ctx context.Context, step int64) error

func (f ObserverFunc) OnStep(ctx context.Context, step int64) error { return f(ctx, step) }

type multiObserver []StepObserver

func (m multiObserver) OnStep(ctx context.Context, step int64) error {
	for _, o := range m {
		if err := o.OnStep(ctx, step); err != nil {
			return err
		}
	}
	return nil
}

// Observers combines several observers; nil entries are dropped.
func Observers(obs ...StepObserver) StepObserver {
	out := make(multiObserver, 0, len(obs))
	for _, o := range obs {
		if o != nil {
			out = append(out, o)
		}
	}
	return out
}
