// Package worker runs callbacks at a fixed cadence, each in its own
// goroutine, on top of the rate package. A Worker owns the goroutine
// and its lifecycle; the timing, drift correction and overrun
// diagnostics come from the embedded rate controller.
package worker

import (
	"math"
	"sync"

	"github.com/pkg/errors"
	"go.uber.org/atomic"

	"github.com/qbotics/looprate/rate"
)

// Worker periodically invokes a callback from a dedicated goroutine.
type Worker struct {
	opts    Options
	clock   rate.Clock
	rate    *rate.Rate
	logger  rate.Logger
	running atomic.Bool
	done    atomic.Bool
	wg      sync.WaitGroup
}

// New creates a Worker. The time step must be non-negative; +Inf is
// accepted and means "run the callback once". The callback is
// mandatory.
func New(opts Options) (*Worker, error) {
	if opts.Callback == nil {
		return nil, errors.Errorf("worker [%s]: no callback given", opts.Name)
	}
	if math.IsNaN(opts.TimeStep) || opts.TimeStep < 0.0 {
		return nil, errors.Wrapf(rate.ErrInvalidTimeStep, "worker [%s]: invalid time step %v s", opts.Name, opts.TimeStep)
	}

	w := &Worker{
		opts:   opts,
		clock:  rate.NewClock(opts.ClockID),
		logger: opts.Logger,
	}
	if w.logger == nil {
		w.logger = rate.DefaultLogger()
	}

	// A rate only exists in periodic mode; run-once workers have no
	// schedule to keep.
	if !math.IsInf(opts.TimeStep, 1) {
		ropts := rate.NewOptions(opts.Name, opts.TimeStep)
		ropts.EnforceRate = opts.EnforceRate
		ropts.Clock = w.clock
		ropts.Logger = w.logger
		r, err := rate.NewRateWithOptions(ropts)
		if err != nil {
			return nil, err
		}
		w.rate = r
	}
	return w, nil
}

// Name returns the diagnostics label.
func (w *Worker) Name() string {
	return w.opts.Name
}

// TimeStep returns the current time step in seconds.
func (w *Worker) TimeStep() float64 {
	if w.rate == nil {
		return w.opts.TimeStep
	}
	return w.rate.TimeStep()
}

// SetTimeStep changes the cycle interval of a periodic worker. Values
// that are not strictly positive are rejected: the error is logged and
// returned and the previous value is retained. The warning and error
// thresholds follow the new step (one step and ten steps).
func (w *Worker) SetTimeStep(timeStep float64) error {
	if math.IsNaN(timeStep) || math.IsInf(timeStep, 0) || timeStep <= 0.0 {
		err := errors.Wrapf(rate.ErrInvalidTimeStep, "worker [%s]: cannot change time step to %v s", w.Name(), timeStep)
		w.logger.Error(err)
		return err
	}
	if w.rate == nil {
		err := errors.Errorf("worker [%s]: cannot change time step of a run-once worker", w.Name())
		w.logger.Error(err)
		return err
	}
	if err := w.rate.SetTimeStep(timeStep); err != nil {
		return err
	}
	if err := w.rate.SetMaxTimeStepWarning(timeStep); err != nil {
		return err
	}
	return w.rate.SetMaxTimeStepError(10.0 * timeStep)
}

// Rate exposes the underlying rate controller for health reporting. It
// is nil for run-once workers.
func (w *Worker) Rate() *rate.Rate {
	return w.rate
}

// Start launches the worker goroutine. Starting an already running
// worker is an error.
func (w *Worker) Start() error {
	if w.running.Load() {
		err := errors.Errorf("worker [%s] cannot be started, already running", w.Name())
		w.logger.Error(err)
		return err
	}

	w.running.Store(true)
	w.done.Store(false)
	w.wg.Add(1)
	go w.run()

	w.logger.Infof("Worker [%s] started.", w.Name())
	return nil
}

// Stop asks the worker to terminate after the current cycle. An
// in-progress sleep is not interrupted. With wait set, Stop blocks
// until the goroutine has exited.
func (w *Worker) Stop(wait bool) {
	w.running.Store(false)
	if wait {
		w.wg.Wait()
	}
}

// IsRunning reports whether the worker has been started and not yet
// stopped.
func (w *Worker) IsRunning() bool {
	return w.running.Load()
}

// IsDone reports whether the worker goroutine has terminated.
func (w *Worker) IsDone() bool {
	return w.done.Load()
}

// IsDestructible reports whether the worker has terminated and was
// marked for removal.
func (w *Worker) IsDestructible() bool {
	return w.done.Load() && w.opts.DestructWhenDone
}

func (w *Worker) run() {
	defer w.wg.Done()
	defer func() {
		w.done.Store(true)
		w.running.Store(false)
		w.logger.Infof("Worker [%s] terminated.", w.Name())
	}()

	if w.rate == nil {
		// Run-once mode.
		if !w.opts.Callback(Event{TimeStep: w.opts.TimeStep, Stamp: w.clock.Now()}) {
			w.logger.Warnf("Worker [%s] callback returned false.", w.Name())
		}
		return
	}

	w.rate.Reset()
	for {
		if !w.opts.Callback(Event{TimeStep: w.rate.TimeStep(), Stamp: w.rate.StepTime()}) {
			w.logger.Warnf("Worker [%s] callback returned false.", w.Name())
		}
		// A zero time step means free-running: no blocking, no
		// overrun bookkeeping.
		if w.rate.TimeStep() != 0.0 {
			w.rate.Sleep()
		}
		if !w.running.Load() {
			return
		}
	}
}
