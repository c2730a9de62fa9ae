// Package rate provides a periodic rate controller for loops that must
// run at a fixed cadence, such as robot control loops. The controller
// compensates for execution jitter and clock drift and keeps running
// statistics about the "awake" time, the time the loop body spends
// working between two sleeps.
//
// When the awake time exceeds the time step, two behaviours are
// available.
//
// Enforcing the rate compensates an overrun with shorter steps, keeping
// the overall cadence:
//
//	|       |       |       |       |       |       |
//	|===--->|===--->|============|===|===-->|===--->|
//	|       |       |       |       |       |       |
//
// Not enforcing the rate keeps the single step constant and lets the
// schedule slip:
//
//	|       |       |            |       |       |       |
//	|===--->|===--->|============|===--->|===--->|===--->|
//	|       |       |            |       |       |       |
//
// (| step boundary, === awake, --> sleep)
//
// The time step, the warning and error thresholds and the enforcement
// flag may be changed at runtime from other goroutines; each field is
// individually atomic. A reader that loads several fields may observe
// them from different configuration generations. That relaxation is
// part of the contract: these are operator-tunable parameters, not a
// consistent snapshot.
package rate

import (
	"math"

	"github.com/pkg/errors"
	"go.uber.org/atomic"
)

// Rate schedules one logical periodic task. Sleep is called once per
// loop iteration by the goroutine that owns the loop; the configuration
// setters and the statistics accessors may be called from any
// goroutine.
type Rate struct {
	name atomic.String

	timeStep           atomic.Float64
	maxTimeStepWarning atomic.Float64
	maxTimeStepError   atomic.Float64
	enforceRate        atomic.Bool

	numTimeSteps atomic.Uint64
	numWarnings  atomic.Uint64
	numErrors    atomic.Uint64

	awakeTime     atomic.Float64
	awakeTimeMean atomic.Float64
	awakeTimeM2   atomic.Float64

	clockID ClockID
	clock   Clock
	logger  Logger

	// Touched only by the loop goroutine inside Sleep and Reset.
	sleepStart Timespec
	sleepEnd   Timespec
	stepTime   Timespec
}

// NewRate creates a Rate with the default thresholds (warning at one
// time step, error at ten), rate enforcement on and the monotonic
// clock. The time step must be finite and non-negative.
func NewRate(name string, timeStep float64) (*Rate, error) {
	return NewRateWithOptions(NewOptions(name, timeStep))
}

// NewRateWithOptions creates a Rate from explicit Options. An invalid
// time step or threshold is a recoverable configuration error: it is
// logged, returned, and no Rate is created.
func NewRateWithOptions(opts Options) (*Rate, error) {
	r := &Rate{
		clockID: opts.ClockID,
		clock:   opts.Clock,
		logger:  opts.Logger,
	}
	if r.clock == nil {
		r.clock = NewClock(opts.ClockID)
	}
	if r.logger == nil {
		r.logger = DefaultLogger()
	}
	r.name.Store(opts.Name)

	if err := r.SetTimeStep(opts.TimeStep); err != nil {
		return nil, err
	}
	if err := r.SetMaxTimeStepWarning(opts.MaxTimeStepWarning); err != nil {
		return nil, err
	}
	if err := r.SetMaxTimeStepError(opts.MaxTimeStepError); err != nil {
		return nil, err
	}
	r.SetEnforceRate(opts.EnforceRate)
	r.Reset()
	return r, nil
}

// Name returns the diagnostics label.
func (r *Rate) Name() string {
	return r.name.Load()
}

// SetName renames the rate for subsequent diagnostics.
func (r *Rate) SetName(name string) {
	r.name.Store(name)
}

// TimeStep returns the configured time step in seconds.
func (r *Rate) TimeStep() float64 {
	return r.timeStep.Load()
}

// SetTimeStep updates the time step. Negative, NaN and infinite values
// are rejected: the error is logged and returned, and the previous
// value is retained.
func (r *Rate) SetTimeStep(timeStep float64) error {
	if !timeStepIsValid(timeStep) {
		err := errors.Wrapf(ErrInvalidTimeStep, "rate '%s': cannot set the time step to %v s", r.Name(), timeStep)
		r.logger.Error(err)
		return err
	}
	r.timeStep.Store(timeStep)
	return nil
}

// MaxTimeStepWarning returns the warning threshold in seconds.
func (r *Rate) MaxTimeStepWarning() float64 {
	return r.maxTimeStepWarning.Load()
}

// SetMaxTimeStepWarning updates the warning threshold. An unbounded
// threshold is expressed with a large finite value such as
// math.MaxFloat64.
func (r *Rate) SetMaxTimeStepWarning(maxTimeStep float64) error {
	if !timeStepIsValid(maxTimeStep) {
		err := errors.Wrapf(ErrInvalidMaxTimeStep, "rate '%s': cannot set the max time step for warnings to %v s", r.Name(), maxTimeStep)
		r.logger.Error(err)
		return err
	}
	r.maxTimeStepWarning.Store(maxTimeStep)
	return nil
}

// MaxTimeStepError returns the error threshold in seconds.
func (r *Rate) MaxTimeStepError() float64 {
	return r.maxTimeStepError.Load()
}

// SetMaxTimeStepError updates the error threshold.
func (r *Rate) SetMaxTimeStepError(maxTimeStep float64) error {
	if !timeStepIsValid(maxTimeStep) {
		err := errors.Wrapf(ErrInvalidMaxTimeStep, "rate '%s': cannot set the max time step for errors to %v s", r.Name(), maxTimeStep)
		r.logger.Error(err)
		return err
	}
	r.maxTimeStepError.Store(maxTimeStep)
	return nil
}

// EnforceRate reports whether missed deadlines keep the original
// schedule.
func (r *Rate) EnforceRate() bool {
	return r.enforceRate.Load()
}

// SetEnforceRate switches the missed-deadline policy.
func (r *Rate) SetEnforceRate(enforce bool) {
	r.enforceRate.Store(enforce)
}

// ClockID returns the selected time source.
func (r *Rate) ClockID() ClockID {
	return r.clockID
}

// Reset zeroes the counters and statistics and re-anchors the schedule
// to the current time. The configuration is untouched. The next Sleep
// measures a near-zero awake time and targets now plus one time step.
func (r *Rate) Reset() {
	r.numTimeSteps.Store(0)
	r.numWarnings.Store(0)
	r.numErrors.Store(0)
	r.awakeTime.Store(0.0)
	r.awakeTimeMean.Store(0.0)
	r.awakeTimeM2.Store(0.0)

	now := r.clock.Now()
	r.sleepStart = now
	r.sleepEnd = now
	r.stepTime = now
}

// Sleep measures the awake time since the previous wake-up, updates the
// statistics, checks the thresholds and blocks until the next absolute
// deadline. With a time step of zero nothing is skipped: thresholds and
// statistics still apply, only the blocking is a no-op.
//
// Deadline misses and configuration problems are handled locally
// (logged and counted); Sleep never fails.
func (r *Rate) Sleep() {
	// Awake time is the span between the end of the previous sleep and
	// now.
	r.sleepStart = r.clock.Now()
	awake := Duration(r.sleepEnd, r.sleepStart)
	r.awakeTime.Store(awake)

	// Welford's online mean/variance update. Numerically stable and
	// constant memory for unbounded iteration counts.
	n := r.numTimeSteps.Inc()
	delta := awake - r.awakeTimeMean.Load()
	mean := r.awakeTimeMean.Add(delta / float64(n))
	r.awakeTimeM2.Add(delta * (awake - mean))

	// Error takes priority over warning; at most one diagnostic per
	// cycle.
	if awake > r.maxTimeStepError.Load() {
		r.logger.Errorf("Rate '%s': processing took too long (%v s > %v s).", r.Name(), awake, r.timeStep.Load())
		r.numErrors.Inc()
	} else if awake > r.maxTimeStepWarning.Load() {
		r.logger.Warnf("Rate '%s': processing took too long (%v s > %v s).", r.Name(), awake, r.timeStep.Load())
		r.numWarnings.Inc()
	}

	// Advance the deadline by exactly one time step, anchored to the
	// previous deadline rather than to now, so jitter in one cycle does
	// not leak into the next. Integer nanosecond arithmetic avoids
	// floating accumulation over long runs.
	r.stepTime = r.stepTime.AddNSec(int64(r.timeStep.Load() * float64(nsecPerSec)))

	r.sleepEnd = r.clock.Now()
	if Duration(r.sleepEnd, r.stepTime) < 0.0 {
		// Behind schedule. When the rate is not enforced, rebase the
		// schedule to the present and permanently give up the missed
		// period. When it is enforced, keep the deadline in the past;
		// the following cycles will report the overrun until the loop
		// catches up.
		if !r.enforceRate.Load() {
			r.stepTime = r.sleepEnd
		}
	} else {
		// The deadline is reachable. The sleep end is the deadline
		// itself, so the next awake measurement starts exactly there.
		r.sleepEnd = r.stepTime
		r.clock.SleepUntil(r.stepTime)
		// Nothing after the blocking call, to keep Sleep's own
		// overhead out of the next cycle's awake time.
	}
}

// SleepStartTime returns when the most recent Sleep began.
func (r *Rate) SleepStartTime() Timespec {
	return r.sleepStart
}

// SleepEndTime returns when the most recent Sleep ended.
func (r *Rate) SleepEndTime() Timespec {
	return r.sleepEnd
}

// StepTime returns the current absolute target wake-up time.
func (r *Rate) StepTime() Timespec {
	return r.stepTime
}

// NumTimeSteps returns how many times Sleep has completed since the
// last Reset.
func (r *Rate) NumTimeSteps() uint64 {
	return r.numTimeSteps.Load()
}

// NumWarnings returns how many cycles exceeded the warning threshold
// without exceeding the error threshold.
func (r *Rate) NumWarnings() uint64 {
	return r.numWarnings.Load()
}

// NumErrors returns how many cycles exceeded the error threshold.
func (r *Rate) NumErrors() uint64 {
	return r.numErrors.Load()
}

// AwakeTime returns the most recent awake time in seconds, or NaN
// before the first completed cycle.
func (r *Rate) AwakeTime() float64 {
	if r.numTimeSteps.Load() == 0 {
		return math.NaN()
	}
	return r.awakeTime.Load()
}

// AwakeTimeMean returns the mean awake time in seconds, or NaN before
// the first completed cycle.
func (r *Rate) AwakeTimeMean() float64 {
	if r.numTimeSteps.Load() == 0 {
		return math.NaN()
	}
	return r.awakeTimeMean.Load()
}

// AwakeTimeVar returns the unbiased awake time variance, or NaN with
// fewer than two samples.
func (r *Rate) AwakeTimeVar() float64 {
	n := r.numTimeSteps.Load()
	if n <= 1 {
		return math.NaN()
	}
	return r.awakeTimeM2.Load() / float64(n-1)
}

// AwakeTimeStdDev returns the awake time standard deviation, or NaN
// with fewer than two samples.
func (r *Rate) AwakeTimeStdDev() float64 {
	return math.Sqrt(r.AwakeTimeVar())
}

func timeStepIsValid(timeStep float64) bool {
	return timeStep >= 0.0 && !math.IsInf(timeStep, 0) && !math.IsNaN(timeStep)
}
