package worker

import "github.com/qbotics/looprate/rate"

// Options collects the construction parameters of a Worker.
type Options struct {
	// Name labels the worker in diagnostics.
	Name string
	// TimeStep is the interval between cycle starts in seconds. Zero
	// runs the callback as fast as possible; +Inf runs it exactly once.
	TimeStep float64
	// Callback is invoked every cycle.
	Callback Callback
	// EnforceRate keeps the cadence after an overrun instead of
	// slipping the schedule.
	EnforceRate bool
	// DestructWhenDone marks the worker for removal by
	// Manager.CleanDestructibleWorkers once it has terminated.
	DestructWhenDone bool
	// ClockID selects the time source of the underlying rate.
	ClockID rate.ClockID
	// Logger receives the diagnostics. Defaults to the logrus standard
	// logger.
	Logger rate.Logger
}

// NewOptions returns Options with the conventional defaults: rate
// enforcement on, monotonic clock.
func NewOptions(name string, timeStep float64, cb Callback) Options {
	return Options{
		Name:        name,
		TimeStep:    timeStep,
		Callback:    cb,
		EnforceRate: true,
		ClockID:     rate.ClockMonotonic,
	}
}
