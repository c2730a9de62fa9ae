package rate

// Options collects the construction parameters of a Rate.
type Options struct {
	// Name labels the rate in diagnostics.
	Name string
	// TimeStep is the nominal interval between wake-ups in seconds.
	TimeStep float64
	// MaxTimeStepWarning is the awake time in seconds above which a
	// warning is issued.
	MaxTimeStepWarning float64
	// MaxTimeStepError is the awake time in seconds above which an
	// error is issued. Exceeding it suppresses the warning check for
	// that cycle.
	MaxTimeStepError float64
	// EnforceRate keeps the original schedule when a deadline is
	// missed. When false, a missed deadline rebases the schedule to
	// the present.
	EnforceRate bool
	// ClockID selects the time source.
	ClockID ClockID
	// Clock, when non-nil, overrides ClockID. Tests inject a
	// ManualClock here.
	Clock Clock
	// Logger receives the diagnostics. Defaults to the logrus standard
	// logger.
	Logger Logger
}

// NewOptions returns Options with the conventional defaults: warning at
// one time step, error at ten, rate enforcement on, monotonic clock.
func NewOptions(name string, timeStep float64) Options {
	return Options{
		Name:               name,
		TimeStep:           timeStep,
		MaxTimeStepWarning: timeStep,
		MaxTimeStepError:   10.0 * timeStep,
		EnforceRate:        true,
		ClockID:            ClockMonotonic,
	}
}
