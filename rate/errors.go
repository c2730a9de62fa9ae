package rate

import "github.com/pkg/errors"

var (
	// ErrInvalidTimeStep is returned when a time step is negative, NaN
	// or infinite.
	ErrInvalidTimeStep = errors.New("time step must be finite and non-negative")
	// ErrInvalidMaxTimeStep is returned when a warning or error
	// threshold is negative, NaN or infinite.
	ErrInvalidMaxTimeStep = errors.New("max time step must be finite and non-negative")
)
