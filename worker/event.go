package worker

import "github.com/qbotics/looprate/rate"

// Event is handed to the worker callback on every cycle.
type Event struct {
	// TimeStep is the configured time step in seconds at the start of
	// the cycle.
	TimeStep float64
	// Stamp is the scheduled start of the cycle on the worker's clock.
	Stamp rate.Timespec
}

// Callback is the work a Worker performs each cycle. Returning false is
// logged at warning level but does not stop the worker.
type Callback func(Event) bool
