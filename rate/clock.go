package rate

import (
	"time"

	"github.com/pkg/errors"
)

// ClockID selects which time source a Rate schedules against.
type ClockID int

const (
	// ClockMonotonic is a clock that never jumps backwards or forwards,
	// anchored to an arbitrary epoch. This is the default for control
	// loops.
	ClockMonotonic ClockID = iota
	// ClockWall is the system wall clock. It may be stepped by NTP or
	// an operator, which shows up as negative or oversized awake times.
	ClockWall
)

func (id ClockID) String() string {
	switch id {
	case ClockMonotonic:
		return "monotonic"
	case ClockWall:
		return "wall"
	}
	return "unknown"
}

// ParseClockID converts a clock name from a parameter file into a
// ClockID.
func ParseClockID(name string) (ClockID, error) {
	switch name {
	case "monotonic":
		return ClockMonotonic, nil
	case "wall":
		return ClockWall, nil
	}
	return ClockMonotonic, errors.Errorf("unknown clock '%s'", name)
}

// Clock abstracts the time source so schedules can run against the
// monotonic clock, the wall clock, or a manual clock in tests.
type Clock interface {
	Now() Timespec
	// SleepUntil blocks the calling goroutine until the clock reaches
	// t. It returns immediately if t is already in the past.
	SleepUntil(t Timespec)
}

// NewClock returns the Clock for the given ClockID.
func NewClock(id ClockID) Clock {
	switch id {
	case ClockWall:
		return wallClock{}
	default:
		return newMonotonicClock()
	}
}

type monotonicClock struct {
	start time.Time
}

func newMonotonicClock() *monotonicClock {
	return &monotonicClock{start: time.Now()}
}

func (c *monotonicClock) Now() Timespec {
	// time.Since reads the runtime's monotonic reading, so this value
	// is immune to wall clock steps. The epoch is the clock's creation.
	return FromNSec(time.Since(c.start).Nanoseconds())
}

func (c *monotonicClock) SleepUntil(t Timespec) {
	sleepUntil(c, t)
}

type wallClock struct{}

func (wallClock) Now() Timespec {
	return FromNSec(time.Now().UnixNano())
}

func (c wallClock) SleepUntil(t Timespec) {
	sleepUntil(c, t)
}

// sleepUntil emulates an absolute-deadline sleep on top of the relative
// sleep the runtime offers. The remaining duration is computed
// immediately before blocking to keep the added drift window minimal.
func sleepUntil(c Clock, t Timespec) {
	d := t.ToNSec() - c.Now().ToNSec()
	if d > 0 {
		time.Sleep(time.Duration(d))
	}
}

// ManualClock is a Clock whose time only moves when told to. It makes
// scheduling tests deterministic: SleepUntil jumps the clock straight
// to the deadline instead of blocking.
type ManualClock struct {
	now Timespec
}

// NewManualClock creates a ManualClock starting at the given instant.
func NewManualClock(start Timespec) *ManualClock {
	return &ManualClock{now: start}
}

func (c *ManualClock) Now() Timespec {
	return c.now
}

// Advance moves the clock forward by d, simulating work taking that
// long.
func (c *ManualClock) Advance(d time.Duration) {
	c.now = c.now.AddNSec(d.Nanoseconds())
}

// Set moves the clock to an arbitrary instant, including backwards.
func (c *ManualClock) Set(t Timespec) {
	c.now = t
}

func (c *ManualClock) SleepUntil(t Timespec) {
	if t.Cmp(c.now) > 0 {
		c.now = t
	}
}
