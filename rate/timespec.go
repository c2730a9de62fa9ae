package rate

const nsecPerSec = 1000000000

// normalize carries whole seconds out of the nanosecond field so that
// nsec always ends up in [0, nsecPerSec). Negative inputs are allowed;
// the carry borrows from the seconds field.
func normalize(sec int64, nsec int64) (int64, int64) {
	sec += nsec / nsecPerSec
	nsec = nsec % nsecPerSec
	if nsec < 0 {
		sec--
		nsec += nsecPerSec
	}
	return sec, nsec
}

// Timespec is an absolute point in time on one of the selectable
// clocks, held as integer seconds and nanoseconds. Deadline arithmetic
// stays in the integer domain; floating seconds are only produced for
// statistics and diagnostics.
type Timespec struct {
	Sec  int64
	NSec int64
}

// NewTimespec builds a normalized Timespec from seconds and
// nanoseconds.
func NewTimespec(sec int64, nsec int64) Timespec {
	sec, nsec = normalize(sec, nsec)
	return Timespec{Sec: sec, NSec: nsec}
}

// FromNSec builds a Timespec from a single nanosecond count.
func FromNSec(nsec int64) Timespec {
	return NewTimespec(0, nsec)
}

// AddNSec returns the Timespec shifted by the given number of
// nanoseconds.
func (t Timespec) AddNSec(nsec int64) Timespec {
	return NewTimespec(t.Sec, t.NSec+nsec)
}

// ToNSec returns the Timespec as a single nanosecond count.
func (t Timespec) ToNSec() int64 {
	return t.Sec*nsecPerSec + t.NSec
}

// ToSec returns the Timespec as floating seconds.
func (t Timespec) ToSec() float64 {
	return float64(t.Sec) + float64(t.NSec)*1e-9
}

// Cmp compares two Timespecs, returning -1, 0 or 1.
func (t Timespec) Cmp(other Timespec) int {
	a, b := t.ToNSec(), other.ToNSec()
	if a > b {
		return 1
	} else if a < b {
		return -1
	}
	return 0
}

// Duration returns end-start in floating seconds. The result is signed:
// a negative value means end lies before start.
func Duration(start Timespec, end Timespec) float64 {
	return float64(end.Sec-start.Sec) + float64(end.NSec-start.NSec)*1e-9
}
