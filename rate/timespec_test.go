package rate

import (
	"testing"
)

func TestTimespecNormalization(t *testing.T) {
	cases := []struct {
		sec, nsec         int64
		wantSec, wantNSec int64
	}{
		{0, 0, 0, 0},
		{1, 500000000, 1, 500000000},
		{0, 1500000000, 1, 500000000},
		{0, 2000000000, 2, 0},
		{0, -1, -1, 999999999},
		{0, -1500000000, -2, 500000000},
		{2, -2500000000, -1, 500000000},
		{-1, 1500000000, 0, 500000000},
	}
	for _, c := range cases {
		ts := NewTimespec(c.sec, c.nsec)
		if ts.Sec != c.wantSec || ts.NSec != c.wantNSec {
			t.Errorf("NewTimespec(%d, %d) = {%d, %d}, want {%d, %d}",
				c.sec, c.nsec, ts.Sec, ts.NSec, c.wantSec, c.wantNSec)
		}
	}
}

func TestTimespecAddNSecExact(t *testing.T) {
	ts := NewTimespec(100, 0)
	// Ten additions of a tenth of a second must land exactly on the
	// next full second, with no floating error.
	for i := 0; i < 10; i++ {
		ts = ts.AddNSec(100000000)
	}
	if ts.Sec != 101 || ts.NSec != 0 {
		t.Errorf("expected {101, 0}, got {%d, %d}", ts.Sec, ts.NSec)
	}
}

func TestTimespecConversions(t *testing.T) {
	ts := NewTimespec(2, 250000000)
	if ts.ToNSec() != 2250000000 {
		t.Errorf("ToNSec() = %d", ts.ToNSec())
	}
	if ts.ToSec() != 2.25 {
		t.Errorf("ToSec() = %v", ts.ToSec())
	}
	if got := FromNSec(2250000000); got != ts {
		t.Errorf("FromNSec() = %+v", got)
	}
}

func TestTimespecCmp(t *testing.T) {
	a := NewTimespec(1, 0)
	b := NewTimespec(1, 1)
	if a.Cmp(b) != -1 || b.Cmp(a) != 1 || a.Cmp(a) != 0 {
		t.Errorf("Cmp ordering wrong: %d %d %d", a.Cmp(b), b.Cmp(a), a.Cmp(a))
	}
}

func TestDurationSigned(t *testing.T) {
	start := NewTimespec(10, 0)
	end := NewTimespec(10, 250000000)
	if d := Duration(start, end); d != 0.25 {
		t.Errorf("Duration = %v, want 0.25", d)
	}
	// A clock running backwards produces a plain negative duration.
	if d := Duration(end, start); d != -0.25 {
		t.Errorf("Duration = %v, want -0.25", d)
	}
}
