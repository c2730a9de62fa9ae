package worker

import (
	"io/ioutil"
	"math"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"go.uber.org/atomic"

	"github.com/qbotics/looprate/rate"
)

func testLogger() rate.Logger {
	l := logrus.New()
	l.SetOutput(ioutil.Discard)
	return l
}

func waitDone(t *testing.T, w *Worker) {
	t.Helper()
	for i := 0; i < 200; i++ {
		if w.IsDone() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("worker [%s] did not terminate", w.Name())
}

func TestWorkerRequiresCallback(t *testing.T) {
	opts := NewOptions("test", 0.01, nil)
	opts.Logger = testLogger()
	if _, err := New(opts); err == nil {
		t.Error("New accepted a nil callback")
	}
}

func TestWorkerRejectsInvalidTimeStep(t *testing.T) {
	cb := func(Event) bool { return true }
	for _, timeStep := range []float64{-0.1, math.NaN(), math.Inf(-1)} {
		opts := NewOptions("test", timeStep, cb)
		opts.Logger = testLogger()
		if _, err := New(opts); err == nil {
			t.Errorf("New accepted time step %v", timeStep)
		}
	}
}

func TestWorkerRunOnce(t *testing.T) {
	var count atomic.Int64
	opts := NewOptions("once", math.Inf(1), func(e Event) bool {
		count.Inc()
		return true
	})
	opts.Logger = testLogger()

	w, err := New(opts)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if w.Rate() != nil {
		t.Error("run-once worker should have no rate")
	}
	if err := w.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	waitDone(t, w)

	if got := count.Load(); got != 1 {
		t.Errorf("callback ran %d times, want 1", got)
	}
}

func TestWorkerPeriodic(t *testing.T) {
	var count atomic.Int64
	opts := NewOptions("periodic", 0.01, func(e Event) bool {
		if e.TimeStep != 0.01 {
			t.Errorf("event time step = %v", e.TimeStep)
		}
		count.Inc()
		return true
	})
	opts.Logger = testLogger()

	w, err := New(opts)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := w.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if !w.IsRunning() {
		t.Error("IsRunning() = false after Start")
	}

	time.Sleep(100 * time.Millisecond)
	w.Stop(true)

	if !w.IsDone() {
		t.Error("IsDone() = false after Stop(true)")
	}
	got := count.Load()
	if got < 3 || got > 50 {
		t.Errorf("callback ran %d times in 100ms at 10ms cadence", got)
	}
	if w.Rate().NumTimeSteps() == 0 {
		t.Error("rate recorded no cycles")
	}
}

func TestWorkerFreeRunning(t *testing.T) {
	var count atomic.Int64
	opts := NewOptions("spin", 0.0, func(Event) bool {
		count.Inc()
		time.Sleep(time.Millisecond)
		return true
	})
	opts.Logger = testLogger()

	w, err := New(opts)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := w.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	time.Sleep(50 * time.Millisecond)
	w.Stop(true)

	if count.Load() < 2 {
		t.Errorf("free-running callback ran %d times", count.Load())
	}
}

func TestWorkerDoubleStart(t *testing.T) {
	opts := NewOptions("twice", 0.01, func(Event) bool { return true })
	opts.Logger = testLogger()

	w, err := New(opts)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := w.Start(); err != nil {
		t.Fatalf("first Start: %v", err)
	}
	if err := w.Start(); err == nil {
		t.Error("second Start succeeded")
	}
	w.Stop(true)
}

func TestWorkerSetTimeStep(t *testing.T) {
	opts := NewOptions("tune", 0.05, func(Event) bool { return true })
	opts.Logger = testLogger()

	w, err := New(opts)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	for _, v := range []float64{0.0, -0.1, math.NaN(), math.Inf(1)} {
		if err := w.SetTimeStep(v); err == nil {
			t.Errorf("SetTimeStep(%v) succeeded", v)
		}
	}
	if w.TimeStep() != 0.05 {
		t.Errorf("TimeStep() = %v after rejected updates", w.TimeStep())
	}

	if err := w.SetTimeStep(0.02); err != nil {
		t.Fatalf("SetTimeStep(0.02): %v", err)
	}
	if w.TimeStep() != 0.02 {
		t.Errorf("TimeStep() = %v", w.TimeStep())
	}
	// Thresholds follow the step.
	if w.Rate().MaxTimeStepWarning() != 0.02 {
		t.Errorf("MaxTimeStepWarning() = %v", w.Rate().MaxTimeStepWarning())
	}
	if !nearf(w.Rate().MaxTimeStepError(), 0.2) {
		t.Errorf("MaxTimeStepError() = %v", w.Rate().MaxTimeStepError())
	}
}

func nearf(a, b float64) bool {
	return math.Abs(a-b) <= 1e-12
}

func TestWorkerDestructible(t *testing.T) {
	opts := NewOptions("oneshot", math.Inf(1), func(Event) bool { return true })
	opts.DestructWhenDone = true
	opts.Logger = testLogger()

	w, err := New(opts)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if w.IsDestructible() {
		t.Error("IsDestructible() = true before the worker finished")
	}
	if err := w.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	waitDone(t, w)
	if !w.IsDestructible() {
		t.Error("IsDestructible() = false after the worker finished")
	}
}
