// Package param reads typed values out of a JSON parameter blob, the
// way a node configures its rates and workers from a parameter file.
// Missing keys fall back to a default and are logged at warning level,
// so a half-filled configuration is usable but visible.
package param

import (
	"strings"

	"github.com/buger/jsonparser"
	"github.com/pkg/errors"
	"go.uber.org/atomic"

	"github.com/qbotics/looprate/rate"
	"github.com/qbotics/looprate/worker"
)

// The logger is boxed so Store always sees the same concrete type,
// letting SetLogger race-free replace it while other goroutines log.
type loggerBox struct {
	l rate.Logger
}

var logger atomic.Value

func init() {
	logger.Store(loggerBox{rate.DefaultLogger()})
}

// SetLogger replaces the logger used for fallback warnings. Safe to
// call at any time, including while other goroutines read parameters.
func SetLogger(l rate.Logger) {
	if l != nil {
		logger.Store(loggerBox{l})
	}
}

func warnDefault(keys []string, def interface{}) {
	logger.Load().(loggerBox).l.Warnf("Parameter '%s' not found, using default: %v.", strings.Join(keys, "/"), def)
}

// Double reads a float64 at the given key path, or returns def.
func Double(data []byte, def float64, keys ...string) float64 {
	v, err := jsonparser.GetFloat(data, keys...)
	if err != nil {
		warnDefault(keys, def)
		return def
	}
	return v
}

// Int reads an int64 at the given key path, or returns def.
func Int(data []byte, def int64, keys ...string) int64 {
	v, err := jsonparser.GetInt(data, keys...)
	if err != nil {
		warnDefault(keys, def)
		return def
	}
	return v
}

// Bool reads a bool at the given key path, or returns def.
func Bool(data []byte, def bool, keys ...string) bool {
	v, err := jsonparser.GetBoolean(data, keys...)
	if err != nil {
		warnDefault(keys, def)
		return def
	}
	return v
}

// String reads a string at the given key path, or returns def.
func String(data []byte, def string, keys ...string) string {
	v, err := jsonparser.GetString(data, keys...)
	if err != nil {
		warnDefault(keys, def)
		return def
	}
	return v
}

// RateOptions builds rate.Options from the "rates" section of a
// parameter blob:
//
//	{
//	  "rates": {
//	    "controller": {
//	      "time_step": 0.0025,
//	      "max_time_step_warning": 0.003,
//	      "max_time_step_error": 0.025,
//	      "enforce_rate": true,
//	      "clock": "monotonic"
//	    }
//	  }
//	}
//
// The time step is mandatory; everything else defaults as in
// rate.NewOptions.
func RateOptions(data []byte, name string) (rate.Options, error) {
	timeStep, err := jsonparser.GetFloat(data, "rates", name, "time_step")
	if err != nil {
		return rate.Options{}, errors.Wrapf(err, "rate '%s': no time step configured", name)
	}

	opts := rate.NewOptions(name, timeStep)
	opts.MaxTimeStepWarning = Double(data, opts.MaxTimeStepWarning, "rates", name, "max_time_step_warning")
	opts.MaxTimeStepError = Double(data, opts.MaxTimeStepError, "rates", name, "max_time_step_error")
	opts.EnforceRate = Bool(data, opts.EnforceRate, "rates", name, "enforce_rate")

	clockName := String(data, opts.ClockID.String(), "rates", name, "clock")
	clockID, err := rate.ParseClockID(clockName)
	if err != nil {
		return rate.Options{}, errors.Wrapf(err, "rate '%s'", name)
	}
	opts.ClockID = clockID
	return opts, nil
}

// WorkerOptions builds worker.Options from the "workers" section of a
// parameter blob. The layout mirrors RateOptions with the additional
// "destruct_when_done" flag. The callback cannot come from
// configuration and is left for the caller to fill in.
func WorkerOptions(data []byte, name string) (worker.Options, error) {
	timeStep, err := jsonparser.GetFloat(data, "workers", name, "time_step")
	if err != nil {
		return worker.Options{}, errors.Wrapf(err, "worker [%s]: no time step configured", name)
	}

	opts := worker.NewOptions(name, timeStep, nil)
	opts.EnforceRate = Bool(data, opts.EnforceRate, "workers", name, "enforce_rate")
	opts.DestructWhenDone = Bool(data, opts.DestructWhenDone, "workers", name, "destruct_when_done")

	clockName := String(data, opts.ClockID.String(), "workers", name, "clock")
	clockID, err := rate.ParseClockID(clockName)
	if err != nil {
		return worker.Options{}, errors.Wrapf(err, "worker [%s]", name)
	}
	opts.ClockID = clockID
	return opts, nil
}
