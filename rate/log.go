package rate

import (
	modular "github.com/edwinhayes/logrus-modular"
	"github.com/sirupsen/logrus"
)

// Logger is the diagnostics sink for rates and workers.
type Logger interface {
	Debug(v ...interface{})
	Debugf(format string, v ...interface{})
	Info(v ...interface{})
	Infof(format string, v ...interface{})
	Warn(v ...interface{})
	Warnf(format string, v ...interface{})
	Error(v ...interface{})
	Errorf(format string, v ...interface{})
}

// Both plain logrus loggers and modular child loggers can be injected.
// ModuleLogger is itself an interface, so it is asserted directly.
var (
	_ Logger = (*logrus.Logger)(nil)
	_ Logger = (*logrus.Entry)(nil)
	_ Logger = (modular.ModuleLogger)(nil)
)

// DefaultLogger returns the logger used when none is injected.
func DefaultLogger() Logger {
	return logrus.StandardLogger()
}
