// Package gdxlog is the observability collaborator named in spec §6: a
// logging sink with warn/info/debug levels that kernels hold behind an
// interface rather than importing a concrete logger, so gdx/algo never
// depends on logrus directly.
package gdxlog

import "github.com/sirupsen/logrus"

// Logger is the sink every kernel that needs to log accepts. The core
// emits Warn when clustering is requested on a floating-point raster,
// Info for the sum_within_travel_distance progress report, and Info
// from algo.Fix with the number of cells it rewrote (spec §6).
// algo.ValidateLDD takes no Logger: it reports defects only through
// its callbacks and logs nothing.
type Logger interface {
	Warn(args ...interface{})
	Warnf(format string, args ...interface{})
	Info(args ...interface{})
	Infof(format string, args ...interface{})
	Debug(args ...interface{})
	Debugf(format string, args ...interface{})
}

// Logrus adapts a *logrus.Logger (or *logrus.Entry) to Logger.
type Logrus struct {
	*logrus.Logger
}

// New returns a Logrus-backed Logger with the teacher's own default
// formatter (see cmd/inmapweb/main.go, emissions/slca/eieio/server.go).
func New() Logger {
	l := logrus.New()
	l.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	return Logrus{l}
}

// Nop is a Logger that discards everything, used as the default when a
// kernel function's caller passes no logger.
type Nop struct{}

func (Nop) Warn(args ...interface{})                 {}
func (Nop) Warnf(format string, args ...interface{}) {}
func (Nop) Info(args ...interface{})                 {}
func (Nop) Infof(format string, args ...interface{}) {}
func (Nop) Debug(args ...interface{})                {}
func (Nop) Debugf(format string, args ...interface{}) {}
