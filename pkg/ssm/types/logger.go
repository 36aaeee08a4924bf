package types

// Logger is the logging interface used across the library. The user
// can provide its own implementation, a default one backed by logrus
// lives in the definition package.
type Logger interface {
	Info(v ...interface{})
	Infof(format string, v ...interface{})

	Warn(v ...interface{})
	Warnf(format string, v ...interface{})

	Error(v ...interface{})
	Errorf(format string, v ...interface{})

	Debug(v ...interface{})
	Debugf(format string, v ...interface{})

	// ToggleDebug enables or disables debug output and returns the
	// new state.
	ToggleDebug(value bool) bool
}
