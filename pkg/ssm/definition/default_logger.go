package definition

import (
	"os"

	"github.com/sirupsen/logrus"
)

// The default logger used if the user does not provide its own
// implementation. Backed by logrus, writing to stderr.
type DefaultLogger struct {
	logger *logrus.Logger
	debug  bool
}

func NewDefaultLogger() *DefaultLogger {
	logger := logrus.New()
	logger.SetOutput(os.Stderr)
	logger.SetLevel(logrus.InfoLevel)
	logger.SetFormatter(&logrus.TextFormatter{
		FullTimestamp: true,
	})
	return &DefaultLogger{logger: logger}
}

func (l *DefaultLogger) Info(v ...interface{}) {
	l.logger.Info(v...)
}

func (l *DefaultLogger) Infof(format string, v ...interface{}) {
	l.logger.Infof(format, v...)
}

func (l *DefaultLogger) Warn(v ...interface{}) {
	l.logger.Warn(v...)
}

func (l *DefaultLogger) Warnf(format string, v ...interface{}) {
	l.logger.Warnf(format, v...)
}

func (l *DefaultLogger) Error(v ...interface{}) {
	l.logger.Error(v...)
}

func (l *DefaultLogger) Errorf(format string, v ...interface{}) {
	l.logger.Errorf(format, v...)
}

func (l *DefaultLogger) Debug(v ...interface{}) {
	l.logger.Debug(v...)
}

func (l *DefaultLogger) Debugf(format string, v ...interface{}) {
	l.logger.Debugf(format, v...)
}

func (l *DefaultLogger) ToggleDebug(value bool) bool {
	l.debug = value
	if value {
		l.logger.SetLevel(logrus.DebugLevel)
	} else {
		l.logger.SetLevel(logrus.InfoLevel)
	}
	return l.debug
}
