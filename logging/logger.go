// Package logging provides the package-level *logrus.Logger used by pdfstamp.
package logging

import (
	"io"
	"sync/atomic"

	"github.com/sirupsen/logrus"
)

// logger holds the package-level logger instance.
// Defaults to nil, which causes Logger() to return a discard logger.
var logger atomic.Pointer[logrus.Logger]

// newDiscardLogger creates a logger that discards all output.
func newDiscardLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	l.SetLevel(logrus.PanicLevel)
	return l
}

// SetLogger configures the package-level logger.
// Pass nil to disable logging.
//
// SetLogger is safe for concurrent use.
//
// Example enabling debug output to stderr:
//
//	l := logrus.New()
//	l.SetOutput(os.Stderr)
//	l.SetLevel(logrus.DebugLevel)
//	logging.SetLogger(l)
func SetLogger(l *logrus.Logger) {
	if l == nil {
		logger.Store(newDiscardLogger())
	} else {
		logger.Store(l)
	}
}

// Logger returns the package-level logger.
// If no logger has been set via SetLogger, returns a logger
// that discards all output.
//
// Logger is safe for concurrent use.
func Logger() *logrus.Logger {
	l := logger.Load()
	if l == nil {
		l = newDiscardLogger()
		logger.CompareAndSwap(nil, l)
		l = logger.Load()
	}
	return l
}

// NewText returns a text-formatted logger writing to w, at debug level when
// debug is set and info level otherwise.
func NewText(w io.Writer, debug bool) *logrus.Logger {
	l := logrus.New()
	l.SetOutput(w)
	l.SetFormatter(&logrus.TextFormatter{DisableTimestamp: true})
	l.SetLevel(logrus.InfoLevel)
	if debug {
		l.SetLevel(logrus.DebugLevel)
	}
	return l
}
