// Package logging wires the structured logger shared by every jvmapi and
// resolve component. Every long-lived goroutine threads a *logrus.Entry
// through rather than reaching for a package-level global, so more than one
// dispatcher or resolver can run in the same process with distinguishable
// log streams.
package logging

import (
	"io"
	"os"

	"github.com/sirupsen/logrus"
)

// New returns a base logger writing to w (os.Stderr when w is nil) with the
// given component name attached as a field.
func New(component string, w io.Writer) *logrus.Entry {
	if w == nil {
		w = os.Stderr
	}

	l := logrus.New()
	l.SetOutput(w)
	l.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	return l.WithField("component", component)
}

// Discard returns a logger that drops everything, for tests and callers that
// don't want log output.
func Discard() *logrus.Entry {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l.WithField("component", "discard")
}
