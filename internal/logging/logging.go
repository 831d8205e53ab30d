// Package logging builds the logrus logger shared by xlkit commands.
package logging

import (
	"io"
	"os"

	"github.com/sirupsen/logrus"
)

// FallbackLevel is used when the configured level cannot be parsed.
const FallbackLevel = logrus.WarnLevel

// New returns a text logger writing to w at the given level. A nil writer
// means stderr; an unknown level falls back to warn.
func New(level string, w io.Writer) *logrus.Logger {
	if w == nil {
		w = os.Stderr
	}

	l := logrus.New()
	l.SetOutput(w)
	l.SetFormatter(&logrus.TextFormatter{
		DisableTimestamp: true,
	})

	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		lvl = FallbackLevel
	}
	l.SetLevel(lvl)

	return l
}

// Verbose raises l to debug level.
func Verbose(l *logrus.Logger) {
	l.SetLevel(logrus.DebugLevel)
}
