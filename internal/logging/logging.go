// Package logging configures the diagnostic logger shared by commands,
// services and the TUI.
//
// Diagnostics go to stderr and default to the warn level so normal command
// output stays clean. `--log-level debug` (or the log-level config key)
// exposes poll ticks, reconciles and transport failures.
package logging

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
)

// DefaultLevel is used when neither the flag nor the config sets a level.
const DefaultLevel = "warn"

var logger = newLogger(os.Stderr)

func newLogger(out io.Writer) *logrus.Logger {
	l := logrus.New()
	l.SetOutput(out)
	l.SetLevel(logrus.WarnLevel)
	l.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "15:04:05.000",
	})
	return l
}

// L returns the shared logger.
func L() *logrus.Logger { return logger }

// Configure sets the level and destination of the shared logger. An empty
// level keeps DefaultLevel; a nil writer keeps the current output.
func Configure(level string, out io.Writer) error {
	if strings.TrimSpace(level) == "" {
		level = DefaultLevel
	}
	lvl, err := logrus.ParseLevel(strings.ToLower(strings.TrimSpace(level)))
	if err != nil {
		return fmt.Errorf("logging: invalid level %q (expected panic, fatal, error, warn, info, debug or trace)", level)
	}
	logger.SetLevel(lvl)
	if out != nil {
		logger.SetOutput(out)
	}
	return nil
}

// Discard silences the shared logger. Intended for testing and for the
// full-screen TUI, which owns the terminal.
func Discard() {
	logger.SetOutput(io.Discard)
}

// Entity returns a logger entry scoped to one container operation.
func Entity(entityID string, fields logrus.Fields) *logrus.Entry {
	e := logger.WithField("container", entityID)
	if len(fields) > 0 {
		e = e.WithFields(fields)
	}
	return e
}
