// Package logging provides the structured logger shared by every daemon in
// this module. There is no package-level singleton: each daemon builds one
// *logrus.Logger at startup and passes it by reference into every component,
// per the system's "no ambient mutable state" design.
package logging

import (
	"io"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
)

// Config controls level/format/output for a process's logger.
type Config struct {
	Level  string
	Format string
	Output string
}

// New builds a *logrus.Logger from Config, defaulting to info level and
// text output with full timestamps when values are unset or unparseable.
func New(cfg Config) *logrus.Logger {
	log := logrus.New()

	level, err := logrus.ParseLevel(cfg.Level)
	if err != nil {
		level = logrus.InfoLevel
	}
	log.SetLevel(level)

	switch strings.ToLower(cfg.Format) {
	case "json":
		log.SetFormatter(&logrus.JSONFormatter{})
	default:
		log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}

	switch strings.ToLower(cfg.Output) {
	case "stderr":
		log.SetOutput(os.Stderr)
	default:
		log.SetOutput(io.Writer(os.Stdout))
	}

	return log
}

// NewDefault builds a logger with sensible defaults tagged with the
// component's name, used by the daemon entrypoints under cmd/.
func NewDefault(component string) *logrus.Entry {
	log := New(Config{Level: "info", Format: "text", Output: "stdout"})
	return log.WithField("component", component)
}
