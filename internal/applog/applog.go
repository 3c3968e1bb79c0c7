// Package applog is a thin leveled-logging wrapper, generalizing
// golang-dep's minimal io.Writer-backed Logger (log/logger.go) into a
// structured, level-aware logger backed by logrus.
package applog

import (
	"os"
	"strings"

	"github.com/sirupsen/logrus"
)

// Logger wraps a *logrus.Logger the way golang-dep's Logger wraps an
// io.Writer, keeping a small call surface for the rest of the codebase.
type Logger struct {
	*logrus.Logger
}

// New returns a Logger writing to os.Stderr at the warn level, Kopi's
// default quiet verbosity.
func New() *Logger {
	l := logrus.New()
	l.SetOutput(os.Stderr)
	l.SetLevel(logrus.WarnLevel)
	l.SetFormatter(&logrus.TextFormatter{DisableTimestamp: true})
	return &Logger{Logger: l}
}

// SetVerbosity maps the CLI's repeated -v flag to a logrus level, per
// spec.md §6: 0 -> warn, 1 -> info, 2 -> debug, 3+ -> trace.
func (l *Logger) SetVerbosity(count int) {
	switch {
	case count <= 0:
		l.SetLevel(logrus.WarnLevel)
	case count == 1:
		l.SetLevel(logrus.InfoLevel)
	case count == 2:
		l.SetLevel(logrus.DebugLevel)
	default:
		l.SetLevel(logrus.TraceLevel)
	}
}

// ApplyEnvOverride applies RUST_LOG, if set, overriding whatever verbosity
// flags selected. RUST_LOG is kept as the literal variable name from
// spec.md §6's external contract even though the logger itself is not
// Rust-flavoured.
func (l *Logger) ApplyEnvOverride() {
	raw := os.Getenv("RUST_LOG")
	if raw == "" {
		return
	}
	// RUST_LOG may carry a module filter like "kopi=debug"; we only care
	// about the level, which is whatever follows the last '='.
	level := raw
	if idx := strings.LastIndex(raw, "="); idx != -1 {
		level = raw[idx+1:]
	}
	if lvl, err := logrus.ParseLevel(level); err == nil {
		l.SetLevel(lvl)
	}
}

// Logln logs a line at info level, mirroring golang-dep's Logger.Logln.
func (l *Logger) Logln(args ...interface{}) { l.Info(args...) }

// Logf logs a formatted line at info level, mirroring golang-dep's Logger.Logf.
func (l *Logger) Logf(format string, args ...interface{}) { l.Infof(format, args...) }
