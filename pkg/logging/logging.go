// Package logging provides the leveled logger shared by the scheduler core
// and the CLI. Adapted from the collection-wide logger pattern: a single
// verbosity knob gating calls into the standard log package.
package logging

import (
	"log"

	"github.com/ntwriter/srscore/pkg/resync"
)

var (
	loggerOnce      resync.Once
	loggerSingleton *Logger
)

type VerboseLevel int

const (
	VerboseOff VerboseLevel = iota
	VerboseInfo
	VerboseDebug
	VerboseTrace
)

// Current returns the process-wide logger, creating it at VerboseOff on
// first use.
func Current() *Logger {
	loggerOnce.Do(func() {
		loggerSingleton = New()
	})
	return loggerSingleton
}

type Logger struct {
	verbose VerboseLevel
}

func New() *Logger {
	return &Logger{verbose: VerboseOff}
}

// SetVerboseLevel overrides the default verbose level and returns the
// logger for chaining.
func (l *Logger) SetVerboseLevel(level VerboseLevel) *Logger {
	l.verbose = level
	return l
}

func (l *Logger) Fatal(v ...any) {
	log.Fatalln(v...)
}
func (l *Logger) Fatalf(format string, v ...any) {
	log.Fatalf(format, v...)
}

func (l *Logger) Warn(v ...any) {
	log.Println(v...)
}
func (l *Logger) Warnf(format string, v ...any) {
	log.Printf(format, v...)
}

func (l *Logger) Info(v ...any) {
	if l.verbose >= VerboseInfo {
		log.Println(v...)
	}
}
func (l *Logger) Infof(format string, v ...any) {
	if l.verbose >= VerboseInfo {
		log.Printf(format, v...)
	}
}

func (l *Logger) Debug(v ...any) {
	if l.verbose >= VerboseDebug {
		log.Println(v...)
	}
}
func (l *Logger) Debugf(format string, v ...any) {
	if l.verbose >= VerboseDebug {
		log.Printf(format, v...)
	}
}

func (l *Logger) Trace(v ...any) {
	if l.verbose >= VerboseTrace {
		log.Println(v...)
	}
}
func (l *Logger) Tracef(format string, v ...any) {
	if l.verbose >= VerboseTrace {
		log.Printf(format, v...)
	}
}
