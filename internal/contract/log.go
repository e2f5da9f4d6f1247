package contract

import (
	"io"
	"os"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

var (
	logMu  sync.RWMutex
	logger = newLogger(os.Stderr, zerolog.WarnLevel)
)

func newLogger(w io.Writer, level zerolog.Level) zerolog.Logger {
	output := zerolog.ConsoleWriter{Out: w, TimeFormat: time.Kitchen}
	return zerolog.New(output).Level(level).With().Timestamp().Logger()
}

// SetupLogging replaces the process logger with one writing to w at the given level.
func SetupLogging(w io.Writer, level zerolog.Level) {
	logMu.Lock()
	defer logMu.Unlock()
	logger = newLogger(w, level)
}

// Log returns the process logger.
func Log() *zerolog.Logger {
	logMu.RLock()
	defer logMu.RUnlock()
	l := logger
	return &l
}

// ComponentLogger returns a child logger tagged with a component name.
func ComponentLogger(component string) zerolog.Logger {
	return Log().With().Str("component", component).Logger()
}
