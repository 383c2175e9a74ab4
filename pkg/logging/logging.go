// Package logging holds the shared structured logger used across trimesh.
package logging

import (
	"io"
	"os"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/chazu/trimesh/pkg/config"
)

var (
	once   sync.Once
	logger *log.Logger
)

func get() *log.Logger {
	once.Do(func() {
		logger = log.NewWithOptions(os.Stderr, log.Options{
			ReportTimestamp: true,
			TimeFormat:      time.RFC3339,
			Prefix:          "trimesh",
			Level:           log.InfoLevel,
		})
	})
	return logger
}

// Configure applies cfg to the shared logger. An unparsable level leaves the
// current level unchanged; config.Validate rejects those before they get here.
func Configure(cfg config.LogConfig) {
	l := get()
	if lvl, err := log.ParseLevel(cfg.Level); err == nil {
		l.SetLevel(lvl)
	}
	l.SetReportCaller(cfg.Caller)
}

// SetOutput redirects the shared logger.
func SetOutput(w io.Writer) {
	get().SetOutput(w)
}

// Logger returns the shared logger for callers that want key/value logging.
func Logger() *log.Logger {
	return get()
}

// Debug logs a printf-style message at debug level.
func Debug(msg string, args ...interface{}) {
	get().Debugf(msg, args...)
}

// Info logs a printf-style message at info level.
func Info(msg string, args ...interface{}) {
	get().Infof(msg, args...)
}

// Warn logs a printf-style message at warn level.
func Warn(msg string, args ...interface{}) {
	get().Warnf(msg, args...)
}

// Error logs a printf-style message at error level.
func Error(msg string, args ...interface{}) {
	get().Errorf(msg, args...)
}
