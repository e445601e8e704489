package internal

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/charmbracelet/log"
)

// LogLevel represents the logging level
type LogLevel int

const (
	LogLevelError LogLevel = iota
	LogLevelWarn
	LogLevelInfo
	LogLevelDebug
)

var (
	logMu    sync.RWMutex
	logLevel = LogLevelWarn
	logger   = newCharmLogger(os.Stderr)
	logFile  *os.File
)

func newCharmLogger(w io.Writer) *log.Logger {
	l := log.NewWithOptions(w, log.Options{
		ReportTimestamp: false,
		Prefix:          "ga4-analyst",
	})
	l.SetLevel(log.DebugLevel)
	return l
}

// SetLogLevel sets the global log level
func SetLogLevel(level LogLevel) {
	logMu.Lock()
	defer logMu.Unlock()
	logLevel = level
}

// SetVerbose enables verbose (debug) logging
func SetVerbose(verbose bool) {
	if verbose {
		SetLogLevel(LogLevelDebug)
	} else {
		SetLogLevel(LogLevelWarn)
	}
}

// ParseLogLevel converts a level name to a LogLevel
func ParseLogLevel(name string) (LogLevel, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "error":
		return LogLevelError, nil
	case "warn", "warning":
		return LogLevelWarn, nil
	case "info", "":
		return LogLevelInfo, nil
	case "debug":
		return LogLevelDebug, nil
	default:
		return LogLevelInfo, fmt.Errorf("unknown log level: %s", name)
	}
}

// ConfigureLogging sets the level and, when path is non-empty, redirects
// log output to that file.
func ConfigureLogging(level string, path string) error {
	lvl, err := ParseLogLevel(level)
	if err != nil {
		return err
	}
	SetLogLevel(lvl)

	if path == "" {
		return nil
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0600)
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}
	SetLogOutput(f)

	logMu.Lock()
	if logFile != nil {
		_ = logFile.Close()
	}
	logFile = f
	logMu.Unlock()
	return nil
}

// SetLogOutput replaces the log destination
func SetLogOutput(w io.Writer) {
	logMu.Lock()
	defer logMu.Unlock()
	logger = newCharmLogger(w)
}

func enabled(level LogLevel) bool {
	logMu.RLock()
	defer logMu.RUnlock()
	return logLevel >= level
}

func current() *log.Logger {
	logMu.RLock()
	defer logMu.RUnlock()
	return logger
}

// LogError logs an error message
func LogError(format string, args ...interface{}) {
	if enabled(LogLevelError) {
		current().Error(fmt.Sprintf(format, args...))
	}
}

// LogWarn logs a warning message
func LogWarn(format string, args ...interface{}) {
	if enabled(LogLevelWarn) {
		current().Warn(fmt.Sprintf(format, args...))
	}
}

// LogInfo logs an info message
func LogInfo(format string, args ...interface{}) {
	if enabled(LogLevelInfo) {
		current().Info(fmt.Sprintf(format, args...))
	}
}

// LogDebug logs a debug message
func LogDebug(format string, args ...interface{}) {
	if enabled(LogLevelDebug) {
		current().Debug(fmt.Sprintf(format, args...))
	}
}
