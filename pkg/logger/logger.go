// Package logger provides a process-wide structured logger.
//
// A single *slog.Logger lives behind an atomic.Pointer so it can be
// installed once at process start and read lock-free from every request
// goroutine afterward. Output defaults to a human-readable handler; set
// UNSTRUCTURED_LOGS=false to switch to JSON for production log shipping.
package logger

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"sync/atomic"
)

var singleton atomic.Pointer[slog.Logger]

func init() {
	singleton.Store(newLogger(unstructuredLogs()))
}

// Initialize (re)configures the singleton logger from the environment. It
// must be called once by every cmd/ entrypoint before any log calls.
func Initialize() {
	singleton.Store(newLogger(unstructuredLogs()))
}

// Get returns the current singleton logger.
func Get() *slog.Logger {
	return singleton.Load()
}

func newLogger(unstructured bool) *slog.Logger {
	opts := &slog.HandlerOptions{Level: slog.LevelInfo}
	if unstructured {
		return slog.New(slog.NewTextHandler(os.Stderr, opts))
	}
	return slog.New(slog.NewJSONHandler(os.Stderr, opts))
}

func unstructuredLogs() bool {
	return unstructuredLogsWithEnv(os.Getenv)
}

// unstructuredLogsWithEnv is split out from unstructuredLogs so tests can
// inject a fake environment reader without mutating process state.
func unstructuredLogsWithEnv(getenv func(string) string) bool {
	v := getenv("UNSTRUCTURED_LOGS")
	if v == "" {
		return true
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return true
	}
	return b
}

// Info logs at info level with structured key/value pairs.
func Info(msg string, args ...any) { Get().Info(msg, args...) }

// Warn logs at warn level with structured key/value pairs.
func Warn(msg string, args ...any) { Get().Warn(msg, args...) }

// Error logs at error level with structured key/value pairs.
func Error(msg string, args ...any) { Get().Error(msg, args...) }

// Debug logs at debug level with structured key/value pairs.
func Debug(msg string, args ...any) { Get().Debug(msg, args...) }

// Infof logs a formatted message at info level.
func Infof(format string, args ...any) { Get().Info(fmt.Sprintf(format, args...)) }

// Warnf logs a formatted message at warn level.
func Warnf(format string, args ...any) { Get().Warn(fmt.Sprintf(format, args...)) }

// Errorf logs a formatted message at error level.
func Errorf(format string, args ...any) { Get().Error(fmt.Sprintf(format, args...)) }

// Fatalf logs a formatted message at error level then exits the process.
func Fatalf(format string, args ...any) {
	Get().Error(fmt.Sprintf(format, args...))
	os.Exit(1)
}

// WithContext returns the singleton logger; context is accepted for
// call-site symmetry with handlers that carry request-scoped values and may
// later attach them as attributes.
func WithContext(_ context.Context) *slog.Logger {
	return Get()
}
