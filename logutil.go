/* SPDX-License-Identifier: BSD-2-Clause */

package httpwindow

import (
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"net/http/httputil"
	"strings"
)

// Logger is a minimal interface for debug/error logging.
type Logger interface {
	Debug(msg string, args ...any)
	Error(msg string, args ...any)
}

// LogFunc is a function type that implements Logger.
type LogFunc func(level, msg string, args ...any)

func (f LogFunc) Debug(msg string, args ...any) { f("DEBUG", msg, args...) }
func (f LogFunc) Error(msg string, args ...any) { f("ERROR", msg, args...) }

// StdLogger returns a simple default logger on the standard log package.
func StdLogger() Logger {
	return LogFunc(func(level, msg string, args ...any) {
		log.Print(level + ": " + fmt.Sprintln(append([]any{msg}, args...)...))
	})
}

// SlogLogger adapts a *slog.Logger for hosts that log through log/slog.
func SlogLogger(l *slog.Logger) Logger {
	return LogFunc(func(level, msg string, args ...any) {
		line := strings.TrimSuffix(fmt.Sprintln(append([]any{msg}, args...)...), "\n")
		if level == "ERROR" {
			l.Error(line)
		} else {
			l.Debug(line)
		}
	})
}

// NoopLogger discards all logs.
func NoopLogger() Logger { return LogFunc(func(string, string, ...any) {}) }

var logger Logger

// SetLogger sets an optional logger for debug output, including the
// per-stream fetch summary at Close. If nil, no logs are emitted.
func SetLogger(l Logger) {
	logger = l
}

func debugf(format string, args ...any) {
	if logger != nil {
		logger.Debug(fmt.Sprintf(format, args...))
	}
}

func logRequest(req *http.Request) {
	if logger != nil {
		if dump, err := httputil.DumpRequestOut(req, true); err == nil {
			logger.Debug("", string(dump))
		} else {
			logger.Error("Failed to dump request", err)
		}
	}
}

func logResponse(resp *http.Response) {
	if logger != nil {
		if dump, err := httputil.DumpResponse(resp, true); err == nil {
			logger.Debug("", string(dump))
		} else {
			logger.Error("Failed to dump response", err)
		}
	}
}
