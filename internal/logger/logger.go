// Package logger provides structured logging configuration for all services.
package logger

import (
	"log/slog"
	"os"
	"strings"
)

// LogFormat represents the output format for logs
type LogFormat string

const (
	// FormatJSON outputs logs in JSON format (production default)
	FormatJSON LogFormat = "json"
	// FormatText outputs logs in human-readable text format (development default)
	FormatText LogFormat = "text"
)

// New creates a structured logger for the named service based on environment
// configuration. The service name is attached to every record so logs from
// the gateway, users, content, email and files services can be told apart.
//
// LOG_LEVEL options: debug, info, warn, error (default: info)
// LOG_FORMAT options: json, text (default: json)
func New(service string) *slog.Logger {
	level := getLogLevel()
	format := getLogFormat()

	opts := &slog.HandlerOptions{
		Level: level,
		// Add source location for error and warn levels
		AddSource: level <= slog.LevelWarn,
	}

	var handler slog.Handler
	switch format {
	case FormatText:
		handler = slog.NewTextHandler(os.Stdout, opts)
	case FormatJSON:
		fallthrough
	default:
		handler = slog.NewJSONHandler(os.Stdout, opts)
	}

	return slog.New(handler).With("service", service)
}

// SetDefault sets the given logger as the default slog logger
func SetDefault(logger *slog.Logger) {
	slog.SetDefault(logger)
}

func getLogLevel() slog.Level {
	switch strings.ToLower(os.Getenv("LOG_LEVEL")) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func getLogFormat() LogFormat {
	switch strings.ToLower(os.Getenv("LOG_FORMAT")) {
	case "text":
		return FormatText
	default:
		return FormatJSON
	}
}
